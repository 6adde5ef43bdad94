package aiplan

import (
	"time"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/commands"
	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	"github.com/prometheus/client_golang/prometheus"
)

type editorMetrics struct {
	commands *prometheus.CounterVec
	loads    *prometheus.CounterVec
}

func newEditorMetrics(reg prometheus.Registerer, sessions *store.SessionStore) (*editorMetrics, error) {
	m := &editorMetrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aiplan",
			Subsystem: "editor",
			Name:      "commands_total",
			Help:      "Editor commands by name and result",
		}, []string{"command", "result"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aiplan",
			Subsystem: "editor",
			Name:      "document_loads_total",
			Help:      "Documents loaded into sessions by format",
		}, []string{"format"}),
	}

	bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "aiplan",
		Subsystem: "editor",
		Name:      "boot_time",
		Help:      "Server startup time",
	})
	bootTimeGauge.Set(float64(time.Now().UnixMilli()))

	sessionsGauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "aiplan",
		Subsystem: "editor",
		Name:      "sessions",
		Help:      "Open editor sessions",
	}, func() float64 { return float64(sessions.Len()) })

	for _, c := range []prometheus.Collector{m.commands, m.loads, bootTimeGauge, sessionsGauge} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// commandResult учитывает выполнение команды. Неизвестные имена сводятся к одной метке.
func (m *editorMetrics) commandResult(name string, applied bool, dryRun bool) {
	if _, ok := commands.Lookup(name); !ok {
		name = "unknown"
	}
	result := "rejected"
	switch {
	case dryRun && applied:
		result = "can"
	case dryRun:
		result = "cannot"
	case applied:
		result = "applied"
	}
	m.commands.WithLabelValues(name, result).Inc()
}
