// Управление конфигурацией сервера редактора из переменных окружения.
// Содержит структуру Config для хранения параметров и функцию ReadConfig для их загрузки.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Преобразование типов данных из переменных окружения (string, int, bool).
//   - Маскировка секретных значений (token, secret) в логах.
//   - Значения по умолчанию и ограничение значений (границы отступа, интервал уведомлений, глубина истории).
//   - Сборка конфигурации реестра атрибутов редактора.
package config

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR"`

	WebURLRaw string `env:"WEB_URL"`
	WebURL    *url.URL

	IndentMin         int    `env:"INDENT_MIN"`
	IndentMax         int    `env:"INDENT_MAX"`
	IndentUnitPx      int    `env:"INDENT_UNIT_PX"`
	DefaultLineHeight string `env:"DEFAULT_LINE_HEIGHT"`
	DefaultTextAlign  string `env:"DEFAULT_TEXT_ALIGN"`

	SessionTTLMinutes     int    `env:"SESSION_TTL_MINUTES"`
	SessionsCleanSchedule string `env:"SESSIONS_CLEAN_SCHEDULE"`
	MaxSessions           int    `env:"MAX_SESSIONS"`
	HistoryDepth          int    `env:"HISTORY_DEPTH"`
	NotifyDebounceMs      int    `env:"NOTIFY_DEBOUNCE_MS"`
	MaxDocumentBytes      int    `env:"MAX_DOCUMENT_BYTES"`

	MCPEnable     bool   `env:"MCP_ENABLE"`
	MCPToken      string `env:"MCP_TOKEN"`
	MetricsEnable bool   `env:"METRICS_ENABLE"`
}

// ReadConfig загружает конфигурацию из переменных окружения, подставляет значения по умолчанию
// и прижимает значения к допустимым границам.
func ReadConfig() *Config {
	config := &Config{}
	envConfig("env", config)
	config.sanitize()
	return config
}

func (c *Config) sanitize() {
	def := attrs.DefaultConfig()

	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}

	if c.WebURLRaw != "" {
		u, err := url.Parse(c.WebURLRaw)
		if err != nil {
			slog.Warn("WEB_URL incorrect, CORS origin disabled", "err", err)
		} else {
			c.WebURL = u
		}
	}

	if c.IndentMin < 0 {
		c.IndentMin = def.MinIndent
	}
	if c.IndentMax <= 0 || c.IndentMax < c.IndentMin {
		c.IndentMax = def.MaxIndent
	}
	if c.IndentUnitPx <= 0 {
		c.IndentUnitPx = def.IndentUnit
	}
	if c.DefaultLineHeight == "" {
		c.DefaultLineHeight = def.DefaultLineHeight
	}
	if _, ok := edtypes.ParseTextAlign(c.DefaultTextAlign); !ok {
		c.DefaultTextAlign = string(def.DefaultTextAlign)
	}

	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = 60
	}
	if c.SessionsCleanSchedule == "" {
		c.SessionsCleanSchedule = "*/5 * * * *"
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 1000
	}
	if c.HistoryDepth <= 0 || c.HistoryDepth > 1000 {
		c.HistoryDepth = 16
	}
	if c.NotifyDebounceMs < 0 || c.NotifyDebounceMs > 10000 {
		c.NotifyDebounceMs = 200
	}
	if c.MaxDocumentBytes <= 0 {
		c.MaxDocumentBytes = 1 << 20
	}
}

// AttrConfig конфигурация реестра атрибутов.
func (c *Config) AttrConfig() attrs.Config {
	return attrs.Config{
		MinIndent:         c.IndentMin,
		MaxIndent:         c.IndentMax,
		IndentUnit:        c.IndentUnitPx,
		DefaultLineHeight: c.DefaultLineHeight,
		DefaultTextAlign:  edtypes.TextAlign(c.DefaultTextAlign),
	}
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) NotifyDebounce() time.Duration {
	return time.Duration(c.NotifyDebounceMs) * time.Millisecond
}
