package config

import (
	"testing"
	"time"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/stretchr/testify/assert"
)

func TestReadConfigDefaults(t *testing.T) {
	cfg := ReadConfig()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, attrs.DefaultConfig(), cfg.AttrConfig())
	assert.Equal(t, time.Hour, cfg.SessionTTL())
	assert.Equal(t, 200*time.Millisecond, cfg.NotifyDebounce())
	assert.Equal(t, 16, cfg.HistoryDepth)
	assert.Nil(t, cfg.WebURL)
}

func TestReadConfigEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("INDENT_MAX", "4")
	t.Setenv("INDENT_UNIT_PX", "24")
	t.Setenv("DEFAULT_TEXT_ALIGN", "justify")
	t.Setenv("HISTORY_DEPTH", "-3")
	t.Setenv("MCP_ENABLE", "true")
	t.Setenv("MCP_TOKEN", "secret-token")
	t.Setenv("WEB_URL", "https://aiplan.example")

	cfg := ReadConfig()

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, attrs.Config{
		MinIndent:         0,
		MaxIndent:         4,
		IndentUnit:        24,
		DefaultLineHeight: "normal",
		DefaultTextAlign:  edtypes.TextAlign("justify"),
	}, cfg.AttrConfig())
	assert.Equal(t, 16, cfg.HistoryDepth)
	assert.True(t, cfg.MCPEnable)
	assert.Equal(t, "secret-token", cfg.MCPToken)
	assert.Equal(t, "aiplan.example", cfg.WebURL.Host)
}

func TestMask(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"secret-token", "s**********n"},
		{"ab", "**"},
		{"токен", "т***н"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mask(tt.in))
	}
	assert.True(t, isSecret("MCPToken"))
	assert.False(t, isSecret("HTTPAddr"))
}
