package attrs

import (
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

// Config конфигурация встроенных атрибутов.
type Config struct {
	MinIndent         int
	MaxIndent         int
	IndentUnit        int // px на уровень отступа
	DefaultLineHeight string
	DefaultTextAlign  edtypes.TextAlign
}

func DefaultConfig() Config {
	return Config{
		MinIndent:         0,
		MaxIndent:         8,
		IndentUnit:        40,
		DefaultLineHeight: "normal",
		DefaultTextAlign:  edtypes.LeftAlign,
	}
}

func (c Config) sanitize() Config {
	def := DefaultConfig()
	if c.MinIndent < 0 {
		c.MinIndent = 0
	}
	if c.MaxIndent < c.MinIndent {
		c.MaxIndent = c.MinIndent
	}
	if c.MinIndent == 0 && c.MaxIndent == 0 {
		c.MaxIndent = def.MaxIndent
	}
	if c.IndentUnit <= 0 {
		c.IndentUnit = def.IndentUnit
	}
	if c.DefaultLineHeight == "" {
		c.DefaultLineHeight = def.DefaultLineHeight
	}
	if _, ok := edtypes.ParseTextAlign(string(c.DefaultTextAlign)); !ok {
		c.DefaultTextAlign = def.DefaultTextAlign
	}
	return c
}
