package attrs

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

// Имена встроенных атрибутов.
const (
	FontSize        = "fontSize"
	LineHeight      = "lineHeight"
	Indent          = "indent"
	TextAlign       = "textAlign"
	Color           = "color"
	BackgroundColor = "backgroundColor"
	Href            = "href"
	LinkTarget      = "target"
	Level           = "level"
	Checked         = "checked"
	Src             = "src"
	Alt             = "alt"
	Width           = "width"
	Language        = "language"
	Start           = "start"
)

const indentClassPrefix = "tt-indent-"

var (
	fontSizeReg   = regexp.MustCompile(`^\d+(\.\d+)?(px|pt|em|rem|%)$`)
	lineHeightReg = regexp.MustCompile(`^\d+(\.\d+)?(px|pt|em|rem|%)?$`)
	numberReg     = regexp.MustCompile(`^\d+(\.\d+)?$`)
	languageReg   = regexp.MustCompile(`^[a-z0-9_+#-]+$`)
)

var (
	textStyleTypes = []string{string(edtypes.TextStyleMark)}
	blockTypes     = []string{string(edtypes.ParagraphNode), string(edtypes.HeadingNode)}
)

// Builtin возвращает встроенные атрибуты редактора для конфигурации cfg.
func Builtin(cfg Config) []AttributeSpec {
	cfg = cfg.sanitize()
	lineHeightDefault := clean(cfg.DefaultLineHeight)
	alignDefault := string(cfg.DefaultTextAlign)

	specs := []AttributeSpec{
		{
			Name:      FontSize,
			AppliesTo: textStyleTypes,
			Default:   nil,
			Target:    TargetStyle,
			Key:       "font-size",
			Parse:     parseFontSize,
			Render:    renderString,
			Coerce: func(v any) any {
				if f, ok := toFloat(v); ok {
					return parseFontSize(formatFloat(f))
				}
				return parseFontSize(fmt.Sprint(v))
			},
		},
		{
			Name:      LineHeight,
			AppliesTo: blockTypes,
			Default:   lineHeightDefault,
			Target:    TargetStyle,
			Key:       "line-height",
			Parse: func(raw string) any {
				s := strings.ToLower(clean(raw))
				if lineHeightReg.MatchString(s) {
					return s
				}
				return lineHeightDefault
			},
			Render: func(v any) (string, bool) {
				s, ok := v.(string)
				if !ok || s == "" || s == lineHeightDefault {
					return "", false
				}
				return s, true
			},
		},
		{
			Name:      Indent,
			AppliesTo: blockTypes,
			Default:   0,
			Target:    TargetStyle,
			Key:       "margin-left",
			Parse: func(raw string) any {
				s := strings.ToLower(clean(raw))
				s = strings.TrimSuffix(s, "px")
				px, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil || math.IsNaN(px) || math.IsInf(px, 0) {
					return 0
				}
				return ClampIndent(cfg, int(math.Round(px/float64(cfg.IndentUnit))))
			},
			Render: func(v any) (string, bool) {
				level, ok := v.(int)
				if !ok || level == 0 {
					return "", false
				}
				return fmt.Sprintf("%dpx", ClampIndent(cfg, level)*cfg.IndentUnit), true
			},
			Coerce: func(v any) any {
				if f, ok := toFloat(v); ok {
					return ClampIndent(cfg, int(math.Round(f)))
				}
				if s, ok := v.(string); ok {
					if n, err := strconv.Atoi(clean(s)); err == nil {
						return ClampIndent(cfg, n)
					}
				}
				return 0
			},
		},
		{
			Name:      TextAlign,
			AppliesTo: blockTypes,
			Default:   alignDefault,
			Target:    TargetStyle,
			Key:       "text-align",
			Parse: func(raw string) any {
				if a, ok := edtypes.ParseTextAlign(clean(raw)); ok {
					return string(a)
				}
				return alignDefault
			},
			Render: func(v any) (string, bool) {
				s, ok := v.(string)
				if !ok || s == "" || s == alignDefault {
					return "", false
				}
				return s, true
			},
		},
		{
			Name:      Color,
			AppliesTo: textStyleTypes,
			Default:   nil,
			Target:    TargetStyle,
			Key:       "color",
			Parse:     parseColor,
			Render:    renderString,
		},
		{
			Name:      BackgroundColor,
			AppliesTo: []string{string(edtypes.HighlightMark)},
			Default:   nil,
			Target:    TargetStyle,
			Key:       "background-color",
			Parse:     parseColor,
			Render:    renderString,
		},
		{
			Name:      Href,
			AppliesTo: []string{string(edtypes.LinkMark)},
			Default:   nil,
			Target:    TargetAttr,
			Key:       "href",
			Parse: func(raw string) any {
				s := clean(raw)
				u, err := url.Parse(s)
				if s == "" || err != nil || strings.EqualFold(u.Scheme, "javascript") {
					return nil
				}
				return s
			},
			Render: renderString,
		},
		{
			Name:      LinkTarget,
			AppliesTo: []string{string(edtypes.LinkMark)},
			Default:   nil,
			Target:    TargetAttr,
			Key:       "target",
			Parse: func(raw string) any {
				switch s := strings.ToLower(clean(raw)); s {
				case "_blank", "_self", "_parent", "_top":
					return s
				}
				return nil
			},
			Render: renderString,
		},
		{
			Name:      Level,
			AppliesTo: []string{string(edtypes.HeadingNode)},
			Default:   1,
			Target:    TargetTag,
			Key:       "h",
			Parse: func(raw string) any {
				n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(clean(raw)), "h"))
				if err != nil {
					return 1
				}
				return edtypes.Clamp(n, 1, 6)
			},
			Render: func(v any) (string, bool) {
				n, ok := v.(int)
				if !ok || n == 1 {
					return "", false
				}
				return strconv.Itoa(edtypes.Clamp(n, 1, 6)), true
			},
			Coerce: func(v any) any {
				if f, ok := toFloat(v); ok {
					return edtypes.Clamp(int(f), 1, 6)
				}
				return 1
			},
		},
		{
			Name:      Checked,
			AppliesTo: []string{string(edtypes.TaskItemNode)},
			Default:   false,
			Target:    TargetAttr,
			Key:       "data-checked",
			Parse: func(raw string) any {
				b, _ := strconv.ParseBool(clean(raw))
				return b
			},
			Render: func(v any) (string, bool) {
				if b, ok := v.(bool); ok && b {
					return "true", true
				}
				return "", false
			},
			Coerce: func(v any) any {
				b, _ := v.(bool)
				return b
			},
		},
		{
			Name:      Src,
			AppliesTo: []string{string(edtypes.ImageNode)},
			Default:   nil,
			Target:    TargetAttr,
			Key:       "src",
			Parse:     parseNonEmpty,
			Render:    renderString,
		},
		{
			Name:      Alt,
			AppliesTo: []string{string(edtypes.ImageNode)},
			Default:   nil,
			Target:    TargetAttr,
			Key:       "alt",
			Parse:     parseNonEmpty,
			Render:    renderString,
		},
		{
			Name:      Width,
			AppliesTo: []string{string(edtypes.ImageNode)},
			Default:   0,
			Target:    TargetStyle,
			Key:       "width",
			Parse: func(raw string) any {
				s := strings.TrimSuffix(strings.ToLower(clean(raw)), "px")
				f, err := strconv.ParseFloat(s, 64)
				if err != nil || f < 0 || math.IsInf(f, 0) {
					return 0
				}
				return int(math.Round(f))
			},
			Render: func(v any) (string, bool) {
				n, ok := v.(int)
				if !ok || n <= 0 {
					return "", false
				}
				return fmt.Sprintf("%dpx", n), true
			},
			Coerce: func(v any) any {
				if f, ok := toFloat(v); ok && f > 0 {
					return int(math.Round(f))
				}
				return 0
			},
		},
		{
			Name:      Language,
			AppliesTo: []string{string(edtypes.CodeBlockNode)},
			Default:   nil,
			Target:    TargetAttr,
			Key:       "data-language",
			Parse: func(raw string) any {
				s := strings.ToLower(clean(raw))
				if languageReg.MatchString(s) {
					return s
				}
				return nil
			},
			Render: renderString,
		},
		{
			Name:      Start,
			AppliesTo: []string{string(edtypes.OrderedListNode)},
			Default:   1,
			Target:    TargetAttr,
			Key:       "start",
			Parse: func(raw string) any {
				n, err := strconv.Atoi(clean(raw))
				if err != nil || n < 0 {
					return 1
				}
				return n
			},
			Render: func(v any) (string, bool) {
				n, ok := v.(int)
				if !ok || n == 1 {
					return "", false
				}
				return strconv.Itoa(n), true
			},
			Coerce: func(v any) any {
				if f, ok := toFloat(v); ok && f >= 0 {
					return int(f)
				}
				return 1
			},
		},
	}

	origin := builtinOrigin(cfg)
	for i := range specs {
		specs[i].Origin = origin
	}
	return specs
}

// builtinOrigin идентичность встроенных спецификаций: замыкания разных конфигураций
// имеют один адрес кода, поэтому различаются по снимку конфигурации.
func builtinOrigin(cfg Config) string {
	return fmt.Sprintf("builtin:%d:%d:%d:%s:%s", cfg.MinIndent, cfg.MaxIndent, cfg.IndentUnit, cfg.DefaultLineHeight, cfg.DefaultTextAlign)
}

// ClampIndent прижимает уровень отступа к границам конфигурации.
func ClampIndent(cfg Config, level int) int {
	return edtypes.Clamp(level, cfg.MinIndent, cfg.MaxIndent)
}

// IndentFromClass разбирает устаревший класс отступа tt-indent-N.
func IndentFromClass(cfg Config, class string) (int, bool) {
	for _, c := range strings.Fields(class) {
		if !strings.HasPrefix(c, indentClassPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(c, indentClassPrefix))
		if err != nil {
			continue
		}
		return ClampIndent(cfg, n), true
	}
	return 0, false
}

func parseFontSize(raw string) any {
	s := strings.ToLower(clean(raw))
	if numberReg.MatchString(s) {
		s += "px"
	}
	if fontSizeReg.MatchString(s) {
		return s
	}
	return nil
}

func parseColor(raw string) any {
	c, err := edtypes.ParseColor(clean(raw))
	if err != nil {
		return nil
	}
	return c.Hex()
}

func parseNonEmpty(raw string) any {
	if s := clean(raw); s != "" {
		return s
	}
	return nil
}

func renderString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// clean убирает пробелы, кавычки и !important вокруг значения.
func clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "!important"))
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
