package attrs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewDefaultRegistry(DefaultConfig())
	require.NoError(t, err)
	return r
}

func TestRegister(t *testing.T) {
	r := newTestRegistry(t)

	spec := r.MustGet(Indent)
	assert.NoError(t, r.Register(spec), "повторная регистрация той же спецификации")

	other := spec
	other.Key = "padding-left"
	err := r.Register(other)
	assert.True(t, errors.Is(err, ErrDuplicateAttribute))

	other = spec
	other.Parse = func(string) any { return 0 }
	assert.ErrorIs(t, r.Register(other), ErrDuplicateAttribute)

	assert.ErrorIs(t, r.Register(AttributeSpec{Name: "broken"}), ErrInvalidSpec)

	custom := AttributeSpec{
		Name:      "spellcheck",
		AppliesTo: []string{"paragraph"},
		Default:   nil,
		Target:    TargetAttr,
		Key:       "spellcheck",
		Parse:     parseNonEmpty,
		Render:    renderString,
	}
	require.NoError(t, r.Register(custom))
	assert.True(t, r.Applies("spellcheck", "paragraph"))
	assert.False(t, r.Applies("spellcheck", "heading"))
}

func TestRegisterBuiltinOtherConfig(t *testing.T) {
	cfgA := Config{MaxIndent: 8, IndentUnit: 40}
	cfgB := Config{MaxIndent: 3, IndentUnit: 10}

	r, err := NewDefaultRegistry(cfgA)
	require.NoError(t, err)

	find := func(cfg Config, name string) AttributeSpec {
		for _, spec := range Builtin(cfg) {
			if spec.Name == name {
				return spec
			}
		}
		t.Fatalf("builtin %s not found", name)
		return AttributeSpec{}
	}

	assert.NoError(t, r.Register(find(cfgA, Indent)), "та же конфигурация")
	assert.ErrorIs(t, r.Register(find(cfgB, Indent)), ErrDuplicateAttribute)
	assert.ErrorIs(t, r.Register(find(cfgB, FontSize)), ErrDuplicateAttribute)

	assert.Equal(t, 2, r.MustGet(Indent).Parse("80px"))
	assert.Equal(t, 3, find(cfgB, Indent).Parse("80px"))
}

func TestRegistryLookups(t *testing.T) {
	r := newTestRegistry(t)

	names := []string{}
	for _, s := range r.ForType("paragraph") {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{Indent, LineHeight, TextAlign}, names)

	assert.Equal(t, map[string]any{
		Indent:     0,
		LineHeight: "normal",
		TextAlign:  "left",
	}, r.DefaultsFor("paragraph"))

	assert.ElementsMatch(t, []string{"paragraph", "heading"}, r.TypesFor(LineHeight))
	assert.Nil(t, r.TypesFor("unknown"))
	assert.Empty(t, r.DefaultsFor("bulletList"))
	assert.Contains(t, r.Names(), FontSize)
}

func TestRoundTrip(t *testing.T) {
	r := newTestRegistry(t)

	canonical := map[string][]any{
		FontSize:        {"12px", "1.5em", "120%"},
		LineHeight:      {"2.0", "1.15", "24px"},
		Indent:          {1, 2, 5, 8},
		TextAlign:       {"center", "right", "justify"},
		Color:           {"#ff0000", "#00ff0080"},
		BackgroundColor: {"#ffff00"},
		Href:            {"https://aiplan.ru/docs?x=1"},
		LinkTarget:      {"_blank"},
		Level:           {2, 6},
		Checked:         {true},
		Src:             {"/img/a.png"},
		Width:           {320},
		Language:        {"go"},
		Start:           {3},
	}

	for name, values := range canonical {
		spec := r.MustGet(name)
		for _, v := range values {
			raw, ok := spec.Render(v)
			require.True(t, ok, "%s: %v", name, v)
			assert.Equal(t, v, spec.Parse(raw), "%s: parse(render(%v))", name, v)
		}
	}
}

func TestDefaultTransparency(t *testing.T) {
	r := newTestRegistry(t)
	for _, name := range r.Names() {
		spec := r.MustGet(name)
		_, ok := spec.Render(spec.Default)
		assert.False(t, ok, name)
	}
}

func TestParse(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		attr string
		raw  string
		want any
	}{
		{"font size bare number", FontSize, "12", "12px"},
		{"font size quoted", FontSize, `"14px"`, "14px"},
		{"font size garbage", FontSize, "big", nil},
		{"line height quoted", LineHeight, ` '2.0' `, "2.0"},
		{"line height normal", LineHeight, "normal", "normal"},
		{"line height garbage", LineHeight, "2.0.1", "normal"},
		{"indent px", Indent, "80px", 2},
		{"indent rounding", Indent, "50px", 1},
		{"indent above max", Indent, "4000px", 8},
		{"indent negative", Indent, "-40px", 0},
		{"indent garbage", Indent, "wide", 0},
		{"indent important", Indent, "120px !important", 3},
		{"align upper", TextAlign, "CENTER", "center"},
		{"align garbage", TextAlign, "middle", "left"},
		{"color rgb", Color, "rgb(255, 0, 0)", "#ff0000"},
		{"color garbage", Color, "not-a-color", nil},
		{"href javascript", Href, "javascript:alert(1)", nil},
		{"level tag", Level, "h3", 3},
		{"level out of range", Level, "9", 6},
		{"checked", Checked, "true", true},
		{"checked garbage", Checked, "yes", false},
		{"width px", Width, "300px", 300},
		{"start garbage", Start, "x", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.MustGet(tt.attr).Parse(tt.raw))
		})
	}
}

func TestCoerce(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, 3, r.Coerce(Indent, float64(3)))
	assert.Equal(t, 8, r.Coerce(Indent, float64(42)))
	assert.Equal(t, 2, r.Coerce(Indent, "2"))
	assert.Equal(t, "12px", r.Coerce(FontSize, float64(12)))
	assert.Equal(t, "2", r.Coerce(LineHeight, 2.0))
	assert.Equal(t, 4, r.Coerce(Level, float64(4)))
	assert.Equal(t, true, r.Coerce(Checked, true))
	assert.Equal(t, "left", r.Coerce(TextAlign, nil))
}

func TestIndentFromClass(t *testing.T) {
	cfg := DefaultConfig()

	level, ok := IndentFromClass(cfg, "foo tt-indent-3")
	assert.True(t, ok)
	assert.Equal(t, 3, level)

	level, ok = IndentFromClass(cfg, "tt-indent-12")
	assert.True(t, ok)
	assert.Equal(t, 8, level)

	_, ok = IndentFromClass(cfg, "tt-indent-x")
	assert.False(t, ok)
}

func TestConfigSanitize(t *testing.T) {
	r := NewRegistry(Config{MinIndent: -2, MaxIndent: -5, IndentUnit: 0})
	cfg := r.Config()
	assert.Equal(t, 0, cfg.MinIndent)
	assert.Equal(t, 8, cfg.MaxIndent)
	assert.Equal(t, 40, cfg.IndentUnit)
	assert.Equal(t, "normal", cfg.DefaultLineHeight)

	r, err := NewDefaultRegistry(Config{MaxIndent: 4, IndentUnit: 20})
	require.NoError(t, err)
	assert.Equal(t, 4, r.MustGet(Indent).Parse("200px"))
	raw, ok := r.MustGet(Indent).Render(3)
	assert.True(t, ok)
	assert.Equal(t, "60px", raw)
}
