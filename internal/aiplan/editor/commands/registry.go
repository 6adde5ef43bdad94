package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

var ErrInvalidArgs = errors.New("invalid command arguments")

// Args аргументы именованной команды, как они пришли от хоста (обычно из JSON).
type Args map[string]any

// String обязательный строковый аргумент. Числа и булевы значения переводятся в строку.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgs, key)
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return "", fmt.Errorf("%w: %s is empty", ErrInvalidArgs, key)
		}
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	}
	return "", fmt.Errorf("%w: %s has type %T", ErrInvalidArgs, key, v)
}

// OptionalString необязательный строковый аргумент.
func (a Args) OptionalString(key string) (string, error) {
	if v, ok := a[key]; !ok || v == nil {
		return "", nil
	}
	return a.String(key)
}

// Attrs необязательный аргумент-объект атрибутов.
func (a Args) Attrs(key string) (edtypes.Attrs, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case map[string]any:
		return edtypes.Attrs(val).Clone(), nil
	case edtypes.Attrs:
		return val.Clone(), nil
	}
	return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidArgs, key)
}

// Factory собирает команду из аргументов.
type Factory func(args Args) (Command, error)

// Definition описание именованной команды.
type Definition struct {
	Name        string
	Description string
	Args        []string
	Factory     Factory
}

func noArgs(cmd func() Command) Factory {
	return func(Args) (Command, error) {
		return cmd(), nil
	}
}

func stringArg(key string, cmd func(string) Command) Factory {
	return func(args Args) (Command, error) {
		v, err := args.String(key)
		if err != nil {
			return nil, err
		}
		return cmd(v), nil
	}
}

func toggle(t edtypes.MarkType) Factory {
	return func(args Args) (Command, error) {
		a, err := args.Attrs("attrs")
		if err != nil {
			return nil, err
		}
		return ToggleMark(t, a), nil
	}
}

var definitions = []Definition{
	{"setFontSize", "Размер шрифта выделенного текста (марка textStyle)", []string{"size"}, stringArg("size", SetFontSize)},
	{"unsetFontSize", "Сброс размера шрифта", nil, noArgs(UnsetFontSize)},
	{"setLineHeight", "Межстрочный интервал параграфов и заголовков выделения", []string{"lineHeight"}, stringArg("lineHeight", SetLineHeight)},
	{"unsetLineHeight", "Сброс межстрочного интервала", nil, noArgs(UnsetLineHeight)},
	{"increaseIndent", "Увеличение отступа блоков выделения на один уровень", nil, noArgs(IncreaseIndent)},
	{"decreaseIndent", "Уменьшение отступа блоков выделения на один уровень", nil, noArgs(DecreaseIndent)},
	{"setTextAlign", "Выравнивание параграфов и заголовков (left, center, right, justify)", []string{"alignment"}, stringArg("alignment", SetTextAlign)},
	{"unsetTextAlign", "Сброс выравнивания", nil, noArgs(UnsetTextAlign)},
	{"setColor", "Цвет выделенного текста", []string{"color"}, stringArg("color", SetColor)},
	{"unsetColor", "Сброс цвета текста", nil, noArgs(UnsetColor)},
	{"setHighlight", "Подсветка выделенного текста", []string{"color?"}, func(args Args) (Command, error) {
		c, err := args.OptionalString("color")
		if err != nil {
			return nil, err
		}
		return SetHighlight(c), nil
	}},
	{"unsetHighlight", "Снятие подсветки", nil, func(Args) (Command, error) {
		return UnsetMark(edtypes.HighlightMark), nil
	}},
	{"setLink", "Ссылка на выделенный текст", []string{"href", "target?"}, func(args Args) (Command, error) {
		href, err := args.String("href")
		if err != nil {
			return nil, err
		}
		target, err := args.OptionalString("target")
		if err != nil {
			return nil, err
		}
		return SetLink(href, target), nil
	}},
	{"unsetLink", "Снятие ссылки", nil, func(Args) (Command, error) {
		return UnsetMark(edtypes.LinkMark), nil
	}},
	{"toggleMark", "Переключение марки type с атрибутами attrs", []string{"type", "attrs?"}, func(args Args) (Command, error) {
		t, err := args.String("type")
		if err != nil {
			return nil, err
		}
		if !edtypes.MarkType(t).Known() {
			return nil, fmt.Errorf("%w: unknown mark type %q", ErrInvalidArgs, t)
		}
		return toggle(edtypes.MarkType(t))(args)
	}},
	{"toggleBold", "Полужирный", []string{"attrs?"}, toggle(edtypes.BoldMark)},
	{"toggleItalic", "Курсив", []string{"attrs?"}, toggle(edtypes.ItalicMark)},
	{"toggleUnderline", "Подчёркивание", []string{"attrs?"}, toggle(edtypes.UnderlineMark)},
	{"toggleStrike", "Зачёркивание", []string{"attrs?"}, toggle(edtypes.StrikeMark)},
	{"toggleCode", "Моноширинный код", []string{"attrs?"}, toggle(edtypes.CodeMark)},
	{"toggleSuperscript", "Верхний индекс", []string{"attrs?"}, toggle(edtypes.SuperscriptMark)},
	{"toggleSubscript", "Нижний индекс", []string{"attrs?"}, toggle(edtypes.SubscriptMark)},
}

var byName = func() map[string]Definition {
	m := make(map[string]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Name] = d
	}
	return m
}()

// Lookup ищет фабрику команды по имени.
func Lookup(name string) (Factory, bool) {
	d, ok := byName[name]
	return d.Factory, ok
}

// Definitions возвращает каталог команд в порядке объявления.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}
