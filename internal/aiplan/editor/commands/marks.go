package commands

import (
	"log/slog"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/selection"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/transaction"
)

// markRange диапазон строчного содержимого для команд марок.
// Для каретки это всё содержимое текущего текстового блока.
// Диапазон без текста, принимающего марки (например, внутри блока кода), не подходит.
func markRange(state State) (edtypes.Selection, bool) {
	sel, ok := selection.Effective(state.Doc, state.Selection)
	if !ok || sel.Empty() {
		return sel, false
	}
	for range selection.InlineRuns(state.Doc, sel) {
		return sel, true
	}
	return sel, false
}

func finish(tx transaction.Transaction, err error, dispatch Dispatch) bool {
	if err != nil {
		slog.Debug("Mark command rejected", "err", err)
		return false
	}
	if dispatch != nil {
		dispatch(tx)
	}
	return true
}

// SetMark добавляет марку на выделение, сливая атрибуты с уже стоящей маркой того же типа.
func SetMark(t edtypes.MarkType, a edtypes.Attrs) Command {
	return func(state State, dispatch Dispatch) bool {
		sel, ok := markRange(state)
		if !ok {
			return false
		}
		tx, err := state.Tr().SetMark(sel.From, sel.To, edtypes.NewMark(t, coerceAttrs(state.Registry, a)))
		return finish(tx, err, dispatch)
	}
}

// UnsetMark снимает марку с выделения.
func UnsetMark(t edtypes.MarkType) Command {
	return func(state State, dispatch Dispatch) bool {
		sel, ok := markRange(state)
		if !ok {
			return false
		}
		tx, err := state.Tr().RemoveMark(sel.From, sel.To, t)
		return finish(tx, err, dispatch)
	}
}

// ToggleMark: марки нет хотя бы на части текста - ставится, есть везде с теми же атрибутами - снимается,
// есть с другими атрибутами - атрибуты заменяются.
func ToggleMark(t edtypes.MarkType, a edtypes.Attrs) Command {
	return func(state State, dispatch Dispatch) bool {
		sel, ok := markRange(state)
		if !ok {
			return false
		}

		want := normalizeAttrs(state.Registry, string(t), coerceAttrs(state.Registry, a))
		present, same, runs := markState(state, sel, t, want)
		if runs == 0 {
			return false
		}

		tx, err := state.Tr().RemoveMark(sel.From, sel.To, t)
		if err == nil && !(present && same) {
			tx, err = tx.SetMark(sel.From, sel.To, edtypes.NewMark(t, want))
		}
		return finish(tx, err, dispatch)
	}
}

// markState проверяет, стоит ли марка на всех текстовых узлах диапазона и совпадают ли атрибуты.
func markState(state State, sel edtypes.Selection, t edtypes.MarkType, want edtypes.Attrs) (present, same bool, runs int) {
	present, same = true, true
	for node := range selection.InlineRuns(state.Doc, sel) {
		runs++
		m, ok := edtypes.FindMark(node.Marks, t)
		if !ok {
			present = false
			continue
		}
		if !m.Attrs.Equal(want) {
			same = false
		}
	}
	return present && runs > 0, same, runs
}

func SetFontSize(size string) Command {
	return withValue(attrs.FontSize, size, SetMark(edtypes.TextStyleMark, edtypes.Attrs{attrs.FontSize: size}))
}

// UnsetFontSize убирает размер шрифта, пустая марка textStyle снимается целиком.
func UnsetFontSize() Command {
	return SetMark(edtypes.TextStyleMark, edtypes.Attrs{attrs.FontSize: nil})
}

func SetColor(color string) Command {
	return withValue(attrs.Color, color, SetMark(edtypes.TextStyleMark, edtypes.Attrs{attrs.Color: color}))
}

func UnsetColor() Command {
	return SetMark(edtypes.TextStyleMark, edtypes.Attrs{attrs.Color: nil})
}

// SetHighlight подсвечивает выделение, пустой цвет - подсветка по умолчанию.
func SetHighlight(color string) Command {
	if color == "" {
		return SetMark(edtypes.HighlightMark, nil)
	}
	return withValue(attrs.BackgroundColor, color, SetMark(edtypes.HighlightMark, edtypes.Attrs{attrs.BackgroundColor: color}))
}

func SetLink(href, target string) Command {
	a := edtypes.Attrs{attrs.Href: href}
	if target != "" {
		a[attrs.LinkTarget] = target
	}
	return withValue(attrs.Href, href, SetMark(edtypes.LinkMark, a))
}

// withValue отклоняет команду, если значение атрибута не распознано.
func withValue(name string, raw any, cmd Command) Command {
	return func(state State, dispatch Dispatch) bool {
		if state.Registry.Coerce(name, raw) == nil {
			return false
		}
		return cmd(state, dispatch)
	}
}

// coerceAttrs приводит значения к канонической форме атрибутов. nil сохраняется: он удаляет ключ.
func coerceAttrs(registry *attrs.Registry, a edtypes.Attrs) edtypes.Attrs {
	if len(a) == 0 {
		return nil
	}
	res := make(edtypes.Attrs, len(a))
	for k, v := range a {
		if v == nil {
			res[k] = nil
			continue
		}
		res[k] = registry.Coerce(k, v)
	}
	return res
}

// normalizeAttrs оставляет применимые к типу значения, отличные от значения по умолчанию.
func normalizeAttrs(registry *attrs.Registry, typ string, a edtypes.Attrs) edtypes.Attrs {
	var res edtypes.Attrs
	for k, v := range a {
		spec, ok := registry.Get(k)
		if !ok || !spec.Applies(typ) || spec.IsDefault(v) {
			continue
		}
		if res == nil {
			res = make(edtypes.Attrs, len(a))
		}
		res[k] = v
	}
	return res
}
