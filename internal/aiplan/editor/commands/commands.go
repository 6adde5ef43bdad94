// Пакет commands содержит команды редактора.
//
// Команда получает снимок состояния и функцию dispatch. Команда с dispatch == nil ничего не применяет
// и только отвечает, применима ли она (сухой прогон). Команды не хранят состояния между вызовами.
package commands

import (
	"errors"
	"iter"
	"log/slog"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/selection"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/transaction"
)

// State снимок, с которым выполняется команда.
type State struct {
	Doc       *edtypes.Document
	Selection edtypes.Selection
	Registry  *attrs.Registry
}

// Tr начинает транзакцию над документом состояния.
func (s State) Tr() transaction.Transaction {
	return transaction.Begin(s.Doc, s.Registry)
}

type Dispatch func(tx transaction.Transaction)

type Command func(state State, dispatch Dispatch) bool

// Can выполняет сухой прогон команды.
func Can(cmd Command, state State) bool {
	return cmd(state, nil)
}

type blockUpdate func(state State, node *edtypes.Node) edtypes.Attrs

// updateBlocks пишет атрибут name в каждый блок выделения, принимающий его.
// Команда неуспешна, если хоть один шаг не удалось добавить, но удавшиеся шаги всё равно отправляются.
func updateBlocks(name string, update blockUpdate) Command {
	return func(state State, dispatch Dispatch) bool {
		filter := selection.Types(state.Registry.TypesFor(name)...)
		tx, ok := updateEach(state, name, selection.Walk(state.Doc, state.Selection, filter), update)
		if dispatch != nil && !tx.Empty() {
			dispatch(tx)
		}
		return ok
	}
}

// updateEach пробует все блоки. Узлы, не принимающие атрибут, пропускаются без ошибки.
func updateEach(state State, name string, blocks iter.Seq2[*edtypes.Node, int], update blockUpdate) (transaction.Transaction, bool) {
	tx := state.Tr()
	ok := true
	for node, pos := range blocks {
		next, err := tx.SetNodeAttrs(pos, update(state, node))
		switch {
		case err == nil:
			tx = next
		case errors.Is(err, transaction.ErrUnsupportedNodeType):
		default:
			slog.Debug("Command step rejected", "attr", name, "pos", pos, "err", err)
			ok = false
		}
	}
	return tx, ok
}

func setBlockAttr(name string, value any) Command {
	return updateBlocks(name, func(state State, _ *edtypes.Node) edtypes.Attrs {
		if value == nil {
			return edtypes.Attrs{name: nil}
		}
		return edtypes.Attrs{name: state.Registry.Coerce(name, value)}
	})
}

// SetLineHeight ставит межстрочный интервал всем параграфам и заголовкам выделения.
func SetLineHeight(value string) Command {
	return setBlockAttr(attrs.LineHeight, value)
}

func UnsetLineHeight() Command {
	return setBlockAttr(attrs.LineHeight, nil)
}

func SetTextAlign(align string) Command {
	return setBlockAttr(attrs.TextAlign, align)
}

func UnsetTextAlign() Command {
	return setBlockAttr(attrs.TextAlign, nil)
}

// IncreaseIndent увеличивает отступ каждого блока выделения на уровень.
// Уровень прижимается к границам конфигурации, на границе шаг всё равно добавляется.
// Отступ вложенных блоков не меняется вместе с родителем.
func IncreaseIndent() Command {
	return indent(1)
}

func DecreaseIndent() Command {
	return indent(-1)
}

func indent(delta int) Command {
	return updateBlocks(attrs.Indent, func(state State, node *edtypes.Node) edtypes.Attrs {
		current, _ := node.Attrs[attrs.Indent].(int)
		return edtypes.Attrs{attrs.Indent: attrs.ClampIndent(state.Registry.Config(), current+delta)}
	})
}
