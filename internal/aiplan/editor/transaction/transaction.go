// Пакет transaction собирает и применяет шаги изменения документа.
//
// Transaction - значение: каждый метод-построитель возвращает новую транзакцию, исходная не меняется.
// Коммит перестраивает только затронутые пути дерева, остальные поддеревья разделяются с прошлой версией.
package transaction

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

var (
	ErrStalePosition       = errors.New("stale position")
	ErrUnsupportedNodeType = errors.New("unsupported node type")
)

type StepKind int

const (
	SetNodeAttrsStep StepKind = iota
	SetMarkStep
	RemoveMarkStep
)

func (k StepKind) String() string {
	switch k {
	case SetNodeAttrsStep:
		return "setNodeAttrs"
	case SetMarkStep:
		return "setMark"
	case RemoveMarkStep:
		return "removeMark"
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Step один шаг транзакции.
// SetNodeAttrsStep использует Pos и Attrs (nil значение удаляет ключ),
// шаги марок используют диапазон [From, To) и Mark/MarkType.
type Step struct {
	Kind     StepKind
	Pos      int
	From     int
	To       int
	Attrs    edtypes.Attrs
	Mark     edtypes.Mark
	MarkType edtypes.MarkType
}

type Transaction struct {
	doc      *edtypes.Document
	registry *attrs.Registry
	steps    []Step
}

// Begin начинает транзакцию над версией документа doc.
func Begin(doc *edtypes.Document, registry *attrs.Registry) Transaction {
	return Transaction{doc: doc, registry: registry}
}

// Doc версия документа, от которой строилась транзакция.
func (tx Transaction) Doc() *edtypes.Document {
	return tx.doc
}

func (tx Transaction) Steps() []Step {
	return slices.Clone(tx.steps)
}

func (tx Transaction) Len() int {
	return len(tx.steps)
}

func (tx Transaction) Empty() bool {
	return len(tx.steps) == 0
}

func (tx Transaction) with(step Step) Transaction {
	tx.steps = append(slices.Clip(tx.steps), step)
	return tx
}

// SetNodeAttrs добавляет слияние атрибутов узла, начинающегося в pos.
// Ключи, не применимые к типу узла, отбрасываются. Если не осталось ни одного,
// возвращается ErrUnsupportedNodeType и транзакция не меняется.
func (tx Transaction) SetNodeAttrs(pos int, a edtypes.Attrs) (Transaction, error) {
	node, ok := tx.doc.NodeAt(pos)
	if !ok || node.IsText() {
		return tx, fmt.Errorf("%w: %d", ErrStalePosition, pos)
	}
	filtered := filterAttrs(tx.registry, string(node.Type), a)
	if len(filtered) == 0 {
		return tx, fmt.Errorf("%w: %s", ErrUnsupportedNodeType, node.Type)
	}
	return tx.with(Step{Kind: SetNodeAttrsStep, Pos: pos, Attrs: filtered}), nil
}

// SetMark добавляет марку на текст в [from, to). Атрибуты сливаются с атрибутами
// марки того же типа, если она уже есть.
func (tx Transaction) SetMark(from, to int, mark edtypes.Mark) (Transaction, error) {
	if err := checkRange(tx.doc, from, to); err != nil {
		return tx, err
	}
	if !mark.Type.Known() {
		return tx, fmt.Errorf("%w: %s", ErrUnsupportedNodeType, mark.Type)
	}
	filtered := filterAttrs(tx.registry, string(mark.Type), mark.Attrs)
	if len(mark.Attrs) > 0 && len(filtered) == 0 {
		return tx, fmt.Errorf("%w: %s", ErrUnsupportedNodeType, mark.Type)
	}
	return tx.with(Step{Kind: SetMarkStep, From: from, To: to, Mark: edtypes.Mark{Type: mark.Type, Attrs: filtered}}), nil
}

// RemoveMark снимает марку типа t с текста в [from, to).
func (tx Transaction) RemoveMark(from, to int, t edtypes.MarkType) (Transaction, error) {
	if err := checkRange(tx.doc, from, to); err != nil {
		return tx, err
	}
	return tx.with(Step{Kind: RemoveMarkStep, From: from, To: to, MarkType: t}), nil
}

func checkRange(doc *edtypes.Document, from, to int) error {
	if from < 0 || to > doc.Size() || from >= to {
		return fmt.Errorf("%w: [%d, %d)", ErrStalePosition, from, to)
	}
	return nil
}

// filterAttrs оставляет ключи, применимые к типу typ. nil значения сохраняются: они удаляют ключ.
func filterAttrs(registry *attrs.Registry, typ string, a edtypes.Attrs) edtypes.Attrs {
	var res edtypes.Attrs
	for k, v := range a {
		if !registry.Applies(k, typ) {
			continue
		}
		if res == nil {
			res = make(edtypes.Attrs, len(a))
		}
		res[k] = v
	}
	return res
}
