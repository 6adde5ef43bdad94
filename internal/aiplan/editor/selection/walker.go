// Пакет selection обходит узлы документа, попадающие в выделение.
package selection

import (
	"iter"
	"slices"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

// Filter отбирает узлы для выдачи. Фильтр не ограничивает спуск в потомков.
type Filter func(node *edtypes.Node) bool

// Types фильтр по именам типов узлов.
func Types[T ~string](types ...T) Filter {
	return func(node *edtypes.Node) bool {
		return slices.Contains(types, T(node.Type))
	}
}

// Textblocks фильтр блоков со строчным содержимым.
func Textblocks(node *edtypes.Node) bool {
	return node.IsTextblock()
}

// Walk лениво выдаёт пары (узел, позиция) в прямом порядке обхода.
//
// Для непустого выделения выдаются все узлы, чей диапазон [pos, pos+size) пересекается с [From, To).
// Для каретки выдаётся цепочка блоков, содержимое которых содержит каретку, последним идёт
// самый глубокий. Обход привязан к переданной версии документа, каждый range начинает его заново.
func Walk(doc *edtypes.Document, sel edtypes.Selection, filter Filter) iter.Seq2[*edtypes.Node, int] {
	sel = sel.Normalize(doc.Size())
	return func(yield func(*edtypes.Node, int) bool) {
		if sel.Empty() {
			walkCaret(doc.Root, 0, sel.From, filter, yield)
			return
		}
		walkRange(doc.Root, 0, sel.From, sel.To, filter, yield)
	}
}

func walkRange(n *edtypes.Node, start, from, to int, filter Filter, yield func(*edtypes.Node, int) bool) bool {
	pos := start
	for _, child := range n.Content {
		if pos >= to {
			break
		}
		end := pos + child.NodeSize()
		if end > from {
			if filter == nil || filter(child) {
				if !yield(child, pos) {
					return false
				}
			}
			if !child.IsLeaf() && !walkRange(child, pos+1, from, to, filter, yield) {
				return false
			}
		}
		pos = end
	}
	return true
}

func walkCaret(n *edtypes.Node, start, caret int, filter Filter, yield func(*edtypes.Node, int) bool) {
	pos := start
	for _, child := range n.Content {
		end := pos + child.NodeSize()
		if child.IsLeaf() || caret <= pos || caret >= end {
			pos = end
			continue
		}
		if filter == nil || filter(child) {
			if !yield(child, pos) {
				return
			}
		}
		walkCaret(child, pos+1, caret, filter, yield)
		return
	}
}

// Effective возвращает диапазон строчного содержимого, на который действуют команды марок.
// Непустое выделение возвращается как есть, для каретки берётся всё содержимое
// охватывающего текстового блока. ok == false, если каретка вне текстового блока.
func Effective(doc *edtypes.Document, sel edtypes.Selection) (edtypes.Selection, bool) {
	sel = sel.Normalize(doc.Size())
	if !sel.Empty() {
		return sel, true
	}
	var (
		block *edtypes.Node
		at    int
	)
	for node, pos := range Walk(doc, sel, Textblocks) {
		block, at = node, pos
	}
	if block == nil {
		return sel, false
	}
	return edtypes.Selection{From: at + 1, To: at + 1 + block.ContentSize()}, true
}

// InlineRuns выдаёт текстовые узлы внутри диапазона вместе с их позициями.
// Текст блоков, не допускающих марки, пропускается.
func InlineRuns(doc *edtypes.Document, sel edtypes.Selection) iter.Seq2[*edtypes.Node, int] {
	return func(yield func(*edtypes.Node, int) bool) {
		skipUntil := -1
		for node, pos := range Walk(doc, sel, nil) {
			if pos < skipUntil {
				continue
			}
			if node.IsTextblock() && !node.AllowsMarks() {
				skipUntil = pos + node.NodeSize()
				continue
			}
			if node.IsText() && !yield(node, pos) {
				return
			}
		}
	}
}
