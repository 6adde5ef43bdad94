package transaction

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

// Dropped шаг, не применённый при коммите.
type Dropped struct {
	Index int
	Step  Step
	Err   error
}

// Report итог коммита.
type Report struct {
	Applied int
	Dropped []Dropped
}

func (r Report) Changed() bool {
	return r.Applied > 0
}

// Commit применяет шаги к документу, от которого строилась транзакция.
func Commit(tx Transaction) (*edtypes.Document, Report) {
	return CommitOnto(tx, tx.doc)
}

// CommitOnto применяет шаги к doc, который может быть новее исходного документа транзакции.
// Шаги, чьи позиции не разрешаются в doc, отбрасываются, остальные применяются по порядку.
// Если не применён ни один шаг, возвращается doc без новой версии.
func CommitOnto(tx Transaction, doc *edtypes.Document) (*edtypes.Document, Report) {
	p := &plan{
		registry:  tx.registry,
		nodeAttrs: make(map[int][]edtypes.Attrs),
	}

	var rep Report
	for i, step := range tx.steps {
		if err := p.add(doc, step); err != nil {
			slog.Debug("Transaction step dropped", "step", step.Kind, "index", i, "err", err)
			rep.Dropped = append(rep.Dropped, Dropped{Index: i, Step: step, Err: err})
			continue
		}
		rep.Applied++
	}
	if rep.Applied == 0 {
		return doc, rep
	}

	return doc.Next(p.rebuild(doc.Root, 0)), rep
}

// plan шаги, разрешённые относительно одной версии документа.
// Ни один шаг не меняет размеры узлов, поэтому позиции остаются валидными на всём проходе.
type plan struct {
	registry  *attrs.Registry
	nodeAttrs map[int][]edtypes.Attrs
	attrPos   []int
	marks     []Step
}

func (p *plan) add(doc *edtypes.Document, step Step) error {
	switch step.Kind {
	case SetNodeAttrsStep:
		node, ok := doc.NodeAt(step.Pos)
		if !ok || node.IsText() {
			return fmt.Errorf("%w: %d", ErrStalePosition, step.Pos)
		}
		filtered := filterAttrs(p.registry, string(node.Type), step.Attrs)
		if len(filtered) == 0 {
			return fmt.Errorf("%w: %s", ErrUnsupportedNodeType, node.Type)
		}
		if _, ok := p.nodeAttrs[step.Pos]; !ok {
			p.attrPos = append(p.attrPos, step.Pos)
		}
		p.nodeAttrs[step.Pos] = append(p.nodeAttrs[step.Pos], filtered)
	case SetMarkStep, RemoveMarkStep:
		if err := checkRange(doc, step.From, step.To); err != nil {
			return err
		}
		p.marks = append(p.marks, step)
	default:
		return fmt.Errorf("unknown step kind %s", step.Kind)
	}
	return nil
}

// touches сообщает, есть ли шаги внутри узла, занимающего [from, to).
func (p *plan) touches(from, to int) bool {
	for _, pos := range p.attrPos {
		if pos > from && pos < to {
			return true
		}
	}
	for _, st := range p.marks {
		if st.From < to-1 && st.To > from+1 {
			return true
		}
	}
	return false
}

// rebuild возвращает узел n с применёнными шагами; start - позиция начала содержимого n.
// Если внутри n ничего не изменилось, возвращается тот же указатель.
func (p *plan) rebuild(n *edtypes.Node, start int) *edtypes.Node {
	content, changed := n.Content, false
	if n.AllowsMarks() && len(p.marks) > 0 {
		content, changed = p.applyMarks(content, start)
	}

	pos := start
	for i, child := range content {
		size := child.NodeSize()
		c := child
		if patches, ok := p.nodeAttrs[pos]; ok && !c.IsText() {
			c = c.WithAttrs(p.merge(string(c.Type), c.Attrs, patches...))
		}
		if !c.IsLeaf() && p.touches(pos, pos+size) {
			c = p.rebuild(c, pos+1)
		}
		if c != child {
			if !changed {
				content = slices.Clone(content)
				changed = true
			}
			content[i] = c
		}
		pos += size
	}

	if !changed {
		return n
	}
	return n.WithContent(content)
}

// merge сливает атрибуты. nil или значение по умолчанию удаляет ключ,
// так что состояние по умолчанию хранится как отсутствие ключа.
func (p *plan) merge(typ string, base edtypes.Attrs, patches ...edtypes.Attrs) edtypes.Attrs {
	merged := base.Clone()
	if merged == nil {
		merged = make(edtypes.Attrs)
	}
	for _, patch := range patches {
		for k, v := range patch {
			spec, ok := p.registry.Get(k)
			if v == nil || (ok && spec.Applies(typ) && spec.IsDefault(v)) {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
	}
	return merged
}

func (p *plan) applyMarks(content []*edtypes.Node, start int) ([]*edtypes.Node, bool) {
	end := start
	for _, c := range content {
		end += c.NodeSize()
	}

	changed := false
	for _, st := range p.marks {
		if st.From >= end || st.To <= start {
			continue
		}
		if next, ok := p.applyMarkStep(content, start, st); ok {
			content, changed = next, true
		}
	}
	if changed {
		content = edtypes.NormalizeInline(content)
	}
	return content, changed
}

// applyMarkStep делит текстовые узлы по границам шага и меняет марки средней части.
func (p *plan) applyMarkStep(content []*edtypes.Node, start int, st Step) ([]*edtypes.Node, bool) {
	out := make([]*edtypes.Node, 0, len(content)+2)
	changed := false
	pos := start
	for _, c := range content {
		size := c.NodeSize()
		from, to := max(st.From, pos), min(st.To, pos+size)
		if !c.IsText() || from >= to {
			out = append(out, c)
			pos += size
			continue
		}

		marks := p.updateMarks(c.Marks, st)
		if edtypes.SameMarks(marks, c.Marks) {
			out = append(out, c)
			pos += size
			continue
		}

		changed = true
		if from > pos {
			out = append(out, c.Cut(0, from-pos))
		}
		out = append(out, c.Cut(from-pos, to-pos).WithMarks(marks))
		if to < pos+size {
			out = append(out, c.Cut(to-pos, size))
		}
		pos += size
	}
	return out, changed
}

func (p *plan) updateMarks(marks []edtypes.Mark, st Step) []edtypes.Mark {
	if st.Kind == RemoveMarkStep {
		return edtypes.RemoveMark(marks, st.MarkType)
	}

	typ := st.Mark.Type
	var base edtypes.Attrs
	if old, ok := edtypes.FindMark(marks, typ); ok {
		base = old.Attrs
	}
	merged := p.merge(string(typ), base, st.Mark.Attrs)
	if len(merged) == 0 {
		merged = nil
		if typ.RemoveWhenEmpty() {
			return edtypes.RemoveMark(marks, typ)
		}
	}
	return edtypes.AddMark(marks, edtypes.Mark{Type: typ, Attrs: merged})
}
