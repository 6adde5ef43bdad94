package edtypes

import (
	"slices"
)

type MarkType string

const (
	LinkMark        MarkType = "link"
	BoldMark        MarkType = "bold"
	ItalicMark      MarkType = "italic"
	UnderlineMark   MarkType = "underline"
	StrikeMark      MarkType = "strike"
	CodeMark        MarkType = "code"
	SuperscriptMark MarkType = "superscript"
	SubscriptMark   MarkType = "subscript"
	TextStyleMark   MarkType = "textStyle"
	HighlightMark   MarkType = "highlight"
)

// Порядок марок на текстовом узле, он же порядок вложенности тегов при рендере (первый снаружи).
var markRank = map[MarkType]int{
	LinkMark:        0,
	BoldMark:        1,
	ItalicMark:      2,
	UnderlineMark:   3,
	StrikeMark:      4,
	CodeMark:        5,
	SuperscriptMark: 6,
	SubscriptMark:   7,
	HighlightMark:   8,
	TextStyleMark:   9,
}

// Взаимоисключающие марки.
var markExcludes = map[MarkType]MarkType{
	SuperscriptMark: SubscriptMark,
	SubscriptMark:   SuperscriptMark,
}

func (t MarkType) Known() bool {
	_, ok := markRank[t]
	return ok
}

// RemoveWhenEmpty true для марок, которые без атрибутов теряют смысл (textStyle).
func (t MarkType) RemoveWhenEmpty() bool {
	return t == TextStyleMark
}

// MarkTypes возвращает известные типы марок в порядке вложенности.
func MarkTypes() []MarkType {
	res := make([]MarkType, 0, len(markRank))
	for t := range markRank {
		res = append(res, t)
	}
	slices.SortFunc(res, func(a, b MarkType) int { return markRank[a] - markRank[b] })
	return res
}

type Mark struct {
	Type  MarkType
	Attrs Attrs
}

func NewMark(t MarkType, attrs Attrs) Mark {
	return Mark{Type: t, Attrs: attrs.Clone()}
}

func (m Mark) Eq(o Mark) bool {
	return m.Type == o.Type && m.Attrs.Equal(o.Attrs)
}

func rank(t MarkType) int {
	if r, ok := markRank[t]; ok {
		return r
	}
	return len(markRank)
}

// SortMarks возвращает копию набора в каноническом порядке.
func SortMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	res := slices.Clone(marks)
	slices.SortStableFunc(res, func(a, b Mark) int {
		if d := rank(a.Type) - rank(b.Type); d != 0 {
			return d
		}
		if a.Type < b.Type {
			return -1
		}
		if a.Type > b.Type {
			return 1
		}
		return 0
	})
	return res
}

func FindMark(marks []Mark, t MarkType) (Mark, bool) {
	for _, m := range marks {
		if m.Type == t {
			return m, true
		}
	}
	return Mark{}, false
}

// AddMark кладёт марку в набор, заменяя марку того же типа и исключаемые ею марки.
func AddMark(marks []Mark, m Mark) []Mark {
	res := make([]Mark, 0, len(marks)+1)
	for _, old := range marks {
		if old.Type == m.Type || markExcludes[m.Type] == old.Type {
			continue
		}
		res = append(res, old)
	}
	res = append(res, m)
	return SortMarks(res)
}

func RemoveMark(marks []Mark, t MarkType) []Mark {
	res := make([]Mark, 0, len(marks))
	for _, old := range marks {
		if old.Type != t {
			res = append(res, old)
		}
	}
	if len(res) == 0 {
		return nil
	}
	return res
}

// SameMarks сравнивает наборы марок, оба набора должны быть в каноническом порядке.
func SameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}
