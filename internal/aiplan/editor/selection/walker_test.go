package selection_test

import (
	"testing"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/selection"
	"github.com/stretchr/testify/assert"
)

type visit struct {
	Type edtypes.NodeType
	Pos  int
}

// <p>one</p><h2>two</h2><ul><li><p>xy</p></li></ul><pre>code</pre>
func testDoc() *edtypes.Document {
	return edtypes.NewDocument(
		edtypes.NewNode(edtypes.ParagraphNode, nil, edtypes.NewText("one")),
		edtypes.NewNode(edtypes.HeadingNode, edtypes.Attrs{"level": 2}, edtypes.NewText("two")),
		edtypes.NewNode(edtypes.BulletListNode, nil,
			edtypes.NewNode(edtypes.ListItemNode, nil,
				edtypes.NewNode(edtypes.ParagraphNode, nil, edtypes.NewText("xy")),
			),
		),
		edtypes.NewNode(edtypes.CodeBlockNode, nil, edtypes.NewText("code")),
	)
}

func collect(doc *edtypes.Document, sel edtypes.Selection, filter selection.Filter) []visit {
	var res []visit
	for node, pos := range selection.Walk(doc, sel, filter) {
		res = append(res, visit{node.Type, pos})
	}
	return res
}

func TestWalk(t *testing.T) {
	doc := testDoc()
	// позиции: p 0..5, h 5..10, ul 10..18 (li 11, p 12, text 13), pre 18..24

	tests := []struct {
		name   string
		sel    edtypes.Selection
		filter selection.Filter
		want   []visit
	}{
		{
			name: "whole document blocks",
			sel:  edtypes.Selection{From: 0, To: doc.Size()},
			filter: selection.Types(
				edtypes.ParagraphNode, edtypes.HeadingNode,
			),
			want: []visit{{edtypes.ParagraphNode, 0}, {edtypes.HeadingNode, 5}, {edtypes.ParagraphNode, 12}},
		},
		{
			name:   "range inside paragraph and heading",
			sel:    edtypes.Selection{From: 2, To: 7},
			filter: nil,
			want: []visit{
				{edtypes.ParagraphNode, 0}, {edtypes.TextNode, 1},
				{edtypes.HeadingNode, 5}, {edtypes.TextNode, 6},
			},
		},
		{
			name:   "end is exclusive",
			sel:    edtypes.Selection{From: 1, To: 5},
			filter: selection.Textblocks,
			want:   []visit{{edtypes.ParagraphNode, 0}},
		},
		{
			name:   "filter does not prune descent",
			sel:    edtypes.Selection{From: 10, To: 18},
			filter: selection.Types("paragraph"),
			want:   []visit{{edtypes.ParagraphNode, 12}},
		},
		{
			name:   "caret in nested paragraph",
			sel:    edtypes.Caret(14),
			filter: nil,
			want: []visit{
				{edtypes.BulletListNode, 10}, {edtypes.ListItemNode, 11}, {edtypes.ParagraphNode, 12},
			},
		},
		{
			name:   "caret between blocks",
			sel:    edtypes.Caret(5),
			filter: nil,
			want:   nil,
		},
		{
			name:   "reversed and out of bounds selection",
			sel:    edtypes.Selection{From: 100, To: 19},
			filter: selection.Textblocks,
			want:   []visit{{edtypes.CodeBlockNode, 18}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collect(doc, tt.sel, tt.filter))
		})
	}
}

func TestWalk_Restartable(t *testing.T) {
	doc := testDoc()
	seq := selection.Walk(doc, edtypes.Selection{From: 0, To: doc.Size()}, selection.Textblocks)

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
		break
	}
	assert.Equal(t, 4, first)
	assert.Equal(t, 1, second)
}

func TestEffective(t *testing.T) {
	doc := testDoc()

	sel, ok := selection.Effective(doc, edtypes.Caret(7))
	assert.True(t, ok)
	assert.Equal(t, edtypes.Selection{From: 6, To: 9}, sel)

	sel, ok = selection.Effective(doc, edtypes.Selection{From: 2, To: 3})
	assert.True(t, ok)
	assert.Equal(t, edtypes.Selection{From: 2, To: 3}, sel)

	_, ok = selection.Effective(doc, edtypes.Caret(10))
	assert.False(t, ok)
}

func TestInlineRuns(t *testing.T) {
	doc := testDoc()

	var texts []string
	for node := range selection.InlineRuns(doc, edtypes.Selection{From: 0, To: doc.Size()}) {
		texts = append(texts, node.Text)
	}
	assert.Equal(t, []string{"one", "two", "xy"}, texts, "текст блока кода не несёт марок")
}
