package transaction

import (
	"testing"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *attrs.Registry {
	t.Helper()
	r, err := attrs.NewDefaultRegistry(attrs.DefaultConfig())
	require.NoError(t, err)
	return r
}

// <p>abcde</p><h1>xy</h1><ul><li><p>z</p></li></ul>
func testDoc() *edtypes.Document {
	return edtypes.NewDocument(
		edtypes.NewNode(edtypes.ParagraphNode, nil, edtypes.NewText("abcde")),
		edtypes.NewNode(edtypes.HeadingNode, nil, edtypes.NewText("xy")),
		edtypes.NewNode(edtypes.BulletListNode, nil,
			edtypes.NewNode(edtypes.ListItemNode, nil,
				edtypes.NewNode(edtypes.ParagraphNode, nil, edtypes.NewText("z")),
			),
		),
	)
}

func TestSetNodeAttrs(t *testing.T) {
	reg := testRegistry(t)
	doc := testDoc()

	tx, err := Begin(doc, reg).SetNodeAttrs(0, edtypes.Attrs{attrs.Indent: 2, attrs.LineHeight: "2.0"})
	require.NoError(t, err)
	tx, err = tx.SetNodeAttrs(0, edtypes.Attrs{attrs.LineHeight: nil})
	require.NoError(t, err)

	next, rep := Commit(tx)
	assert.Equal(t, 2, rep.Applied)
	assert.Empty(t, rep.Dropped)
	assert.Equal(t, uint64(1), next.Version)
	assert.Equal(t, edtypes.Attrs{attrs.Indent: 2}, next.Root.Content[0].Attrs)

	assert.Nil(t, doc.Root.Content[0].Attrs, "исходная версия не меняется")
	assert.Same(t, doc.Root.Content[1], next.Root.Content[1], "неизменённые поддеревья разделяются")
	assert.Same(t, doc.Root.Content[2], next.Root.Content[2])
}

func TestSetNodeAttrs_Errors(t *testing.T) {
	reg := testRegistry(t)
	doc := testDoc()
	tx := Begin(doc, reg)

	_, err := tx.SetNodeAttrs(3, edtypes.Attrs{attrs.Indent: 1})
	assert.ErrorIs(t, err, ErrStalePosition, "позиция внутри текста")

	_, err = tx.SetNodeAttrs(1, edtypes.Attrs{attrs.Indent: 1})
	assert.ErrorIs(t, err, ErrStalePosition, "текстовый узел")

	_, err = tx.SetNodeAttrs(11, edtypes.Attrs{attrs.LineHeight: "2"})
	assert.ErrorIs(t, err, ErrUnsupportedNodeType, "список не принимает lineHeight")

	partial, err := tx.SetNodeAttrs(7, edtypes.Attrs{attrs.Indent: 1, attrs.FontSize: "12px"})
	require.NoError(t, err)
	assert.Equal(t, edtypes.Attrs{attrs.Indent: 1}, partial.Steps()[0].Attrs, "неприменимый ключ отброшен")
}

func TestBuilderIsValue(t *testing.T) {
	reg := testRegistry(t)
	base, err := Begin(testDoc(), reg).SetNodeAttrs(0, edtypes.Attrs{attrs.Indent: 1})
	require.NoError(t, err)

	a, err := base.SetNodeAttrs(7, edtypes.Attrs{attrs.Indent: 2})
	require.NoError(t, err)
	b, err := base.SetNodeAttrs(7, edtypes.Attrs{attrs.Indent: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, a.Steps()[1].Attrs[attrs.Indent])
	assert.Equal(t, 3, b.Steps()[1].Attrs[attrs.Indent])
}

func TestDefaultIsStorageFree(t *testing.T) {
	reg := testRegistry(t)
	doc := testDoc()

	tx, err := Begin(doc, reg).SetNodeAttrs(0, edtypes.Attrs{attrs.Indent: 0, attrs.TextAlign: "left"})
	require.NoError(t, err)
	next, _ := Commit(tx)
	assert.True(t, next.Equal(doc))
}

func TestCommitOnto(t *testing.T) {
	reg := testRegistry(t)
	doc := testDoc()

	tx, err := Begin(doc, reg).SetNodeAttrs(7, edtypes.Attrs{attrs.LineHeight: "2.0"})
	require.NoError(t, err)
	tx, err = tx.SetNodeAttrs(0, edtypes.Attrs{attrs.Indent: 1})
	require.NoError(t, err)

	// В новой версии на позиции 7 середина текста
	newer := edtypes.NewDocument(edtypes.NewNode(edtypes.ParagraphNode, nil, edtypes.NewText("abcdefghij")))
	newer.Version = 5

	next, rep := CommitOnto(tx, newer)
	assert.Equal(t, 1, rep.Applied)
	require.Len(t, rep.Dropped, 1)
	assert.Equal(t, 0, rep.Dropped[0].Index)
	assert.ErrorIs(t, rep.Dropped[0].Err, ErrStalePosition)
	assert.Equal(t, uint64(6), next.Version)
	assert.Equal(t, 1, next.Root.Content[0].Attrs[attrs.Indent])
}

func TestCommit_Empty(t *testing.T) {
	doc := testDoc()
	next, rep := Commit(Begin(doc, testRegistry(t)))
	assert.Same(t, doc, next)
	assert.False(t, rep.Changed())
}

func TestMarks(t *testing.T) {
	reg := testRegistry(t)
	doc := testDoc()

	tx, err := Begin(doc, reg).SetMark(2, 4, edtypes.NewMark(edtypes.TextStyleMark, edtypes.Attrs{attrs.FontSize: "12px"}))
	require.NoError(t, err)
	marked, _ := Commit(tx)

	p := marked.Root.Content[0]
	require.Len(t, p.Content, 3)
	assert.Equal(t, "a", p.Content[0].Text)
	assert.Equal(t, "bc", p.Content[1].Text)
	assert.Equal(t, "de", p.Content[2].Text)
	assert.Equal(t, []edtypes.Mark{{Type: edtypes.TextStyleMark, Attrs: edtypes.Attrs{attrs.FontSize: "12px"}}}, p.Content[1].Marks)
	assert.Same(t, doc.Root.Content[1], marked.Root.Content[1])

	tx, err = Begin(marked, reg).SetMark(1, 6, edtypes.NewMark(edtypes.TextStyleMark, edtypes.Attrs{attrs.Color: "#ff0000"}))
	require.NoError(t, err)
	colored, _ := Commit(tx)
	p = colored.Root.Content[0]
	require.Len(t, p.Content, 3)
	style, ok := edtypes.FindMark(p.Content[1].Marks, edtypes.TextStyleMark)
	require.True(t, ok)
	assert.Equal(t, edtypes.Attrs{attrs.FontSize: "12px", attrs.Color: "#ff0000"}, style.Attrs, "атрибуты марки сливаются")

	tx, err = Begin(colored, reg).SetMark(1, 6, edtypes.NewMark(edtypes.TextStyleMark, edtypes.Attrs{attrs.FontSize: nil, attrs.Color: nil}))
	require.NoError(t, err)
	cleared, _ := Commit(tx)
	assert.True(t, cleared.Equal(doc), "пустой textStyle снимается, текст склеивается")
}

func TestRemoveMark(t *testing.T) {
	reg := testRegistry(t)
	doc := testDoc()

	tx, err := Begin(doc, reg).SetMark(1, 11, edtypes.NewMark(edtypes.BoldMark, nil))
	require.NoError(t, err)
	bold, _ := Commit(tx)
	assert.Len(t, bold.Root.Content[0].Content[0].Marks, 1)
	assert.Len(t, bold.Root.Content[1].Content[0].Marks, 1)

	tx, err = Begin(bold, reg).RemoveMark(3, 4, edtypes.BoldMark)
	require.NoError(t, err)
	partly, _ := Commit(tx)
	p := partly.Root.Content[0]
	require.Len(t, p.Content, 3)
	assert.Empty(t, p.Content[1].Marks)

	_, err = Begin(doc, reg).RemoveMark(4, 4, edtypes.BoldMark)
	assert.ErrorIs(t, err, ErrStalePosition)
	_, err = Begin(doc, reg).SetMark(0, 100, edtypes.NewMark(edtypes.BoldMark, nil))
	assert.ErrorIs(t, err, ErrStalePosition)
	_, err = Begin(doc, reg).SetMark(1, 2, edtypes.NewMark("blink", nil))
	assert.ErrorIs(t, err, ErrUnsupportedNodeType)
}

func TestMarks_CodeBlock(t *testing.T) {
	reg := testRegistry(t)
	doc := edtypes.NewDocument(edtypes.NewNode(edtypes.CodeBlockNode, nil, edtypes.NewText("x := 1")))

	tx, err := Begin(doc, reg).SetMark(1, 4, edtypes.NewMark(edtypes.BoldMark, nil))
	require.NoError(t, err)
	next, rep := Commit(tx)
	assert.Equal(t, 1, rep.Applied)
	assert.True(t, next.Equal(doc))
}
