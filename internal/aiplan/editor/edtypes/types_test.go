package edtypes_test

import (
	"encoding/json"
	"testing"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	_ "github.com/aisa-it/aiplan-editor/internal/aiplan/editor/tiptap" // Регистрация парсера
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *edtypes.Document {
	// <p>ab<br>c</p><ul><li><p>xyz</p></li></ul>
	return edtypes.NewDocument(
		edtypes.NewNode(edtypes.ParagraphNode, nil,
			edtypes.NewText("ab"),
			edtypes.NewNode(edtypes.HardBreakNode, nil),
			edtypes.NewText("c", edtypes.NewMark(edtypes.BoldMark, nil)),
		),
		edtypes.NewNode(edtypes.BulletListNode, nil,
			edtypes.NewNode(edtypes.ListItemNode, nil,
				edtypes.NewNode(edtypes.ParagraphNode, nil, edtypes.NewText("xyz")),
			),
		),
	)
}

func TestNodeSize(t *testing.T) {
	doc := sampleDoc()
	p := doc.Root.Content[0]
	list := doc.Root.Content[1]

	assert.Equal(t, 2, p.Content[0].NodeSize())
	assert.Equal(t, 1, p.Content[1].NodeSize())
	assert.Equal(t, 6, p.NodeSize())
	assert.Equal(t, 9, list.NodeSize())
	assert.Equal(t, 15, doc.Size())

	assert.Equal(t, 3, edtypes.NewText("жёж").NodeSize(), "размер текста считается в рунах")
}

func TestDocument_NodeAt(t *testing.T) {
	doc := sampleDoc()

	tests := []struct {
		name     string
		pos      int
		wantType edtypes.NodeType
		wantOk   bool
	}{
		{"first paragraph", 0, edtypes.ParagraphNode, true},
		{"text start", 1, edtypes.TextNode, true},
		{"inside text", 2, "", false},
		{"hard break", 3, edtypes.HardBreakNode, true},
		{"bold text", 4, edtypes.TextNode, true},
		{"paragraph content end", 5, "", false},
		{"list", 6, edtypes.BulletListNode, true},
		{"list item", 7, edtypes.ListItemNode, true},
		{"nested paragraph", 8, edtypes.ParagraphNode, true},
		{"nested text", 9, edtypes.TextNode, true},
		{"document end", 15, "", false},
		{"negative", -1, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, ok := doc.NodeAt(tt.pos)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				require.NotNil(t, node)
				assert.Equal(t, tt.wantType, node.Type)
			}
		})
	}
}

func TestNode_Equal(t *testing.T) {
	a := sampleDoc()
	b := sampleDoc()
	assert.True(t, a.Equal(b))

	p := b.Root.Content[0].WithAttrs(edtypes.Attrs{"indent": 1})
	changed := b.Next(b.Root.WithContent([]*edtypes.Node{p, b.Root.Content[1]}))
	assert.False(t, a.Equal(changed))
	assert.Equal(t, uint64(1), changed.Version)
	assert.Same(t, b.Root.Content[1], changed.Root.Content[1], "неизменённое поддерево разделяется")

	assert.True(t, edtypes.Attrs(nil).Equal(edtypes.Attrs{}))
}

func TestNormalizeInline(t *testing.T) {
	bold := edtypes.NewMark(edtypes.BoldMark, nil)
	content := []*edtypes.Node{
		edtypes.NewText("a", bold),
		edtypes.NewText("b", bold),
		edtypes.NewText(""),
		edtypes.NewText("c"),
	}

	got := edtypes.NormalizeInline(content)
	require.Len(t, got, 2)
	assert.Equal(t, "ab", got[0].Text)
	assert.Equal(t, "c", got[1].Text)
	assert.Equal(t, "a", content[0].Text, "исходные узлы не меняются")

	plain := []*edtypes.Node{edtypes.NewText("x"), edtypes.NewText("y", bold)}
	assert.Equal(t, plain, edtypes.NormalizeInline(plain))
}

func TestAddMark(t *testing.T) {
	sup := edtypes.NewMark(edtypes.SuperscriptMark, nil)
	sub := edtypes.NewMark(edtypes.SubscriptMark, nil)
	bold := edtypes.NewMark(edtypes.BoldMark, nil)

	marks := edtypes.AddMark([]edtypes.Mark{sup, bold}, sub)
	assert.Equal(t, []edtypes.Mark{bold, sub}, marks, "sub вытесняет sup")

	style := edtypes.NewMark(edtypes.TextStyleMark, edtypes.Attrs{"fontSize": "12px"})
	marks = edtypes.AddMark(marks, style)
	marks = edtypes.AddMark(marks, edtypes.NewMark(edtypes.TextStyleMark, edtypes.Attrs{"fontSize": "14px"}))
	m, ok := edtypes.FindMark(marks, edtypes.TextStyleMark)
	require.True(t, ok)
	assert.Equal(t, "14px", m.Attrs["fontSize"])
	assert.Len(t, marks, 3)

	assert.Equal(t, []edtypes.Mark{bold, sub}, edtypes.RemoveMark(marks, edtypes.TextStyleMark))
	assert.Nil(t, edtypes.RemoveMark([]edtypes.Mark{bold}, edtypes.BoldMark))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"#ff0000", "#ff0000", false},
		{"#ABCDEF", "#abcdef", false},
		{"#f00", "#ff0000", false},
		{`"#00ff00"`, "#00ff00", false},
		{"rgb(1, 2, 3)", "#010203", false},
		{"rgba(255, 0, 0, 0.5)", "#ff000080", false},
		{"#ff000080", "#ff000080", false},
		{"red", "", true},
		{"#", "", true},
		{"", "", true},
		{"rgb(1, 2)", "", true},
		{"rgb(300, 2, 3)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, err := edtypes.ParseColor(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Hex())
		})
	}
}

func TestSelection_Normalize(t *testing.T) {
	assert.Equal(t, edtypes.Selection{From: 2, To: 5}, edtypes.Selection{From: 5, To: 2}.Normalize(10))
	assert.Equal(t, edtypes.Selection{From: 0, To: 10}, edtypes.Selection{From: -3, To: 42}.Normalize(10))
	assert.True(t, edtypes.Caret(3).Empty())
}

func TestDocument_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name          string
		json          string
		wantElemCount int
		wantErr       bool
	}{
		{
			name: "simple paragraph",
			json: `{
				"type": "doc",
				"content": [
					{
						"type": "paragraph",
						"content": [
							{
								"type": "text",
								"text": "Hello World"
							}
						]
					}
				]
			}`,
			wantElemCount: 1,
			wantErr:       false,
		},
		{
			name: "multiple paragraphs",
			json: `{
				"type": "doc",
				"content": [
					{"type": "paragraph", "content": [{"type": "text", "text": "First"}]},
					{"type": "paragraph", "attrs": {"indent": 2}, "content": [{"type": "text", "text": "Second"}]}
				]
			}`,
			wantElemCount: 2,
			wantErr:       false,
		},
		{
			name: "empty document",
			json: `{
				"type": "doc",
				"content": []
			}`,
			wantElemCount: 1,
			wantErr:       false,
		},
		{
			name:          "invalid json",
			json:          `{"type": "doc", "content": [}`,
			wantElemCount: 0,
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc edtypes.Document
			err := json.Unmarshal([]byte(tt.json), &doc)

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				return
			}

			if len(doc.Root.Content) != tt.wantElemCount {
				t.Errorf("Elements count = %v, want %v", len(doc.Root.Content), tt.wantElemCount)
			}
		})
	}
}

func TestDocument_UnmarshalJSON_Integration(t *testing.T) {
	// UnmarshalJSON работает в составе DTO структуры
	type SessionDTO struct {
		Title    string           `json:"title"`
		Document edtypes.Document `json:"document"`
	}

	jsonData := `{
		"title": "Test",
		"document": {
			"type": "doc",
			"content": [
				{
					"type": "paragraph",
					"content": [
						{
							"type": "text",
							"text": "This is a test description"
						}
					]
				}
			]
		}
	}`

	var dto SessionDTO
	require.NoError(t, json.Unmarshal([]byte(jsonData), &dto))
	assert.Equal(t, "Test", dto.Title)
	require.Len(t, dto.Document.Root.Content, 1)

	para := dto.Document.Root.Content[0]
	assert.Equal(t, edtypes.ParagraphNode, para.Type)
	require.Len(t, para.Content, 1)
	assert.Equal(t, "This is a test description", para.Content[0].Text)

	out, err := json.Marshal(&dto.Document)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"This is a test description"}]}]}`, string(out))
}
