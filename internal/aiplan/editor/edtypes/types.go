// Пакет edtypes описывает неизменяемое дерево документа редактора: узлы, марки, позиции и выделение.
// Позиции считаются по соглашению ProseMirror: текст занимает число рун, листовой строчный узел 1,
// любой другой узел размер содержимого + 2 (открывающий и закрывающий токены).
package edtypes

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"
)

type NodeType string

const (
	DocNode         NodeType = "doc"
	ParagraphNode   NodeType = "paragraph"
	HeadingNode     NodeType = "heading"
	BlockquoteNode  NodeType = "blockquote"
	CodeBlockNode   NodeType = "codeBlock"
	BulletListNode  NodeType = "bulletList"
	OrderedListNode NodeType = "orderedList"
	ListItemNode    NodeType = "listItem"
	TaskListNode    NodeType = "taskList"
	TaskItemNode    NodeType = "taskItem"
	TextNode        NodeType = "text"
	HardBreakNode   NodeType = "hardBreak"
	ImageNode       NodeType = "image"
)

type nodeTraits struct {
	inline    bool
	leaf      bool
	textblock bool
	noMarks   bool
}

var nodeTypes = map[NodeType]nodeTraits{
	DocNode:         {},
	ParagraphNode:   {textblock: true},
	HeadingNode:     {textblock: true},
	CodeBlockNode:   {textblock: true, noMarks: true},
	BlockquoteNode:  {},
	BulletListNode:  {},
	OrderedListNode: {},
	ListItemNode:    {},
	TaskListNode:    {},
	TaskItemNode:    {},
	TextNode:        {inline: true, leaf: true},
	HardBreakNode:   {inline: true, leaf: true},
	ImageNode:       {inline: true, leaf: true},
}

// Known сообщает, известен ли тип узла схеме документа.
func (t NodeType) Known() bool {
	_, ok := nodeTypes[t]
	return ok
}

// Attrs атрибуты узла или марки. Отсутствующий ключ означает значение по умолчанию.
type Attrs map[string]any

func (a Attrs) Clone() Attrs {
	if len(a) == 0 {
		return nil
	}
	return maps.Clone(a)
}

// Equal сравнивает атрибуты, пустая и nil карты считаются равными.
func (a Attrs) Equal(b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || !reflect.DeepEqual(v, bv) {
			return false
		}
	}
	return true
}

// Keys возвращает ключи в лексикографическом порядке.
func (a Attrs) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// Node узел дерева документа. После создания узел не изменяется,
// все With* методы возвращают копию.
type Node struct {
	Type    NodeType
	Attrs   Attrs
	Content []*Node
	Text    string
	Marks   []Mark
}

func NewNode(t NodeType, attrs Attrs, content ...*Node) *Node {
	return &Node{
		Type:    t,
		Attrs:   attrs.Clone(),
		Content: slices.Clone(content),
	}
}

func NewText(text string, marks ...Mark) *Node {
	return &Node{
		Type:  TextNode,
		Text:  text,
		Marks: SortMarks(marks),
	}
}

func (n *Node) IsText() bool {
	return n.Type == TextNode
}

func (n *Node) IsInline() bool {
	return nodeTypes[n.Type].inline
}

// IsLeaf true для узлов без содержимого (текст, перенос строки, изображение).
func (n *Node) IsLeaf() bool {
	return nodeTypes[n.Type].leaf
}

func (n *Node) IsTextblock() bool {
	return nodeTypes[n.Type].textblock
}

// AllowsMarks сообщает, может ли строчное содержимое блока нести марки.
func (n *Node) AllowsMarks() bool {
	return n.IsTextblock() && !nodeTypes[n.Type].noMarks
}

// NodeSize размер узла в позициях документа.
func (n *Node) NodeSize() int {
	switch {
	case n.IsText():
		return utf8.RuneCountInString(n.Text)
	case n.IsLeaf():
		return 1
	}
	return n.ContentSize() + 2
}

func (n *Node) ContentSize() int {
	if n.IsText() {
		return utf8.RuneCountInString(n.Text)
	}
	size := 0
	for _, c := range n.Content {
		size += c.NodeSize()
	}
	return size
}

func (n *Node) Attr(name string) (any, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func (n *Node) WithAttrs(attrs Attrs) *Node {
	nn := *n
	nn.Attrs = attrs.Clone()
	return &nn
}

func (n *Node) WithContent(content []*Node) *Node {
	nn := *n
	nn.Content = content
	return &nn
}

func (n *Node) WithMarks(marks []Mark) *Node {
	nn := *n
	nn.Marks = SortMarks(marks)
	return &nn
}

// Cut возвращает часть текстового узла между рунами [from, to).
func (n *Node) Cut(from, to int) *Node {
	if !n.IsText() {
		return n
	}
	runes := []rune(n.Text)
	from = Clamp(from, 0, len(runes))
	to = Clamp(to, from, len(runes))
	if from == 0 && to == len(runes) {
		return n
	}
	nn := *n
	nn.Text = string(runes[from:to])
	return &nn
}

func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Content {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// Equal структурное сравнение узлов без учёта идентичности указателей.
func (n *Node) Equal(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	if n.Type != o.Type || n.Text != o.Text || !n.Attrs.Equal(o.Attrs) || !SameMarks(n.Marks, o.Marks) {
		return false
	}
	if len(n.Content) != len(o.Content) {
		return false
	}
	for i := range n.Content {
		if !n.Content[i].Equal(o.Content[i]) {
			return false
		}
	}
	return true
}

// Descendants обходит потомков в прямом порядке. pos задаёт позицию начала содержимого n.
// Если fn возвращает false, потомки текущего узла не обходятся.
func (n *Node) Descendants(pos int, fn func(node *Node, pos int) bool) {
	for _, c := range n.Content {
		if fn(c, pos) && !c.IsLeaf() {
			c.Descendants(pos+1, fn)
		}
		pos += c.NodeSize()
	}
}

// NormalizeInline склеивает соседние текстовые узлы с одинаковыми марками и убирает пустые.
// Если изменений нет, возвращается исходный срез.
func NormalizeInline(content []*Node) []*Node {
	changed := false
	for i, c := range content {
		if c.IsText() && c.Text == "" {
			changed = true
			break
		}
		if i > 0 && c.IsText() && content[i-1].IsText() && SameMarks(c.Marks, content[i-1].Marks) {
			changed = true
			break
		}
	}
	if !changed {
		return content
	}

	result := make([]*Node, 0, len(content))
	for _, c := range content {
		if c.IsText() && c.Text == "" {
			continue
		}
		if last := len(result) - 1; last >= 0 && c.IsText() && result[last].IsText() && SameMarks(c.Marks, result[last].Marks) {
			merged := *result[last]
			merged.Text += c.Text
			result[last] = &merged
			continue
		}
		result = append(result, c)
	}
	return result
}
