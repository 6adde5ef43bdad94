package tiptap

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

// Codec переводит TipTap JSON в документ и обратно, атрибуты приводятся через реестр.
type Codec struct {
	registry *attrs.Registry
}

func NewCodec(registry *attrs.Registry) *Codec {
	return &Codec{registry: registry}
}

var defaultCodec = func() *Codec {
	reg, err := attrs.NewDefaultRegistry(attrs.DefaultConfig())
	if err != nil {
		panic(err)
	}
	return NewCodec(reg)
}()

func init() {
	edtypes.TipTapParser = ParseJSON
	edtypes.TipTapSerializer = Serialize
}

// ParseJSON парсит JSON контент TipTap редактора с атрибутами по умолчанию.
func ParseJSON(r io.Reader) (*edtypes.Document, error) {
	return defaultCodec.ParseJSON(r)
}

// ParseJSON парсит JSON контент TipTap редактора в документ.
// Принимает io.Reader с JSON данными и возвращает распарсенный документ.
func (c *Codec) ParseJSON(r io.Reader) (*edtypes.Document, error) {
	var tipTapDoc TipTapDocument
	if err := json.NewDecoder(r).Decode(&tipTapDoc); err != nil {
		return nil, err
	}
	return c.Parse(tipTapDoc)
}

// Parse строит документ из уже декодированного TipTapDocument.
// Неизвестные узлы и марки пропускаются, неизвестные атрибуты отбрасываются.
func (c *Codec) Parse(tipTapDoc TipTapDocument) (*edtypes.Document, error) {
	if tipTapDoc.Type != "" && tipTapDoc.Type != string(edtypes.DocNode) {
		return nil, fmt.Errorf("unexpected root node type %q", tipTapDoc.Type)
	}
	return edtypes.NewDocument(c.parseBlocks(tipTapDoc.Content)...), nil
}

// parseBlocks разбирает блочное содержимое, строчные ноды вне блока оборачиваются в параграф.
func (c *Codec) parseBlocks(nodes []TipTapNode) []*edtypes.Node {
	var (
		res    []*edtypes.Node
		inline []*edtypes.Node
	)
	flush := func() {
		if len(inline) > 0 {
			res = append(res, edtypes.NewNode(edtypes.ParagraphNode, nil, edtypes.NormalizeInline(inline)...))
			inline = nil
		}
	}
	for _, n := range nodes {
		node := c.parseNode(n)
		if node == nil {
			continue
		}
		if node.IsInline() {
			inline = append(inline, node)
			continue
		}
		flush()
		res = append(res, node)
	}
	flush()
	return res
}

func (c *Codec) parseInline(nodes []TipTapNode) []*edtypes.Node {
	res := make([]*edtypes.Node, 0, len(nodes))
	for _, n := range nodes {
		node := c.parseNode(n)
		if node == nil {
			continue
		}
		if !node.IsInline() {
			slog.Debug("Block node inside textblock dropped", "type", node.Type)
			continue
		}
		res = append(res, node)
	}
	return edtypes.NormalizeInline(res)
}

// parseNode парсит отдельную ноду TipTap.
func (c *Codec) parseNode(n TipTapNode) *edtypes.Node {
	typ := edtypes.NodeType(n.Type)
	if alias, ok := nodeTypeAliases[n.Type]; ok {
		typ = alias
	}
	if !typ.Known() || typ == edtypes.DocNode {
		slog.Warn("Unknown node type", "type", n.Type)
		return nil
	}

	if typ == edtypes.TextNode {
		if n.Text == "" {
			return nil
		}
		return edtypes.NewText(n.Text, c.parseMarks(n.Marks)...)
	}

	node := edtypes.NewNode(typ, c.parseAttrs(string(typ), "", n.Attrs))
	switch {
	case node.IsLeaf():
		return node
	case node.IsTextblock():
		return node.WithContent(c.parseInline(n.Content))
	}
	return node.WithContent(c.parseBlocks(n.Content))
}

func (c *Codec) parseMarks(marks []TipTapMark) []edtypes.Mark {
	res := make([]edtypes.Mark, 0, len(marks))
	for _, m := range marks {
		t := edtypes.MarkType(m.Type)
		if !t.Known() {
			slog.Debug("Unknown mark type", "type", m.Type)
			continue
		}
		a := c.parseAttrs(string(t), t, m.Attrs)
		if len(a) == 0 && t.RemoveWhenEmpty() {
			continue
		}
		res = append(res, edtypes.Mark{Type: t, Attrs: a})
	}
	return res
}

// parseAttrs оставляет применимые к типу атрибуты в канонической форме, значения по умолчанию не хранятся.
func (c *Codec) parseAttrs(typ string, mark edtypes.MarkType, raw map[string]interface{}) edtypes.Attrs {
	var res edtypes.Attrs
	for key, v := range raw {
		name := attrFromJSON(mark, key)
		spec, ok := c.registry.Get(name)
		if !ok || !spec.Applies(typ) {
			continue
		}
		val := c.registry.Coerce(name, v)
		if spec.IsDefault(val) {
			continue
		}
		if res == nil {
			res = make(edtypes.Attrs)
		}
		res[name] = val
	}
	return res
}
