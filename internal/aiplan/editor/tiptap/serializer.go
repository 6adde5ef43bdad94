package tiptap

import (
	"encoding/json"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

// Serialize сериализует документ в TipTap JSON с атрибутами по умолчанию.
func Serialize(doc *edtypes.Document) ([]byte, error) {
	return defaultCodec.Serialize(doc)
}

// Serialize сериализует документ в TipTap JSON.
func (c *Codec) Serialize(doc *edtypes.Document) ([]byte, error) {
	return json.Marshal(c.ToTipTap(doc))
}

// ToTipTap переводит документ в структуры TipTap. Значения по умолчанию не выводятся.
func (c *Codec) ToTipTap(doc *edtypes.Document) TipTapDocument {
	tipTapDoc := TipTapDocument{
		Type:    string(edtypes.DocNode),
		Content: make([]TipTapNode, 0, len(doc.Root.Content)),
	}
	for _, n := range doc.Root.Content {
		tipTapDoc.Content = append(tipTapDoc.Content, c.serializeNode(n))
	}
	return tipTapDoc
}

func (c *Codec) serializeNode(n *edtypes.Node) TipTapNode {
	node := TipTapNode{
		Type:  string(n.Type),
		Attrs: c.serializeAttrs(string(n.Type), "", n.Attrs),
		Text:  n.Text,
	}
	for _, m := range n.Marks {
		node.Marks = append(node.Marks, TipTapMark{
			Type:  string(m.Type),
			Attrs: c.serializeAttrs(string(m.Type), m.Type, m.Attrs),
		})
	}
	for _, child := range n.Content {
		node.Content = append(node.Content, c.serializeNode(child))
	}
	return node
}

func (c *Codec) serializeAttrs(typ string, mark edtypes.MarkType, a edtypes.Attrs) map[string]interface{} {
	var res map[string]interface{}
	for name, v := range a {
		spec, ok := c.registry.Get(name)
		if !ok || !spec.Applies(typ) || spec.IsDefault(v) {
			continue
		}
		if res == nil {
			res = make(map[string]interface{}, len(a))
		}
		res[attrToJSON(mark, name)] = v
	}
	return res
}
