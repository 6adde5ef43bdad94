// Пакет tiptap предоставляет инструменты для парсинга и сериализации JSON-контента TipTap редактора.
// Преобразует JSON структуры TipTap в дерево документа пакета edtypes и обратно.
package tiptap

import (
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

// TipTapDocument представляет корневой документ TipTap.
type TipTapDocument struct {
	Type    string       `json:"type"`
	Content []TipTapNode `json:"content,omitempty"`
}

// TipTapNode представляет узел в дереве документа TipTap.
// Используется универсальная структура с map для атрибутов для поддержки различных типов нод.
type TipTapNode struct {
	Type    string                 `json:"type"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Content []TipTapNode           `json:"content,omitempty"`
	Marks   []TipTapMark           `json:"marks,omitempty"`
	Text    string                 `json:"text,omitempty"`
}

// TipTapMark представляет форматирование текста (bold, italic, link и т.д.).
type TipTapMark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// Имена атрибутов марок в JSON, отличающиеся от имён в реестре.
var markAttrAliases = map[edtypes.MarkType]map[string]string{
	edtypes.HighlightMark: {"color": attrs.BackgroundColor},
}

// Синонимы типов узлов из расширений TipTap.
var nodeTypeAliases = map[string]edtypes.NodeType{
	"imageResize": edtypes.ImageNode,
}

func attrFromJSON(t edtypes.MarkType, key string) string {
	if name, ok := markAttrAliases[t][key]; ok {
		return name
	}
	return key
}

func attrToJSON(t edtypes.MarkType, name string) string {
	for key, n := range markAttrAliases[t] {
		if n == name {
			return key
		}
	}
	return name
}
