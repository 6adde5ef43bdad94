package edtypes

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/exp/constraints"
)

// TipTapParser - функция для парсинга TipTap JSON, устанавливается из tiptap пакета
var TipTapParser func(io.Reader) (*Document, error)

// TipTapSerializer - функция для сериализации Document в TipTap JSON, устанавливается из tiptap пакета
var TipTapSerializer func(*Document) ([]byte, error)

// Document версия документа. Каждый коммит транзакции создаёт новое значение с Version+1,
// неизменённые поддеревья разделяются между версиями.
type Document struct {
	Root    *Node
	Version uint64
}

// NewDocument создаёт документ нулевой версии. Пустой документ содержит один пустой параграф.
func NewDocument(content ...*Node) *Document {
	if len(content) == 0 {
		content = []*Node{NewNode(ParagraphNode, nil)}
	}
	return &Document{Root: NewNode(DocNode, nil, content...)}
}

// Next возвращает следующую версию документа с новым корнем.
func (d *Document) Next(root *Node) *Document {
	return &Document{Root: root, Version: d.Version + 1}
}

// Size размер документа в позициях, равен размеру содержимого корня.
func (d *Document) Size() int {
	return d.Root.ContentSize()
}

// NodeAt возвращает узел, начинающийся ровно в позиции pos.
func (d *Document) NodeAt(pos int) (*Node, bool) {
	if pos < 0 {
		return nil, false
	}
	n, start := d.Root, 0
	for {
		p, next := start, (*Node)(nil)
		for _, c := range n.Content {
			size := c.NodeSize()
			if p == pos {
				return c, true
			}
			if pos > p && pos < p+size && !c.IsLeaf() {
				next = c
				break
			}
			p += size
			if p > pos {
				break
			}
		}
		if next == nil {
			return nil, false
		}
		n, start = next, p+1
	}
}

// Equal сравнивает содержимое документов без учёта версии.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Root.Equal(o.Root)
}

func (d *Document) TextContent() string {
	return d.Root.TextContent()
}

// UnmarshalJSON реализует кастомную десериализацию TipTap JSON в Document.
// Автоматически вызывает зарегистрированный TipTapParser.
func (d *Document) UnmarshalJSON(data []byte) error {
	if TipTapParser == nil {
		return errors.New("TipTapParser not registered, import tiptap package to enable TipTap JSON parsing")
	}

	doc, err := TipTapParser(bytes.NewReader(data))
	if err != nil {
		return err
	}

	*d = *doc
	return nil
}

// MarshalJSON реализует кастомную сериализацию Document в TipTap JSON.
// Автоматически вызывает зарегистрированный TipTapSerializer.
func (d *Document) MarshalJSON() ([]byte, error) {
	if TipTapSerializer == nil {
		return nil, errors.New("TipTapSerializer not registered, import tiptap package to enable TipTap JSON serialization")
	}

	return TipTapSerializer(d)
}

// Selection выделение в позициях документа, полуинтервал [From, To).
// Пустое выделение - каретка.
type Selection struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func Caret(pos int) Selection {
	return Selection{From: pos, To: pos}
}

func (s Selection) Empty() bool {
	return s.From == s.To
}

// Normalize упорядочивает границы и прижимает их к [0, size].
func (s Selection) Normalize(size int) Selection {
	if s.From > s.To {
		s.From, s.To = s.To, s.From
	}
	s.From = Clamp(s.From, 0, size)
	s.To = Clamp(s.To, s.From, size)
	return s
}

func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
