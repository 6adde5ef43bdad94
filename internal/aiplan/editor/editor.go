// Пакет предоставляет мост между документом редактора и его HTML представлением, а также экземпляр редактора,
// через который хост применяет команды.
//
// Основные возможности:
//   - Парсинг HTML хоста в документ: очистка политикой bluemonday, нормализация минификатором, разбор x/net/html.
//   - Разбор inline стилей токенизатором CSS и приведение значений через реестр атрибутов.
//   - Рендер документа обратно в HTML, значения по умолчанию не выводятся.
//   - Экземпляр Editor: применение именованных команд, вето хоста, уведомления об изменениях, история версий.
package editor

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	policy "github.com/aisa-it/aiplan-editor/internal/aiplan/redactor-policy"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tdewolff/minify/v2"
	minifyhtml "github.com/tdewolff/minify/v2/html"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Bridge переводит документ в HTML и обратно. Безопасен для конкурентного использования.
type Bridge struct {
	registry *attrs.Registry
	policy   *bluemonday.Policy
	minifier *minify.M
}

// Теги марок в порядке вложенности рендера.
var markTags = map[edtypes.MarkType]atom.Atom{
	edtypes.LinkMark:        atom.A,
	edtypes.BoldMark:        atom.Strong,
	edtypes.ItalicMark:      atom.Em,
	edtypes.UnderlineMark:   atom.U,
	edtypes.StrikeMark:      atom.S,
	edtypes.CodeMark:        atom.Code,
	edtypes.SuperscriptMark: atom.Sup,
	edtypes.SubscriptMark:   atom.Sub,
	edtypes.HighlightMark:   atom.Mark,
	edtypes.TextStyleMark:   atom.Span,
}

var tagMarks = map[string]edtypes.MarkType{
	"a":      edtypes.LinkMark,
	"strong": edtypes.BoldMark,
	"b":      edtypes.BoldMark,
	"em":     edtypes.ItalicMark,
	"i":      edtypes.ItalicMark,
	"u":      edtypes.UnderlineMark,
	"s":      edtypes.StrikeMark,
	"strike": edtypes.StrikeMark,
	"del":    edtypes.StrikeMark,
	"code":   edtypes.CodeMark,
	"sup":    edtypes.SuperscriptMark,
	"sub":    edtypes.SubscriptMark,
	"mark":   edtypes.HighlightMark,
	"span":   edtypes.TextStyleMark,
}

var blockTags = map[edtypes.NodeType]atom.Atom{
	edtypes.ParagraphNode:   atom.P,
	edtypes.BlockquoteNode:  atom.Blockquote,
	edtypes.CodeBlockNode:   atom.Pre,
	edtypes.BulletListNode:  atom.Ul,
	edtypes.OrderedListNode: atom.Ol,
	edtypes.ListItemNode:    atom.Li,
	edtypes.TaskListNode:    atom.Ul,
	edtypes.TaskItemNode:    atom.Li,
	edtypes.HardBreakNode:   atom.Br,
	edtypes.ImageNode:       atom.Img,
}

// NewBridge создаёт мост для реестра. Политика очистки строится из стилей и атрибутов реестра.
func NewBridge(registry *attrs.Registry) *Bridge {
	var htmlAttrs []string
	styles := make(map[string]policy.StyleHandler)
	for _, name := range registry.Names() {
		spec := registry.MustGet(name)
		switch spec.Target {
		case attrs.TargetStyle:
			styles[spec.Key] = func(value string) bool {
				return !spec.IsDefault(spec.Parse(value))
			}
		case attrs.TargetAttr:
			htmlAttrs = append(htmlAttrs, spec.Key)
		}
	}

	m := minify.New()
	m.Add("text/html", &minifyhtml.Minifier{
		KeepWhitespace:      true,
		KeepEndTags:         true,
		KeepDocumentTags:    true,
		KeepQuotes:          true,
		KeepDefaultAttrVals: true,
	})

	return &Bridge{
		registry: registry,
		policy:   policy.NewEditorPolicy(styles, htmlAttrs),
		minifier: m,
	}
}

// Registry реестр атрибутов моста.
func (b *Bridge) Registry() *attrs.Registry {
	return b.registry
}

// ToHostRepresentation синоним ToHTML.
func (b *Bridge) ToHostRepresentation(doc *edtypes.Document) string {
	return b.ToHTML(doc)
}

// FromHostRepresentation синоним ParseHTML.
func (b *Bridge) FromHostRepresentation(s string) *edtypes.Document {
	return b.ParseHTML(s)
}

// ParseHTML разбирает HTML хоста в документ. Никогда не завершается ошибкой:
// неизвестные элементы разворачиваются, нераспознанные значения атрибутов становятся значениями по умолчанию.
func (b *Bridge) ParseHTML(s string) *edtypes.Document {
	s = b.policy.Sanitize(s)
	if minified, err := b.minifier.String("text/html", s); err == nil {
		s = minified
	} else {
		slog.Debug("Minify editor html", "err", err)
	}

	rootNode, err := html.Parse(strings.NewReader(s))
	if err != nil {
		slog.Warn("Parse editor html", "err", err)
		return edtypes.NewDocument()
	}
	body := getBody(rootNode)
	if body == nil {
		return edtypes.NewDocument()
	}
	return edtypes.NewDocument(b.parseBlocks(body)...)
}

// parseBlocks разбирает дочерние элементы как блоки, строчное содержимое вне блока оборачивается в параграф.
func (b *Bridge) parseBlocks(parent *html.Node) []*edtypes.Node {
	var (
		res    []*edtypes.Node
		inline []*edtypes.Node
	)
	flush := func() {
		if content := edtypes.NormalizeInline(inline); len(content) > 0 {
			res = append(res, edtypes.NewNode(edtypes.ParagraphNode, nil, content...))
		}
		inline = nil
	}

	for el := parent.FirstChild; el != nil; el = el.NextSibling {
		switch el.Type {
		case html.TextNode:
			if strings.TrimSpace(el.Data) == "" {
				continue
			}
			inline = append(inline, b.parseInline(el, nil)...)
			continue
		case html.ElementNode:
		default:
			continue
		}

		if block := b.parseBlock(el); block != nil {
			flush()
			res = append(res, block...)
			continue
		}
		inline = append(inline, b.parseInline(el, nil)...)
	}
	flush()
	return res
}

// parseBlock возвращает nil, если элемент строчный.
func (b *Bridge) parseBlock(el *html.Node) []*edtypes.Node {
	switch el.Data {
	case "p":
		return []*edtypes.Node{b.parseTextblock(el, edtypes.ParagraphNode)}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return []*edtypes.Node{b.parseTextblock(el, edtypes.HeadingNode)}
	case "blockquote":
		return []*edtypes.Node{edtypes.NewNode(edtypes.BlockquoteNode, b.parseAttrs(el, string(edtypes.BlockquoteNode)), b.blocksOrEmpty(el)...)}
	case "pre":
		return []*edtypes.Node{b.parseCode(el)}
	case "ul":
		if getAttrValue("data-type", el.Attr) == "taskList" {
			return []*edtypes.Node{b.parseList(el, edtypes.TaskListNode, edtypes.TaskItemNode)}
		}
		return []*edtypes.Node{b.parseList(el, edtypes.BulletListNode, edtypes.ListItemNode)}
	case "ol":
		return []*edtypes.Node{b.parseList(el, edtypes.OrderedListNode, edtypes.ListItemNode)}
	case "div", "section", "article", "header", "footer", "main", "li", "table", "thead", "tbody", "tr", "td", "th", "figure", "details", "summary", "hr", "dl", "dt", "dd":
		return b.parseBlocks(el)
	}
	return nil
}

func (b *Bridge) parseTextblock(el *html.Node, typ edtypes.NodeType) *edtypes.Node {
	var content []*edtypes.Node
	for child := el.FirstChild; child != nil; child = child.NextSibling {
		content = append(content, b.parseInline(child, nil)...)
	}
	return edtypes.NewNode(typ, b.parseAttrs(el, string(typ)), edtypes.NormalizeInline(content)...)
}

func (b *Bridge) blocksOrEmpty(el *html.Node) []*edtypes.Node {
	blocks := b.parseBlocks(el)
	if len(blocks) == 0 {
		return []*edtypes.Node{edtypes.NewNode(edtypes.ParagraphNode, nil)}
	}
	return blocks
}

func (b *Bridge) parseList(el *html.Node, listType, itemType edtypes.NodeType) *edtypes.Node {
	var items []*edtypes.Node
	for li := el.FirstChild; li != nil; li = li.NextSibling {
		if li.Type == html.ElementNode && li.Data == "li" {
			items = append(items, edtypes.NewNode(itemType, b.parseAttrs(li, string(itemType)), b.blocksOrEmpty(li)...))
			continue
		}
		// содержимое вне li становится отдельным пунктом
		if content := b.looseContent(li); len(content) > 0 {
			items = append(items, edtypes.NewNode(itemType, nil, content...))
		}
	}
	return edtypes.NewNode(listType, b.parseAttrs(el, string(listType)), items...)
}

func (b *Bridge) looseContent(n *html.Node) []*edtypes.Node {
	switch n.Type {
	case html.ElementNode:
		if blocks := b.parseBlock(n); blocks != nil {
			return blocks
		}
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return nil
		}
	default:
		return nil
	}
	if inline := edtypes.NormalizeInline(b.parseInline(n, nil)); len(inline) > 0 {
		return []*edtypes.Node{edtypes.NewNode(edtypes.ParagraphNode, nil, inline...)}
	}
	return nil
}

func (b *Bridge) parseCode(el *html.Node) *edtypes.Node {
	a := b.parseAttrs(el, string(edtypes.CodeBlockNode))
	if code := findElementByTagName(el, "code"); code != nil && a[attrs.Language] == nil {
		for _, class := range strings.Fields(getAttrValue("class", code.Attr)) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok {
				if a == nil {
					a = make(edtypes.Attrs)
				}
				a[attrs.Language] = b.registry.MustGet(attrs.Language).Parse(lang)
				break
			}
		}
	}

	var text strings.Builder
	iterNodes(el, func(child *html.Node) bool {
		switch {
		case child.Type == html.TextNode:
			text.WriteString(child.Data)
		case child.Type == html.ElementNode && child.Data == "br":
			text.WriteString("\n")
		}
		return false
	})

	node := edtypes.NewNode(edtypes.CodeBlockNode, a)
	if text.Len() > 0 {
		node = node.WithContent([]*edtypes.Node{edtypes.NewText(text.String())})
	}
	return node
}

// parseInline разбирает строчное содержимое, марки накапливаются по вложенности элементов.
func (b *Bridge) parseInline(el *html.Node, marks []edtypes.Mark) []*edtypes.Node {
	switch el.Type {
	case html.TextNode:
		if el.Data == "" {
			return nil
		}
		return []*edtypes.Node{edtypes.NewText(el.Data, marks...)}
	case html.ElementNode:
	default:
		return nil
	}

	switch el.Data {
	case "br":
		return []*edtypes.Node{edtypes.NewNode(edtypes.HardBreakNode, nil)}
	case "img":
		a := b.parseAttrs(el, string(edtypes.ImageNode))
		if a[attrs.Src] == nil {
			return nil
		}
		return []*edtypes.Node{edtypes.NewNode(edtypes.ImageNode, a)}
	}

	if t, ok := tagMarks[el.Data]; ok {
		a := b.parseAttrs(el, string(t))
		switch {
		case t == edtypes.LinkMark && a[attrs.Href] == nil:
		case len(a) > 0 || !t.RemoveWhenEmpty():
			marks = edtypes.AddMark(marks, edtypes.NewMark(t, a))
		}
	}

	var res []*edtypes.Node
	for child := el.FirstChild; child != nil; child = child.NextSibling {
		res = append(res, b.parseInline(child, marks)...)
	}
	return res
}

// parseAttrs читает атрибуты типа typ из элемента. Значения по умолчанию не сохраняются.
func (b *Bridge) parseAttrs(el *html.Node, typ string) edtypes.Attrs {
	var styles map[string]string
	var res edtypes.Attrs

	for _, spec := range b.registry.ForType(typ) {
		var (
			raw   string
			found bool
		)
		switch spec.Target {
		case attrs.TargetStyle:
			if styles == nil {
				styles = parseStyles(getAttrValue("style", el.Attr))
			}
			raw, found = styles[spec.Key]
		case attrs.TargetAttr:
			raw, found = getAttrValue(spec.Key, el.Attr), attrExists(spec.Key, el.Attr)
		case attrs.TargetTag:
			raw, found = el.Data, true
		}

		if !found && spec.Name == attrs.Indent {
			if level, ok := attrs.IndentFromClass(b.registry.Config(), getAttrValue("class", el.Attr)); ok {
				raw, found = fmt.Sprintf("%dpx", level*b.registry.Config().IndentUnit), true
			}
		}
		if !found {
			continue
		}

		v := spec.Parse(raw)
		if spec.IsDefault(v) {
			continue
		}
		if res == nil {
			res = make(edtypes.Attrs)
		}
		res[spec.Name] = v
	}
	return res
}

// ToHTML рендерит документ. Пустой документ рендерится как пустой параграф.
func (b *Bridge) ToHTML(doc *edtypes.Document) string {
	var buf strings.Builder
	if doc == nil || len(doc.Root.Content) == 0 {
		return "<p></p>"
	}
	for _, n := range doc.Root.Content {
		for _, el := range b.renderNode(n) {
			if err := html.Render(&buf, el); err != nil {
				slog.Error("Render editor html", "type", n.Type, "err", err)
			}
		}
	}
	return buf.String()
}

func (b *Bridge) renderNode(n *edtypes.Node) []*html.Node {
	if n.IsText() {
		return []*html.Node{b.renderText(n)}
	}

	tag, attributes := b.renderAttrs(string(n.Type), n.Attrs)
	var el *html.Node
	switch n.Type {
	case edtypes.HeadingNode:
		if tag == "" {
			tag = "h1"
		}
		el = element(tag, attributes)
	case edtypes.TaskListNode:
		el = element("ul", append([]html.Attribute{{Key: "data-type", Val: "taskList"}}, attributes...))
	case edtypes.TaskItemNode:
		el = element("li", append([]html.Attribute{{Key: "data-type", Val: "taskItem"}}, attributes...))
	case edtypes.CodeBlockNode:
		el = element("pre", attributes)
		code := element("code", nil)
		if text := n.TextContent(); text != "" {
			code.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		}
		el.AppendChild(code)
		return []*html.Node{el}
	default:
		a, ok := blockTags[n.Type]
		if !ok {
			slog.Debug("Node type has no html element", "type", n.Type)
			var res []*html.Node
			for _, child := range n.Content {
				res = append(res, b.renderNode(child)...)
			}
			return res
		}
		el = element(a.String(), attributes)
	}

	for _, child := range n.Content {
		for _, c := range b.renderNode(child) {
			el.AppendChild(c)
		}
	}
	return []*html.Node{el}
}

// renderText оборачивает текст в элементы марок, первая марка внешняя.
func (b *Bridge) renderText(n *edtypes.Node) *html.Node {
	res := &html.Node{Type: html.TextNode, Data: n.Text}
	for _, m := range slices.Backward(n.Marks) {
		a, ok := markTags[m.Type]
		if !ok {
			continue
		}
		_, attributes := b.renderAttrs(string(m.Type), m.Attrs)
		el := element(a.String(), attributes)
		el.AppendChild(res)
		res = el
	}
	return res
}

// renderAttrs возвращает имя тега (для TargetTag) и HTML атрибуты.
// HTML атрибуты идут в порядке имён атрибутов реестра, style последним,
// объявления стиля упорядочены по имени атрибута и разделены "; ".
func (b *Bridge) renderAttrs(typ string, a edtypes.Attrs) (string, []html.Attribute) {
	var (
		tag    string
		res    []html.Attribute
		styles []string
	)
	for _, spec := range b.registry.ForType(typ) {
		v, ok := a[spec.Name]
		if !ok {
			v = spec.Default
		}
		raw, ok := spec.Render(v)
		switch spec.Target {
		case attrs.TargetTag:
			if !ok {
				raw = fmt.Sprint(spec.Default)
			}
			tag = spec.Key + raw
		case attrs.TargetAttr:
			if ok {
				res = append(res, html.Attribute{Key: spec.Key, Val: raw})
			}
		case attrs.TargetStyle:
			if ok {
				styles = append(styles, spec.Key+": "+raw)
			}
		}
	}
	if len(styles) > 0 {
		res = append(res, html.Attribute{Key: "style", Val: strings.Join(styles, "; ")})
	}
	return tag, res
}

func element(tag string, attributes []html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attributes,
	}
}

// parseStyles разбирает inline стиль в карту свойство - значение.
// Ошибка токенизатора завершает разбор, уже прочитанные объявления сохраняются.
func parseStyles(style string) map[string]string {
	res := make(map[string]string)
	if strings.TrimSpace(style) == "" {
		return res
	}

	parser := css.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return res
		case css.DeclarationGrammar:
			var val strings.Builder
			for _, t := range parser.Values() {
				if t.TokenType == css.WhitespaceToken {
					val.WriteByte(' ')
					continue
				}
				val.Write(t.Data)
			}
			value := strings.TrimSpace(val.String())
			if value == "inherit" {
				continue
			}
			res[strings.ToLower(string(data))] = value
		}
	}
}

func findElementByTagName(rootNode *html.Node, tagName string) *html.Node {
	var el *html.Node
	iterNodes(rootNode, func(child *html.Node) bool {
		if el != nil {
			return true
		}
		if child.Type == html.ElementNode && child.Data == tagName {
			el = child
			return true
		}
		return false
	})
	return el
}

func getBody(rootNode *html.Node) *html.Node {
	return findElementByTagName(rootNode, "body")
}

func iterNodes(node *html.Node, f func(child *html.Node) bool) {
	if f(node) {
		return
	}
	for p := node.FirstChild; p != nil; p = p.NextSibling {
		iterNodes(p, f)
	}
}

func getAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func attrExists(key string, attrs []html.Attribute) bool {
	return slices.ContainsFunc(attrs, func(attr html.Attribute) bool {
		return attr.Key == key
	})
}
