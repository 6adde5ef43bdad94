// Определяет политики безопасности для HTML, который хост передаёт редактору. Политики применяются к элементам DOM
// и обеспечивают контроль над разрешенными атрибутами и стилями, чтобы предотвратить XSS и другие уязвимости.
//
// Основные возможности:
//   - Разрешение только тех элементов, которые редактор умеет отображать в документ.
//   - Разрешение стилей и атрибутов, объявленных в реестре атрибутов редактора.
//   - Ограничение допустимых значений служебных атрибутов с помощью регулярных выражений.
//   - Pre-определенная политика StripTagsPolicy для очистки заголовков и прочих строк от разметки.
package policy

import (
	"maps"
	"regexp"
	"slices"

	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()

var (
	checkedRegexp       = regexp.MustCompile(`^(true|false)$`)
	numberRegexp        = regexp.MustCompile(`^\d+$`)
	indentClassRegexp   = regexp.MustCompile(`^tt-indent-[0-9]+$`)
	languageClassRegexp = regexp.MustCompile(`^language-[a-z0-9_+#-]+$`)
	languageRegexp      = regexp.MustCompile(`^[a-zA-Z0-9_+#-]+$`)
	targetRegexp        = regexp.MustCompile(`^(_blank|_self|_parent|_top)$`)
	colorRegexp         = regexp.MustCompile(`^(#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|rgba?\([\d\s.,%]+\))$`)
)

// Атрибуты разметки, которые задаёт сам редактор, а не реестр.
var structuralAttrs = map[string][]string{
	"data-type": {"ul", "li"},
}

// StyleHandler проверяет значение свойства inline стиля.
type StyleHandler func(value string) bool

// NewEditorPolicy строит политику для HTML редактора.
// styles - свойства inline стиля с проверкой значения, attrs - HTML атрибуты из реестра атрибутов.
// Значение стиля пропускается, если его принимает обработчик свойства, поэтому
// значения в кавычках и с !important доходят до разбора реестром.
func NewEditorPolicy(styles map[string]StyleHandler, attrs []string) *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("mark", "u", "s", "strike", "del", "sup", "sub", "span", "pre", "code")
	p.AllowAttrs("class").Matching(indentClassRegexp).OnElements("p", "h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("class").Matching(languageClassRegexp).OnElements("code")

	for attr, elements := range structuralAttrs {
		p.AllowAttrs(attr).OnElements(elements...)
	}
	p.AllowAttrs("data-color").Matching(colorRegexp).OnElements("mark")

	for _, attr := range slices.Sorted(slices.Values(attrs)) {
		switch attr {
		case "href", "src", "alt":
			// уже разрешены UGC политикой
		case "target":
			p.AllowAttrs(attr).Matching(targetRegexp).OnElements("a")
		case "data-language":
			p.AllowAttrs(attr).Matching(languageRegexp).OnElements("pre")
		case "data-checked":
			p.AllowAttrs(attr).Matching(checkedRegexp).OnElements("li")
		case "start":
			p.AllowAttrs(attr).Matching(numberRegexp).OnElements("ol")
		default:
			p.AllowAttrs(attr).Globally()
		}
	}

	for _, prop := range slices.Sorted(maps.Keys(styles)) {
		p.AllowStyles(prop).MatchingHandler(styles[prop]).Globally()
	}
	return p
}
