package main

import (
	"fmt"
	"go/ast"
	"go/token"
	"io"
	"net/http"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"
)

const defaultStatus = "StatusBadRequest"

// Имена констант net/http, не совпадающие с текстом статуса.
var statusAliases = map[string]int{
	"StatusNonAuthoritativeInfo": http.StatusNonAuthoritativeInfo,
	"StatusProxyAuthRequired":    http.StatusProxyAuthRequired,
	"StatusTeapot":               http.StatusTeapot,
}

// statusCodes индекс "StatusNotFound" -> 404, собранный из http.StatusText.
func statusCodes() map[string]int {
	res := make(map[string]int, len(statusAliases)+64)
	for code := 100; code < 600; code++ {
		text := http.StatusText(code)
		if text == "" {
			continue
		}
		name := strings.NewReplacer(" ", "", "-", "").Replace(text)
		res["Status"+name] = code
	}
	for name, code := range statusAliases {
		res[name] = code
	}
	return res
}

// errorRows строки таблицы по объявлениям DefinedError: код, HTTP статус, сообщение, сообщение на русском.
func errorRows(f *ast.File) [][]string {
	codes := statusCodes()
	var rows [][]string
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, value := range vs.Values {
				lit, ok := value.(*ast.CompositeLit)
				if !ok {
					continue
				}
				rows = append(rows, errorRow(lit, codes))
			}
		}
	}
	return rows
}

func errorRow(lit *ast.CompositeLit, codes map[string]int) []string {
	row := make([]string, 4)
	status := defaultStatus
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		key, _ := kv.Key.(*ast.Ident)
		if key == nil {
			continue
		}
		switch key.Name {
		case "Code":
			row[0] = md.Bold(literal(kv.Value))
		case "StatusCode":
			if sel, ok := kv.Value.(*ast.SelectorExpr); ok {
				status = sel.Sel.Name
			}
		case "Err":
			row[2] = md.Code(literal(kv.Value))
		case "RuErr":
			row[3] = md.Code(literal(kv.Value))
		}
	}
	row[1] = md.Italic(status)
	if code, ok := codes[status]; ok {
		row[1] = fmt.Sprintf("%d %s", code, row[1])
	}
	return row
}

// literal значение литерала, строки склеиваются по "+".
func literal(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind == token.STRING {
			if s, err := strconv.Unquote(e.Value); err == nil {
				return s
			}
		}
		return e.Value
	case *ast.BinaryExpr:
		if e.Op == token.ADD {
			return literal(e.X) + literal(e.Y)
		}
	case *ast.ParenExpr:
		return literal(e.X)
	}
	return ""
}

func writeErrors(w io.Writer, rows [][]string) error {
	return md.NewMarkdown(w).
		H1("Перечень кодов ошибок").
		PlainText("Данный раздел посвящен описанию возможных ошибок от сервера.").
		CustomTable(md.TableSet{
			Header: []string{"Код", "HTTP код", "Сообщение", "Сообщение на русском"},
			Rows:   rows,
		}, md.TableOptions{AutoWrapText: false}).
		Build()
}
