// Генерация документации в формате Markdown: таблица ошибок API по объявлениям
// apierrors.go и справочник атрибутов и команд редактора.
package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/dto"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/commands"
	md "github.com/nao1215/markdown"
)

func main() {
	errorsFile := flag.String("src", "internal/aiplan/apierrors/apierrors.go", "Path of apierrors.go")
	outputMd := flag.String("out", "api_error.md", "Path to output md")
	referenceMd := flag.String("ref", "editor_reference.md", "Path to output attributes and commands reference, empty to skip")
	flag.Parse()

	if err := generateErrors(*errorsFile, *outputMd); err != nil {
		slog.Error("Generate api errors docs", "src", *errorsFile, "err", err)
		os.Exit(1)
	}
	slog.Info("Docs generated", "out", *outputMd)

	if *referenceMd == "" {
		return
	}
	if err := generateReference(*referenceMd); err != nil {
		slog.Error("Generate reference", "err", err)
		os.Exit(1)
	}
	slog.Info("Reference generated", "out", *referenceMd)
}

func generateErrors(src, out string) error {
	f, err := parser.ParseFile(token.NewFileSet(), src, nil, 0)
	if err != nil {
		return err
	}
	ff, err := os.Create(out)
	if err != nil {
		return err
	}
	defer ff.Close()
	return writeErrors(ff, errorRows(f))
}

func generateReference(out string) error {
	registry, err := attrs.NewDefaultRegistry(attrs.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init attributes registry: %w", err)
	}
	rf, err := os.Create(out)
	if err != nil {
		return err
	}
	defer rf.Close()
	return writeReference(rf, dto.AttributesToDTO(registry), dto.CommandsToDTO(commands.Definitions()))
}

// writeReference справочник атрибутов и команд редактора.
func writeReference(w io.Writer, attributes []dto.AttributeLight, cmds []dto.CommandLight) error {
	var attrRows [][]string
	for _, a := range attributes {
		attrRows = append(attrRows, []string{
			md.Bold(a.Name),
			strings.Join(a.AppliesTo, ", "),
			md.Code(fmt.Sprint(a.Default)),
			a.Target,
			md.Code(a.Key),
		})
	}

	var cmdRows [][]string
	for _, c := range cmds {
		args := "-"
		if len(c.Args) > 0 {
			args = md.Code(strings.Join(c.Args, ", "))
		}
		cmdRows = append(cmdRows, []string{md.Bold(c.Name), args, c.Description})
	}

	return md.NewMarkdown(w).
		H1("Справочник редактора").
		H2("Атрибуты").
		PlainText("Атрибуты узлов документа и их представление в HTML.").
		CustomTable(md.TableSet{
			Header: []string{"Атрибут", "Типы узлов", "По умолчанию", "Представление", "Ключ"},
			Rows:   attrRows,
		}, md.TableOptions{AutoWrapText: false}).
		H2("Команды").
		CustomTable(md.TableSet{
			Header: []string{"Команда", "Аргументы", "Описание"},
			Rows:   cmdRows,
		}, md.TableOptions{AutoWrapText: false}).
		Build()
}
