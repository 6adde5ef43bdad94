package main

import (
	"go/parser"
	"go/token"
	"net/http"
	"strings"
	"testing"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorRows(t *testing.T) {
	src := `package apierrors

import "net/http"

var (
	ErrA = DefinedError{Code: 1001, StatusCode: http.StatusNotFound, Err: "not found", RuErr: "Не найдено"}
	ErrB = DefinedError{Code: 5001, Err: "bad " + "request", RuErr: "Плохой запрос"}
	ErrC = DefinedError{Code: 5002, StatusCode: http.StatusTeapot, Err: "teapot"}
)
`
	f, err := parser.ParseFile(token.NewFileSet(), "errors.go", src, 0)
	require.NoError(t, err)

	rows := errorRows(f)
	require.Len(t, rows, 3)
	assert.Equal(t, "404 *StatusNotFound*", rows[0][1])
	assert.Contains(t, rows[0][0], "1001")
	assert.Equal(t, "400 *StatusBadRequest*", rows[1][1])
	assert.Contains(t, rows[1][2], "bad request")
	assert.Equal(t, "418 *StatusTeapot*", rows[2][1])
	assert.Empty(t, rows[2][3])
}

func TestStatusCodes(t *testing.T) {
	codes := statusCodes()
	for name, code := range map[string]int{
		"StatusOK":                      http.StatusOK,
		"StatusTooManyRequests":         http.StatusTooManyRequests,
		"StatusRequestEntityTooLarge":   http.StatusRequestEntityTooLarge,
		"StatusHTTPVersionNotSupported": http.StatusHTTPVersionNotSupported,
		"StatusIMUsed":                  http.StatusIMUsed,
		"StatusProxyAuthRequired":       http.StatusProxyAuthRequired,
	} {
		assert.Equal(t, code, codes[name], name)
	}
}

func TestWriteReference(t *testing.T) {
	var sb strings.Builder
	err := writeReference(&sb,
		[]dto.AttributeLight{{Name: "lineHeight", AppliesTo: []string{"paragraph", "heading"}, Default: "1.5", Target: "style", Key: "line-height"}},
		[]dto.CommandLight{{Name: "setLineHeight", Description: "Межстрочный интервал", Args: []string{"lineHeight"}}, {Name: "unsetLineHeight"}},
	)
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "# Справочник редактора")
	assert.Contains(t, out, "paragraph, heading")
	assert.Contains(t, out, "**setLineHeight**")
	assert.Contains(t, out, "**unsetLineHeight**")
}
