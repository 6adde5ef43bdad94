// Структуры запросов API редактора и их привязка к параметрам сессии.
package aiplan

import (
	"encoding/json"
	"strconv"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/apierrors"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/labstack/echo/v4"
)

type CreateSessionRequest struct {
	Title    string          `json:"title" validate:"sessionTitle"`
	Format   string          `json:"format" validate:"docFormat"`
	HTML     string          `json:"html"`
	JSON     json.RawMessage `json:"json" swaggertype:"object"`
	ReadOnly bool            `json:"read_only"`
}

type LoadDocumentRequest struct {
	Format string          `json:"format" validate:"docFormat"`
	HTML   string          `json:"html"`
	JSON   json.RawMessage `json:"json" swaggertype:"object"`
}

type SelectionRequest struct {
	From *int `json:"from" validate:"required,min=0"`
	To   *int `json:"to" validate:"required,min=0"`
}

func (req *SelectionRequest) Selection() edtypes.Selection {
	return edtypes.Selection{From: *req.From, To: *req.To}
}

type CommandRequest struct {
	Args      map[string]any    `json:"args"`
	Selection *SelectionRequest `json:"selection"`
}

func (req *CommandRequest) selection() *edtypes.Selection {
	if req.Selection == nil || req.Selection.From == nil || req.Selection.To == nil {
		return nil
	}
	sel := req.Selection.Selection()
	return &sel
}

// bindValid разбирает тело запроса и проверяет его валидатором.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error())
	}
	if err := c.Validate(req); err != nil {
		return apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error())
	}
	return nil
}

// formatParam формат документа из query параметра format, по умолчанию html.
func formatParam(c echo.Context) (string, error) {
	format := c.QueryParam("format")
	switch format {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", apierrors.ErrUnsupportedFormat.WithFormattedMessage(format)
}

func versionParam(c echo.Context) (uint64, error) {
	v, err := strconv.ParseUint(c.Param("version"), 10, 64)
	if err != nil {
		return 0, apierrors.ErrVersionNotFound
	}
	return v, nil
}
