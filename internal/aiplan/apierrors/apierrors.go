// Пакет содержит определения ошибок API сервера редактора. Каждая ошибка имеет код, статус HTTP и описание,
// что позволяет удобно обрабатывать исключения и предоставлять информативные сообщения пользователю.
// Также включает в себя helper-функцию для форматирования сообщений об ошибках.
//
// Основные возможности:
//   - Определение ошибок сессий редактора, команд и документов.
//   - Предоставление кодов ошибок, соответствующих кодам HTTP статусов.
//   - Включение сообщений об ошибках на русском для отображения пользователю.
//   - Функция для форматирования сообщений об ошибках с использованием аргументов.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

// Is сравнивает ошибки по коду, форматированные сообщения не влияют.
func (e DefinedError) Is(target error) bool {
	t, ok := target.(DefinedError)
	return ok && t.Code == e.Code
}

var (
	// 1*** - session errors
	ErrSessionNotFound     = DefinedError{Code: 1001, StatusCode: http.StatusNotFound, Err: "editor session not found", RuErr: "Сессия редактора не найдена"}
	ErrSessionLimit        = DefinedError{Code: 1002, StatusCode: http.StatusTooManyRequests, Err: "too many editor sessions", RuErr: "Превышено количество открытых сессий редактора"}
	ErrSessionReadOnly     = DefinedError{Code: 1003, StatusCode: http.StatusForbidden, Err: "editor session is read only", RuErr: "Сессия редактора открыта только для чтения"}
	ErrSessionExpired      = DefinedError{Code: 1004, StatusCode: http.StatusGone, Err: "editor session expired", RuErr: "Срок действия сессии редактора истек"}
	ErrInvalidSessionID    = DefinedError{Code: 1005, StatusCode: http.StatusBadRequest, Err: "invalid session id", RuErr: "Некорректный идентификатор сессии"}
	ErrSelectionOutOfRange = DefinedError{Code: 1006, StatusCode: http.StatusBadRequest, Err: "selection is out of document range", RuErr: "Выделение выходит за границы документа"}

	// 2*** - command errors
	ErrUnknownCommand       = DefinedError{Code: 2001, StatusCode: http.StatusNotFound, Err: "unknown command %s", RuErr: "Неизвестная команда %s"}
	ErrInvalidCommandArgs   = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "invalid command arguments: %s", RuErr: "Некорректные аргументы команды: %s"}
	ErrCommandNotApplicable = DefinedError{Code: 2003, StatusCode: http.StatusConflict, Err: "command is not applicable to the selection", RuErr: "Команду нельзя применить к выделению"}
	ErrCommandVetoed        = DefinedError{Code: 2004, StatusCode: http.StatusForbidden, Err: "command rejected by host: %s", RuErr: "Изменение отклонено: %s"}

	// 3*** - document errors
	ErrInvalidDocument   = DefinedError{Code: 3001, StatusCode: http.StatusBadRequest, Err: "invalid document: %s", RuErr: "Некорректный документ: %s"}
	ErrDocumentTooLarge  = DefinedError{Code: 3002, StatusCode: http.StatusRequestEntityTooLarge, Err: "document exceeds the allowed size", RuErr: "Размер документа превышает допустимый"}
	ErrVersionNotFound   = DefinedError{Code: 3003, StatusCode: http.StatusNotFound, Err: "document version not found", RuErr: "Версия документа не найдена"}
	ErrUnsupportedFormat = DefinedError{Code: 3004, StatusCode: http.StatusBadRequest, Err: "unsupported document format %s", RuErr: "Неподдерживаемый формат документа %s"}

	// 5*** - validation and other errors
	ErrGeneric          = DefinedError{Code: 5000, StatusCode: http.StatusBadRequest, Err: "Something went wrong. Please try again later or contact the support team.", RuErr: "Что-то пошло не так. Повторите попытку позже или обратитесь в службу поддержки"}
	ErrInvalidRequest   = DefinedError{Code: 5001, StatusCode: http.StatusBadRequest, Err: "invalid request: %s", RuErr: "Некорректный запрос: %s"}
	ErrEntityToLarge    = DefinedError{Code: 5010, StatusCode: http.StatusRequestEntityTooLarge, Err: "size exceeds the allowed limit", RuErr: "Размер запроса превышает допустимый."}
	ErrMCPTokenRequired = DefinedError{Code: 5020, StatusCode: http.StatusUnauthorized, Err: "mcp token is required", RuErr: "Требуется токен доступа MCP"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}

// MCPError результат вызова MCP инструмента с русским описанием ошибки и подсказками.
func (e DefinedError) MCPError(hints ...string) *mcp.CallToolResult {
	msg := fmt.Sprintf("%d: %s", e.Code, e.RuErr)
	if len(hints) > 0 {
		msg += " (" + strings.Join(hints, "; ") + ")"
	}
	return mcp.NewToolResultError(msg)
}
