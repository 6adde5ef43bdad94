// Пакет stack_error оборачивает внутренние ошибки сервера редактора, накапливая места возникновения
// и контекст (сессия, команда) для вывода в лог одним сообщением.
package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/labstack/echo/v4"
)

type TrackerError struct {
	Context  map[string]any
	ErrStack []slog.Attr
	cause    error
}

// TrackErrorStack добавляет место вызова к стеку ошибки. Если err уже TrackerError, стек дополняется.
func TrackErrorStack(err error) *TrackerError {
	var te *TrackerError
	if !errors.As(err, &te) {
		te = &TrackerError{
			Context: make(map[string]any),
			cause:   err,
		}
	}
	te.ErrStack = append(te.ErrStack, getCallerFile(err))
	return te
}

// AddContext добавляет значение контекста, уже заданный ключ не перезаписывается.
func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

func (te *TrackerError) AddErr(err error) *TrackerError {
	te.ErrStack = append(te.ErrStack, getCallerFile(err))
	return te
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

// LogValue группа с контекстом и трассой ошибки.
func (te *TrackerError) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(te.Context)+len(te.ErrStack))
	for _, k := range slices.Sorted(maps.Keys(te.Context)) {
		attrs = append(attrs, slog.Any(k, te.Context[k]))
	}
	attrs = append(attrs, te.ErrStack...)
	return slog.GroupValue(attrs...)
}

// GetError логирует ошибку с трассой и параметрами запроса.
func GetError(c echo.Context, err error) {
	var trackerError *TrackerError
	var attrs []any

	if errors.As(err, &trackerError) {
		attrs = append(attrs, slog.Any("error", trackerError))
	} else {
		attrs = append(attrs, slog.String("raw_error", err.Error()))
	}

	if c != nil {
		attrs = append(attrs,
			slog.String("method", c.Request().Method),
			slog.String("url", c.Request().URL.String()))
	}

	slog.With(attrs...).Error("stack error")
}

func getCallerFile(err error) slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.String("trace", "unknown")
	}
	_, file := filepath.Split(path)
	msg := "<nil>"
	if err != nil {
		msg = err.Error()
	}
	return slog.String("trace", fmt.Sprintf("%s:%d %s", file, no, msg))
}
