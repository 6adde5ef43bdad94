package logger

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/apierrors"
	"github.com/mark3labs/mcp-go/mcp"
)

// Error результат инструмента для ошибки. Ошибки каталога отдаются клиенту как есть,
// остальные логируются и скрываются.
func Error(err error, hints ...string) *mcp.CallToolResult {
	var customErr apierrors.DefinedError
	if errors.As(err, &customErr) {
		return customErr.MCPError(hints...)
	}
	slog.Error("MCP internal error", "file", getCallerFile(), "err", err)
	return mcp.NewToolResultError("internal error")
}

func getCallerFile() slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.Attr{}
	}
	_, file := filepath.Split(path)
	return slog.String("caller", fmt.Sprintf("%s:%d", file, no))
}
