package tools

import (
	"context"
	"log/slog"

	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolHandler определяет сигнатуру функции-обработчика MCP инструмента.
// Получает контекст, хранилище сессий редактора и параметры запроса.
type ToolHandler func(ctx context.Context, sessions *store.SessionStore, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Tool представляет MCP инструмент с его обработчиком.
type Tool struct {
	Tool    mcp.Tool
	Handler ToolHandler
}

// WrapTool оборачивает обработчик инструмента, подставляя хранилище сессий.
func WrapTool(sessions *store.SessionStore, handler ToolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		slog.Debug("MCP tool call", "client", ctx.Value("client"), "tool", request.Params.Name)
		return handler(ctx, sessions, request)
	}
}

func serverTools(sessions *store.SessionStore, list []Tool) []server.ServerTool {
	var result []server.ServerTool
	for _, t := range list {
		result = append(result, server.ServerTool{
			Tool:    t.Tool,
			Handler: WrapTool(sessions, t.Handler),
		})
	}
	return result
}
