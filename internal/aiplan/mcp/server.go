package mcp

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/apierrors"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/mcp/resources"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/mcp/tools"
	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	"github.com/labstack/echo/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// mcpInstructions содержит описание MCP сервера для LLM-моделей.
const mcpInstructions = `MCP сервер редактора форматированного текста АИПлан

## Модель документа
Документ - дерево узлов: doc → блоки (paragraph, heading, blockquote, codeBlock, списки) → inline содержимое (text, hardBreak, image).
Форматирование текста хранится марками (bold, italic, link, textStyle, highlight и др.), атрибуты блоков - в attrs узла.
Значения по умолчанию не хранятся: атрибут со значением по умолчанию отсутствует в документе.

## Позиции
Выделение задается позициями from и to:
- каждый символ текста занимает 1 позицию
- hardBreak и image занимают 1 позицию
- открытие и закрытие любого другого узла занимают по 1 позиции
Например, в документе <p>abc</p><p>de</p> текст первого параграфа лежит в позициях 1..4, второго 6..8.

## Работа с командами
1. Получите список команд через list_commands.
2. Откройте сессию create_session или найдите существующую через list_sessions.
3. Выполните команду apply_command, передав from и to. Для проверки без изменения используйте can_apply_command.
4. Текущий документ доступен через get_document.

Команда, вернувшая ошибку, не меняет документ. Команды блоков (отступ, интервал, выравнивание) применяются ко всем параграфам и заголовкам, пересекающим выделение.
`

// NewMCPServer создаёт MCP сервер с доступом к сессиям редактора.
func NewMCPServer(sessions *store.SessionStore, registry *attrs.Registry, version string) echo.HandlerFunc {
	hooks := &server.Hooks{}
	hooks.AddOnError(ErrorLoggerHook)

	srv := server.NewMCPServer(
		"aiplan-editor-mcp",
		version,
		server.WithInstructions(mcpInstructions),
		server.WithHooks(hooks),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	srv.AddTools(tools.GetEditorTools(sessions)...)
	srv.AddResources(resources.GetEditorResources(registry)...)

	httpServer := server.NewStreamableHTTPServer(srv)
	return func(c echo.Context) error {
		sessionCtx := context.WithValue(c.Request().Context(), "client", c.RealIP())
		httpServer.ServeHTTP(c.Response(), c.Request().WithContext(sessionCtx))
		return nil
	}
}

// TokenMiddleware пропускает запросы с заголовком Authorization: Bearer <token>.
// Пустой токен отключает проверку.
func TokenMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token == "" {
				return next(c)
			}
			got, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return c.JSON(http.StatusUnauthorized, apierrors.ErrMCPTokenRequired)
			}
			return next(c)
		}
	}
}

func ErrorLoggerHook(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
	client := ctx.Value("client")
	slog.Error("MCP Error", "client", client, "id", id, "method", method, "message", message, "err", err)
}
