package tools

import (
	"context"
	"encoding/json"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/apierrors"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/dto"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/commands"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/mcp/logger"
	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	"github.com/gofrs/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var editorTools = []Tool{
	{
		mcp.NewTool(
			"list_commands",
			mcp.WithDescription("Список команд редактора с описанием аргументов"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
		),
		listCommands,
	},
	{
		mcp.NewTool(
			"list_sessions",
			mcp.WithDescription("Список открытых сессий редактора"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
		),
		listSessions,
	},
	{
		mcp.NewTool(
			"create_session",
			mcp.WithDescription("Открытие новой сессии редактора с документом из HTML"),
			mcp.WithString("title",
				mcp.Description("Название документа"),
			),
			mcp.WithString("html",
				mcp.Description("Исходный HTML документа (по умолчанию пустой документ)"),
			),
			mcp.WithBoolean("read_only",
				mcp.Description("Открыть только для чтения (по умолчанию false)"),
			),
		),
		createSession,
	},
	{
		mcp.NewTool(
			"get_document",
			mcp.WithDescription("Получение текущей версии документа сессии"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("ID сессии редактора (UUID)"),
			),
			mcp.WithString("format",
				mcp.Description("Формат документа: html или json (по умолчанию html)"),
				mcp.Enum("html", "json"),
			),
		),
		getDocument,
	},
	{
		mcp.NewTool(
			"set_selection",
			mcp.WithDescription("Установка выделения сессии в позициях документа"),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("ID сессии редактора (UUID)"),
			),
			mcp.WithNumber("from",
				mcp.Required(),
				mcp.Description("Начальная позиция выделения"),
			),
			mcp.WithNumber("to",
				mcp.Required(),
				mcp.Description("Конечная позиция выделения"),
			),
		),
		setSelection,
	},
	{
		mcp.NewTool(
			"apply_command",
			mcp.WithDescription("Применение команды редактора к выделению сессии. Если заданы from и to, выделение ставится перед выполнением"),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("ID сессии редактора (UUID)"),
			),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("Имя команды из list_commands"),
			),
			mcp.WithObject("args",
				mcp.Description("Аргументы команды"),
			),
			mcp.WithNumber("from",
				mcp.Description("Начальная позиция выделения"),
			),
			mcp.WithNumber("to",
				mcp.Description("Конечная позиция выделения"),
			),
		),
		applyCommand,
	},
	{
		mcp.NewTool(
			"can_apply_command",
			mcp.WithDescription("Пробный прогон команды редактора без изменения документа"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("ID сессии редактора (UUID)"),
			),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("Имя команды из list_commands"),
			),
			mcp.WithObject("args",
				mcp.Description("Аргументы команды"),
			),
			mcp.WithNumber("from",
				mcp.Description("Начальная позиция выделения"),
			),
			mcp.WithNumber("to",
				mcp.Description("Конечная позиция выделения"),
			),
		),
		canApplyCommand,
	},
	{
		mcp.NewTool(
			"load_document",
			mcp.WithDescription("Замена документа сессии содержимым HTML"),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("ID сессии редактора (UUID)"),
			),
			mcp.WithString("html",
				mcp.Required(),
				mcp.Description("Новый HTML документа"),
			),
		),
		loadDocument,
	},
}

func GetEditorTools(sessions *store.SessionStore) []server.ServerTool {
	return serverTools(sessions, editorTools)
}

func listCommands(ctx context.Context, sessions *store.SessionStore, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(dto.CommandsToDTO(commands.Definitions()))
}

func listSessions(ctx context.Context, sessions *store.SessionStore, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := sessions.List()
	result := make([]*dto.SessionLight, 0, len(list))
	for _, s := range list {
		result = append(result, s.ToLightDTO())
	}
	return mcp.NewToolResultJSON(result)
}

func createSession(ctx context.Context, sessions *store.SessionStore, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := sessions.Create(
		request.GetString("title", ""),
		request.GetString("html", ""),
		request.GetBool("read_only", false),
	)
	if err != nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultJSON(s.ToLightDTO())
}

func getDocument(ctx context.Context, sessions *store.SessionStore, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := findSession(sessions, request)
	if res != nil {
		return res, nil
	}

	doc := s.Editor().Document()
	result := dto.DocumentResponse{
		SessionId: s.ID.String(),
		Version:   doc.Version,
		Format:    request.GetString("format", "html"),
		Size:      doc.Size(),
	}
	switch result.Format {
	case "html":
		result.HTML = s.Editor().Bridge().ToHTML(doc)
	case "json":
		data, err := s.Editor().JSON()
		if err != nil {
			return logger.Error(err), nil
		}
		result.JSON = json.RawMessage(data)
	default:
		return apierrors.ErrUnsupportedFormat.WithFormattedMessage(result.Format).MCPError(), nil
	}
	return mcp.NewToolResultJSON(result)
}

func setSelection(ctx context.Context, sessions *store.SessionStore, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := findSession(sessions, request)
	if res != nil {
		return res, nil
	}
	sel, ok := selectionArg(request)
	if !ok {
		return apierrors.ErrInvalidRequest.WithFormattedMessage("from и to обязательны").MCPError(), nil
	}
	if err := s.SetSelection(*sel); err != nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultJSON(dto.SelectionToDTO(s.Selection()))
}

func applyCommand(ctx context.Context, sessions *store.SessionStore, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := findSession(sessions, request)
	if res != nil {
		return res, nil
	}
	name, err := request.RequireString("command")
	if err != nil {
		return apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()).MCPError(), nil
	}
	args, res := commandArgs(request)
	if res != nil {
		return res, nil
	}
	sel, _ := selectionArg(request)

	applied, err := s.Apply(name, args, sel)
	if err != nil {
		return logger.Error(store.MapError(name, err)), nil
	}
	return mcp.NewToolResultJSON(dto.CommandResult{
		Command: name,
		Applied: applied,
		Version: s.Editor().CurrentVersion(),
		HTML:    s.Editor().HTML(),
	})
}

func canApplyCommand(ctx context.Context, sessions *store.SessionStore, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := findSession(sessions, request)
	if res != nil {
		return res, nil
	}
	name, err := request.RequireString("command")
	if err != nil {
		return apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()).MCPError(), nil
	}
	args, res := commandArgs(request)
	if res != nil {
		return res, nil
	}
	sel, _ := selectionArg(request)

	can, err := s.Can(name, args, sel)
	if err != nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultJSON(dto.CommandResult{
		Command: name,
		Applied: can,
		Version: s.Editor().CurrentVersion(),
	})
}

func loadDocument(ctx context.Context, sessions *store.SessionStore, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, res := findSession(sessions, request)
	if res != nil {
		return res, nil
	}
	html, err := request.RequireString("html")
	if err != nil {
		return apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()).MCPError(), nil
	}
	if err := s.Load(html); err != nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultJSON(s.ToLightDTO())
}

// findSession ищет сессию по аргументу session_id.
func findSession(sessions *store.SessionStore, request mcp.CallToolRequest) (*store.Session, *mcp.CallToolResult) {
	raw, err := request.RequireString("session_id")
	if err != nil {
		return nil, apierrors.ErrInvalidSessionID.MCPError(err.Error())
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return nil, apierrors.ErrInvalidSessionID.MCPError()
	}
	s, err := sessions.Get(id)
	if err != nil {
		return nil, logger.Error(err)
	}
	return s, nil
}

func commandArgs(request mcp.CallToolRequest) (map[string]any, *mcp.CallToolResult) {
	raw, ok := request.GetArguments()["args"]
	if !ok || raw == nil {
		return nil, nil
	}
	args, ok := raw.(map[string]any)
	if !ok {
		return nil, apierrors.ErrInvalidCommandArgs.WithFormattedMessage("args must be an object").MCPError()
	}
	return args, nil
}

// selectionArg выделение из from и to, оба аргумента обязательны.
func selectionArg(request mcp.CallToolRequest) (*edtypes.Selection, bool) {
	args := request.GetArguments()
	from, okFrom := args["from"].(float64)
	to, okTo := args["to"].(float64)
	if !okFrom || !okTo {
		return nil, false
	}
	return &edtypes.Selection{From: int(from), To: int(to)}, true
}
