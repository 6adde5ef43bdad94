package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/dto"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	store "github.com/aisa-it/aiplan-editor/internal/aiplan/memory-store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *store.SessionStore {
	reg, err := attrs.NewDefaultRegistry(attrs.DefaultConfig())
	require.NoError(t, err)
	return store.NewSessionStore(reg, nil, store.Options{})
}

func createRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError, "%v", result.Content)
	var v T
	content := result.Content[0].(mcp.TextContent)
	require.NoError(t, json.Unmarshal([]byte(content.Text), &v))
	return v
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError)
	return result.Content[0].(mcp.TextContent).Text
}

func TestApplyCommandTool(t *testing.T) {
	ss := setupStore(t)
	ctx := context.Background()

	res, err := createSession(ctx, ss, createRequest(map[string]any{"html": "<p>one</p><p>two</p>"}))
	require.NoError(t, err)
	session := decode[dto.SessionLight](t, res)

	t.Run("apply with selection", func(t *testing.T) {
		res, err := applyCommand(ctx, ss, createRequest(map[string]any{
			"session_id": session.Id,
			"command":    "setLineHeight",
			"args":       map[string]any{"lineHeight": "1.5"},
			"from":       float64(1),
			"to":         float64(8),
		}))
		require.NoError(t, err)
		result := decode[dto.CommandResult](t, res)
		assert.True(t, result.Applied)
		assert.Equal(t, `<p style="line-height: 1.5">one</p><p style="line-height: 1.5">two</p>`, result.HTML)
		assert.Equal(t, session.Version+1, result.Version)
	})

	t.Run("dry run keeps document", func(t *testing.T) {
		res, err := canApplyCommand(ctx, ss, createRequest(map[string]any{
			"session_id": session.Id,
			"command":    "increaseIndent",
		}))
		require.NoError(t, err)
		result := decode[dto.CommandResult](t, res)
		assert.True(t, result.Applied)
		assert.Equal(t, session.Version+1, result.Version)
	})

	t.Run("unknown command", func(t *testing.T) {
		res, err := applyCommand(ctx, ss, createRequest(map[string]any{
			"session_id": session.Id,
			"command":    "explode",
		}))
		require.NoError(t, err)
		assert.Contains(t, errorText(t, res), "2001")
	})

	t.Run("args must be object", func(t *testing.T) {
		res, err := applyCommand(ctx, ss, createRequest(map[string]any{
			"session_id": session.Id,
			"command":    "setColor",
			"args":       "red",
		}))
		require.NoError(t, err)
		assert.Contains(t, errorText(t, res), "2002")
	})

	t.Run("bad session id", func(t *testing.T) {
		res, err := applyCommand(ctx, ss, createRequest(map[string]any{
			"session_id": "not-uuid",
			"command":    "increaseIndent",
		}))
		require.NoError(t, err)
		assert.Contains(t, errorText(t, res), "1005")
	})
}

func TestGetDocumentTool(t *testing.T) {
	ss := setupStore(t)
	ctx := context.Background()
	s, err := ss.Create("doc", "<h2>Title</h2>", false)
	require.NoError(t, err)

	res, err := getDocument(ctx, ss, createRequest(map[string]any{"session_id": s.ID.String()}))
	require.NoError(t, err)
	doc := decode[dto.DocumentResponse](t, res)
	assert.Equal(t, "<h2>Title</h2>", doc.HTML)
	assert.Equal(t, 7, doc.Size)

	res, err = getDocument(ctx, ss, createRequest(map[string]any{"session_id": s.ID.String(), "format": "json"}))
	require.NoError(t, err)
	doc = decode[dto.DocumentResponse](t, res)
	assert.Contains(t, string(doc.JSON), `"heading"`)

	res, err = getDocument(ctx, ss, createRequest(map[string]any{"session_id": s.ID.String(), "format": "pdf"}))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, res), "3004")
}

func TestSelectionAndLoadTools(t *testing.T) {
	ss := setupStore(t)
	ctx := context.Background()
	s, err := ss.Create("", "<p>abc</p>", false)
	require.NoError(t, err)

	res, err := setSelection(ctx, ss, createRequest(map[string]any{"session_id": s.ID.String(), "from": float64(3), "to": float64(1)}))
	require.NoError(t, err)
	sel := decode[dto.SelectionLight](t, res)
	assert.Equal(t, dto.SelectionLight{From: 1, To: 3}, sel)

	res, err = setSelection(ctx, ss, createRequest(map[string]any{"session_id": s.ID.String(), "from": float64(0), "to": float64(50)}))
	require.NoError(t, err)
	assert.Contains(t, errorText(t, res), "1006")

	res, err = loadDocument(ctx, ss, createRequest(map[string]any{"session_id": s.ID.String(), "html": "<p>new</p>"}))
	require.NoError(t, err)
	decode[dto.SessionLight](t, res)
	assert.Equal(t, "<p>new</p>", s.Editor().HTML())
	assert.Equal(t, dto.SelectionLight{}, dto.SelectionToDTO(s.Selection()))
}

func TestListTools(t *testing.T) {
	ss := setupStore(t)
	ctx := context.Background()
	_, err := ss.Create("a", "", false)
	require.NoError(t, err)

	res, err := listSessions(ctx, ss, createRequest(nil))
	require.NoError(t, err)
	assert.Len(t, decode[[]dto.SessionLight](t, res), 1)

	res, err = listCommands(ctx, ss, createRequest(nil))
	require.NoError(t, err)
	cmds := decode[[]dto.CommandLight](t, res)
	assert.NotEmpty(t, cmds)
	assert.Equal(t, "setFontSize", cmds[0].Name)
}
