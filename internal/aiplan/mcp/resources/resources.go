package resources

import (
	"context"
	"encoding/json"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/dto"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/commands"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type ResourceHandler func(registry *attrs.Registry, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)

type Resource struct {
	Resource mcp.Resource
	Handler  ResourceHandler
}

func WrapResource(registry *attrs.Registry, handler ResourceHandler) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handler(registry, request)
	}
}

var editorResources = []Resource{
	{
		mcp.NewResource(
			"editor://attributes",
			"editor_attributes",
			mcp.WithResourceDescription("Реестр атрибутов узлов и марок: к каким типам применяется, значение по умолчанию и место в HTML"),
			mcp.WithMIMEType("application/json"),
		),
		getAttributes,
	},
	{
		mcp.NewResource(
			"editor://commands",
			"editor_commands",
			mcp.WithResourceDescription("Каталог команд редактора с аргументами"),
			mcp.WithMIMEType("application/json"),
		),
		getCommands,
	},
}

func GetEditorResources(registry *attrs.Registry) []server.ServerResource {
	var resources []server.ServerResource
	for _, r := range editorResources {
		resources = append(resources, server.ServerResource{
			Resource: r.Resource,
			Handler:  WrapResource(registry, r.Handler),
		})
	}
	return resources
}

func getAttributes(registry *attrs.Registry, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, dto.AttributesToDTO(registry))
}

func getCommands(registry *attrs.Registry, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, dto.CommandsToDTO(commands.Definitions()))
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
