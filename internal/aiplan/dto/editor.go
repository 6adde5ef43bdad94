// Содержит структуры данных (DTO) API сервера редактора. Предназначен для обмена данными
// между HTTP обработчиками, MCP инструментами и клиентами.
//
// Основные возможности:
//   - Описание сессий редактора (SessionLight).
//   - Каталог команд (CommandLight) и атрибутов (AttributeLight).
//   - Ответы с документом и результатом команды.
package dto

import (
	"encoding/json"
	"time"

	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/attrs"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/commands"
	"github.com/aisa-it/aiplan-editor/internal/aiplan/editor/edtypes"
)

type SessionLight struct {
	Id         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	ReadOnly   bool      `json:"read_only"`
	Version    uint64    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_access"`
}

type SelectionLight struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func SelectionToDTO(s edtypes.Selection) SelectionLight {
	return SelectionLight{From: s.From, To: s.To}
}

type DocumentResponse struct {
	SessionId string          `json:"session_id"`
	Version   uint64          `json:"version"`
	Format    string          `json:"format"`
	HTML      string          `json:"html,omitempty"`
	JSON      json.RawMessage `json:"json,omitempty" swaggertype:"object"`
	Size      int             `json:"size"`
}

type CommandResult struct {
	Command string `json:"command"`
	Applied bool   `json:"applied"`
	Version uint64 `json:"version"`
	HTML    string `json:"html,omitempty"`
}

type CommandLight struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Args        []string `json:"args,omitempty"`
}

// CommandsToDTO каталог команд в порядке объявления.
func CommandsToDTO(defs []commands.Definition) []CommandLight {
	res := make([]CommandLight, 0, len(defs))
	for _, d := range defs {
		res = append(res, CommandLight{Name: d.Name, Description: d.Description, Args: d.Args})
	}
	return res
}

type AttributeLight struct {
	Name      string   `json:"name"`
	AppliesTo []string `json:"applies_to"`
	Default   any      `json:"default"`
	Target    string   `json:"target"`
	Key       string   `json:"key"`
}

// AttributesToDTO атрибуты реестра, отсортированные по имени.
func AttributesToDTO(r *attrs.Registry) []AttributeLight {
	names := r.Names()
	res := make([]AttributeLight, 0, len(names))
	for _, name := range names {
		spec, _ := r.Get(name)
		res = append(res, AttributeLight{
			Name:      spec.Name,
			AppliesTo: spec.AppliesTo,
			Default:   spec.Default,
			Target:    spec.Target.String(),
			Key:       spec.Key,
		})
	}
	return res
}

type VersionLight struct {
	Version uint64 `json:"version"`
	Size    int    `json:"size"`
	Current bool   `json:"current"`
}
