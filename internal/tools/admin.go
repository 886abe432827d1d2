package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"memory-graph-mcp/internal/graph"
)

// AdminTools exposes the maintenance side of the engine: rename, the
// integrity audit, and type governance.
type AdminTools struct {
	Graph *graph.Manager
}

// --- Input types ---

type RenameEntityInput struct {
	OldName string `json:"oldName" jsonschema:"Current entity name"`
	NewName string `json:"newName" jsonschema:"New entity name (must not be taken by another entity)"`
}

type ValidateIntegrityInput struct {
	AutoFix bool `json:"autoFix,omitempty" jsonschema:"Apply a corrective pass after the audit"`
}

type ListTypesInput struct {
	SortBy string `json:"sortBy,omitempty" jsonschema:"Sort order: name (default) or usage"`
}

type CreateTypeInput struct {
	ObjectType      string `json:"objectType" jsonschema:"Type category: entityType or relationType"`
	Name            string `json:"name" jsonschema:"Type name, unique within its category"`
	Description     string `json:"description,omitempty" jsonschema:"Human-readable description shown in validation errors"`
	ReplaceExisting bool   `json:"replaceExisting,omitempty" jsonschema:"Overwrite an existing definition instead of failing"`
}

type DeleteTypeInput struct {
	ObjectType  string `json:"objectType" jsonschema:"Type category: entityType or relationType"`
	Name        string `json:"name" jsonschema:"Type name to delete"`
	Force       bool   `json:"force,omitempty" jsonschema:"Delete even when in use, removing all usages"`
	ReplaceWith string `json:"replaceWith,omitempty" jsonschema:"Migrate existing usages to this type instead of deleting them"`
}

// --- Handlers ---

func (t *AdminTools) RenameEntity(_ context.Context, _ *mcp.CallToolRequest, input RenameEntityInput) (*mcp.CallToolResult, any, error) {
	if input.OldName == "" || input.NewName == "" {
		return toolError("Both oldName and newName are required"), nil, nil
	}

	result, err := t.Graph.RenameEntity(input.OldName, input.NewName)
	if err != nil {
		return toolError("Failed to rename entity: %v", err), nil, nil
	}
	return toolJSON(result)
}

func (t *AdminTools) ValidateIntegrity(_ context.Context, _ *mcp.CallToolRequest, input ValidateIntegrityInput) (*mcp.CallToolResult, any, error) {
	report, err := t.Graph.ValidateIntegrity(input.AutoFix)
	if err != nil {
		return toolError("Integrity check failed: %v", err), nil, nil
	}
	return toolJSON(report)
}

func (t *AdminTools) ListTypes(_ context.Context, _ *mcp.CallToolRequest, input ListTypesInput) (*mcp.CallToolResult, any, error) {
	listing, err := t.Graph.ListTypes(input.SortBy)
	if err != nil {
		return toolError("Failed to list types: %v", err), nil, nil
	}
	return toolJSON(listing)
}

func (t *AdminTools) CreateType(_ context.Context, _ *mcp.CallToolRequest, input CreateTypeInput) (*mcp.CallToolResult, any, error) {
	td, err := t.Graph.CreateType(input.ObjectType, input.Name, input.Description, input.ReplaceExisting)
	if err != nil {
		return toolError("Failed to create type: %v", err), nil, nil
	}
	return toolJSON(td)
}

func (t *AdminTools) DeleteType(_ context.Context, _ *mcp.CallToolRequest, input DeleteTypeInput) (*mcp.CallToolResult, any, error) {
	result, err := t.Graph.DeleteType(input.ObjectType, input.Name, input.Force, input.ReplaceWith)
	if err != nil {
		return toolError("Failed to delete type: %v", err), nil, nil
	}

	switch {
	case result.MigratedTo != "":
		return toolText(fmt.Sprintf("Deleted %s %q; migrated %d usage(s) to %q.",
			result.ObjectType, result.Name, result.UsageCount, result.MigratedTo)), nil, nil
	case result.RemovedUsages > 0:
		return toolText(fmt.Sprintf("Deleted %s %q and removed %d usage(s).",
			result.ObjectType, result.Name, result.RemovedUsages)), nil, nil
	default:
		return toolText(fmt.Sprintf("Deleted %s %q.", result.ObjectType, result.Name)), nil, nil
	}
}
