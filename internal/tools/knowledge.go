package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"memory-graph-mcp/internal/graph"
	"memory-graph-mcp/internal/models"
)

// KnowledgeTools holds the graph manager the tool handlers delegate to.
type KnowledgeTools struct {
	Graph *graph.Manager
}

// --- Input types ---

type CreateEntitiesInput struct {
	Entities []EntityInput `json:"entities" jsonschema:"Array of entities to create"`
}

type EntityInput struct {
	Name         string   `json:"name" jsonschema:"Entity name, unique across the graph"`
	EntityType   string   `json:"entityType" jsonschema:"Entity type (must be a registered type when entity types are governed)"`
	Observations []string `json:"observations,omitempty" jsonschema:"Initial observations about the entity"`
}

type CreateRelationsInput struct {
	Relations []RelationInput `json:"relations" jsonschema:"Array of relations to create"`
}

type RelationInput struct {
	From         string `json:"from" jsonschema:"Source entity name"`
	To           string `json:"to" jsonschema:"Target entity name"`
	RelationType string `json:"relationType" jsonschema:"Relation type in active voice (e.g., uses, manages)"`
}

type AddObservationsInput struct {
	Observations []ObservationInput `json:"observations" jsonschema:"Array of observation batches to add"`
}

type ObservationInput struct {
	EntityName string   `json:"entityName" jsonschema:"Name of the entity"`
	Contents   []string `json:"contents" jsonschema:"Observation texts to add"`
}

type SearchNodesInput struct {
	Query string `json:"query" jsonschema:"Case-insensitive substring to match against names, types, and observations"`
}

type OpenNodesInput struct {
	Names []string `json:"names" jsonschema:"Exact entity names to retrieve"`
}

type GetNodeRelationsInput struct {
	Name string `json:"name" jsonschema:"Entity name to look up relations for"`
}

type GetNeighborhoodInput struct {
	Name  string `json:"name" jsonschema:"Center entity name"`
	Depth int    `json:"depth,omitempty" jsonschema:"Maximum number of relation hops (default 2)"`
}

type DeleteEntitiesInput struct {
	Names []string `json:"names" jsonschema:"Entity names to delete (cascades to their relations)"`
}

type DeleteObservationsInput struct {
	Deletions []DeleteObservationItem `json:"deletions" jsonschema:"Array of observation deletions"`
}

type DeleteObservationItem struct {
	EntityName   string   `json:"entityName" jsonschema:"Name of the entity"`
	Observations []string `json:"observations" jsonschema:"Observation content strings to match and delete"`
}

type DeleteRelationsInput struct {
	Relations []RelationInput `json:"relations" jsonschema:"Relations to delete, matched by exact (from, to, relationType)"`
}

// --- Handlers ---

func (t *KnowledgeTools) CreateEntities(_ context.Context, _ *mcp.CallToolRequest, input CreateEntitiesInput) (*mcp.CallToolResult, any, error) {
	inputs := make([]models.EntityInput, len(input.Entities))
	for i, e := range input.Entities {
		inputs[i] = models.EntityInput{Name: e.Name, EntityType: e.EntityType, Observations: e.Observations}
	}

	created, err := t.Graph.CreateEntities(inputs)
	if err != nil {
		return toolError("Failed to create entities: %v", err), nil, nil
	}
	return toolJSON(created)
}

func (t *KnowledgeTools) CreateRelations(_ context.Context, _ *mcp.CallToolRequest, input CreateRelationsInput) (*mcp.CallToolResult, any, error) {
	created, err := t.Graph.CreateRelations(toRelationInputs(input.Relations))
	if err != nil {
		return toolError("Failed to create relations: %v", err), nil, nil
	}
	return toolJSON(created)
}

func (t *KnowledgeTools) AddObservations(_ context.Context, _ *mcp.CallToolRequest, input AddObservationsInput) (*mcp.CallToolResult, any, error) {
	requests := make([]models.ObservationRequest, len(input.Observations))
	for i, o := range input.Observations {
		requests[i] = models.ObservationRequest{EntityName: o.EntityName, Contents: o.Contents}
	}

	deltas, err := t.Graph.AddObservations(requests)
	if err != nil {
		return toolError("Failed to add observations: %v", err), nil, nil
	}
	return toolJSON(deltas)
}

func (t *KnowledgeTools) ReadGraph(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	g, err := t.Graph.ReadGraph()
	if err != nil {
		return toolError("Failed to read graph: %v", err), nil, nil
	}
	return toolJSON(g)
}

func (t *KnowledgeTools) SearchNodes(_ context.Context, _ *mcp.CallToolRequest, input SearchNodesInput) (*mcp.CallToolResult, any, error) {
	result, err := t.Graph.SearchGraph(input.Query)
	if err != nil {
		return toolError("Search failed: %v", err), nil, nil
	}
	return toolJSON(result)
}

func (t *KnowledgeTools) OpenNodes(_ context.Context, _ *mcp.CallToolRequest, input OpenNodesInput) (*mcp.CallToolResult, any, error) {
	result, err := t.Graph.OpenNodes(input.Names)
	if err != nil {
		return toolError("Failed to open nodes: %v", err), nil, nil
	}
	return toolJSON(result)
}

func (t *KnowledgeTools) GetNodeRelations(_ context.Context, _ *mcp.CallToolRequest, input GetNodeRelationsInput) (*mcp.CallToolResult, any, error) {
	result, err := t.Graph.GetNodeRelations(input.Name)
	if err != nil {
		return toolError("Failed to get node relations: %v", err), nil, nil
	}
	return toolJSON(result)
}

func (t *KnowledgeTools) GetNeighborhood(_ context.Context, _ *mcp.CallToolRequest, input GetNeighborhoodInput) (*mcp.CallToolResult, any, error) {
	result, err := t.Graph.GetNeighborhood(input.Name, input.Depth)
	if err != nil {
		return toolError("Failed to get neighborhood: %v", err), nil, nil
	}
	return toolJSON(result)
}

func (t *KnowledgeTools) DeleteEntities(_ context.Context, _ *mcp.CallToolRequest, input DeleteEntitiesInput) (*mcp.CallToolResult, any, error) {
	count, err := t.Graph.DeleteEntities(input.Names)
	if err != nil {
		return toolError("Failed to delete entities: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Deleted %d entities.", count)), nil, nil
}

func (t *KnowledgeTools) DeleteObservations(_ context.Context, _ *mcp.CallToolRequest, input DeleteObservationsInput) (*mcp.CallToolResult, any, error) {
	requests := make([]models.ObservationDeletion, len(input.Deletions))
	for i, d := range input.Deletions {
		requests[i] = models.ObservationDeletion{EntityName: d.EntityName, Observations: d.Observations}
	}

	count, err := t.Graph.DeleteObservations(requests)
	if err != nil {
		return toolError("Failed to delete observations: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Deleted %d observations.", count)), nil, nil
}

func (t *KnowledgeTools) DeleteRelations(_ context.Context, _ *mcp.CallToolRequest, input DeleteRelationsInput) (*mcp.CallToolResult, any, error) {
	count, err := t.Graph.DeleteRelations(toRelationInputs(input.Relations))
	if err != nil {
		return toolError("Failed to delete relations: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("Deleted %d relations.", count)), nil, nil
}

func toRelationInputs(relations []RelationInput) []models.RelationInput {
	inputs := make([]models.RelationInput, len(relations))
	for i, r := range relations {
		inputs[i] = models.RelationInput{From: r.From, To: r.To, RelationType: r.RelationType}
	}
	return inputs
}
