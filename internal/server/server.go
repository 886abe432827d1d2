package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"memory-graph-mcp/internal/graph"
	"memory-graph-mcp/internal/tools"
)

// New creates a fully configured MCP server with all tools registered.
func New(mgr *graph.Manager) *mcp.Server {
	kt := &tools.KnowledgeTools{Graph: mgr}
	at := &tools.AdminTools{Graph: mgr}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "memory-graph-mcp",
		Version: "0.1.0",
	}, nil)

	// Knowledge graph tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_entities",
		Description: "Create one or more entities in the knowledge graph (name collisions are skipped)",
	}, kt.CreateEntities)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_relations",
		Description: "Create directed relations between existing entities (duplicate triples are skipped)",
	}, kt.CreateRelations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_observations",
		Description: "Add observations to existing entities; already-present observations are skipped",
	}, kt.AddObservations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "read_graph",
		Description: "Read the entire knowledge graph",
	}, kt.ReadGraph)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_nodes",
		Description: "Search entities and relations by case-insensitive substring match",
	}, kt.SearchNodes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "open_nodes",
		Description: "Retrieve specific entities by exact name, with relations among them",
	}, kt.OpenNodes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_node_relations",
		Description: "Get outgoing and incoming relations and connected entity names for one entity",
	}, kt.GetNodeRelations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_neighborhood",
		Description: "Extract the subgraph within a bounded number of hops from a center entity",
	}, kt.GetNeighborhood)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_entities",
		Description: "Delete entities and cascade to every relation touching them (unknown names are ignored)",
	}, kt.DeleteEntities)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_observations",
		Description: "Delete specific observations from entities (absent observations are ignored)",
	}, kt.DeleteObservations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_relations",
		Description: "Delete relations matching exact (from, to, relationType) triples",
	}, kt.DeleteRelations)

	// Maintenance and governance tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "rename_entity",
		Description: "Rename an entity, updating every relation endpoint that referenced the old name",
	}, at.RenameEntity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "validate_integrity",
		Description: "Audit the graph for orphaned, duplicate, and self relations and malformed entities, optionally fixing them",
	}, at.ValidateIntegrity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_types",
		Description: "List entity and relation types with usage counts, sorted by name or usage",
	}, at.ListTypes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_type",
		Description: "Register an entity or relation type definition used to validate future writes",
	}, at.CreateType)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_type",
		Description: "Delete a type definition, optionally migrating or force-deleting its usages",
	}, at.DeleteType)

	return srv
}
