package graph

import (
	"sort"
	"strings"

	"memory-graph-mcp/internal/models"
	kgerrors "memory-graph-mcp/pkg/errors"
)

func emptyGraph() *models.KnowledgeGraph {
	return &models.KnowledgeGraph{Entities: []models.Entity{}, Relations: []models.Relation{}}
}

func entityMatches(e models.Entity, q string) bool {
	if strings.Contains(strings.ToLower(e.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(e.EntityType), q) {
		return true
	}
	for _, obs := range e.Observations {
		if strings.Contains(strings.ToLower(obs), q) {
			return true
		}
	}
	return false
}

// SearchGraph performs a case-insensitive substring search. An entity
// matches on name, type, or any observation; a relation matches on its own
// fields, or when both of its endpoints are matching entities — that last
// rule keeps connector edges between two matching entities in the result.
// An empty or whitespace-only query returns an empty graph rather than a
// full dump.
func (m *Manager) SearchGraph(query string) (*models.KnowledgeGraph, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return emptyGraph(), nil
	}

	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}

	result := emptyGraph()
	matched := make(map[string]bool)
	for _, e := range snap.Entities {
		if entityMatches(e, q) {
			matched[e.Name] = true
			result.Entities = append(result.Entities, e)
		}
	}
	for _, r := range snap.Relations {
		if strings.Contains(strings.ToLower(r.RelationType), q) ||
			strings.Contains(strings.ToLower(r.From), q) ||
			strings.Contains(strings.ToLower(r.To), q) ||
			(matched[r.From] && matched[r.To]) {
			result.Relations = append(result.Relations, r)
		}
	}
	return result, nil
}

// OpenNodes returns exactly the named entities and only the relations whose
// both endpoints are in the requested name set.
func (m *Manager) OpenNodes(names []string) (*models.KnowledgeGraph, error) {
	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	result := emptyGraph()
	for _, e := range snap.Entities {
		if wanted[e.Name] {
			result.Entities = append(result.Entities, e)
		}
	}
	for _, r := range snap.Relations {
		if wanted[r.From] && wanted[r.To] {
			result.Relations = append(result.Relations, r)
		}
	}
	return result, nil
}

// GetNodeRelations returns the relation view for one entity: outgoing and
// incoming edges plus the sorted, deduplicated names of directly connected
// entities. An entity with a self-relation lists itself. A name with no
// matching entity yields empty views, not an error, so the view stays
// consistent with lookups under an entity's former name after a rename.
func (m *Manager) GetNodeRelations(name string) (*models.NodeRelations, error) {
	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}

	result := &models.NodeRelations{
		Outgoing:          []models.Relation{},
		Incoming:          []models.Relation{},
		ConnectedEntities: []string{},
	}
	connected := make(map[string]bool)
	for _, r := range snap.Relations {
		if r.From == name {
			result.Outgoing = append(result.Outgoing, r)
			connected[r.To] = true
		}
		if r.To == name {
			result.Incoming = append(result.Incoming, r)
			connected[r.From] = true
		}
	}
	for n := range connected {
		result.ConnectedEntities = append(result.ConnectedEntities, n)
	}
	sort.Strings(result.ConnectedEntities)
	return result, nil
}

// GetNeighborhood extracts the induced subgraph reachable from the center
// entity within depth relation traversals, in either direction. Relations
// are included when both endpoints landed in the neighborhood.
func (m *Manager) GetNeighborhood(name string, depth int) (*models.KnowledgeGraph, error) {
	if depth <= 0 {
		depth = 2
	}

	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}

	found := false
	for _, e := range snap.Entities {
		if e.Name == name {
			found = true
			break
		}
	}
	if !found {
		return nil, &kgerrors.EntityNotFoundError{Name: name}
	}

	adjacency := make(map[string][]string)
	for _, r := range snap.Relations {
		adjacency[r.From] = append(adjacency[r.From], r.To)
		adjacency[r.To] = append(adjacency[r.To], r.From)
	}

	visited := map[string]bool{name: true}
	frontier := []string{name}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, n := range frontier {
			for _, neighbor := range adjacency[n] {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	result := emptyGraph()
	for _, e := range snap.Entities {
		if visited[e.Name] {
			result.Entities = append(result.Entities, e)
		}
	}
	for _, r := range snap.Relations {
		if visited[r.From] && visited[r.To] {
			result.Relations = append(result.Relations, r)
		}
	}
	return result, nil
}

// Stats summarizes the graph for the web viewer: totals plus a per-type
// entity breakdown.
func (m *Manager) Stats() (*models.GraphStats, error) {
	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}

	stats := &models.GraphStats{
		EntityCount:   len(snap.Entities),
		RelationCount: len(snap.Relations),
		EntityTypes:   make(map[string]int),
	}
	for _, e := range snap.Entities {
		stats.EntityTypes[e.EntityType]++
	}
	return stats, nil
}
