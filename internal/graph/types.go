package graph

import (
	"fmt"
	"sort"

	"memory-graph-mcp/internal/models"
	kgerrors "memory-graph-mcp/pkg/errors"
)

// Sort orders accepted by ListTypes.
const (
	SortByName  = "name"
	SortByUsage = "usage"
)

// ListTypes aggregates usage counts per entity and relation type, joined
// with the registered description where one exists. Governed types with
// zero usage are included. sortBy is "name" (default) or "usage"
// (descending, ties broken by name). Entity types carry up to two example
// entity names.
func (m *Manager) ListTypes(sortBy string) (*models.TypeListing, error) {
	if sortBy == "" {
		sortBy = SortByName
	}
	if sortBy != SortByName && sortBy != SortByUsage {
		return nil, fmt.Errorf("unknown sort order %q; use %s or %s", sortBy, SortByName, SortByUsage)
	}

	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}

	entityCounts := make(map[string]int)
	examples := make(map[string][]string)
	for _, e := range snap.Entities {
		entityCounts[e.EntityType]++
		if len(examples[e.EntityType]) < 2 {
			examples[e.EntityType] = append(examples[e.EntityType], e.Name)
		}
	}

	relationCounts := make(map[string]int)
	for _, r := range snap.Relations {
		relationCounts[r.RelationType]++
	}

	descriptions := make(map[string]string)
	for _, td := range snap.Types {
		descriptions[td.ObjectType+"\x00"+td.Name] = td.Description
		// Governed but unused types still appear with a zero count.
		if td.ObjectType == models.ObjectTypeEntity {
			if _, ok := entityCounts[td.Name]; !ok {
				entityCounts[td.Name] = 0
			}
		} else if td.ObjectType == models.ObjectTypeRelation {
			if _, ok := relationCounts[td.Name]; !ok {
				relationCounts[td.Name] = 0
			}
		}
	}

	listing := &models.TypeListing{
		EntityTypes:   []models.EntityTypeUsage{},
		RelationTypes: []models.RelationTypeUsage{},
	}
	for name, count := range entityCounts {
		listing.EntityTypes = append(listing.EntityTypes, models.EntityTypeUsage{
			Name:        name,
			Count:       count,
			Description: descriptions[models.ObjectTypeEntity+"\x00"+name],
			Examples:    examples[name],
		})
	}
	for name, count := range relationCounts {
		listing.RelationTypes = append(listing.RelationTypes, models.RelationTypeUsage{
			Name:        name,
			Count:       count,
			Description: descriptions[models.ObjectTypeRelation+"\x00"+name],
		})
	}

	byName := func(a, b string, ca, cb int) bool { return a < b }
	if sortBy == SortByUsage {
		byName = func(a, b string, ca, cb int) bool {
			if ca != cb {
				return ca > cb
			}
			return a < b
		}
	}
	sort.Slice(listing.EntityTypes, func(i, j int) bool {
		a, b := listing.EntityTypes[i], listing.EntityTypes[j]
		return byName(a.Name, b.Name, a.Count, b.Count)
	})
	sort.Slice(listing.RelationTypes, func(i, j int) bool {
		a, b := listing.RelationTypes[i], listing.RelationTypes[j]
		return byName(a.Name, b.Name, a.Count, b.Count)
	})

	return listing, nil
}

// CreateType registers a type definition, rejecting a (category, name)
// collision unless replaceExisting is set. Replacing a definition keeps its
// usages, since entities and relations reference types by name.
func (m *Manager) CreateType(objectType, name, description string, replaceExisting bool) (*models.TypeDefinition, error) {
	return m.store.CreateType(objectType, name, description, replaceExisting)
}

// DeleteType removes a type definition. When the type is still in use the
// call is rejected with TypeInUseError unless force is set or a replacement
// type is named; a replacement must itself be a governed definition of the
// same category.
func (m *Manager) DeleteType(objectType, name string, force bool, replaceWith string) (*models.TypeDeleteResult, error) {
	if replaceWith == name {
		return nil, fmt.Errorf("replacement type must differ from the type being deleted")
	}

	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}

	foundTarget := false
	foundReplacement := replaceWith == ""
	for _, td := range snap.Types {
		if td.ObjectType != objectType {
			continue
		}
		if td.Name == name {
			foundTarget = true
		}
		if replaceWith != "" && td.Name == replaceWith {
			foundReplacement = true
		}
	}
	if !foundTarget {
		return nil, &kgerrors.TypeNotFoundError{ObjectType: objectType, Name: name}
	}
	if !foundReplacement {
		return nil, &kgerrors.TypeNotFoundError{ObjectType: objectType, Name: replaceWith}
	}

	usage := 0
	if objectType == models.ObjectTypeEntity {
		for _, e := range snap.Entities {
			if e.EntityType == name {
				usage++
			}
		}
	} else {
		for _, r := range snap.Relations {
			if r.RelationType == name {
				usage++
			}
		}
	}

	if usage > 0 && !force && replaceWith == "" {
		return nil, &kgerrors.TypeInUseError{ObjectType: objectType, Name: name, UsageCount: usage}
	}

	return m.store.DeleteType(objectType, name, force, replaceWith)
}
