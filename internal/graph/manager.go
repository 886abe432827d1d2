// Package graph implements the name-based public contract of the engine:
// validation ahead of every mutation, type governance, and the read-side
// query algorithms. All persisted mutations are delegated to the storage
// layer; the manager re-reads the current snapshot at the start of every
// operation and holds no graph state across calls.
package graph

import (
	"go.uber.org/zap"

	"memory-graph-mcp/internal/models"
	"memory-graph-mcp/internal/storage"
	kgerrors "memory-graph-mcp/pkg/errors"
	"memory-graph-mcp/pkg/logger"
)

// Manager orchestrates validation and queries over the file store.
type Manager struct {
	store *storage.FileStore
	log   *zap.Logger
}

// NewManager creates a manager over the given store.
func NewManager(store *storage.FileStore) *Manager {
	return &Manager{store: store, log: logger.Get().Named("graph")}
}

func typeOptions(defs []models.TypeDefinition) []kgerrors.TypeOption {
	opts := make([]kgerrors.TypeOption, len(defs))
	for i, td := range defs {
		opts[i] = kgerrors.TypeOption{Name: td.Name, Description: td.Description}
	}
	kgerrors.SortOptions(opts)
	return opts
}

func governedSet(defs []models.TypeDefinition) map[string]bool {
	governed := make(map[string]bool, len(defs))
	for _, td := range defs {
		governed[td.Name] = true
	}
	return governed
}

// CreateEntities validates entity types against the governed registry and
// delegates to storage. Governance is opt-in: with no entity type
// definitions registered, any type string is accepted. A single ungoverned
// type rejects the whole batch before any write.
func (m *Manager) CreateEntities(inputs []models.EntityInput) ([]models.Entity, error) {
	defs, err := m.store.ListTypeDefinitions(models.ObjectTypeEntity)
	if err != nil {
		return nil, err
	}
	if len(defs) > 0 {
		governed := governedSet(defs)
		for _, in := range inputs {
			if !governed[in.EntityType] {
				return nil, &kgerrors.InvalidEntityTypeError{
					Provided:   in.EntityType,
					ValidTypes: typeOptions(defs),
				}
			}
		}
	}

	created, err := m.store.CreateEntities(inputs)
	if err != nil {
		return nil, err
	}
	m.log.Debug("entities created", zap.Int("requested", len(inputs)), zap.Int("created", len(created)))
	return created, nil
}

// CreateRelations checks that both endpoints of every relation resolve to
// existing entities and that the relation type is governed (when relation
// types are governed at all), then delegates to storage. Any failed check
// rejects the whole batch before any write.
func (m *Manager) CreateRelations(inputs []models.RelationInput) ([]models.Relation, error) {
	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(snap.Entities))
	for _, e := range snap.Entities {
		names[e.Name] = true
	}

	var relDefs []models.TypeDefinition
	for _, td := range snap.Types {
		if td.ObjectType == models.ObjectTypeRelation {
			relDefs = append(relDefs, td)
		}
	}
	governed := governedSet(relDefs)

	for _, in := range inputs {
		if !names[in.From] {
			return nil, &kgerrors.EntityNotFoundError{Name: in.From}
		}
		if !names[in.To] {
			return nil, &kgerrors.EntityNotFoundError{Name: in.To}
		}
		if len(relDefs) > 0 && !governed[in.RelationType] {
			return nil, &kgerrors.InvalidRelationTypeError{
				Provided:   in.RelationType,
				ValidTypes: typeOptions(relDefs),
			}
		}
	}

	created, err := m.store.CreateRelations(inputs)
	if err != nil {
		return nil, err
	}
	m.log.Debug("relations created", zap.Int("requested", len(inputs)), zap.Int("created", len(created)))
	return created, nil
}

// AddObservations verifies that every named entity exists before any write,
// so a batch with one unknown entity fails whole without partial
// application, then delegates to storage.
func (m *Manager) AddObservations(requests []models.ObservationRequest) ([]models.ObservationDelta, error) {
	snap, err := m.store.ReadGraph()
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(snap.Entities))
	for _, e := range snap.Entities {
		names[e.Name] = true
	}
	for _, req := range requests {
		if !names[req.EntityName] {
			return nil, &kgerrors.EntityNotFoundError{Name: req.EntityName}
		}
	}
	return m.store.AddObservations(requests)
}

// DeleteEntities removes the named entities and cascades to their
// relations. Unknown names are a no-op.
func (m *Manager) DeleteEntities(names []string) (int, error) {
	removed, err := m.store.DeleteEntities(names)
	if err != nil {
		return 0, err
	}
	m.log.Debug("entities deleted", zap.Int("removed", removed))
	return removed, nil
}

// DeleteObservations removes observation strings from the named entities.
// Missing entities and absent observations are a no-op.
func (m *Manager) DeleteObservations(requests []models.ObservationDeletion) (int, error) {
	return m.store.DeleteObservations(requests)
}

// DeleteRelations removes relations matching the given triples exactly.
// Unknown triples are a no-op.
func (m *Manager) DeleteRelations(inputs []models.RelationInput) (int, error) {
	return m.store.DeleteRelations(inputs)
}

// ReadGraph returns the current full aggregate.
func (m *Manager) ReadGraph() (*models.KnowledgeGraph, error) {
	return m.store.ReadGraph()
}

// RenameEntity checks the rename preconditions, delegates the atomic
// rename-plus-cascade to storage, and reports how many relation endpoints
// were rewritten.
func (m *Manager) RenameEntity(oldName, newName string) (*models.RenameResult, error) {
	result, err := m.store.RenameEntity(oldName, newName)
	if err != nil {
		return nil, err
	}
	m.log.Info("entity renamed",
		zap.String("from", oldName),
		zap.String("to", newName),
		zap.Int("relationsUpdated", result.RelationsUpdated))
	return result, nil
}
