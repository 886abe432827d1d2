// Package storage owns the on-disk record format of the knowledge graph:
// a single newline-delimited JSON file. Every mutating call performs a full
// read-modify-write of the file as one logical unit, so no partial state is
// ever visible to a subsequent load.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"memory-graph-mcp/internal/models"
	kgerrors "memory-graph-mcp/pkg/errors"
)

// FileStore persists the knowledge graph to one JSONL file. It keeps no
// graph state in memory between calls; the file is the source of truth.
type FileStore struct {
	path string
}

// NewFileStore resolves the store path, creates the parent directory, and
// performs an initial load so corruption surfaces at construction instead
// of on the first operation. A missing file is an empty graph.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	s := &FileStore{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the resolved store file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (*graphData, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &graphData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	return decodeRecords(data)
}

// persist writes the whole aggregate to a temp file and renames it over the
// store, so readers never observe a half-written file.
func (s *FileStore) persist(g *graphData) error {
	data, err := encodeRecords(g)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func relationKey(from, to, relationType string) string {
	return from + "\x00" + to + "\x00" + relationType
}

func (g *graphData) entityNames() map[string]bool {
	names := make(map[string]bool, len(g.Entities))
	for _, e := range g.Entities {
		names[e.Name] = true
	}
	return names
}

func (g *graphData) relationKeys() map[string]bool {
	keys := make(map[string]bool, len(g.Relations))
	for _, r := range g.Relations {
		keys[relationKey(r.From, r.To, r.RelationType)] = true
	}
	return keys
}

func (g *graphData) findType(objectType, name string) int {
	for i, td := range g.Types {
		if td.ObjectType == objectType && td.Name == name {
			return i
		}
	}
	return -1
}

// ReadGraph returns the current entities, relations, and type definitions.
func (s *FileStore) ReadGraph() (*models.KnowledgeGraph, error) {
	g, err := s.load()
	if err != nil {
		return nil, err
	}
	graph := &models.KnowledgeGraph{
		Entities:  g.Entities,
		Relations: g.Relations,
		Types:     g.Types,
	}
	if graph.Entities == nil {
		graph.Entities = []models.Entity{}
	}
	if graph.Relations == nil {
		graph.Relations = []models.Relation{}
	}
	return graph, nil
}

// ListTypeDefinitions returns definitions of one category, or all when
// objectType is empty.
func (s *FileStore) ListTypeDefinitions(objectType string) ([]models.TypeDefinition, error) {
	g, err := s.load()
	if err != nil {
		return nil, err
	}
	if objectType == "" {
		return g.Types, nil
	}
	var defs []models.TypeDefinition
	for _, td := range g.Types {
		if td.ObjectType == objectType {
			defs = append(defs, td)
		}
	}
	return defs, nil
}

// CreateEntities appends entities whose names are not already taken and
// returns only those actually created. Name collisions, including within
// the batch, are silently skipped.
func (s *FileStore) CreateEntities(inputs []models.EntityInput) ([]models.Entity, error) {
	g, err := s.load()
	if err != nil {
		return nil, err
	}

	names := g.entityNames()
	created := []models.Entity{}
	for _, in := range inputs {
		if names[in.Name] {
			continue
		}
		e := models.Entity{
			ID:           uuid.New().String(),
			Name:         in.Name,
			EntityType:   in.EntityType,
			Observations: dedupeStrings(in.Observations),
		}
		g.Entities = append(g.Entities, e)
		names[in.Name] = true
		created = append(created, e)
	}

	if len(created) == 0 {
		return created, nil
	}
	if err := s.persist(g); err != nil {
		return nil, err
	}
	return created, nil
}

// CreateRelations appends relations whose (from, to, relationType) triple
// is not already present. Duplicate triples are silently skipped; endpoint
// existence is the caller's concern.
func (s *FileStore) CreateRelations(inputs []models.RelationInput) ([]models.Relation, error) {
	g, err := s.load()
	if err != nil {
		return nil, err
	}

	keys := g.relationKeys()
	created := []models.Relation{}
	for _, in := range inputs {
		key := relationKey(in.From, in.To, in.RelationType)
		if keys[key] {
			continue
		}
		r := models.Relation{
			ID:           uuid.New().String(),
			From:         in.From,
			To:           in.To,
			RelationType: in.RelationType,
		}
		g.Relations = append(g.Relations, r)
		keys[key] = true
		created = append(created, r)
	}

	if len(created) == 0 {
		return created, nil
	}
	if err := s.persist(g); err != nil {
		return nil, err
	}
	return created, nil
}

// AddObservations appends observation strings not already present on each
// named entity and returns the delta actually added. A missing entity fails
// the call with EntityNotFoundError before anything is written.
func (s *FileStore) AddObservations(requests []models.ObservationRequest) ([]models.ObservationDelta, error) {
	g, err := s.load()
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(g.Entities))
	for i, e := range g.Entities {
		index[e.Name] = i
	}

	deltas := []models.ObservationDelta{}
	changed := false
	for _, req := range requests {
		i, ok := index[req.EntityName]
		if !ok {
			return nil, &kgerrors.EntityNotFoundError{Name: req.EntityName}
		}
		existing := make(map[string]bool, len(g.Entities[i].Observations))
		for _, o := range g.Entities[i].Observations {
			existing[o] = true
		}
		added := []string{}
		for _, content := range req.Contents {
			if existing[content] {
				continue
			}
			g.Entities[i].Observations = append(g.Entities[i].Observations, content)
			existing[content] = true
			added = append(added, content)
			changed = true
		}
		deltas = append(deltas, models.ObservationDelta{EntityName: req.EntityName, Added: added})
	}

	if changed {
		if err := s.persist(g); err != nil {
			return nil, err
		}
	}
	return deltas, nil
}

// DeleteEntities removes matching entities and every relation touching
// them. Unknown names are ignored. Returns the number of entities removed.
func (s *FileStore) DeleteEntities(names []string) (int, error) {
	g, err := s.load()
	if err != nil {
		return 0, err
	}

	doomed := make(map[string]bool, len(names))
	for _, n := range names {
		doomed[n] = true
	}

	kept := g.Entities[:0]
	removed := 0
	for _, e := range g.Entities {
		if doomed[e.Name] {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0, nil
	}
	g.Entities = kept

	keptRels := g.Relations[:0]
	for _, r := range g.Relations {
		if doomed[r.From] || doomed[r.To] {
			continue
		}
		keptRels = append(keptRels, r)
	}
	g.Relations = keptRels

	if err := s.persist(g); err != nil {
		return 0, err
	}
	return removed, nil
}

// DeleteObservations removes listed observation strings from each named
// entity. Missing entities and absent observations are ignored. Returns
// the number of observations removed.
func (s *FileStore) DeleteObservations(requests []models.ObservationDeletion) (int, error) {
	g, err := s.load()
	if err != nil {
		return 0, err
	}

	index := make(map[string]int, len(g.Entities))
	for i, e := range g.Entities {
		index[e.Name] = i
	}

	removed := 0
	for _, req := range requests {
		i, ok := index[req.EntityName]
		if !ok {
			continue
		}
		doomed := make(map[string]bool, len(req.Observations))
		for _, o := range req.Observations {
			doomed[o] = true
		}
		kept := g.Entities[i].Observations[:0]
		for _, o := range g.Entities[i].Observations {
			if doomed[o] {
				removed++
				continue
			}
			kept = append(kept, o)
		}
		g.Entities[i].Observations = kept
	}

	if removed == 0 {
		return 0, nil
	}
	if err := s.persist(g); err != nil {
		return 0, err
	}
	return removed, nil
}

// DeleteRelations removes relations matching the given triples exactly.
// Unknown triples are ignored. Returns the number of relations removed.
func (s *FileStore) DeleteRelations(inputs []models.RelationInput) (int, error) {
	g, err := s.load()
	if err != nil {
		return 0, err
	}

	doomed := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		doomed[relationKey(in.From, in.To, in.RelationType)] = true
	}

	kept := g.Relations[:0]
	removed := 0
	for _, r := range g.Relations {
		if doomed[relationKey(r.From, r.To, r.RelationType)] {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return 0, nil
	}
	g.Relations = kept

	if err := s.persist(g); err != nil {
		return 0, err
	}
	return removed, nil
}

// RenameEntity changes an entity's name and rewrites every relation
// endpoint that referenced the old name, in one persisted write. The
// entity's id is untouched; rename is a pure label change.
func (s *FileStore) RenameEntity(oldName, newName string) (*models.RenameResult, error) {
	g, err := s.load()
	if err != nil {
		return nil, err
	}

	target := -1
	for i, e := range g.Entities {
		if e.Name == oldName {
			target = i
		} else if e.Name == newName {
			return nil, &kgerrors.EntityAlreadyExistsError{Name: newName}
		}
	}
	if target < 0 {
		return nil, &kgerrors.EntityNotFoundError{Name: oldName}
	}

	result := &models.RenameResult{OldName: oldName, NewName: newName}
	if oldName == newName {
		return result, nil
	}

	g.Entities[target].Name = newName
	for i := range g.Relations {
		if g.Relations[i].From == oldName {
			g.Relations[i].From = newName
			result.RelationsUpdated++
		}
		if g.Relations[i].To == oldName {
			g.Relations[i].To = newName
			result.RelationsUpdated++
		}
	}

	if err := s.persist(g); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateType inserts a type definition, or overwrites the description of an
// existing one when replaceExisting is set. Overwriting keeps the original
// id and leaves usages untouched, since usages reference the type by name.
func (s *FileStore) CreateType(objectType, name, description string, replaceExisting bool) (*models.TypeDefinition, error) {
	if objectType != models.ObjectTypeEntity && objectType != models.ObjectTypeRelation {
		return nil, fmt.Errorf("unknown type category %q", objectType)
	}
	if name == "" {
		return nil, fmt.Errorf("type name is required")
	}

	g, err := s.load()
	if err != nil {
		return nil, err
	}

	if i := g.findType(objectType, name); i >= 0 {
		if !replaceExisting {
			return nil, &kgerrors.TypeAlreadyExistsError{ObjectType: objectType, Name: name}
		}
		g.Types[i].Description = description
		if err := s.persist(g); err != nil {
			return nil, err
		}
		td := g.Types[i]
		return &td, nil
	}

	td := models.TypeDefinition{
		ID:          uuid.New().String(),
		Name:        name,
		ObjectType:  objectType,
		Description: description,
	}
	g.Types = append(g.Types, td)
	if err := s.persist(g); err != nil {
		return nil, err
	}
	return &td, nil
}

// DeleteType removes a type definition. With replaceWith, every usage is
// repointed to the replacement type; with force and no replacement, every
// usage is deleted (entities cascade to their relations). Usage gating
// belongs to the caller.
func (s *FileStore) DeleteType(objectType, name string, force bool, replaceWith string) (*models.TypeDeleteResult, error) {
	g, err := s.load()
	if err != nil {
		return nil, err
	}

	i := g.findType(objectType, name)
	if i < 0 {
		return nil, &kgerrors.TypeNotFoundError{ObjectType: objectType, Name: name}
	}

	result := &models.TypeDeleteResult{ObjectType: objectType, Name: name}

	switch {
	case replaceWith != "":
		result.MigratedTo = replaceWith
		if objectType == models.ObjectTypeEntity {
			for j := range g.Entities {
				if g.Entities[j].EntityType == name {
					g.Entities[j].EntityType = replaceWith
					result.UsageCount++
				}
			}
		} else {
			for j := range g.Relations {
				if g.Relations[j].RelationType == name {
					g.Relations[j].RelationType = replaceWith
					result.UsageCount++
				}
			}
		}
	case force:
		if objectType == models.ObjectTypeEntity {
			doomed := make(map[string]bool)
			kept := g.Entities[:0]
			for _, e := range g.Entities {
				if e.EntityType == name {
					doomed[e.Name] = true
					result.RemovedUsages++
					continue
				}
				kept = append(kept, e)
			}
			g.Entities = kept
			keptRels := g.Relations[:0]
			for _, r := range g.Relations {
				if doomed[r.From] || doomed[r.To] {
					continue
				}
				keptRels = append(keptRels, r)
			}
			g.Relations = keptRels
		} else {
			kept := g.Relations[:0]
			for _, r := range g.Relations {
				if r.RelationType == name {
					result.RemovedUsages++
					continue
				}
				kept = append(kept, r)
			}
			g.Relations = kept
		}
		result.UsageCount = result.RemovedUsages
	}

	g.Types = append(g.Types[:i], g.Types[i+1:]...)

	if err := s.persist(g); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceGraph overwrites the entity and relation records wholesale while
// preserving type definitions. It is the single-write primitive behind the
// integrity auto-fix.
func (s *FileStore) ReplaceGraph(entities []models.Entity, relations []models.Relation) error {
	g, err := s.load()
	if err != nil {
		return err
	}
	g.Entities = entities
	g.Relations = relations
	return s.persist(g)
}

func dedupeStrings(in []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
