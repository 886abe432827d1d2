package models

// Object type categories for governed type definitions. The two categories
// partition the namespace, so the same string may be registered as both an
// entity type and a relation type.
const (
	ObjectTypeEntity   = "entityType"
	ObjectTypeRelation = "relationType"
)

// Entity is a named, typed node in the knowledge graph. The ID is assigned
// once at creation and never changes; the name is a mutable, unique label.
type Entity struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

// Relation is a directed, typed edge between two entities, referenced by
// entity name. At most one relation may exist per (from, to, relationType).
type Relation struct {
	ID           string `json:"id"`
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// TypeDefinition declares a legal value for entityType or relationType.
// An empty registry for a category leaves that category ungoverned.
type TypeDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ObjectType  string `json:"objectType"`
	Description string `json:"description,omitempty"`
}

// KnowledgeGraph is the full persisted aggregate at a point in time.
type KnowledgeGraph struct {
	Entities  []Entity         `json:"entities"`
	Relations []Relation       `json:"relations"`
	Types     []TypeDefinition `json:"typeDefinitions,omitempty"`
}

// EntityInput describes an entity to create.
type EntityInput struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations,omitempty"`
}

// RelationInput identifies a relation by its (from, to, relationType) triple.
type RelationInput struct {
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// ObservationRequest adds observation strings to one named entity.
type ObservationRequest struct {
	EntityName string   `json:"entityName"`
	Contents   []string `json:"contents"`
}

// ObservationDelta reports the observations actually added per entity,
// after duplicates were skipped.
type ObservationDelta struct {
	EntityName string   `json:"entityName"`
	Added      []string `json:"addedObservations"`
}

// ObservationDeletion removes observation strings from one named entity.
type ObservationDeletion struct {
	EntityName   string   `json:"entityName"`
	Observations []string `json:"observations"`
}

// NodeRelations is the per-entity relation view: edges grouped by direction
// plus the deduplicated names of all directly connected entities.
type NodeRelations struct {
	Outgoing          []Relation `json:"outgoing"`
	Incoming          []Relation `json:"incoming"`
	ConnectedEntities []string   `json:"connected_entities"`
}

// RenameResult reports a completed rename and its relation cascade.
// RelationsUpdated counts updated relation endpoints, so a self-relation
// contributes two.
type RenameResult struct {
	OldName          string `json:"oldName"`
	NewName          string `json:"newName"`
	RelationsUpdated int    `json:"relationsUpdated"`
}

// Integrity issue classifications reported by the integrity audit.
const (
	IssueOrphanedRelation  = "orphaned_relation"
	IssueSelfRelation      = "self_relation"
	IssueDuplicateRelation = "duplicate_relation"
	IssueMalformedEntity   = "malformed_entity"
)

// IntegrityIssue is one structural problem found during an audit.
type IntegrityIssue struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// IntegrityReport summarizes an audit and any fixes that were applied.
type IntegrityReport struct {
	EntitiesChecked  int              `json:"entitiesChecked"`
	RelationsChecked int              `json:"relationsChecked"`
	Issues           []IntegrityIssue `json:"issues"`
	FixesApplied     []string         `json:"fixesApplied,omitempty"`
}

// EntityTypeUsage aggregates how one entity type is used across the graph.
type EntityTypeUsage struct {
	Name        string   `json:"name"`
	Count       int      `json:"count"`
	Description string   `json:"description,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// RelationTypeUsage aggregates how one relation type is used.
type RelationTypeUsage struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	Description string `json:"description,omitempty"`
}

// TypeListing is the aggregated type inventory returned by list_types.
type TypeListing struct {
	EntityTypes   []EntityTypeUsage   `json:"entityTypes"`
	RelationTypes []RelationTypeUsage `json:"relationTypes"`
}

// TypeDeleteResult reports what a type deletion did to existing usages.
type TypeDeleteResult struct {
	ObjectType    string `json:"objectType"`
	Name          string `json:"name"`
	UsageCount    int    `json:"usageCount"`
	MigratedTo    string `json:"migratedTo,omitempty"`
	RemovedUsages int    `json:"removedUsages,omitempty"`
}

// GraphStats is the summary served to the web viewer.
type GraphStats struct {
	EntityCount   int            `json:"entityCount"`
	RelationCount int            `json:"relationCount"`
	EntityTypes   map[string]int `json:"entityTypes"`
}
