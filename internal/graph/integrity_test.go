package graph

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memory-graph-mcp/internal/models"
	"memory-graph-mcp/internal/storage"
)

// setupRawManager exposes the underlying store so tests can plant broken
// records that the validated write path refuses to produce.
func setupRawManager(t *testing.T) (*Manager, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "memory.json"))
	require.NoError(t, err)
	return NewManager(store), store
}

func issueTypes(report *models.IntegrityReport) []string {
	types := make([]string, len(report.Issues))
	for i, issue := range report.Issues {
		types[i] = issue.Type
	}
	return types
}

func TestValidateIntegrityCleanGraph(t *testing.T) {
	m := setupTeamGraph(t)

	report, err := m.ValidateIntegrity(false)
	require.NoError(t, err)
	assert.Equal(t, 4, report.EntitiesChecked)
	assert.Equal(t, 3, report.RelationsChecked)
	assert.Empty(t, report.Issues)
	assert.Empty(t, report.FixesApplied)
}

func TestValidateIntegrityDetectsOrphans(t *testing.T) {
	m, store := setupRawManager(t)
	seedEntities(t, m, "A")
	// The storage layer does not gate endpoint existence, so an orphan can
	// be planted directly.
	_, err := store.CreateRelations([]models.RelationInput{{From: "A", To: "Ghost", RelationType: "knows"}})
	require.NoError(t, err)

	report, err := m.ValidateIntegrity(false)
	require.NoError(t, err)
	assert.Equal(t, []string{models.IssueOrphanedRelation}, issueTypes(report))

	// Audit-only: nothing changed.
	g, err := m.ReadGraph()
	require.NoError(t, err)
	assert.Len(t, g.Relations, 1)
}

func TestValidateIntegrityFixesOrphans(t *testing.T) {
	m, store := setupRawManager(t)
	seedEntities(t, m, "A", "B")
	_, err := store.CreateRelations([]models.RelationInput{
		{From: "A", To: "B", RelationType: "knows"},
		{From: "A", To: "Ghost", RelationType: "knows"},
	})
	require.NoError(t, err)

	report, err := m.ValidateIntegrity(true)
	require.NoError(t, err)
	require.Len(t, report.FixesApplied, 1)
	assert.Contains(t, report.FixesApplied[0], "orphaned")

	g, err := m.ReadGraph()
	require.NoError(t, err)
	require.Len(t, g.Relations, 1)
	assert.Equal(t, "B", g.Relations[0].To)
}

func TestValidateIntegrityDetectsAndFixesSelfRelations(t *testing.T) {
	m, store := setupRawManager(t)
	seedEntities(t, m, "A")
	_, err := store.CreateRelations([]models.RelationInput{{From: "A", To: "A", RelationType: "references"}})
	require.NoError(t, err)

	report, err := m.ValidateIntegrity(true)
	require.NoError(t, err)
	assert.Equal(t, []string{models.IssueSelfRelation}, issueTypes(report))

	g, err := m.ReadGraph()
	require.NoError(t, err)
	assert.Empty(t, g.Relations)
}

func TestValidateIntegrityFixesDuplicatesKeepingFirst(t *testing.T) {
	m, store := setupRawManager(t)
	seedEntities(t, m, "A", "B")
	// Duplicate triples cannot enter through the write path; plant them
	// with the wholesale-replace primitive.
	first := models.Relation{ID: "r1", From: "A", To: "B", RelationType: "knows"}
	second := models.Relation{ID: "r2", From: "A", To: "B", RelationType: "knows"}
	g, err := m.ReadGraph()
	require.NoError(t, err)
	require.NoError(t, store.ReplaceGraph(g.Entities, []models.Relation{first, second}))

	report, err := m.ValidateIntegrity(true)
	require.NoError(t, err)
	assert.Equal(t, []string{models.IssueDuplicateRelation}, issueTypes(report))

	after, err := m.ReadGraph()
	require.NoError(t, err)
	require.Len(t, after.Relations, 1)
	assert.Equal(t, "r1", after.Relations[0].ID)
}

func TestValidateIntegrityMalformedEntities(t *testing.T) {
	m, store := setupRawManager(t)
	entities := []models.Entity{
		{ID: "e1", Name: "  ", EntityType: "Person", Observations: []string{}},
		{ID: "e2", Name: "NoType", EntityType: "", Observations: []string{}},
		{ID: "e3", Name: "NilObs", EntityType: "Person"},
	}
	require.NoError(t, store.ReplaceGraph(entities, nil))

	report, err := m.ValidateIntegrity(false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		models.IssueMalformedEntity,
		models.IssueMalformedEntity,
		models.IssueMalformedEntity,
	}, issueTypes(report))
}

func TestValidateIntegrityFixesMalformedEntities(t *testing.T) {
	m, store := setupRawManager(t)
	entities := []models.Entity{
		{ID: "e1", Name: " ", EntityType: "Person", Observations: []string{}},
		{ID: "e2", Name: "Keep", EntityType: "Person"},
	}
	relations := []models.Relation{
		{ID: "r1", From: " ", To: "Keep", RelationType: "knows"},
	}
	require.NoError(t, store.ReplaceGraph(entities, relations))

	report, err := m.ValidateIntegrity(true)
	require.NoError(t, err)
	assert.NotEmpty(t, report.FixesApplied)

	g, err := m.ReadGraph()
	require.NoError(t, err)
	require.Len(t, g.Entities, 1)
	assert.Equal(t, "Keep", g.Entities[0].Name)
	// nil observations coerced to an empty list.
	assert.NotNil(t, g.Entities[0].Observations)
	// The relation referencing the removed blank-name entity is gone.
	assert.Empty(t, g.Relations)
}

func TestValidateIntegrityFixConverges(t *testing.T) {
	m, store := setupRawManager(t)
	entities := []models.Entity{
		{ID: "e1", Name: "", EntityType: "Person", Observations: []string{}},
		{ID: "e2", Name: "A", EntityType: "Person"},
	}
	relations := []models.Relation{
		{ID: "r1", From: "A", To: "Ghost", RelationType: "knows"},
		{ID: "r2", From: "A", To: "A", RelationType: "references"},
		{ID: "r3", From: "", To: "A", RelationType: "knows"},
	}
	require.NoError(t, store.ReplaceGraph(entities, relations))

	_, err := m.ValidateIntegrity(true)
	require.NoError(t, err)

	// A second audit after fixing must come back clean.
	report, err := m.ValidateIntegrity(false)
	require.NoError(t, err)
	assert.Empty(t, report.Issues)
}
