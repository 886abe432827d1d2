package viewer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memory-graph-mcp/internal/graph"
	"memory-graph-mcp/internal/models"
	"memory-graph-mcp/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupViewer seeds a two-entity graph behind a test router.
func setupViewer(t *testing.T) *gin.Engine {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "memory.json"))
	require.NoError(t, err)
	mgr := graph.NewManager(store)

	_, err = mgr.CreateEntities([]models.EntityInput{
		{Name: "Alice", EntityType: "Person", Observations: []string{"team lead"}},
		{Name: "Website", EntityType: "Project"},
	})
	require.NoError(t, err)
	_, err = mgr.CreateRelations([]models.RelationInput{
		{From: "Alice", To: "Website", RelationType: "maintains"},
	})
	require.NoError(t, err)

	return New(mgr).Router()
}

func doGet(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthReportsCounts(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 2, body["entityCount"])
	assert.EqualValues(t, 1, body["relationCount"])
}

func TestGraphEndpointReturnsFullAggregate(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/api/graph")
	require.Equal(t, http.StatusOK, w.Code)

	var g models.KnowledgeGraph
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Len(t, g.Entities, 2)
	assert.Len(t, g.Relations, 1)
}

func TestSearchEndpoint(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/api/search?q=alice")
	require.Equal(t, http.StatusOK, w.Code)

	var g models.KnowledgeGraph
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	require.Len(t, g.Entities, 1)
	assert.Equal(t, "Alice", g.Entities[0].Name)
}

func TestSearchEndpointEmptyQuery(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/api/search")
	require.Equal(t, http.StatusOK, w.Code)

	var g models.KnowledgeGraph
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Empty(t, g.Entities)
}

func TestNodeRelationsEndpoint(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/api/nodes/Alice/relations")
	require.Equal(t, http.StatusOK, w.Code)

	var rels models.NodeRelations
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rels))
	require.Len(t, rels.Outgoing, 1)
	assert.Equal(t, []string{"Website"}, rels.ConnectedEntities)
}

func TestNodeRelationsUnknownEntityYieldsEmptyViews(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/api/nodes/Ghost/relations")
	require.Equal(t, http.StatusOK, w.Code)

	var rels models.NodeRelations
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rels))
	assert.Empty(t, rels.Outgoing)
	assert.Empty(t, rels.Incoming)
	assert.Empty(t, rels.ConnectedEntities)
}

func TestNeighborhoodUnknownCenterIs404(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/api/nodes/Ghost/neighborhood")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNeighborhoodEndpoint(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/api/nodes/Alice/neighborhood?depth=1")
	require.Equal(t, http.StatusOK, w.Code)

	var g models.KnowledgeGraph
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Len(t, g.Entities, 2)
}

func TestTypesEndpoint(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/api/types?sort=usage")
	require.Equal(t, http.StatusOK, w.Code)

	var listing models.TypeListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Len(t, listing.EntityTypes, 2)
	assert.Len(t, listing.RelationTypes, 1)
}

func TestStatsEndpoint(t *testing.T) {
	router := setupViewer(t)

	w := doGet(t, router, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.GraphStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.EntityCount)
	assert.Equal(t, map[string]int{"Person": 1, "Project": 1}, stats.EntityTypes)
}

func TestCORSHeadersOnPreflight(t *testing.T) {
	router := setupViewer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/graph", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
