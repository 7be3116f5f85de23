package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dossier-io/dossier/internal/graph"
	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/pkg/types"
	"github.com/dossier-io/dossier/web/handlers"
)

func newGraphMux(h *handlers.GraphHandlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/graph/stats", h.Stats)
	mux.HandleFunc("GET /api/graph/centrality", h.Centrality)
	mux.HandleFunc("GET /api/graph/communities", h.Communities)
	mux.HandleFunc("GET /api/graph/path", h.ShortestPath)
	mux.HandleFunc("GET /api/graph/neighbors", h.Neighbors)
	mux.HandleFunc("POST /api/graph/subgraph", h.Subgraph)
	return mux
}

// seedTriangle inserts three connected people and returns their ids.
func seedTriangle(t *testing.T, store storage.EntityStore) [3]int64 {
	t.Helper()
	ctx := context.Background()
	names := []string{"Alice", "Bob", "Carol"}
	var ids [3]int64
	for i, name := range names {
		ids[i] = insertTestEntity(t, store, name, types.EntityTypePerson)
	}
	edges := [][2]int{{0, 1}, {1, 2}, {0, 2}}
	for _, e := range edges {
		err := store.AddConnection(ctx, types.Connection{
			EntityA: ids[e[0]],
			EntityB: ids[e[1]],
			Weight:  2,
		})
		require.NoError(t, err)
	}
	return ids
}

func TestGraphHandlers_Stats(t *testing.T) {
	store := newTestStore(t)
	seedTriangle(t, store)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	req := httptest.NewRequest("GET", "/api/graph/stats", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats types.GraphStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 3, stats.EdgeCount)
	assert.Equal(t, 1, stats.Components)
}

func TestGraphHandlers_CentralityDefaultMetric(t *testing.T) {
	store := newTestStore(t)
	seedTriangle(t, store)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	req := httptest.NewRequest("GET", "/api/graph/centrality", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var rows []types.NodeMetrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, 2, row.Degree)
	}
}

func TestGraphHandlers_CentralityUnknownMetric(t *testing.T) {
	store := newTestStore(t)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	req := httptest.NewRequest("GET", "/api/graph/centrality?metric=pagerank", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphHandlers_Communities(t *testing.T) {
	store := newTestStore(t)
	seedTriangle(t, store)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	req := httptest.NewRequest("GET", "/api/graph/communities", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var communities []types.Community
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &communities))
	require.Len(t, communities, 1)
	assert.Equal(t, 3, communities[0].Size)
}

func TestGraphHandlers_Path(t *testing.T) {
	store := newTestStore(t)
	ids := seedTriangle(t, store)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	req := httptest.NewRequest("GET", "/api/graph/path?source="+itoa(ids[0])+"&target="+itoa(ids[2]), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var path types.PathResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &path))
	assert.Equal(t, 1, path.Hops)
}

func TestGraphHandlers_PathMissingParams(t *testing.T) {
	store := newTestStore(t)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	req := httptest.NewRequest("GET", "/api/graph/path?source=1", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphHandlers_PathNotFound(t *testing.T) {
	store := newTestStore(t)
	ids := seedTriangle(t, store)
	loner := insertTestEntity(t, store, "Loner", types.EntityTypePerson)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	req := httptest.NewRequest("GET", "/api/graph/path?source="+itoa(ids[0])+"&target="+itoa(loner), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no path found")
}

func TestGraphHandlers_Neighbors(t *testing.T) {
	store := newTestStore(t)
	ids := seedTriangle(t, store)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	req := httptest.NewRequest("GET", "/api/graph/neighbors?id="+itoa(ids[0]), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var neighbors []types.Neighbor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &neighbors))
	assert.Len(t, neighbors, 2)
}

func TestGraphHandlers_NeighborsMissingID(t *testing.T) {
	store := newTestStore(t)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	req := httptest.NewRequest("GET", "/api/graph/neighbors", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphHandlers_Subgraph(t *testing.T) {
	store := newTestStore(t)
	ids := seedTriangle(t, store)
	mux := newGraphMux(handlers.NewGraphHandlers(graph.NewAnalyzer(store)))

	body, _ := json.Marshal(handlers.SubgraphRequest{EntityIDs: []int64{ids[0], ids[1]}})
	req := httptest.NewRequest("POST", "/api/graph/subgraph", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var sub types.Subgraph
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.Len(t, sub.Nodes, 2)
	assert.Len(t, sub.Edges, 1)
}
