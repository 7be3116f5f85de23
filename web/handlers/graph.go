package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dossier-io/dossier/internal/graph"
	"github.com/dossier-io/dossier/internal/storage"
)

// GraphHandlers serves the relationship graph API. Every request
// rebuilds the graph from current storage state, so responses always
// reflect the latest merges.
type GraphHandlers struct {
	analyzer *graph.Analyzer
}

// NewGraphHandlers creates handlers backed by the given analyzer.
func NewGraphHandlers(analyzer *graph.Analyzer) *GraphHandlers {
	return &GraphHandlers{analyzer: analyzer}
}

// Stats handles GET /api/graph/stats.
// Query parameters: type (optional filter).
func (h *GraphHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analyzer.Stats(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute graph stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Centrality handles GET /api/graph/centrality.
// Query parameters: metric (degree, betweenness, closeness,
// eigenvector), type (optional filter), limit.
func (h *GraphHandlers) Centrality(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = graph.MetricDegree
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rows, err := h.analyzer.Centrality(r.Context(), r.URL.Query().Get("type"), metric, limit)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to compute centrality", err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// Communities handles GET /api/graph/communities.
// Query parameters: type (optional filter), min_size.
func (h *GraphHandlers) Communities(w http.ResponseWriter, r *http.Request) {
	minSize, err := queryInt(r, "min_size", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	communities, err := h.analyzer.Communities(r.Context(), r.URL.Query().Get("type"), minSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to detect communities", err)
		return
	}
	respondJSON(w, http.StatusOK, communities)
}

// ShortestPath handles GET /api/graph/path.
// Query parameters: source, target (required), type (optional filter).
func (h *GraphHandlers) ShortestPath(w http.ResponseWriter, r *http.Request) {
	source, err := queryID(r, "source")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	target, err := queryID(r, "target")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	path, err := h.analyzer.ShortestPath(r.Context(), r.URL.Query().Get("type"), source, target)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to find path", err)
		return
	}
	if path == nil {
		respondError(w, http.StatusNotFound, "no path found", nil)
		return
	}
	respondJSON(w, http.StatusOK, path)
}

// Neighbors handles GET /api/graph/neighbors.
// Query parameters: id (required), hops, min_weight, type.
func (h *GraphHandlers) Neighbors(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	hops, err := queryInt(r, "hops", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	minWeight, err := queryInt(r, "min_weight", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	neighbors, err := h.analyzer.Neighbors(r.Context(), r.URL.Query().Get("type"), id, hops, minWeight)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to expand neighbors", err)
		return
	}
	respondJSON(w, http.StatusOK, neighbors)
}

// Subgraph handles POST /api/graph/subgraph.
func (h *GraphHandlers) Subgraph(w http.ResponseWriter, r *http.Request) {
	var req SubgraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sub, err := h.analyzer.InducedSubgraph(r.Context(), r.URL.Query().Get("type"), req.EntityIDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build subgraph", err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}
