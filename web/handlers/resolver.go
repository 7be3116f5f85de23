package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dossier-io/dossier/internal/resolver"
	"github.com/dossier-io/dossier/internal/storage"
)

// ResolverHandlers serves the entity resolution API.
type ResolverHandlers struct {
	engine *resolver.Engine
}

// NewResolverHandlers creates handlers backed by the given engine.
func NewResolverHandlers(engine *resolver.Engine) *ResolverHandlers {
	return &ResolverHandlers{engine: engine}
}

// ResolveAll handles POST /api/resolver/resolve.
// Query parameters: type (optional filter), dry_run (no writes).
func (h *ResolverHandlers) ResolveAll(w http.ResponseWriter, r *http.Request) {
	opts := resolver.ResolveOptions{
		Type:   r.URL.Query().Get("type"),
		DryRun: r.URL.Query().Get("dry_run") == "true",
	}

	result, err := h.engine.ResolveAll(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "resolution pass failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ResolveEntity handles POST /api/resolver/resolve/{id}. It reports
// the candidate matches for one entity without writing anything.
func (h *ResolverHandlers) ResolveEntity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	matches, err := h.engine.ResolveEntity(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "resolution failed", err)
		return
	}
	respondJSON(w, http.StatusOK, matches)
}

// Merge handles POST /api/resolver/merge.
func (h *ResolverHandlers) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	merged, err := h.engine.MergeEntities(r.Context(), req.SourceID, req.TargetID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "merge failed", err)
		return
	}
	respondJSON(w, http.StatusOK, MergeResponse{Merged: merged})
}

// Split handles POST /api/resolver/split.
func (h *ResolverHandlers) Split(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	split, err := h.engine.SplitEntity(r.Context(), req.SourceID, req.TargetID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "split failed", err)
		return
	}
	respondJSON(w, http.StatusOK, SplitResponse{Split: split})
}

// Duplicates handles GET /api/resolver/duplicates.
func (h *ResolverHandlers) Duplicates(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.engine.Duplicates(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list duplicates", err)
		return
	}
	respondJSON(w, http.StatusOK, pairs)
}

// Aliases handles GET /api/resolver/aliases/{id}.
func (h *ResolverHandlers) Aliases(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	aliases, err := h.engine.Aliases(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list aliases", err)
		return
	}
	respondJSON(w, http.StatusOK, AliasesResponse{EntityID: id, Aliases: aliases})
}

// Canonical handles GET /api/resolver/canonical/{id}.
func (h *ResolverHandlers) Canonical(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	canonical, err := h.engine.CanonicalID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to resolve canonical id", err)
		return
	}
	respondJSON(w, http.StatusOK, CanonicalResponse{EntityID: id, CanonicalID: canonical})
}

// Queue handles GET /api/resolver/queue.
func (h *ResolverHandlers) Queue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.engine.Queue(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list review queue", err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// ReviewQueueItem handles POST /api/resolver/queue/{id}/review.
func (h *ResolverHandlers) ReviewQueueItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	decided, err := h.engine.ReviewQueueItem(r.Context(), id, req.Approve)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "queue entry not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "review failed", err)
		return
	}

	action := "rejected"
	if req.Approve {
		action = "approved"
	}
	respondJSON(w, http.StatusOK, ReviewResponse{Decided: decided, Action: action})
}

// Log handles GET /api/resolver/log.
// Query parameters: source_id, canonical_id (both optional filters).
func (h *ResolverHandlers) Log(w http.ResponseWriter, r *http.Request) {
	sourceID, err := queryInt(r, "source_id", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	canonicalID, err := queryInt(r, "canonical_id", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	entries, err := h.engine.Log(r.Context(), int64(sourceID), int64(canonicalID))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list resolution log", err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
