package handlers

import (
	"errors"
	"net/http"

	"github.com/dossier-io/dossier/internal/storage"
)

// EntityHandlers serves read-only entity lookups.
type EntityHandlers struct {
	store storage.EntityStore
}

// NewEntityHandlers creates handlers backed by the given store.
func NewEntityHandlers(store storage.EntityStore) *EntityHandlers {
	return &EntityHandlers{store: store}
}

// ListEntities handles GET /api/entities.
// Query parameters: type (optional filter).
func (h *EntityHandlers) ListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.store.ListEntities(r.Context(), storage.ListOptions{
		Type: r.URL.Query().Get("type"),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list entities", err)
		return
	}
	respondJSON(w, http.StatusOK, entities)
}

// GetEntity handles GET /api/entities/{id}.
func (h *EntityHandlers) GetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	entity, err := h.store.GetEntity(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "entity not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load entity", err)
		return
	}
	respondJSON(w, http.StatusOK, entity)
}
