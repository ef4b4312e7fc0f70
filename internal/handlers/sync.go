package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/teomarche/study-garden/internal/middleware"
)

// SyncHandler reports the write-back state of the logged-in garden.
type SyncHandler struct{}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler() *SyncHandler {
	return &SyncHandler{}
}

// RegisterRoutes registers the sync status route on the given router.
func (h *SyncHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sync/status", h.Status).Methods("GET")
}

// SyncStatusResponse represents the save indicator payload.
type SyncStatusResponse struct {
	Saving      bool       `json:"saving"`
	LastSavedAt *time.Time `json:"last_saved_at,omitempty"`
}

// Status reports whether a write to the remote store is pending and when
// the last one completed.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	saving, lastSaved := session.Syncer.Status()
	resp := SyncStatusResponse{Saving: saving}
	if !lastSaved.IsZero() {
		resp.LastSavedAt = &lastSaved
	}

	respondJSON(w, http.StatusOK, resp)
}
