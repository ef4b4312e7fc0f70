package handlers

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
)

func TestSyncStatus(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	NewSyncHandler().RegisterRoutes(router)

	session := newTestSession(t, "sync-status")

	rec := doJSON(t, router, session, http.MethodGet, "/sync/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp SyncStatusResponse
	decodeData(t, rec, &resp)
	if resp.Saving {
		t.Error("expected no pending save on a fresh session")
	}
	if resp.LastSavedAt != nil {
		t.Error("expected no last save timestamp before any write")
	}

	// A mutation arms the debounced write, flagging the save as pending.
	session.Store.CreateTopic("Filosofia")

	rec = doJSON(t, router, session, http.MethodGet, "/sync/status", nil)
	decodeData(t, rec, &resp)
	if !resp.Saving {
		t.Error("expected a pending save after a mutation")
	}
}

func TestSyncStatusRequiresSession(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	NewSyncHandler().RegisterRoutes(router)

	rec := doJSON(t, router, nil, http.MethodGet, "/sync/status", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without session, got %d", rec.Code)
	}
}
