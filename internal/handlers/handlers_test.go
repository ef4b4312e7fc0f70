package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/teomarche/study-garden/internal/database"
	"github.com/teomarche/study-garden/internal/garden"
	"github.com/teomarche/study-garden/internal/middleware"
	"github.com/teomarche/study-garden/internal/models"
)

// stubGardenRepo is an in-memory garden repository for handler tests.
type stubGardenRepo struct {
	mu      sync.Mutex
	gardens map[string]*models.Garden
}

func newStubGardenRepo() *stubGardenRepo {
	return &stubGardenRepo{gardens: make(map[string]*models.Garden)}
}

func (r *stubGardenRepo) GetBySecretKey(_ context.Context, secretKey string) (*models.Garden, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gardens[secretKey]
	if !ok {
		return nil, database.ErrGardenNotFound
	}
	copied := *g
	return &copied, nil
}

func (r *stubGardenRepo) Create(_ context.Context, g *models.Garden) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *g
	r.gardens[g.SecretKey] = &copied
	return nil
}

func (r *stubGardenRepo) UpdateData(_ context.Context, secretKey string, topics []models.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gardens[secretKey]; ok {
		g.Topics = topics
	}
	return nil
}

// newTestSession logs in a fresh garden and returns its session.
func newTestSession(t *testing.T, secretKey string) *garden.Session {
	t.Helper()

	manager := garden.NewManager(newStubGardenRepo(), zap.NewNop(), time.Hour)
	t.Cleanup(manager.Close)

	session, err := manager.Login(context.Background(), secretKey, true)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return session
}

// doJSON runs a handler with the session injected and a JSON body.
func doJSON(t *testing.T, router http.Handler, session *garden.Session, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req = req.WithContext(middleware.ContextWithSession(req.Context(), session))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// newAuthedRequest runs a request through the router with a bearer token.
func newAuthedRequest(t *testing.T, router http.Handler, token, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the success envelope's data field into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got: %s", rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v (data: %s)", err, envelope.Data)
	}
}
