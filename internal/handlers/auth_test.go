package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/teomarche/study-garden/internal/garden"
	"github.com/teomarche/study-garden/internal/middleware"
	"github.com/teomarche/study-garden/internal/services/token"
)

func newAuthFixture(t *testing.T) (*garden.Manager, *mux.Router) {
	t.Helper()

	manager := garden.NewManager(newStubGardenRepo(), zap.NewNop(), time.Hour)
	t.Cleanup(manager.Close)

	issuer, err := token.NewIssuer("test-secret-material", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	handler := NewAuthHandler(manager, issuer)
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/auth").Subrouter())
	handler.RegisterProtectedRoutes(router.PathPrefix("/auth").Subrouter())
	return manager, router
}

func TestLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       LoginRequest
		preCreate  bool
		wantStatus int
	}{
		{
			name:       "creates a new garden when asked",
			body:       LoginRequest{SecretKey: "giardino-nuovo", CreateIfMissing: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown garden without create is not found",
			body:       LoginRequest{SecretKey: "giardino-ignoto"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "existing garden logs in",
			body:       LoginRequest{SecretKey: "giardino-esistente"},
			preCreate:  true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "blank key rejected",
			body:       LoginRequest{SecretKey: "   "},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "key with whitespace rejected",
			body:       LoginRequest{SecretKey: "chiave con spazi", CreateIfMissing: true},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			manager, router := newAuthFixture(t)
			if tt.preCreate {
				if _, err := manager.Login(context.Background(), tt.body.SecretKey, true); err != nil {
					t.Fatalf("seed login: %v", err)
				}
			}

			rec := doJSON(t, router, nil, http.MethodPost, "/auth/login", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (body: %s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp LoginResponse
			decodeData(t, rec, &resp)
			if resp.Token == "" {
				t.Error("expected a session token in the response")
			}
			if resp.Topics == nil {
				t.Error("expected topics list, got nil")
			}
			if _, ok := manager.Get(tt.body.SecretKey); !ok {
				t.Error("expected manager to hold the session after login")
			}
		})
	}
}

func TestLogoutRunsHooks(t *testing.T) {
	t.Parallel()

	manager := garden.NewManager(newStubGardenRepo(), zap.NewNop(), time.Hour)
	t.Cleanup(manager.Close)

	issuer, err := token.NewIssuer("test-secret-material", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	var dropped []string
	handler := NewAuthHandler(manager, issuer, func(secretKey string) {
		dropped = append(dropped, secretKey)
	})
	router := mux.NewRouter()
	handler.RegisterProtectedRoutes(router.PathPrefix("/auth").Subrouter())

	session, err := manager.Login(context.Background(), "giardino-logout", true)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rec := doJSON(t, router, session, http.MethodPost, "/auth/logout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	if _, ok := manager.Get("giardino-logout"); ok {
		t.Error("expected session to be removed after logout")
	}
	if len(dropped) != 1 || dropped[0] != "giardino-logout" {
		t.Errorf("expected logout hook to run once with the key, got %v", dropped)
	}
}

func TestLoginTokenAuthorizesRequests(t *testing.T) {
	t.Parallel()

	manager := garden.NewManager(newStubGardenRepo(), zap.NewNop(), time.Hour)
	t.Cleanup(manager.Close)

	issuer, err := token.NewIssuer("test-secret-material", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	authHandler := NewAuthHandler(manager, issuer)
	router := mux.NewRouter()
	authHandler.RegisterRoutes(router.PathPrefix("/auth").Subrouter())

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.Auth(issuer, manager))
	NewTopicHandler().RegisterRoutes(protected.PathPrefix("/topics").Subrouter())

	rec := doJSON(t, router, nil, http.MethodPost, "/auth/login",
		LoginRequest{SecretKey: "giardino-e2e", CreateIfMissing: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d", rec.Code)
	}
	var resp LoginResponse
	decodeData(t, rec, &resp)

	req := doJSON(t, router, nil, http.MethodGet, "/api/topics", nil)
	if req.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", req.Code)
	}

	authed := newAuthedRequest(t, router, resp.Token, http.MethodGet, "/api/topics")
	if authed.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d (body: %s)", authed.Code, authed.Body.String())
	}
}
