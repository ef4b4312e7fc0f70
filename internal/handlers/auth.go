package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/teomarche/study-garden/internal/database"
	"github.com/teomarche/study-garden/internal/garden"
	"github.com/teomarche/study-garden/internal/middleware"
	"github.com/teomarche/study-garden/internal/services/token"
	"github.com/teomarche/study-garden/internal/validation"
)

// AuthHandler handles garden login and logout.
type AuthHandler struct {
	gardens  *garden.Manager
	issuer   *token.Issuer
	onLogout []func(secretKey string)
}

// NewAuthHandler creates a new auth handler. onLogout hooks run after the
// garden session closes, letting study sessions and timers tear down too.
func NewAuthHandler(gardens *garden.Manager, issuer *token.Issuer, onLogout ...func(secretKey string)) *AuthHandler {
	return &AuthHandler{gardens: gardens, issuer: issuer, onLogout: onLogout}
}

// RegisterRoutes registers the public login route. The router should already
// have the /api/v1/auth prefix.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods("POST")
}

// RegisterProtectedRoutes registers routes that need an authenticated session.
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/logout", h.Logout).Methods("POST")
}

// LoginRequest is the login payload. CreateIfMissing is the client's explicit
// confirmation to plant a new garden under an unknown key.
type LoginRequest struct {
	SecretKey       string `json:"secret_key" validate:"required,max=128"`
	CreateIfMissing bool   `json:"create_if_missing"`
}

// LoginResponse carries the session token and the garden's topics.
type LoginResponse struct {
	Token  string      `json:"token"`
	Topics []TopicView `json:"topics"`
}

// Login authenticates by secret key. An unknown key without the create
// confirmation is a 404 so the client can ask before planting anything.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.ValidateSecretKey(req.SecretKey); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	session, err := h.gardens.Login(r.Context(), req.SecretKey, req.CreateIfMissing)
	if errors.Is(err, database.ErrGardenNotFound) {
		respondJSONError(w, http.StatusNotFound, "garden_not_found", "No garden exists for this key")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Could not reach the garden store")
		return
	}

	signed, err := h.issuer.Issue(session.SecretKey)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to issue session token")
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Token:  signed,
		Topics: topicViews(session.Store.Snapshot()),
	})
}

// Logout flushes pending writes and closes the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	h.gardens.Logout(session.SecretKey)
	for _, hook := range h.onLogout {
		hook(session.SecretKey)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
