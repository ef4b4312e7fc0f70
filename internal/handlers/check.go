package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/teomarche/study-garden/internal/services/ai"
	"github.com/teomarche/study-garden/internal/validation"
)

// CheckHandler grades a free-standing answer outside of a study session.
type CheckHandler struct {
	provider ai.Provider
}

// NewCheckHandler creates a new check handler.
func NewCheckHandler(provider ai.Provider) *CheckHandler {
	return &CheckHandler{provider: provider}
}

// RegisterRoutes registers the check route on the given router.
func (h *CheckHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/check", h.Check).Methods("POST")
}

// CheckRequest represents a direct grading request.
type CheckRequest struct {
	Question      string `json:"question" validate:"required,min=1,max=4000"`
	CorrectAnswer string `json:"correct_answer" validate:"required,min=1,max=4000"`
	UserAnswer    string `json:"user_answer" validate:"required,min=1,max=4000"`
}

// Check grades the user's answer against the expected one.
func (h *CheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	req.Question = validation.SanitizeText(req.Question)
	req.CorrectAnswer = validation.SanitizeText(req.CorrectAnswer)
	req.UserAnswer = validation.SanitizeText(req.UserAnswer)
	if err := validation.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	eval, err := h.provider.GradeAnswer(r.Context(), req.Question, req.CorrectAnswer, req.UserAnswer)
	if err != nil {
		switch {
		case ai.IsQuotaError(err):
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "AI quota exhausted, try again later")
		case ai.IsRateLimitError(err):
			respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", "AI provider is rate limiting, try again shortly")
		default:
			respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Answer grading failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, eval)
}
