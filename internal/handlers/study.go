package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/teomarche/study-garden/internal/middleware"
	"github.com/teomarche/study-garden/internal/study"
	"github.com/teomarche/study-garden/internal/validation"
)

// StudyHandler drives study sessions for the logged-in garden.
type StudyHandler struct {
	hub *study.Hub
}

// NewStudyHandler creates a new study handler.
func NewStudyHandler(hub *study.Hub) *StudyHandler {
	return &StudyHandler{hub: hub}
}

// RegisterRoutes registers study routes. The router should already have
// the /study prefix.
func (h *StudyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/start", h.Start).Methods("POST")
	r.HandleFunc("/answer", h.Answer).Methods("POST")
	r.HandleFunc("/next", h.Next).Methods("POST")
	r.HandleFunc("/finish", h.Finish).Methods("POST")
	r.HandleFunc("/state", h.State).Methods("GET")
}

// StartStudyRequest represents a study session start request.
type StartStudyRequest struct {
	TopicID uuid.UUID `json:"topic_id" validate:"required"`
}

// AnswerRequest represents a submitted answer.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"max=4000"`
}

func (h *StudyHandler) session(r *http.Request) *study.Session {
	session := middleware.SessionFromContext(r)
	if session == nil {
		return nil
	}
	return h.hub.Session(session.SecretKey, session.Store)
}

// Start begins a study run over a topic's cards.
func (h *StudyHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	var req StartStudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if err := sess.Start(r.Context(), req.TopicID); err != nil {
		switch {
		case errors.Is(err, study.ErrTopicNotFound):
			respondJSONError(w, http.StatusNotFound, "Not Found", "Topic not found")
		case errors.Is(err, study.ErrEmptyTopic):
			respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "Topic has no cards to study")
		default:
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to start study session")
		}
		return
	}

	respondJSON(w, http.StatusOK, sess.Status())
}

// Answer grades the submitted answer against the current card.
func (h *StudyHandler) Answer(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	req.Answer = validation.SanitizeText(req.Answer)
	if err := validation.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	// Blank answers come back as a nil evaluation and are simply ignored.
	if _, err := sess.SubmitAnswer(r.Context(), req.Answer); err != nil {
		if errors.Is(err, study.ErrNotStudying) {
			respondJSONError(w, http.StatusConflict, "Conflict", "No card is awaiting an answer")
			return
		}
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Answer grading failed, try again")
		return
	}

	respondJSON(w, http.StatusOK, sess.Status())
}

// Next advances to the following card.
func (h *StudyHandler) Next(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	if err := sess.Next(); err != nil {
		respondJSONError(w, http.StatusConflict, "Conflict", "No study session in progress")
		return
	}

	respondJSON(w, http.StatusOK, sess.Status())
}

// Finish abandons the current study run and returns to browsing.
func (h *StudyHandler) Finish(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	sess.Finish()
	respondJSON(w, http.StatusOK, sess.Status())
}

// State reports the session state for page reloads.
func (h *StudyHandler) State(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	respondJSON(w, http.StatusOK, sess.Status())
}
