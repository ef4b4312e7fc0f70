package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/teomarche/study-garden/internal/middleware"
	"github.com/teomarche/study-garden/internal/models"
	"github.com/teomarche/study-garden/internal/validation"
)

// TopicHandler handles topic and flashcard requests against the logged-in
// garden's store.
type TopicHandler struct{}

// NewTopicHandler creates a new topic handler.
func NewTopicHandler() *TopicHandler {
	return &TopicHandler{}
}

// RegisterRoutes registers topic routes on the given router. The router
// should already have the /topics prefix.
func (h *TopicHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTopics).Methods("GET")
	r.HandleFunc("", h.CreateTopic).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteTopic).Methods("DELETE")
	r.HandleFunc("/{id}/select", h.SelectTopic).Methods("POST")
	r.HandleFunc("/{id}/cards", h.AddCard).Methods("POST")
}

// TopicView is a topic plus its derived growth display state.
type TopicView struct {
	ID         uuid.UUID          `json:"id"`
	Title      string             `json:"title"`
	Cards      []models.Flashcard `json:"cards"`
	KnownCount int                `json:"known_count"`
	Stage      models.GrowthStage `json:"stage"`
}

func topicView(t models.Topic) TopicView {
	return TopicView{
		ID:         t.ID,
		Title:      t.Title,
		Cards:      t.Cards,
		KnownCount: t.KnownCount(),
		Stage:      t.Stage(),
	}
}

func topicViews(topics []models.Topic) []TopicView {
	views := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		views = append(views, topicView(t))
	}
	return views
}

// CreateTopicRequest represents a create topic request.
type CreateTopicRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// AddCardRequest represents a manual flashcard creation request.
type AddCardRequest struct {
	Question string `json:"question" validate:"required,min=1,max=4000"`
	Answer   string `json:"answer" validate:"required,min=1,max=4000"`
}

// ListTopics lists the logged-in garden's topics.
func (h *TopicHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	respondJSON(w, http.StatusOK, topicViews(session.Store.Snapshot()))
}

// CreateTopic creates an empty topic.
func (h *TopicHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	var req CreateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	req.Title = validation.SanitizeText(req.Title)
	if err := validation.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	topic, ok := session.Store.CreateTopic(req.Title)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Topic title must not be empty")
		return
	}

	respondJSON(w, http.StatusCreated, topicView(*topic))
}

// DeleteTopic removes a topic and all its cards.
func (h *TopicHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid topic ID")
		return
	}

	if !session.Store.DeleteTopic(id) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Topic not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SelectTopic marks a topic as the active selection.
func (h *TopicHandler) SelectTopic(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid topic ID")
		return
	}

	if !session.Store.SelectTopic(id) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Topic not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "selected"})
}

// AddCard appends a flashcard to a topic.
func (h *TopicHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid topic ID")
		return
	}

	var req AddCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	req.Question = validation.SanitizeText(req.Question)
	req.Answer = validation.SanitizeText(req.Answer)
	if err := validation.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	card, ok := session.Store.AddCard(id, req.Question, req.Answer)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Topic not found")
		return
	}

	respondJSON(w, http.StatusCreated, card)
}
