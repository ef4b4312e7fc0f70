package handlers

import (
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/teomarche/study-garden/internal/middleware"
	"github.com/teomarche/study-garden/internal/services/ai"
)

const (
	// MaxUploadBytes caps the accepted document upload size.
	MaxUploadBytes = 5 << 20

	multipartMemoryLimit = 1 << 20
)

// GenerateHandler turns uploaded study material into flashcards via the
// configured AI provider.
type GenerateHandler struct {
	provider ai.Provider
}

// NewGenerateHandler creates a new generation handler.
func NewGenerateHandler(provider ai.Provider) *GenerateHandler {
	return &GenerateHandler{provider: provider}
}

// RegisterRoutes registers generation routes. The router should already
// have the /topics prefix.
func (h *GenerateHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{id}/generate", h.Generate).Methods("POST")
}

// Generate reads an uploaded document and appends AI-generated flashcards
// to the topic.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	topicID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid topic ID")
		return
	}
	if _, ok := session.Store.Topic(topicID); !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Topic not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Expected a multipart file upload")
		return
	}
	file, _, err := r.FormFile("document")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Missing document field")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Failed to read uploaded file")
		return
	}

	text := strings.TrimSpace(string(raw))
	if text == "" || !utf8.ValidString(text) {
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "Document does not contain readable text")
		return
	}

	drafts, err := h.provider.GenerateFlashcards(r.Context(), text)
	if err != nil {
		switch {
		case ai.IsQuotaError(err):
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "AI quota exhausted, try again later")
		case ai.IsRateLimitError(err):
			respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", "AI provider is rate limiting, try again shortly")
		default:
			respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Flashcard generation failed")
		}
		return
	}

	cards, ok := session.Store.BulkAddCards(topicID, drafts)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Topic not found")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"flashcards": cards,
	})
}
