package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/teomarche/study-garden/internal/focus"
	"github.com/teomarche/study-garden/internal/middleware"
)

// TimerHandler exposes the per-garden focus timer and motivation messages.
type TimerHandler struct {
	timers      *focus.Manager
	motivations *focus.MotivationPicker
}

// NewTimerHandler creates a new timer handler.
func NewTimerHandler(timers *focus.Manager, motivations *focus.MotivationPicker) *TimerHandler {
	return &TimerHandler{timers: timers, motivations: motivations}
}

// RegisterRoutes registers timer and motivation routes on the given router.
func (h *TimerHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/timer", h.State).Methods("GET")
	r.HandleFunc("/timer/start", h.Start).Methods("POST")
	r.HandleFunc("/timer/pause", h.Pause).Methods("POST")
	r.HandleFunc("/timer/reset", h.Reset).Methods("POST")
	r.HandleFunc("/motivations/random", h.Motivation).Methods("GET")
}

// TimerRequest selects which countdown to operate on.
type TimerRequest struct {
	Mode focus.Mode `json:"mode"`
}

func (h *TimerHandler) timer(r *http.Request) *focus.Timer {
	session := middleware.SessionFromContext(r)
	if session == nil {
		return nil
	}
	return h.timers.Timer(session.SecretKey)
}

func decodeTimerRequest(r *http.Request) (TimerRequest, error) {
	var req TimerRequest
	if r.Body == nil || r.ContentLength == 0 {
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

// State reports the timer's current countdown.
func (h *TimerHandler) State(w http.ResponseWriter, r *http.Request) {
	timer := h.timer(r)
	if timer == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	respondJSON(w, http.StatusOK, timer.State())
}

// Start runs the timer in grow or rest mode.
func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	timer := h.timer(r)
	if timer == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	req, err := decodeTimerRequest(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if req.Mode == "" {
		req.Mode = focus.ModeGrow
	}

	if err := timer.Start(req.Mode); err != nil {
		if errors.Is(err, focus.ErrUnknownMode) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Mode must be grow or rest")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to start timer")
		return
	}

	respondJSON(w, http.StatusOK, timer.State())
}

// Pause halts the countdown, keeping the remaining time.
func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	timer := h.timer(r)
	if timer == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	timer.Pause()
	respondJSON(w, http.StatusOK, timer.State())
}

// Reset reloads the full duration for the requested mode, paused.
func (h *TimerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	timer := h.timer(r)
	if timer == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	req, err := decodeTimerRequest(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	if err := timer.Reset(req.Mode); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Mode must be grow or rest")
		return
	}

	respondJSON(w, http.StatusOK, timer.State())
}

// Motivation returns a random encouragement, never repeating the last one
// shown to the same garden.
func (h *TimerHandler) Motivation(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r)
	if session == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Session not found in context")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": h.motivations.Pick(session.SecretKey),
	})
}
