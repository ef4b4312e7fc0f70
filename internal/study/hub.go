package study

import (
	"sync"

	"go.uber.org/zap"
)

// Hub hands out one study session per logged-in garden, sharing the grader
// and event publisher across them.
type Hub struct {
	grader    Grader
	publisher EventPublisher
	log       *zap.Logger
	opts      []Option

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewHub creates a study session hub.
func NewHub(grader Grader, publisher EventPublisher, log *zap.Logger, opts ...Option) *Hub {
	return &Hub{
		grader:    grader,
		publisher: publisher,
		log:       log,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// Session returns the garden's study session, creating an idle one on first
// use. A re-login hands out a fresh deck; the session bound to the replaced
// deck is abandoned so known flags land on the store the syncer persists.
func (h *Hub) Session(secretKey string, deck Deck) *Session {
	h.mu.Lock()
	old, ok := h.sessions[secretKey]
	if ok && old.deck == deck {
		h.mu.Unlock()
		return old
	}
	s := NewSession(deck, h.grader, h.publisher, h.log, secretKey, h.opts...)
	h.sessions[secretKey] = s
	h.mu.Unlock()
	if ok {
		old.Finish()
	}
	return s
}

// Drop abandons and forgets a garden's study session, used at logout.
func (h *Hub) Drop(secretKey string) {
	h.mu.Lock()
	s, ok := h.sessions[secretKey]
	if ok {
		delete(h.sessions, secretKey)
	}
	h.mu.Unlock()
	if ok {
		s.Finish()
	}
}
