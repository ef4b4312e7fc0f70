package study

import (
	"context"
	"testing"

	"github.com/teomarche/study-garden/internal/models"
	"go.uber.org/zap"
)

func TestHubReusesSessionForSameDeck(t *testing.T) {
	t.Parallel()

	store, _ := newTestDeck(t, 1)
	hub := NewHub(&fakeGrader{}, &fakePublisher{}, zap.NewNop())

	first := hub.Session("gi-key", store)
	second := hub.Session("gi-key", store)
	if first != second {
		t.Error("expected the same session for the same deck")
	}
}

func TestHubRebindsSessionAfterRelogin(t *testing.T) {
	t.Parallel()

	// A re-login builds a fresh store; grading must mark cards on it, not
	// on the store from the first login.
	oldStore, oldTopicID := newTestDeck(t, 1)
	grader := &fakeGrader{eval: &models.Evaluation{IsCorrect: true, Feedback: "Esatto!"}}
	hub := NewHub(grader, &fakePublisher{}, zap.NewNop())

	oldSession := hub.Session("gi-key", oldStore)
	if err := oldSession.Start(context.Background(), oldTopicID); err != nil {
		t.Fatalf("start on old deck: %v", err)
	}

	newStore, newTopicID := newTestDeck(t, 1)
	newSession := hub.Session("gi-key", newStore)
	if newSession == oldSession {
		t.Fatal("expected a fresh session after the deck changed")
	}
	if oldSession.Status().State != StateBrowsing {
		t.Error("expected the replaced session to be abandoned")
	}

	if err := newSession.Start(context.Background(), newTopicID); err != nil {
		t.Fatalf("start on new deck: %v", err)
	}
	if _, err := newSession.SubmitAnswer(context.Background(), "a"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	newTopic, _ := newStore.Topic(newTopicID)
	if !newTopic.Cards[0].Known {
		t.Error("expected the correct answer to mark the card on the live store")
	}
	oldTopic, _ := oldStore.Topic(oldTopicID)
	if oldTopic.Cards[0].Known {
		t.Error("expected the abandoned store to stay untouched")
	}
}

func TestHubDropForgetsSession(t *testing.T) {
	t.Parallel()

	store, topicID := newTestDeck(t, 1)
	hub := NewHub(&fakeGrader{}, &fakePublisher{}, zap.NewNop())

	s := hub.Session("gi-key", store)
	if err := s.Start(context.Background(), topicID); err != nil {
		t.Fatalf("start: %v", err)
	}

	hub.Drop("gi-key")
	if s.Status().State != StateBrowsing {
		t.Error("expected drop to abandon the in-flight session")
	}
	if hub.Session("gi-key", store) == s {
		t.Error("expected a fresh session after drop")
	}
}
