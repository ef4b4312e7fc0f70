package garden

import (
	"testing"

	"github.com/google/uuid"
	"github.com/teomarche/study-garden/internal/models"
)

func TestStoreCreateTopic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		title   string
		wantOK  bool
		wantRev uint64
	}{
		{name: "valid title", title: "Diritto", wantOK: true, wantRev: 1},
		{name: "empty title ignored", title: "", wantOK: false, wantRev: 0},
		{name: "whitespace title ignored", title: "   ", wantOK: false, wantRev: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewStore(nil)
			topic, ok := s.CreateTopic(tt.title)
			if ok != tt.wantOK {
				t.Fatalf("CreateTopic(%q) ok = %v, want %v", tt.title, ok, tt.wantOK)
			}
			if s.Revision() != tt.wantRev {
				t.Errorf("revision = %d, want %d", s.Revision(), tt.wantRev)
			}
			if !ok {
				return
			}
			if topic.ID == uuid.Nil {
				t.Error("expected a generated topic id")
			}
			if topic.Title != "Diritto" {
				t.Errorf("title = %q, want %q", topic.Title, "Diritto")
			}
			if len(topic.Cards) != 0 {
				t.Errorf("new topic has %d cards, want 0", len(topic.Cards))
			}
		})
	}
}

func TestStoreDeleteTopicClearsSelection(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	topic, _ := s.CreateTopic("Chimica")
	if !s.SelectTopic(topic.ID) {
		t.Fatal("SelectTopic failed for existing topic")
	}

	if !s.DeleteTopic(topic.ID) {
		t.Fatal("DeleteTopic failed for existing topic")
	}
	if s.ActiveTopic() != uuid.Nil {
		t.Error("deleting the selected topic should clear the selection")
	}
	if s.DeleteTopic(topic.ID) {
		t.Error("deleting a missing topic should return false")
	}
}

func TestStoreAddCard(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	topic, _ := s.CreateTopic("Storia")

	tests := []struct {
		name     string
		topicID  uuid.UUID
		question string
		answer   string
		wantOK   bool
	}{
		{name: "valid card", topicID: topic.ID, question: "Q1", answer: "A1", wantOK: true},
		{name: "empty question", topicID: topic.ID, question: "", answer: "A", wantOK: false},
		{name: "empty answer", topicID: topic.ID, question: "Q", answer: "  ", wantOK: false},
		{name: "unknown topic", topicID: uuid.New(), question: "Q", answer: "A", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, ok := s.AddCard(tt.topicID, tt.question, tt.answer)
			if ok != tt.wantOK {
				t.Fatalf("AddCard ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && card.Known {
				t.Error("new card must start unknown")
			}
		})
	}

	got, _ := s.Topic(topic.ID)
	if len(got.Cards) != 1 {
		t.Errorf("topic has %d cards, want 1", len(got.Cards))
	}
}

func TestStoreBulkAddCardsMintsUniqueIDs(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	topic, _ := s.CreateTopic("Fisica")

	drafts := []models.FlashcardDraft{
		{Question: "Q1", Answer: "A1"},
		{Question: "Q2", Answer: "A2"},
		{Question: "Q3", Answer: "A3"},
	}
	cards, ok := s.BulkAddCards(topic.ID, drafts)
	if !ok {
		t.Fatal("BulkAddCards failed")
	}
	if len(cards) != len(drafts) {
		t.Fatalf("got %d cards, want %d", len(cards), len(drafts))
	}

	seen := make(map[uuid.UUID]bool)
	for _, c := range cards {
		if c.ID == uuid.Nil {
			t.Error("card minted without id")
		}
		if seen[c.ID] {
			t.Errorf("duplicate card id %s", c.ID)
		}
		seen[c.ID] = true
		if c.Known {
			t.Error("generated card must start unknown")
		}
	}

	if _, ok := s.BulkAddCards(uuid.New(), drafts); ok {
		t.Error("bulk add to a missing topic must apply nothing")
	}
	got, _ := s.Topic(topic.ID)
	if len(got.Cards) != 3 {
		t.Errorf("topic has %d cards, want 3", len(got.Cards))
	}
}

func TestStoreMarkKnownIdempotent(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	topic, _ := s.CreateTopic("Latino")
	card, _ := s.AddCard(topic.ID, "rosa", "rose")

	if !s.MarkKnown(topic.ID, card.ID) {
		t.Fatal("MarkKnown failed for existing card")
	}
	revAfterFirst := s.Revision()

	if !s.MarkKnown(topic.ID, card.ID) {
		t.Fatal("MarkKnown on a known card should still succeed")
	}
	if s.Revision() != revAfterFirst {
		t.Error("re-marking a known card must not bump the revision")
	}

	if s.MarkKnown(topic.ID, uuid.New()) {
		t.Error("MarkKnown for a missing card should return false")
	}
	if !s.AllKnown(topic.ID) {
		t.Error("single known card topic should report all known")
	}
}

func TestStoreSnapshotIsDetached(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	topic, _ := s.CreateTopic("Greco")
	s.AddCard(topic.ID, "Q", "A")

	snap := s.Snapshot()
	snap[0].Cards[0].Known = true
	snap[0].Title = "mutated"

	got, _ := s.Topic(topic.ID)
	if got.Cards[0].Known {
		t.Error("mutating a snapshot leaked into the store")
	}
	if got.Title != "Greco" {
		t.Error("snapshot shares topic header with the store")
	}
}

func TestStoreGrowthStage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		total int
		known int
		want  models.GrowthStage
	}{
		{name: "no cards", total: 0, known: 0, want: models.StageEmptyPot},
		{name: "nothing known", total: 10, known: 0, want: models.StageDormant},
		{name: "barely started", total: 10, known: 1, want: models.StageSeed},
		{name: "a quarter known", total: 100, known: 25, want: models.StageSprout},
		{name: "most known", total: 100, known: 75, want: models.StageBloom},
		{name: "all known", total: 4, known: 4, want: models.StageButterfly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewStore(nil)
			topic, _ := s.CreateTopic("progress")
			for i := 0; i < tt.total; i++ {
				s.AddCard(topic.ID, "q", "a")
			}
			got, _ := s.Topic(topic.ID)
			for i := 0; i < tt.known; i++ {
				s.MarkKnown(topic.ID, got.Cards[i].ID)
			}
			got, _ = s.Topic(topic.ID)
			if stage := got.Stage(); stage != tt.want {
				t.Errorf("stage = %s, want %s", stage, tt.want)
			}
		})
	}
}
