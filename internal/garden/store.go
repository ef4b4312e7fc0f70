package garden

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/teomarche/study-garden/internal/models"
)

// Store is the in-memory topic collection for one logged-in garden. Every
// mutation replaces the topic slice with a freshly built one rather than
// editing in place, so observers can detect change by revision instead of
// value-diffing. The logical client is single-writer; the mutex only guards
// against the HTTP server's own concurrency.
type Store struct {
	mu       sync.RWMutex
	topics   []models.Topic
	active   uuid.UUID
	revision uint64
	onMutate func()
}

// NewStore creates a store seeded with the topics loaded at login.
func NewStore(topics []models.Topic) *Store {
	if topics == nil {
		topics = []models.Topic{}
	}
	return &Store{topics: topics}
}

// OnMutate registers a hook invoked after every applied mutation. The sync
// layer uses it to schedule a debounced write-back.
func (s *Store) OnMutate(fn func()) {
	s.mu.Lock()
	s.onMutate = fn
	s.mu.Unlock()
}

// mutated bumps the revision and fires the hook. Caller holds the lock;
// the hook runs outside it to keep the sync layer free to call back in.
func (s *Store) mutated() func() {
	s.revision++
	return s.onMutate
}

// Revision returns the mutation counter.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// CreateTopic appends a new empty topic. Empty or whitespace titles are
// silently ignored.
func (s *Store) CreateTopic(title string) (*models.Topic, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, false
	}

	s.mu.Lock()
	topic := models.Topic{
		ID:    uuid.New(),
		Title: title,
		Cards: []models.Flashcard{},
	}
	next := make([]models.Topic, len(s.topics), len(s.topics)+1)
	copy(next, s.topics)
	s.topics = append(next, topic)
	hook := s.mutated()
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	created := topic
	return &created, true
}

// DeleteTopic removes a topic. If it was the active selection, the selection
// is cleared. Returns false if the topic does not exist.
func (s *Store) DeleteTopic(id uuid.UUID) bool {
	s.mu.Lock()
	next := make([]models.Topic, 0, len(s.topics))
	found := false
	for _, t := range s.topics {
		if t.ID == id {
			found = true
			continue
		}
		next = append(next, t)
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	s.topics = next
	if s.active == id {
		s.active = uuid.Nil
	}
	hook := s.mutated()
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// SelectTopic marks a topic as the active selection.
// Selection is ephemeral UI state, so it does not count as a mutation.
func (s *Store) SelectTopic(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.topics {
		if t.ID == id {
			s.active = id
			return true
		}
	}
	return false
}

// ActiveTopic returns the currently selected topic id, or uuid.Nil.
func (s *Store) ActiveTopic() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// AddCard appends a flashcard to a topic. Empty question or answer is a
// silent no-op.
func (s *Store) AddCard(topicID uuid.UUID, question, answer string) (*models.Flashcard, bool) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, false
	}

	card := models.Flashcard{
		ID:       uuid.New(),
		Question: question,
		Answer:   answer,
		Known:    false,
	}

	s.mu.Lock()
	applied := s.appendCardsLocked(topicID, []models.Flashcard{card})
	var hook func()
	if applied {
		hook = s.mutated()
	}
	s.mu.Unlock()

	if !applied {
		return nil, false
	}
	if hook != nil {
		hook()
	}
	return &card, true
}

// BulkAddCards appends a generated batch of cards to a topic. Each draft is
// minted with a fresh uuid; the whole batch is appended or, if the topic is
// missing, none of it.
func (s *Store) BulkAddCards(topicID uuid.UUID, drafts []models.FlashcardDraft) ([]models.Flashcard, bool) {
	if len(drafts) == 0 {
		return nil, false
	}

	cards := make([]models.Flashcard, 0, len(drafts))
	for _, d := range drafts {
		cards = append(cards, models.Flashcard{
			ID:       uuid.New(),
			Question: strings.TrimSpace(d.Question),
			Answer:   strings.TrimSpace(d.Answer),
			Known:    false,
		})
	}

	s.mu.Lock()
	applied := s.appendCardsLocked(topicID, cards)
	var hook func()
	if applied {
		hook = s.mutated()
	}
	s.mu.Unlock()

	if !applied {
		return nil, false
	}
	if hook != nil {
		hook()
	}
	return cards, true
}

// appendCardsLocked rebuilds the topic slice with cards appended to the
// target topic. Caller holds the write lock.
func (s *Store) appendCardsLocked(topicID uuid.UUID, cards []models.Flashcard) bool {
	idx := -1
	for i, t := range s.topics {
		if t.ID == topicID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	next := make([]models.Topic, len(s.topics))
	copy(next, s.topics)

	target := next[idx]
	merged := make([]models.Flashcard, len(target.Cards), len(target.Cards)+len(cards))
	copy(merged, target.Cards)
	target.Cards = append(merged, cards...)
	next[idx] = target

	s.topics = next
	return true
}

// MarkKnown sets a card's known flag. Idempotent: marking an already-known
// card changes nothing and does not bump the revision.
func (s *Store) MarkKnown(topicID, cardID uuid.UUID) bool {
	s.mu.Lock()
	tIdx, cIdx := -1, -1
	for i, t := range s.topics {
		if t.ID != topicID {
			continue
		}
		tIdx = i
		for j, c := range t.Cards {
			if c.ID == cardID {
				cIdx = j
				break
			}
		}
		break
	}
	if tIdx == -1 || cIdx == -1 {
		s.mu.Unlock()
		return false
	}
	if s.topics[tIdx].Cards[cIdx].Known {
		s.mu.Unlock()
		return true
	}

	next := make([]models.Topic, len(s.topics))
	copy(next, s.topics)
	target := next[tIdx]
	cards := make([]models.Flashcard, len(target.Cards))
	copy(cards, target.Cards)
	cards[cIdx].Known = true
	target.Cards = cards
	next[tIdx] = target
	s.topics = next
	hook := s.mutated()
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// Topic returns a copy of one topic.
func (s *Store) Topic(id uuid.UUID) (models.Topic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.topics {
		if t.ID == id {
			return copyTopic(t), true
		}
	}
	return models.Topic{}, false
}

// AllKnown reports whether every card of the topic is known.
func (s *Store) AllKnown(topicID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.topics {
		if s.topics[i].ID == topicID {
			return s.topics[i].AllKnown()
		}
	}
	return false
}

// Snapshot returns a deep copy of all topics, safe to hand to the sync layer
// or serialize while mutations continue.
func (s *Store) Snapshot() []models.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Topic, len(s.topics))
	for i, t := range s.topics {
		out[i] = copyTopic(t)
	}
	return out
}

func copyTopic(t models.Topic) models.Topic {
	cards := make([]models.Flashcard, len(t.Cards))
	copy(cards, t.Cards)
	t.Cards = cards
	return t
}
