package models

import (
	"time"

	"github.com/google/uuid"
)

// Flashcard is a question/answer pair with a learned flag.
// Known flips to true only when the grading collaborator judges an answer
// correct; it is never reset automatically.
type Flashcard struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Known    bool      `json:"known"`
}

// Topic is a named subject owning an ordered sequence of flashcards.
// Cards are owned exclusively by their topic, never shared.
type Topic struct {
	ID    uuid.UUID   `json:"id"`
	Title string      `json:"title"`
	Cards []Flashcard `json:"cards"`
}

// KnownCount returns how many cards in the topic are marked known.
func (t *Topic) KnownCount() int {
	n := 0
	for _, c := range t.Cards {
		if c.Known {
			n++
		}
	}
	return n
}

// AllKnown reports whether every card in the topic is known.
// A topic with no cards is never considered fully learned.
func (t *Topic) AllKnown() bool {
	return len(t.Cards) > 0 && t.KnownCount() == len(t.Cards)
}

// Garden is the persisted record addressed by a shared secret key: the
// complete set of topics for one user, identified only by knowledge of the
// secret.
type Garden struct {
	SecretKey string    `json:"secret_key"`
	Topics    []Topic   `json:"topics"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GrowthStage is the discrete display tier derived from a topic's
// known/total ratio. Purely derived, never stored.
type GrowthStage string

const (
	// StageEmptyPot is a topic with no cards yet.
	StageEmptyPot GrowthStage = "empty_pot"
	// StageDormant is a topic where nothing has been learned (0%).
	StageDormant GrowthStage = "dormant"
	// StageSeed covers (0, 20%] learned.
	StageSeed GrowthStage = "seed"
	// StageSprout covers (20%, 50%] learned.
	StageSprout GrowthStage = "sprout"
	// StageBloom covers (50%, 100%) learned.
	StageBloom GrowthStage = "bloom"
	// StageButterfly is a fully learned topic (100%).
	StageButterfly GrowthStage = "butterfly"
)

// Stage computes the growth stage for the topic.
func (t *Topic) Stage() GrowthStage {
	if len(t.Cards) == 0 {
		return StageEmptyPot
	}
	pct := float64(t.KnownCount()) / float64(len(t.Cards)) * 100
	switch {
	case pct == 100:
		return StageButterfly
	case pct > 50:
		return StageBloom
	case pct > 20:
		return StageSprout
	case pct > 0:
		return StageSeed
	default:
		return StageDormant
	}
}
