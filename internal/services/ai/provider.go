package ai

import (
	"context"

	"github.com/teomarche/study-garden/internal/models"
)

// Provider is the interface for AI grading and card generation backends.
type Provider interface {
	// GradeAnswer judges a free-text answer against a card's canonical
	// answer. A nil error always carries a verdict; transport and parse
	// failures are errors, never a silent incorrect.
	GradeAnswer(ctx context.Context, question, canonicalAnswer, userAnswer string) (*models.Evaluation, error)

	// GenerateFlashcards extracts question/answer drafts from document text.
	// All-or-nothing: an unparsable or empty batch is an error.
	GenerateFlashcards(ctx context.Context, documentText string) ([]models.FlashcardDraft, error)
}
