package models

// Evaluation is the grading collaborator's judgment of a free-text answer.
type Evaluation struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

// FlashcardDraft is a question/answer pair proposed by the card generation
// collaborator, before it is minted into a Flashcard with an id.
type FlashcardDraft struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
