package study

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teomarche/study-garden/internal/logger"
	"github.com/teomarche/study-garden/internal/models"
	"go.uber.org/zap"
)

// State is the study session's position in its lifecycle.
type State string

const (
	// StateBrowsing means no study session is running.
	StateBrowsing State = "browsing"
	// StateStudying means a card is shown and an answer is awaited.
	StateStudying State = "studying"
	// StateEvaluating means the last answer's verdict is on display.
	StateEvaluating State = "evaluating"
	// StateComplete means every card of the topic has been learned.
	StateComplete State = "complete"
)

var (
	// ErrTopicNotFound is returned when starting a session on a missing topic.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrEmptyTopic is returned when starting a session on a topic with no cards.
	ErrEmptyTopic = errors.New("topic has no cards")
	// ErrNotStudying is returned for answers submitted outside the studying state.
	ErrNotStudying = errors.New("no answer expected in this state")
	// ErrNoSession is returned for Next outside a running session.
	ErrNoSession = errors.New("no study session running")
)

// completeDelay is how long the final verdict stays on screen before the
// session flips to complete.
const completeDelay = 2 * time.Second

// Deck is the card collection a session studies against. Satisfied by the
// garden store.
type Deck interface {
	Topic(id uuid.UUID) (models.Topic, bool)
	MarkKnown(topicID, cardID uuid.UUID) bool
	AllKnown(topicID uuid.UUID) bool
}

// Grader judges a free-text answer against a card.
type Grader interface {
	GradeAnswer(ctx context.Context, question, canonicalAnswer, userAnswer string) (*models.Evaluation, error)
}

// EventType labels a study event on the queue.
type EventType string

const (
	EventSessionStarted   EventType = "session_started"
	EventAnswerGraded     EventType = "answer_graded"
	EventSessionCompleted EventType = "session_completed"
)

// Event is one study occurrence published for the stats worker.
type Event struct {
	Type       EventType `json:"type"`
	SecretKey  string    `json:"secret_key"`
	TopicID    uuid.UUID `json:"topic_id"`
	Correct    bool      `json:"correct,omitempty"`
	Answered   int       `json:"answered,omitempty"`
	Mistakes   int       `json:"mistakes,omitempty"`
	PerfectRun bool      `json:"perfect_run,omitempty"`
}

// EventPublisher sends study events to the job queue. Publish failures are
// logged and swallowed; statistics are advisory.
type EventPublisher interface {
	PublishStudyEvent(ctx context.Context, event Event) error
}

// Session drives one garden's study flow. Counters are ephemeral: nothing
// here is persisted, only the known flags it sets on the deck are.
type Session struct {
	deck      Deck
	grader    Grader
	publisher EventPublisher
	log       *zap.Logger
	secretKey string
	delay     time.Duration

	mu            sync.Mutex
	state         State
	topicID       uuid.UUID
	index         int
	answered      int
	mistakes      int
	lastEval      *models.Evaluation
	completeTimer *time.Timer
}

// Option tweaks session construction.
type Option func(*Session)

// WithCompleteDelay overrides the verdict display delay before completion.
func WithCompleteDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

// NewSession creates an idle session for one garden.
func NewSession(deck Deck, grader Grader, publisher EventPublisher, log *zap.Logger, secretKey string, opts ...Option) *Session {
	s := &Session{
		deck:      deck,
		grader:    grader,
		publisher: publisher,
		log:       log,
		secretKey: secretKey,
		delay:     completeDelay,
		state:     StateBrowsing,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins studying a topic from its first card. A topic with no cards
// is rejected. Counters reset even when restarting the same topic.
func (s *Session) Start(ctx context.Context, topicID uuid.UUID) error {
	topic, ok := s.deck.Topic(topicID)
	if !ok {
		return ErrTopicNotFound
	}
	if len(topic.Cards) == 0 {
		return ErrEmptyTopic
	}

	s.mu.Lock()
	s.cancelCompleteLocked()
	s.state = StateStudying
	s.topicID = topicID
	s.index = 0
	s.answered = 0
	s.mistakes = 0
	s.lastEval = nil
	s.mu.Unlock()

	s.publish(ctx, Event{
		Type:      EventSessionStarted,
		SecretKey: s.secretKey,
		TopicID:   topicID,
	})
	return nil
}

// SubmitAnswer grades the answer for the current card. Empty input is
// ignored. A grading failure leaves the session studying so the same answer
// can be retried.
func (s *Session) SubmitAnswer(ctx context.Context, answer string) (*models.Evaluation, error) {
	answer = strings.TrimSpace(answer)

	s.mu.Lock()
	if s.state != StateStudying {
		s.mu.Unlock()
		return nil, ErrNotStudying
	}
	if answer == "" {
		s.mu.Unlock()
		return nil, nil
	}
	topicID := s.topicID
	index := s.index
	s.mu.Unlock()

	topic, ok := s.deck.Topic(topicID)
	if !ok || index >= len(topic.Cards) {
		return nil, ErrTopicNotFound
	}
	card := topic.Cards[index]

	eval, err := s.grader.GradeAnswer(ctx, card.Question, card.Answer, answer)
	if err != nil {
		return nil, fmt.Errorf("grading failed: %w", err)
	}

	allKnown := false
	if eval.IsCorrect {
		s.deck.MarkKnown(topicID, card.ID)
		allKnown = s.deck.AllKnown(topicID)
	}

	s.mu.Lock()
	if s.state != StateStudying || s.topicID != topicID {
		// Session moved on while the grader was out.
		s.mu.Unlock()
		return eval, nil
	}
	s.state = StateEvaluating
	s.lastEval = eval
	s.answered++
	if !eval.IsCorrect {
		s.mistakes++
	}
	if allKnown {
		s.completeTimer = time.AfterFunc(s.delay, s.complete)
	}
	s.mu.Unlock()

	s.publish(ctx, Event{
		Type:      EventAnswerGraded,
		SecretKey: s.secretKey,
		TopicID:   topicID,
		Correct:   eval.IsCorrect,
	})
	return eval, nil
}

// Next advances to the following card, wrapping past the end of the deck,
// and clears the displayed verdict. Cycling continues until completion fires.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateStudying, StateEvaluating:
	case StateComplete:
		return ErrNoSession
	default:
		return ErrNoSession
	}

	topic, ok := s.deck.Topic(s.topicID)
	if !ok || len(topic.Cards) == 0 {
		return ErrTopicNotFound
	}
	s.index = (s.index + 1) % len(topic.Cards)
	s.lastEval = nil
	s.state = StateStudying
	return nil
}

// Finish abandons the session and returns to browsing.
func (s *Session) Finish() {
	s.mu.Lock()
	s.cancelCompleteLocked()
	s.state = StateBrowsing
	s.lastEval = nil
	s.mu.Unlock()
}

// complete runs on the timer goroutine once the verdict delay elapses.
func (s *Session) complete() {
	s.mu.Lock()
	if s.state != StateEvaluating && s.state != StateStudying {
		s.mu.Unlock()
		return
	}
	s.state = StateComplete
	s.completeTimer = nil
	topicID := s.topicID
	answered := s.answered
	mistakes := s.mistakes
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.publish(ctx, Event{
		Type:       EventSessionCompleted,
		SecretKey:  s.secretKey,
		TopicID:    topicID,
		Answered:   answered,
		Mistakes:   mistakes,
		PerfectRun: mistakes == 0,
	})
}

func (s *Session) cancelCompleteLocked() {
	if s.completeTimer != nil {
		s.completeTimer.Stop()
		s.completeTimer = nil
	}
}

func (s *Session) publish(ctx context.Context, event Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStudyEvent(ctx, event); err != nil {
		s.log.Warn("study_event_publish_failed",
			zap.String("garden", logger.MaskSecretKey(s.secretKey)),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// Status is a read-only view of the session for the state endpoint.
type Status struct {
	State      State              `json:"state"`
	TopicID    uuid.UUID          `json:"topic_id,omitempty"`
	Index      int                `json:"index"`
	Card       *models.Flashcard  `json:"card,omitempty"`
	Answered   int                `json:"answered"`
	Mistakes   int                `json:"mistakes"`
	Evaluation *models.Evaluation `json:"evaluation,omitempty"`
}

// Status reports the current session view. The card is included while a
// session runs; its answer is the caller's to reveal or hide.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:    s.state,
		Index:    s.index,
		Answered: s.answered,
		Mistakes: s.mistakes,
	}
	if s.state == StateBrowsing {
		return st
	}
	st.TopicID = s.topicID
	if s.lastEval != nil {
		eval := *s.lastEval
		st.Evaluation = &eval
	}
	if topic, ok := s.deck.Topic(s.topicID); ok && s.index < len(topic.Cards) {
		card := topic.Cards[s.index]
		st.Card = &card
	}
	return st
}
