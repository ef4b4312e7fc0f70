package garden

import (
	"context"
	"sync"
	"time"

	"github.com/teomarche/study-garden/internal/database"
	"github.com/teomarche/study-garden/internal/logger"
	"github.com/teomarche/study-garden/internal/models"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// Syncer debounce-persists a garden's topics: every mutation schedules a
// write after a quiet period, and any further mutation within the window
// cancels the pending write and starts the window over, so a burst collapses
// into a single write carrying the final state. Write failures are logged and
// dropped, never retried; the only surface is a Saving flag that stays set.
//
// The timer handle is owned here and cancelled on reschedule and on Stop, so
// a write scheduled with stale data can never fire after newer state exists.
type Syncer struct {
	repo      database.GardenRepositoryInterface
	log       *zap.Logger
	secretKey string
	debounce  time.Duration
	snapshot  func() []models.Topic

	mu        sync.Mutex
	timer     *time.Timer
	saving    bool
	lastSaved time.Time
	stopped   bool
}

// NewSyncer creates a syncer for one garden session. snapshot is called at
// write time, not schedule time, so the write always carries current state.
func NewSyncer(repo database.GardenRepositoryInterface, log *zap.Logger, secretKey string, debounce time.Duration, snapshot func() []models.Topic) *Syncer {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Syncer{
		repo:      repo,
		log:       log,
		secretKey: secretKey,
		debounce:  debounce,
		snapshot:  snapshot,
	}
}

// Schedule (re)starts the debounce window. Safe to call from the store's
// mutation hook.
func (s *Syncer) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flush)
}

// flush writes the current snapshot. Runs on the timer goroutine.
func (s *Syncer) flush() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.saving = true
	s.timer = nil
	s.mu.Unlock()

	topics := s.snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err := s.repo.UpdateData(ctx, s.secretKey, topics)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Not retried and not surfaced: the saving indicator simply never
		// resolves to saved.
		s.log.Warn("garden_persist_failed",
			zap.String("garden", logger.MaskSecretKey(s.secretKey)),
			zap.Error(err),
		)
		return
	}
	s.saving = false
	s.lastSaved = time.Now()
	s.log.Debug("garden_persisted",
		zap.String("garden", logger.MaskSecretKey(s.secretKey)),
		zap.Int("topic_count", len(topics)),
	)
}

// Flush cancels any pending debounce and writes immediately. Used on logout
// and shutdown so a closing session does not drop its last mutations.
func (s *Syncer) Flush() {
	s.mu.Lock()
	pending := s.timer != nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	if pending {
		s.flush()
	}
}

// Stop cancels the pending write and prevents any future ones.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Status reports whether a write is pending or in flight, and when the last
// successful write happened (zero time if never).
func (s *Syncer) Status() (saving bool, lastSaved time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving || s.timer != nil, s.lastSaved
}
