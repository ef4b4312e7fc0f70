package garden

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/teomarche/study-garden/internal/database"
	"github.com/teomarche/study-garden/internal/logger"
	"github.com/teomarche/study-garden/internal/models"
	"go.uber.org/zap"
)

// ErrEmptySecretKey is returned for blank login keys.
var ErrEmptySecretKey = errors.New("secret key is empty")

// Session is one logged-in garden: its in-memory store wired to its
// debounced syncer.
type Session struct {
	SecretKey string
	Store     *Store
	Syncer    *Syncer
	LoggedIn  time.Time
}

// Manager owns the logged-in gardens. Login loads (or creates) a garden from
// the repository and builds its session; Logout flushes and tears it down.
type Manager struct {
	repo     database.GardenRepositoryInterface
	log      *zap.Logger
	debounce time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a garden manager.
func NewManager(repo database.GardenRepositoryInterface, log *zap.Logger, debounce time.Duration) *Manager {
	return &Manager{
		repo:     repo,
		log:      log,
		debounce: debounce,
		sessions: make(map[string]*Session),
	}
}

// Login looks up the garden by secret key. Outcomes: found loads its topics;
// not found with createIfMissing inserts an empty garden; not found without
// it returns database.ErrGardenNotFound so the client can ask for explicit
// confirmation; transport failure returns the error with no state change.
// Logging in again under the same key reloads from the repository.
func (m *Manager) Login(ctx context.Context, secretKey string, createIfMissing bool) (*Session, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, ErrEmptySecretKey
	}

	g, err := m.repo.GetBySecretKey(ctx, secretKey)
	if errors.Is(err, database.ErrGardenNotFound) {
		if !createIfMissing {
			return nil, err
		}
		g = &models.Garden{SecretKey: secretKey, Topics: []models.Topic{}}
		if err := m.repo.Create(ctx, g); err != nil {
			return nil, fmt.Errorf("failed to create garden: %w", err)
		}
		m.log.Info("garden_created",
			zap.String("garden", logger.MaskSecretKey(secretKey)),
		)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load garden: %w", err)
	}

	store := NewStore(g.Topics)
	syncer := NewSyncer(m.repo, m.log, secretKey, m.debounce, store.Snapshot)
	store.OnMutate(syncer.Schedule)

	session := &Session{
		SecretKey: secretKey,
		Store:     store,
		Syncer:    syncer,
		LoggedIn:  time.Now(),
	}

	m.mu.Lock()
	if prev, ok := m.sessions[secretKey]; ok {
		prev.Syncer.Flush()
		prev.Syncer.Stop()
	}
	m.sessions[secretKey] = session
	m.mu.Unlock()

	m.log.Info("garden_login",
		zap.String("garden", logger.MaskSecretKey(secretKey)),
		zap.Int("topic_count", len(g.Topics)),
	)

	return session, nil
}

// Get returns the session for a logged-in garden.
func (m *Manager) Get(secretKey string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[secretKey]
	return s, ok
}

// Logout flushes any pending write and drops the session.
func (m *Manager) Logout(secretKey string) {
	m.mu.Lock()
	session, ok := m.sessions[secretKey]
	if ok {
		delete(m.sessions, secretKey)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	session.Syncer.Flush()
	session.Syncer.Stop()
	m.log.Info("garden_logout",
		zap.String("garden", logger.MaskSecretKey(secretKey)),
	)
}

// Close flushes and stops every open session, used on server shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Syncer.Flush()
		s.Syncer.Stop()
	}
}
