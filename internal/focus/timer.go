package focus

import (
	"errors"
	"sync"
	"time"
)

// Mode selects which countdown a timer runs.
type Mode string

const (
	// ModeGrow is the focus block.
	ModeGrow Mode = "grow"
	// ModeRest is the break block.
	ModeRest Mode = "rest"
)

const (
	// GrowDuration is the length of a focus block.
	GrowDuration = 25 * time.Minute
	// RestDuration is the length of a rest block.
	RestDuration = 5 * time.Minute
)

// ErrUnknownMode is returned for modes other than grow and rest.
var ErrUnknownMode = errors.New("unknown timer mode")

// Duration returns the full countdown for the mode.
func (m Mode) Duration() (time.Duration, error) {
	switch m {
	case ModeGrow:
		return GrowDuration, nil
	case ModeRest:
		return RestDuration, nil
	default:
		return 0, ErrUnknownMode
	}
}

// Timer is one session's countdown. It ticks once per second while running
// and stops at zero. At most one ticking goroutine exists at a time; the
// stop channel is owned by whichever Start spawned it.
type Timer struct {
	mu        sync.Mutex
	mode      Mode
	remaining time.Duration
	running   bool
	stop      chan struct{}
	tick      time.Duration
}

// NewTimer creates a paused timer with a full grow countdown loaded.
func NewTimer() *Timer {
	return &Timer{
		mode:      ModeGrow,
		remaining: GrowDuration,
		tick:      time.Second,
	}
}

// Start begins (or resumes) the countdown. Passing a different mode than the
// one loaded switches to that mode's full duration first. Starting a running
// timer is a no-op.
func (t *Timer) Start(mode Mode) error {
	d, err := mode.Duration()
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != mode || t.remaining <= 0 {
		t.mode = mode
		t.remaining = d
	}
	if t.running {
		return nil
	}
	t.running = true
	t.stop = make(chan struct{})
	go t.run(t.stop)
	return nil
}

// run ticks the countdown until it hits zero or the stop channel closes.
func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.running || t.stop != stop {
				t.mu.Unlock()
				return
			}
			t.remaining -= time.Second
			if t.remaining <= 0 {
				t.remaining = 0
				t.running = false
				t.stop = nil
				t.mu.Unlock()
				return
			}
			t.mu.Unlock()
		}
	}
}

// Pause halts the countdown, keeping the remaining time.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Reset halts the countdown and reloads the mode's full duration. An empty
// mode resets the currently loaded one.
func (t *Timer) Reset(mode Mode) error {
	if mode == "" {
		t.mu.Lock()
		mode = t.mode
		t.mu.Unlock()
	}
	d, err := mode.Duration()
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.mode = mode
	t.remaining = d
	return nil
}

func (t *Timer) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.running = false
}

// Snapshot is the timer's externally visible state.
type Snapshot struct {
	Mode             Mode `json:"mode"`
	RemainingSeconds int  `json:"remaining_seconds"`
	Running          bool `json:"running"`
	Done             bool `json:"done"`
}

// State returns the current countdown state.
func (t *Timer) State() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Mode:             t.mode,
		RemainingSeconds: int(t.remaining / time.Second),
		Running:          t.running,
		Done:             t.remaining <= 0,
	}
}

// Manager hands out one timer per garden session.
type Manager struct {
	mu     sync.Mutex
	timers map[string]*Timer
}

// NewManager creates an empty timer manager.
func NewManager() *Manager {
	return &Manager{timers: make(map[string]*Timer)}
}

// Timer returns the session's timer, creating it on first use.
func (m *Manager) Timer(secretKey string) *Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[secretKey]
	if !ok {
		t = NewTimer()
		m.timers[secretKey] = t
	}
	return t
}

// Drop pauses and forgets a session's timer, used at logout.
func (m *Manager) Drop(secretKey string) {
	m.mu.Lock()
	t, ok := m.timers[secretKey]
	if ok {
		delete(m.timers, secretKey)
	}
	m.mu.Unlock()
	if ok {
		t.Pause()
	}
}
