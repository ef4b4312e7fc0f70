package focus

import (
	"math/rand"
	"sync"
)

// motivations is the fixed set of encouragements shown during focus blocks.
var motivations = []string{
	"Every card you learn is a seed that keeps growing.",
	"Small steps, steady roots. Keep going.",
	"Your garden grows while you focus.",
	"One more question. Future you says thanks.",
	"Mistakes are just compost for your next bloom.",
	"Stay with it. The butterfly is closer than you think.",
	"Focus now, flourish later.",
	"You don't have to be perfect, just present.",
	"Deep roots grow in quiet minutes like this one.",
	"Water the topic you avoid. That's where growth lives.",
}

// MotivationPicker serves random motivational messages, never repeating the
// one a session saw last.
type MotivationPicker struct {
	mu   sync.Mutex
	rand *rand.Rand
	last map[string]int
}

// NewMotivationPicker creates a picker seeded from the given source.
func NewMotivationPicker(seed int64) *MotivationPicker {
	return &MotivationPicker{
		rand: rand.New(rand.NewSource(seed)),
		last: make(map[string]int),
	}
}

// Pick returns a motivational message for the session, avoiding the message
// that session received on the previous call.
func (p *MotivationPicker) Pick(secretKey string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.rand.Intn(len(motivations))
	if prev, ok := p.last[secretKey]; ok && idx == prev {
		idx = (idx + 1 + p.rand.Intn(len(motivations)-1)) % len(motivations)
	}
	p.last[secretKey] = idx
	return motivations[idx]
}
