package models

import (
	"time"

	"github.com/google/uuid"
)

// StudyStats aggregates study activity for one topic within a garden.
// Rows are maintained asynchronously by the stats worker from study events;
// they are informational and never feed back into session state.
type StudyStats struct {
	SecretKey   string    `json:"secret_key"`
	TopicID     uuid.UUID `json:"topic_id"`
	Sessions    int       `json:"sessions"`
	Answers     int       `json:"answers"`
	Mistakes    int       `json:"mistakes"`
	PerfectRuns int       `json:"perfect_runs"`
	UpdatedAt   time.Time `json:"updated_at"`
}
