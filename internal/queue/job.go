package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeSessionStarted records that a study session began
	JobTypeSessionStarted JobType = "session_started"
	// JobTypeAnswerGraded records one graded answer
	JobTypeAnswerGraded JobType = "answer_graded"
	// JobTypeSessionCompleted records a fully learned topic
	JobTypeSessionCompleted JobType = "session_completed"
	// JobTypeStatsRebuild asks the worker to recompute a garden's statistics
	JobTypeStatsRebuild JobType = "stats_rebuild"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	SecretKey  string         `json:"secret_key"`
	TopicID    uuid.UUID      `json:"topic_id,omitempty"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`   // Job-specific data
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, secretKey string, topicID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		SecretKey:  secretKey,
		TopicID:    topicID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// MetaBool reads a boolean metadata field, false when absent.
func (j *Job) MetaBool(key string) bool {
	v, ok := j.Metadata[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// MetaInt reads a numeric metadata field, 0 when absent. JSON round-trips
// numbers as float64.
func (j *Job) MetaInt(key string) int {
	v, ok := j.Metadata[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
