package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teomarche/study-garden/internal/models"
)

// StudyStatsRepository persists per-topic study aggregates. Only the stats
// worker writes here; the server and CLI read.
type StudyStatsRepository struct {
	db *DB
}

// NewStudyStatsRepository creates a new study stats repository.
func NewStudyStatsRepository(db *DB) *StudyStatsRepository {
	return &StudyStatsRepository{db: db}
}

// GetByTopic retrieves the stats row for one topic, or nil if none exists.
func (r *StudyStatsRepository) GetByTopic(ctx context.Context, secretKey string, topicID uuid.UUID) (*models.StudyStats, error) {
	stats := &models.StudyStats{}

	query := `
		SELECT secret_key, topic_id, sessions, answers, mistakes, perfect_runs, updated_at
		FROM study_stats
		WHERE secret_key = $1 AND topic_id = $2
	`

	err := r.db.QueryRowContext(ctx, query, secretKey, topicID).Scan(
		&stats.SecretKey,
		&stats.TopicID,
		&stats.Sessions,
		&stats.Answers,
		&stats.Mistakes,
		&stats.PerfectRuns,
		&stats.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get study stats: %w", err)
	}

	return stats, nil
}

// GetByGarden retrieves all stats rows for a garden.
func (r *StudyStatsRepository) GetByGarden(ctx context.Context, secretKey string) ([]*models.StudyStats, error) {
	query := `
		SELECT secret_key, topic_id, sessions, answers, mistakes, perfect_runs, updated_at
		FROM study_stats
		WHERE secret_key = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query study stats: %w", err)
	}
	defer rows.Close()

	var all []*models.StudyStats
	for rows.Next() {
		s := &models.StudyStats{}
		err := rows.Scan(
			&s.SecretKey,
			&s.TopicID,
			&s.Sessions,
			&s.Answers,
			&s.Mistakes,
			&s.PerfectRuns,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study stats: %w", err)
		}
		all = append(all, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating study stats: %w", err)
	}

	return all, nil
}

// Accumulate adds deltas onto a topic's counters, creating the row if needed.
func (r *StudyStatsRepository) Accumulate(ctx context.Context, secretKey string, topicID uuid.UUID, sessions, answers, mistakes, perfectRuns int) error {
	query := `
		INSERT INTO study_stats (secret_key, topic_id, sessions, answers, mistakes, perfect_runs, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (secret_key, topic_id) DO UPDATE
		SET sessions = study_stats.sessions + EXCLUDED.sessions,
		    answers = study_stats.answers + EXCLUDED.answers,
		    mistakes = study_stats.mistakes + EXCLUDED.mistakes,
		    perfect_runs = study_stats.perfect_runs + EXCLUDED.perfect_runs,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, secretKey, topicID, sessions, answers, mistakes, perfectRuns, time.Now())
	if err != nil {
		return fmt.Errorf("failed to accumulate study stats: %w", err)
	}

	return nil
}

// DeleteByGarden removes all stats rows for a garden, used when a garden is
// deleted from the CLI.
func (r *StudyStatsRepository) DeleteByGarden(ctx context.Context, secretKey string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM study_stats WHERE secret_key = $1`, secretKey); err != nil {
		return fmt.Errorf("failed to delete study stats: %w", err)
	}
	return nil
}
