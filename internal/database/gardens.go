package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/teomarche/study-garden/internal/models"
)

// ErrGardenNotFound is returned when no garden exists for a secret key.
// Callers treat it as a recoverable branch (offer to create), not a failure.
var ErrGardenNotFound = errors.New("garden not found")

// GardenRepository persists gardens as single jsonb documents keyed by the
// shared secret. The whole topic set is written as one snapshot; there is no
// per-topic row and no version check, the last write wins.
type GardenRepository struct {
	db *DB
}

// NewGardenRepository creates a new garden repository.
func NewGardenRepository(db *DB) *GardenRepository {
	return &GardenRepository{db: db}
}

// GetBySecretKey performs the point lookup by secret key.
func (r *GardenRepository) GetBySecretKey(ctx context.Context, secretKey string) (*models.Garden, error) {
	garden := &models.Garden{SecretKey: secretKey}
	var topicsJSON []byte

	query := `
		SELECT data, created_at, updated_at
		FROM gardens
		WHERE secret_key = $1
	`

	err := r.db.QueryRowContext(ctx, query, secretKey).Scan(
		&topicsJSON,
		&garden.CreatedAt,
		&garden.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrGardenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get garden: %w", err)
	}

	if err := json.Unmarshal(topicsJSON, &garden.Topics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal garden data: %w", err)
	}
	if garden.Topics == nil {
		garden.Topics = []models.Topic{}
	}

	return garden, nil
}

// Create inserts a new empty-or-populated garden under the secret key.
func (r *GardenRepository) Create(ctx context.Context, garden *models.Garden) error {
	query := `
		INSERT INTO gardens (secret_key, data, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING created_at, updated_at
	`

	if garden.Topics == nil {
		garden.Topics = []models.Topic{}
	}
	topicsJSON, err := json.Marshal(garden.Topics)
	if err != nil {
		return fmt.Errorf("failed to marshal garden data: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		garden.SecretKey,
		topicsJSON,
		time.Now(),
	).Scan(&garden.CreatedAt, &garden.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create garden: %w", err)
	}

	return nil
}

// UpdateData replaces the garden's topic snapshot and stamps updated_at.
func (r *GardenRepository) UpdateData(ctx context.Context, secretKey string, topics []models.Topic) error {
	query := `
		UPDATE gardens
		SET data = $2, updated_at = $3
		WHERE secret_key = $1
	`

	if topics == nil {
		topics = []models.Topic{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("failed to marshal garden data: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, secretKey, topicsJSON, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update garden: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGardenNotFound
	}

	return nil
}

// Delete removes a garden and all its topics.
func (r *GardenRepository) Delete(ctx context.Context, secretKey string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM gardens WHERE secret_key = $1`, secretKey)
	if err != nil {
		return fmt.Errorf("failed to delete garden: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGardenNotFound
	}

	return nil
}

// ListKeys returns every secret key with its timestamps, for the admin CLI.
func (r *GardenRepository) ListKeys(ctx context.Context) ([]*models.Garden, error) {
	query := `
		SELECT secret_key, created_at, updated_at
		FROM gardens
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list gardens: %w", err)
	}
	defer rows.Close()

	var gardens []*models.Garden
	for rows.Next() {
		g := &models.Garden{}
		if err := rows.Scan(&g.SecretKey, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan garden: %w", err)
		}
		gardens = append(gardens, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gardens: %w", err)
	}

	return gardens, nil
}
