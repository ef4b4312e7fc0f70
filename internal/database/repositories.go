package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/teomarche/study-garden/internal/models"
)

// GardenRepositoryInterface is the persistence contract for gardens: point
// lookup by key, insert, and whole-snapshot update. Defined so the sync layer
// and tests can substitute fakes.
type GardenRepositoryInterface interface {
	GetBySecretKey(ctx context.Context, secretKey string) (*models.Garden, error)
	Create(ctx context.Context, garden *models.Garden) error
	UpdateData(ctx context.Context, secretKey string, topics []models.Topic) error
}

// StudyStatsRepositoryInterface is the contract the stats worker writes
// through.
type StudyStatsRepositoryInterface interface {
	Accumulate(ctx context.Context, secretKey string, topicID uuid.UUID, sessions, answers, mistakes, perfectRuns int) error
	DeleteByGarden(ctx context.Context, secretKey string) error
}

var (
	_ GardenRepositoryInterface     = (*GardenRepository)(nil)
	_ StudyStatsRepositoryInterface = (*StudyStatsRepository)(nil)
)
