package workers

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/teomarche/study-garden/internal/database"
	"github.com/teomarche/study-garden/internal/queue"
)

// StatsAccumulator folds study event jobs into per-topic statistics rows.
type StatsAccumulator struct {
	statsRepo database.StudyStatsRepositoryInterface
}

// NewStatsAccumulator creates a new stats accumulator.
func NewStatsAccumulator(statsRepo database.StudyStatsRepositoryInterface) *StatsAccumulator {
	return &StatsAccumulator{statsRepo: statsRepo}
}

// ProcessJob dispatches one study event job.
func (s *StatsAccumulator) ProcessJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeSessionStarted:
		return s.processSessionStarted(ctx, job)
	case queue.JobTypeAnswerGraded:
		return s.processAnswerGraded(ctx, job)
	case queue.JobTypeSessionCompleted:
		return s.processSessionCompleted(ctx, job)
	case queue.JobTypeStatsRebuild:
		return s.processStatsRebuild(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (s *StatsAccumulator) processSessionStarted(ctx context.Context, job *queue.Job) error {
	if err := s.requireTopic(job); err != nil {
		return err
	}
	if err := s.statsRepo.Accumulate(ctx, job.SecretKey, job.TopicID, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("failed to count session start: %w", err)
	}
	return nil
}

func (s *StatsAccumulator) processAnswerGraded(ctx context.Context, job *queue.Job) error {
	if err := s.requireTopic(job); err != nil {
		return err
	}
	mistakes := 0
	if !job.MetaBool("correct") {
		mistakes = 1
	}
	if err := s.statsRepo.Accumulate(ctx, job.SecretKey, job.TopicID, 0, 1, mistakes, 0); err != nil {
		return fmt.Errorf("failed to count graded answer: %w", err)
	}
	return nil
}

func (s *StatsAccumulator) processSessionCompleted(ctx context.Context, job *queue.Job) error {
	if err := s.requireTopic(job); err != nil {
		return err
	}
	perfect := 0
	if job.MetaBool("perfect_run") {
		perfect = 1
	}
	if err := s.statsRepo.Accumulate(ctx, job.SecretKey, job.TopicID, 0, 0, 0, perfect); err != nil {
		return fmt.Errorf("failed to count session completion: %w", err)
	}
	log.Printf("Topic %s completed for garden (answered=%d, mistakes=%d, perfect=%v)",
		job.TopicID, job.MetaInt("answered"), job.MetaInt("mistakes"), perfect == 1)
	return nil
}

// processStatsRebuild drops a garden's accumulated rows so counting starts
// fresh. Queued by the configure CLI.
func (s *StatsAccumulator) processStatsRebuild(ctx context.Context, job *queue.Job) error {
	if job.SecretKey == "" {
		return fmt.Errorf("secret_key is required for stats rebuild job")
	}
	if err := s.statsRepo.DeleteByGarden(ctx, job.SecretKey); err != nil {
		return fmt.Errorf("failed to reset stats: %w", err)
	}
	log.Printf("Reset study stats for garden")
	return nil
}

func (s *StatsAccumulator) requireTopic(job *queue.Job) error {
	if job.SecretKey == "" {
		return fmt.Errorf("secret_key is required for %s job", job.Type)
	}
	if job.TopicID == uuid.Nil {
		return fmt.Errorf("topic_id is required for %s job", job.Type)
	}
	return nil
}
