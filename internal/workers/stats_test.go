package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/teomarche/study-garden/internal/queue"
)

type statsCall struct {
	secretKey                              string
	topicID                                uuid.UUID
	sessions, answers, mistakes, perfectRuns int
}

type fakeStatsRepo struct {
	calls   []statsCall
	deleted []string
	err     error
}

func (f *fakeStatsRepo) Accumulate(_ context.Context, secretKey string, topicID uuid.UUID, sessions, answers, mistakes, perfectRuns int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, statsCall{secretKey, topicID, sessions, answers, mistakes, perfectRuns})
	return nil
}

func (f *fakeStatsRepo) DeleteByGarden(_ context.Context, secretKey string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, secretKey)
	return nil
}

func TestStatsAccumulatorProcessJob(t *testing.T) {
	t.Parallel()

	topicID := uuid.New()

	tests := []struct {
		name     string
		job      func() *queue.Job
		wantCall statsCall
	}{
		{
			name: "session started",
			job: func() *queue.Job {
				return queue.NewJob(queue.JobTypeSessionStarted, "gi-key", topicID)
			},
			wantCall: statsCall{"gi-key", topicID, 1, 0, 0, 0},
		},
		{
			name: "correct answer",
			job: func() *queue.Job {
				j := queue.NewJob(queue.JobTypeAnswerGraded, "gi-key", topicID)
				j.Metadata["correct"] = true
				return j
			},
			wantCall: statsCall{"gi-key", topicID, 0, 1, 0, 0},
		},
		{
			name: "incorrect answer counts a mistake",
			job: func() *queue.Job {
				j := queue.NewJob(queue.JobTypeAnswerGraded, "gi-key", topicID)
				j.Metadata["correct"] = false
				return j
			},
			wantCall: statsCall{"gi-key", topicID, 0, 1, 1, 0},
		},
		{
			name: "perfect completion",
			job: func() *queue.Job {
				j := queue.NewJob(queue.JobTypeSessionCompleted, "gi-key", topicID)
				j.Metadata["perfect_run"] = true
				j.Metadata["answered"] = 5
				return j
			},
			wantCall: statsCall{"gi-key", topicID, 0, 0, 0, 1},
		},
		{
			name: "imperfect completion",
			job: func() *queue.Job {
				j := queue.NewJob(queue.JobTypeSessionCompleted, "gi-key", topicID)
				j.Metadata["perfect_run"] = false
				return j
			},
			wantCall: statsCall{"gi-key", topicID, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &fakeStatsRepo{}
			acc := NewStatsAccumulator(repo)
			if err := acc.ProcessJob(context.Background(), tt.job()); err != nil {
				t.Fatalf("ProcessJob: %v", err)
			}
			if len(repo.calls) != 1 {
				t.Fatalf("got %d accumulate calls, want 1", len(repo.calls))
			}
			if repo.calls[0] != tt.wantCall {
				t.Errorf("call = %+v, want %+v", repo.calls[0], tt.wantCall)
			}
		})
	}
}

func TestStatsAccumulatorRebuild(t *testing.T) {
	t.Parallel()

	repo := &fakeStatsRepo{}
	acc := NewStatsAccumulator(repo)

	job := queue.NewJob(queue.JobTypeStatsRebuild, "gi-key", uuid.Nil)
	if err := acc.ProcessJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "gi-key" {
		t.Errorf("deleted = %v", repo.deleted)
	}
}

func TestStatsAccumulatorValidation(t *testing.T) {
	t.Parallel()

	repo := &fakeStatsRepo{}
	acc := NewStatsAccumulator(repo)

	noKey := queue.NewJob(queue.JobTypeSessionStarted, "", uuid.New())
	if err := acc.ProcessJob(context.Background(), noKey); err == nil {
		t.Error("expected an error for a job without a secret key")
	}

	noTopic := queue.NewJob(queue.JobTypeAnswerGraded, "gi-key", uuid.Nil)
	if err := acc.ProcessJob(context.Background(), noTopic); err == nil {
		t.Error("expected an error for a job without a topic")
	}

	unknown := queue.NewJob(queue.JobType("bogus"), "gi-key", uuid.New())
	if err := acc.ProcessJob(context.Background(), unknown); err == nil {
		t.Error("expected an error for an unknown job type")
	}

	repo.err = errors.New("db down")
	started := queue.NewJob(queue.JobTypeSessionStarted, "gi-key", uuid.New())
	if err := acc.ProcessJob(context.Background(), started); err == nil {
		t.Error("expected repository errors to propagate")
	}
}
