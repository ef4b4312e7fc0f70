package queue

import (
	"context"
	"fmt"

	"github.com/teomarche/study-garden/internal/study"
)

// StudyEventPublisher adapts the job queue to the study session's publisher
// contract, translating events into durable jobs for the stats worker.
type StudyEventPublisher struct {
	queue JobQueue
}

// NewStudyEventPublisher creates a publisher backed by the job queue.
func NewStudyEventPublisher(q JobQueue) *StudyEventPublisher {
	return &StudyEventPublisher{queue: q}
}

var _ study.EventPublisher = (*StudyEventPublisher)(nil)

// PublishStudyEvent enqueues one study event.
func (p *StudyEventPublisher) PublishStudyEvent(ctx context.Context, event study.Event) error {
	jobType, err := jobTypeForEvent(event.Type)
	if err != nil {
		return err
	}

	job := NewJob(jobType, event.SecretKey, event.TopicID)
	switch event.Type {
	case study.EventAnswerGraded:
		job.Metadata["correct"] = event.Correct
	case study.EventSessionCompleted:
		job.Metadata["answered"] = event.Answered
		job.Metadata["mistakes"] = event.Mistakes
		job.Metadata["perfect_run"] = event.PerfectRun
	}

	return p.queue.Enqueue(ctx, job)
}

func jobTypeForEvent(t study.EventType) (JobType, error) {
	switch t {
	case study.EventSessionStarted:
		return JobTypeSessionStarted, nil
	case study.EventAnswerGraded:
		return JobTypeAnswerGraded, nil
	case study.EventSessionCompleted:
		return JobTypeSessionCompleted, nil
	default:
		return "", fmt.Errorf("unknown study event type %q", t)
	}
}
