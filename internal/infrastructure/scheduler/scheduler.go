// Package scheduler provides deferred background job execution backed by a
// PostgreSQL table. A scheduled job runs after its delay elapses, at least
// once, outside the transaction that scheduled it.
package scheduler

import (
	"context"
	"time"
)

// JobKind identifies the work a job carries.
type JobKind string

const (
	// KindTurn runs a generation turn for a conversation.
	KindTurn JobKind = "turn"
	// KindTitle names a conversation after its first exchange.
	KindTitle JobKind = "title"
)

// Job is one claimed unit of work.
type Job struct {
	ID             uint
	Kind           JobKind
	ConversationID uint
	UserMessageID  *uint
	Attempts       int
	RunAt          time.Time
}

// Queue defines the job queue operations.
type Queue interface {
	// ScheduleTurn enqueues a generation turn job.
	ScheduleTurn(ctx context.Context, conversationID, userMessageID uint, delay time.Duration) error

	// ScheduleTitle enqueues a title generation job.
	ScheduleTitle(ctx context.Context, conversationID uint, delay time.Duration) error

	// Dequeue claims the next runnable job using SELECT FOR UPDATE SKIP LOCKED,
	// marking it running in the same transaction. Returns nil when no job is due.
	Dequeue(ctx context.Context) (*Job, error)

	// MarkCompleted finalizes a job after successful execution.
	MarkCompleted(ctx context.Context, jobID uint) error

	// MarkFailed records the failure and requeues the job with backoff, or
	// parks it as failed once the attempt budget is spent.
	MarkFailed(ctx context.Context, jobID uint, jobErr error) error

	// Depth returns the number of queued jobs.
	Depth(ctx context.Context) (int64, error)
}
