package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/title"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/turn"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/metrics"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/observability"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/scheduler"
)

const pollInterval = 2 * time.Second

// Worker claims jobs from the queue and runs them.
type Worker struct {
	id           int
	queue        scheduler.Queue
	orchestrator *turn.Orchestrator
	titles       *title.Service
	jobTimeout   time.Duration
	log          zerolog.Logger
	stopChan     chan struct{}
}

// NewWorker creates a new background worker.
func NewWorker(
	id int,
	queue scheduler.Queue,
	orchestrator *turn.Orchestrator,
	titles *title.Service,
	jobTimeout time.Duration,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:           id,
		queue:        queue,
		orchestrator: orchestrator,
		titles:       titles,
		jobTimeout:   jobTimeout,
		log:          log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:     make(chan struct{}),
	}
}

// Start begins polling for jobs. It returns when the context is cancelled or
// Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			// Drain everything that is due before sleeping again.
			for w.processNextJob(ctx) {
			}
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) processNextJob(ctx context.Context) bool {
	job, err := w.queue.Dequeue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to dequeue job")
		return false
	}
	if job == nil {
		return false
	}

	w.log.Info().
		Uint("job_id", job.ID).
		Str("kind", string(job.Kind)).
		Uint("conversation_id", job.ConversationID).
		Int("attempt", job.Attempts).
		Msg("processing job")

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	if err := w.execute(jobCtx, job); err != nil {
		w.log.Error().Err(err).Uint("job_id", job.ID).Msg("job execution failed")
		metrics.RecordJob(string(job.Kind), "failed")
		if markErr := w.queue.MarkFailed(ctx, job.ID, err); markErr != nil {
			w.log.Error().Err(markErr).Uint("job_id", job.ID).Msg("failed to mark job as failed")
		}
		return true
	}

	metrics.RecordJob(string(job.Kind), "completed")
	if err := w.queue.MarkCompleted(ctx, job.ID); err != nil {
		w.log.Error().Err(err).Uint("job_id", job.ID).Msg("failed to mark job completed")
	}
	return true
}

func (w *Worker) execute(ctx context.Context, job *scheduler.Job) error {
	ctx, span := observability.StartTurnSpan(ctx, job.ConversationID, string(job.Kind))
	defer span.End()

	var err error
	switch job.Kind {
	case scheduler.KindTurn:
		err = w.orchestrator.RunTurn(ctx, job.ConversationID)
	case scheduler.KindTitle:
		err = w.titles.GenerateTitle(ctx, job.ConversationID)
	default:
		err = fmt.Errorf("unknown job kind: %s", job.Kind)
	}
	observability.RecordError(span, err)
	return err
}
