package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/database/entities"
)

const (
	maxAttempts  = 3
	retryBackoff = 5 * time.Second
)

// PostgresQueue implements Queue using the jobs table.
type PostgresQueue struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewPostgresQueue creates a new PostgreSQL-backed job queue.
func NewPostgresQueue(db *gorm.DB, log zerolog.Logger) *PostgresQueue {
	return &PostgresQueue{
		db:  db,
		log: log.With().Str("component", "postgres-scheduler").Logger(),
	}
}

// ScheduleTurn enqueues a generation turn job.
func (q *PostgresQueue) ScheduleTurn(ctx context.Context, conversationID, userMessageID uint, delay time.Duration) error {
	return q.schedule(ctx, &entities.Job{
		Kind:           string(KindTurn),
		Status:         entities.JobStatusQueued,
		RunAt:          time.Now().Add(delay),
		ConversationID: conversationID,
		UserMessageID:  &userMessageID,
	})
}

// ScheduleTitle enqueues a title generation job.
func (q *PostgresQueue) ScheduleTitle(ctx context.Context, conversationID uint, delay time.Duration) error {
	return q.schedule(ctx, &entities.Job{
		Kind:           string(KindTitle),
		Status:         entities.JobStatusQueued,
		RunAt:          time.Now().Add(delay),
		ConversationID: conversationID,
	})
}

func (q *PostgresQueue) schedule(ctx context.Context, job *entities.Job) error {
	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("schedule %s job: %w", job.Kind, err)
	}
	q.log.Debug().
		Str("kind", job.Kind).
		Uint("conversation_id", job.ConversationID).
		Time("run_at", job.RunAt).
		Msg("job scheduled")
	return nil
}

// Dequeue claims the next due job. Claim and status flip happen in one
// transaction so a job is handed to exactly one worker.
func (q *PostgresQueue) Dequeue(ctx context.Context) (*Job, error) {
	var claimed *Job

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity entities.Job
		err := tx.
			Raw("SELECT * FROM jobs WHERE status = ? AND run_at <= ? ORDER BY run_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED",
				entities.JobStatusQueued, time.Now()).
			Scan(&entity).Error
		if err != nil {
			return fmt.Errorf("claim job: %w", err)
		}
		if entity.ID == 0 {
			return nil // nothing due
		}

		if err := tx.Model(&entities.Job{}).
			Where("id = ?", entity.ID).
			Updates(map[string]interface{}{
				"status":   entities.JobStatusRunning,
				"attempts": entity.Attempts + 1,
			}).Error; err != nil {
			return fmt.Errorf("mark job running: %w", err)
		}

		claimed = &Job{
			ID:             entity.ID,
			Kind:           JobKind(entity.Kind),
			ConversationID: entity.ConversationID,
			UserMessageID:  entity.UserMessageID,
			Attempts:       entity.Attempts + 1,
			RunAt:          entity.RunAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkCompleted finalizes the job.
func (q *PostgresQueue) MarkCompleted(ctx context.Context, jobID uint) error {
	result := q.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("id = ?", jobID).
		Update("status", entities.JobStatusCompleted)
	if result.Error != nil {
		return fmt.Errorf("mark job completed: %w", result.Error)
	}
	return nil
}

// MarkFailed requeues the job with a fixed backoff until its attempts run
// out, then parks it as failed.
func (q *PostgresQueue) MarkFailed(ctx context.Context, jobID uint, jobErr error) error {
	detail := jobErr.Error()

	var entity entities.Job
	if err := q.db.WithContext(ctx).First(&entity, jobID).Error; err != nil {
		return fmt.Errorf("fetch failed job: %w", err)
	}

	columns := map[string]interface{}{
		"last_error": detail,
	}
	if entity.Attempts >= maxAttempts {
		columns["status"] = entities.JobStatusFailed
		q.log.Error().
			Uint("job_id", jobID).
			Str("kind", entity.Kind).
			Int("attempts", entity.Attempts).
			Str("error", detail).
			Msg("job exhausted its attempts")
	} else {
		columns["status"] = entities.JobStatusQueued
		columns["run_at"] = time.Now().Add(retryBackoff)
	}

	if err := q.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("id = ?", jobID).
		Updates(columns).Error; err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// Depth returns the number of queued jobs.
func (q *PostgresQueue) Depth(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("status = ?", entities.JobStatusQueued).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return count, nil
}
