package entities

import "time"

// Job statuses.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job represents the database schema for deferred background work. Rows are
// claimed with FOR UPDATE SKIP LOCKED so concurrent workers never double-run
// a job.
type Job struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Kind   string `gorm:"type:varchar(20);not null"`
	Status string `gorm:"type:varchar(20);index:idx_job_ready;not null;default:'queued'"`

	// RunAt is the earliest time a worker may claim the job.
	RunAt time.Time `gorm:"index:idx_job_ready;not null"`

	ConversationID uint  `gorm:"not null"`
	UserMessageID  *uint `gorm:""`

	Attempts  int     `gorm:"not null;default:0"`
	LastError *string `gorm:"type:text"`
}

// TableName specifies the table name for Job.
func (Job) TableName() string {
	return "jobs"
}
