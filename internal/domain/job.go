package domain

import "time"

// JobStatus represents the status of a pipeline job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// PipelineJob represents one asynchronous processing run for a document.
// The job ID equals the document ID, which is what makes Enqueue idempotent
// and prevents two concurrent runs for the same document.
type PipelineJob struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	DocumentID  string     `gorm:"type:text;not null;index" json:"document_id"`
	StorageKey  string     `gorm:"type:text;not null" json:"storage_key"`
	Status      JobStatus  `gorm:"default:pending" json:"status"`
	Attempts    int        `gorm:"default:0" json:"attempts"`
	Progress    int        `gorm:"default:0" json:"progress"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ErrorLog    string     `json:"error_log,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for PipelineJob.
func (PipelineJob) TableName() string {
	return "pipeline_jobs"
}
