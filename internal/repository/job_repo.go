package repository

import (
	"context"
	"time"

	"github.com/caredocs/docintel/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository handles pipeline job records.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Upsert creates or refreshes the job record for a document. The job ID is
// the document ID, so re-enqueueing an already-queued document is a no-op
// at the record level.
func (r *JobRepository) Upsert(ctx context.Context, job *domain.PipelineJob) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "storage_key", "enqueued_at", "updated_at"}),
	}).Create(job).Error
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.PipelineJob, error) {
	var job domain.PipelineJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkStarted records the beginning of a processing attempt.
func (r *JobRepository) MarkStarted(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.PipelineJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusRunning,
			"started_at": &now,
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error
}

// UpdateProgress persists the job's progress percentage.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.db.WithContext(ctx).Model(&domain.PipelineJob{}).
		Where("id = ?", id).
		Update("progress", progress).Error
}

// MarkCompleted records a successful run.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.PipelineJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.JobStatusCompleted,
			"progress":     100,
			"completed_at": &now,
		}).Error
}

// MarkFailed records a terminal failure with its error log.
func (r *JobRepository) MarkFailed(ctx context.Context, id, errorLog string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.PipelineJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.JobStatusFailed,
			"error_log":    errorLog,
			"completed_at": &now,
		}).Error
}
