package repository

import (
	"context"

	"github.com/caredocs/docintel/internal/domain"
	"gorm.io/gorm"
)

// DocumentRepository handles document record operations.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document record.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByID retrieves a document by its ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update updates an existing document record.
func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// UpdateStatus persists a pipeline state transition. Progress is monotonic per
// run; callers pass the checkpoint value for the new status.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, progress int) error {
	return r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   status,
			"progress": progress,
		}).Error
}

// IncrementRetryCount bumps the attempt counter for a document.
func (r *DocumentRepository) IncrementRetryCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ?", id).
		UpdateColumn("retry_count", gorm.Expr("retry_count + 1")).Error
}

// MarkFailed transitions a document to the FAILED terminal state with its
// error message. Progress is left at the last checkpoint reached.
func (r *DocumentRepository) MarkFailed(ctx context.Context, id, message string) error {
	return r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.DocumentStatusFailed,
			"error_message": message,
		}).Error
}

// MarkCompleted transitions a document to the COMPLETED terminal state.
func (r *DocumentRepository) MarkCompleted(ctx context.Context, id string, docType domain.DocumentType, requiresReview bool) error {
	return r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          domain.DocumentStatusCompleted,
			"progress":        100,
			"document_type":   docType,
			"requires_review": requiresReview,
			"error_message":   "",
		}).Error
}

// ListByStatus retrieves documents by status with pagination.
func (r *DocumentRepository) ListByStatus(ctx context.Context, status domain.DocumentStatus, limit, offset int) ([]domain.Document, error) {
	var docs []domain.Document
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Limit(limit).
		Offset(offset).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}
