package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caredocs/docintel/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OcrResultRecord persists one OCR stage output keyed by document ID.
// The full OcrResult is stored as a JSON payload; scalar columns are
// duplicated for querying.
type OcrResultRecord struct {
	DocumentID        string    `gorm:"type:text;primaryKey"`
	Engine            string    `gorm:"type:text;not null"`
	EngineVersion     string    `gorm:"type:text"`
	OverallConfidence float64   `gorm:"default:0"`
	WordCount         int       `gorm:"default:0"`
	ProcessingTimeMs  int64     `gorm:"default:0"`
	Payload           string    `gorm:"type:text;not null"`
	CreatedAt         time.Time
}

func (OcrResultRecord) TableName() string { return "ocr_results" }

// ClassificationRecord persists one classification stage output.
type ClassificationRecord struct {
	DocumentID   string    `gorm:"type:text;primaryKey"`
	DocumentType string    `gorm:"type:text;not null"`
	Confidence   float64   `gorm:"default:0"`
	Method       string    `gorm:"type:text"`
	Payload      string    `gorm:"type:text;not null"`
	CreatedAt    time.Time
}

func (ClassificationRecord) TableName() string { return "classification_results" }

// ExtractionRecord persists one extraction stage output.
type ExtractionRecord struct {
	DocumentID        string    `gorm:"type:text;primaryKey"`
	DocumentType      string    `gorm:"type:text;not null"`
	OverallConfidence float64   `gorm:"default:0"`
	RequiresReview    bool      `gorm:"default:false"`
	Payload           string    `gorm:"type:text;not null"`
	CreatedAt         time.Time
}

func (ExtractionRecord) TableName() string { return "extraction_results" }

// ResultRepository handles per-stage pipeline outputs. Each result is written
// exactly once per run, before the next stage starts, so a retried job can
// resume from the last durable stage.
type ResultRepository struct {
	db *gorm.DB
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func upsertByDocument(db *gorm.DB, record interface{}) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}},
		UpdateAll: true,
	}).Create(record).Error
}

// SaveOcrResult persists the OCR stage output for a document.
func (r *ResultRepository) SaveOcrResult(ctx context.Context, documentID string, res *domain.OcrResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal OCR result: %w", err)
	}
	return upsertByDocument(r.db.WithContext(ctx), &OcrResultRecord{
		DocumentID:        documentID,
		Engine:            string(res.Engine),
		EngineVersion:     res.EngineVersion,
		OverallConfidence: res.OverallConfidence,
		WordCount:         res.WordCount,
		ProcessingTimeMs:  res.ProcessingTimeMs,
		Payload:           string(payload),
	})
}

// GetOcrResult loads a previously persisted OCR result, or gorm.ErrRecordNotFound.
func (r *ResultRepository) GetOcrResult(ctx context.Context, documentID string) (*domain.OcrResult, error) {
	var rec OcrResultRecord
	if err := r.db.WithContext(ctx).First(&rec, "document_id = ?", documentID).Error; err != nil {
		return nil, err
	}
	var res domain.OcrResult
	if err := json.Unmarshal([]byte(rec.Payload), &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OCR result: %w", err)
	}
	return &res, nil
}

// SaveClassification persists the classification stage output for a document.
func (r *ResultRepository) SaveClassification(ctx context.Context, documentID string, res *domain.ClassificationResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal classification result: %w", err)
	}
	return upsertByDocument(r.db.WithContext(ctx), &ClassificationRecord{
		DocumentID:   documentID,
		DocumentType: string(res.DocumentType),
		Confidence:   res.Confidence,
		Method:       string(res.Method),
		Payload:      string(payload),
	})
}

// GetClassification loads a previously persisted classification result.
func (r *ResultRepository) GetClassification(ctx context.Context, documentID string) (*domain.ClassificationResult, error) {
	var rec ClassificationRecord
	if err := r.db.WithContext(ctx).First(&rec, "document_id = ?", documentID).Error; err != nil {
		return nil, err
	}
	var res domain.ClassificationResult
	if err := json.Unmarshal([]byte(rec.Payload), &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classification result: %w", err)
	}
	return &res, nil
}

// SaveExtraction persists the extraction stage output for a document.
func (r *ResultRepository) SaveExtraction(ctx context.Context, documentID string, res *domain.ExtractionResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction result: %w", err)
	}
	return upsertByDocument(r.db.WithContext(ctx), &ExtractionRecord{
		DocumentID:        documentID,
		DocumentType:      string(res.DocumentType),
		OverallConfidence: res.OverallConfidence,
		RequiresReview:    res.RequiresReview,
		Payload:           string(payload),
	})
}

// GetExtractionPayload loads the raw extraction payload for a document.
// The payload keeps the variant shape for DocumentType; callers that need a
// typed value decode via domain.DecodeExtractedData.
func (r *ResultRepository) GetExtractionPayload(ctx context.Context, documentID string) (json.RawMessage, error) {
	var rec ExtractionRecord
	if err := r.db.WithContext(ctx).First(&rec, "document_id = ?", documentID).Error; err != nil {
		return nil, err
	}
	return json.RawMessage(rec.Payload), nil
}

// DeleteStageResults removes persisted stage outputs for a document, used
// when a caller forces a full reprocess.
func (r *ResultRepository) DeleteStageResults(ctx context.Context, documentID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Delete(&OcrResultRecord{}, "document_id = ?", documentID).Error; err != nil {
		return err
	}
	if err := db.Delete(&ClassificationRecord{}, "document_id = ?", documentID).Error; err != nil {
		return err
	}
	return db.Delete(&ExtractionRecord{}, "document_id = ?", documentID).Error
}
