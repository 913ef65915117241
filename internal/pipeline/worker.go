package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/time/rate"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/logger"
	"github.com/caredocs/docintel/internal/ocr"
)

// Progress checkpoints reported as a job moves through the pipeline.
const (
	progressPreprocessing  = 10
	progressOcrStarted     = 20
	progressOcrRunning     = 30
	progressOcrDone        = 70
	progressClassified     = 75
	progressExtractStarted = 80
	progressExtractDone    = 90
	progressCompleted      = 100
)

// Narrow views of the collaborators the worker drives, so tests can swap in
// fakes without Redis, a database, or cloud engines.

type DocumentStore interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, progress int) error
	IncrementRetryCount(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, message string) error
	MarkCompleted(ctx context.Context, id string, docType domain.DocumentType, requiresReview bool) error
}

type JobStore interface {
	Upsert(ctx context.Context, job *domain.PipelineJob) error
	MarkStarted(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errorLog string) error
}

type ResultStore interface {
	SaveOcrResult(ctx context.Context, documentID string, res *domain.OcrResult) error
	GetOcrResult(ctx context.Context, documentID string) (*domain.OcrResult, error)
	SaveClassification(ctx context.Context, documentID string, res *domain.ClassificationResult) error
	GetClassification(ctx context.Context, documentID string) (*domain.ClassificationResult, error)
	SaveExtraction(ctx context.Context, documentID string, res *domain.ExtractionResult) error
}

type ObjectDownloader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

type OcrRunner interface {
	Run(ctx context.Context, content []byte, mimeType string, opts ocr.Options) (*domain.OcrResult, error)
}

type DocumentClassifier interface {
	Classify(ctx context.Context, text string, userHint domain.DocumentType) (*domain.ClassificationResult, error)
}

type DataExtractor interface {
	Extract(ctx context.Context, docType domain.DocumentType, ocrResult *domain.OcrResult) (*domain.ExtractionResult, error)
}

// Worker runs the document pipeline for one task: download, OCR, classify,
// extract, persist. Stage results are checkpointed, so a retried task resumes
// after its last completed stage instead of redoing paid OCR and LLM calls.
type Worker struct {
	documents  DocumentStore
	jobs       JobStore
	results    ResultStore
	storage    ObjectDownloader
	ocrRunner  OcrRunner
	classifier DocumentClassifier
	extractor  DataExtractor
	limiter    *rate.Limiter
	log        *logger.Logger
}

// NewWorker wires the pipeline stages together. The rate limiter bounds job
// starts per second across the whole worker pool of this process.
func NewWorker(
	cfg config.PipelineConfig,
	documents DocumentStore,
	jobs JobStore,
	results ResultStore,
	store ObjectDownloader,
	ocrRunner OcrRunner,
	classifier DocumentClassifier,
	extractor DataExtractor,
	log *logger.Logger,
) *Worker {
	limit := cfg.StartRateLimit
	if limit <= 0 {
		limit = 10
	}
	return &Worker{
		documents:  documents,
		jobs:       jobs,
		results:    results,
		storage:    store,
		ocrRunner:  ocrRunner,
		classifier: classifier,
		extractor:  extractor,
		limiter:    rate.NewLimiter(rate.Limit(limit), 1),
		log:        log.WithField(logger.FieldComponent, "worker"),
	}
}

// HandleTask is the asynq handler for document processing tasks. Returning a
// plain error requeues the task; errors wrapped with asynq.SkipRetry fail it
// permanently.
func (w *Worker) HandleTask(ctx context.Context, task *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	retryCount, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	err := w.Process(ctx, &payload, retryCount)
	if err == nil {
		return nil
	}

	final := errors.Is(err, asynq.SkipRetry) || retryCount >= maxRetry
	if final {
		w.failDocument(payload.DocumentID, err)
	}
	return err
}

// Process runs the pipeline for one document. retryCount is how many times
// this task has already been attempted by the queue.
func (w *Worker) Process(ctx context.Context, payload *TaskPayload, retryCount int) error {
	ctx = logger.SetDocumentID(ctx, payload.DocumentID)
	ctx = logger.SetJobID(ctx, payload.DocumentID)
	log := w.log.WithField(logger.FieldDocumentID, payload.DocumentID)

	// Job starts are rate limited across the worker pool.
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	doc, err := w.documents.GetByID(ctx, payload.DocumentID)
	if err != nil {
		return fmt.Errorf("document %s not found: %v: %w", payload.DocumentID, err, asynq.SkipRetry)
	}
	if doc.Status.IsTerminal() {
		log.WithField(logger.FieldStatus, string(doc.Status)).Info("document already terminal, skipping")
		return nil
	}

	if err := w.jobs.MarkStarted(ctx, payload.DocumentID); err != nil {
		log.WithError(err).Warn("failed to mark job started")
	}
	if retryCount > 0 {
		log.WithField("retry_count", retryCount).Info("retrying document pipeline")
		if err := w.documents.IncrementRetryCount(ctx, payload.DocumentID); err != nil {
			log.WithError(err).Warn("failed to persist retry count")
		}
	}

	started := time.Now()
	w.checkpoint(ctx, payload.DocumentID, domain.DocumentStatusPreprocess, progressPreprocessing)

	ocrResult, err := w.runOcrStage(ctx, payload, log)
	if err != nil {
		return err
	}

	classification, err := w.runClassificationStage(ctx, payload, ocrResult, log)
	if err != nil {
		return err
	}

	extraction, err := w.runExtractionStage(ctx, payload, classification, ocrResult, log)
	if err != nil {
		return err
	}

	if err := w.documents.MarkCompleted(ctx, payload.DocumentID, extraction.DocumentType, extraction.RequiresReview); err != nil {
		return fmt.Errorf("failed to mark document completed: %w", err)
	}
	if err := w.jobs.MarkCompleted(ctx, payload.DocumentID); err != nil {
		log.WithError(err).Warn("failed to mark job completed")
	}

	log.WithFields(logger.Fields{
		logger.FieldDurationMs: time.Since(started).Milliseconds(),
		logger.FieldConfidence: extraction.OverallConfidence,
		"document_type":        string(extraction.DocumentType),
		"requires_review":      extraction.RequiresReview,
	}).Info("document pipeline completed")

	return nil
}

// runOcrStage returns the persisted OCR result when a previous attempt
// already produced one, otherwise downloads the document and runs OCR.
func (w *Worker) runOcrStage(ctx context.Context, payload *TaskPayload, log *logger.Logger) (*domain.OcrResult, error) {
	if cached, err := w.results.GetOcrResult(ctx, payload.DocumentID); err == nil && cached != nil {
		log.WithField(logger.FieldStage, "ocr").Info("reusing checkpointed ocr result")
		return cached, nil
	}

	w.checkpoint(ctx, payload.DocumentID, domain.DocumentStatusOCR, progressOcrStarted)

	reader, err := w.storage.Download(ctx, payload.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download document: %w", err)
	}
	content, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	w.checkpoint(ctx, payload.DocumentID, domain.DocumentStatusOCR, progressOcrRunning)

	result, err := w.ocrRunner.Run(ctx, content, payload.MimeType, ocr.Options{
		DocumentTypeHint: domain.DocumentType(payload.UserHint),
		ExpectTables:     true,
		ExpectForms:      true,
	})
	if err != nil {
		if errors.Is(err, ocr.ErrNoEngineAvailable) {
			// No engine will appear mid-retry; requeueing only burns attempts.
			return nil, fmt.Errorf("ocr stage failed: %v: %w", err, asynq.SkipRetry)
		}
		return nil, fmt.Errorf("ocr stage failed: %w", err)
	}

	if err := w.results.SaveOcrResult(ctx, payload.DocumentID, result); err != nil {
		log.WithError(err).Warn("failed to checkpoint ocr result")
	}
	w.checkpoint(ctx, payload.DocumentID, domain.DocumentStatusOCR, progressOcrDone)

	return result, nil
}

func (w *Worker) runClassificationStage(ctx context.Context, payload *TaskPayload, ocrResult *domain.OcrResult, log *logger.Logger) (*domain.ClassificationResult, error) {
	if cached, err := w.results.GetClassification(ctx, payload.DocumentID); err == nil && cached != nil {
		log.WithField(logger.FieldStage, "classification").Info("reusing checkpointed classification")
		return cached, nil
	}

	classification, err := w.classifier.Classify(ctx, ocrResult.RawText, domain.DocumentType(payload.UserHint))
	if err != nil {
		return nil, fmt.Errorf("classification stage failed: %w", err)
	}

	if err := w.results.SaveClassification(ctx, payload.DocumentID, classification); err != nil {
		log.WithError(err).Warn("failed to checkpoint classification")
	}
	w.checkpoint(ctx, payload.DocumentID, domain.DocumentStatusOCR, progressClassified)

	return classification, nil
}

func (w *Worker) runExtractionStage(ctx context.Context, payload *TaskPayload, classification *domain.ClassificationResult, ocrResult *domain.OcrResult, log *logger.Logger) (*domain.ExtractionResult, error) {
	w.checkpoint(ctx, payload.DocumentID, domain.DocumentStatusExtraction, progressExtractStarted)

	extraction, err := w.extractor.Extract(ctx, classification.DocumentType, ocrResult)
	if err != nil {
		return nil, fmt.Errorf("extraction stage failed: %w", err)
	}

	if err := w.results.SaveExtraction(ctx, payload.DocumentID, extraction); err != nil {
		return nil, fmt.Errorf("failed to persist extraction result: %w", err)
	}
	w.checkpoint(ctx, payload.DocumentID, domain.DocumentStatusExtraction, progressExtractDone)

	return extraction, nil
}

// checkpoint advances the document status and progress, mirroring progress
// onto the job record. Failures here are logged and absorbed so they can
// never fail a pipeline that is otherwise working.
func (w *Worker) checkpoint(ctx context.Context, documentID string, status domain.DocumentStatus, progress int) {
	if err := w.documents.UpdateStatus(ctx, documentID, status, progress); err != nil {
		w.log.WithError(err).WithField(logger.FieldDocumentID, documentID).Warn("failed to update document status")
	}
	if err := w.jobs.UpdateProgress(ctx, documentID, progress); err != nil {
		w.log.WithError(err).WithField(logger.FieldDocumentID, documentID).Warn("failed to update job progress")
	}
}

// failDocument records a permanent failure. It runs on its own context so a
// cancelled task context cannot block the bookkeeping.
func (w *Worker) failDocument(documentID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.documents.MarkFailed(ctx, documentID, cause.Error()); err != nil {
		w.log.WithError(err).WithField(logger.FieldDocumentID, documentID).Error("failed to mark document failed")
	}
	if err := w.jobs.MarkFailed(ctx, documentID, cause.Error()); err != nil {
		w.log.WithError(err).WithField(logger.FieldDocumentID, documentID).Error("failed to mark job failed")
	}
}
