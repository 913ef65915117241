package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caredocs/docintel/internal/api/middleware"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/pipeline"
	"github.com/caredocs/docintel/internal/repository"
	"github.com/caredocs/docintel/internal/storage"
)

// maxUploadSize caps accepted document uploads at 50 MB.
const maxUploadSize = 50 << 20

// acceptedMimeTypes are the document formats the OCR engines can process.
var acceptedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
}

// DocumentHandler handles document upload, processing, and status endpoints.
type DocumentHandler struct {
	documents *repository.DocumentRepository
	jobs      *repository.JobRepository
	results   *repository.ResultRepository
	store     storage.ObjectStorage
	queue     *pipeline.Queue
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(
	documents *repository.DocumentRepository,
	jobs *repository.JobRepository,
	results *repository.ResultRepository,
	store storage.ObjectStorage,
	queue *pipeline.Queue,
) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		jobs:      jobs,
		results:   results,
		store:     store,
		queue:     queue,
	}
}

// Upload handles POST /api/v1/documents. It accepts a multipart form with a
// "file" part and an optional "document_type" hint, stores the file, and
// creates a pending document record.
func (h *DocumentHandler) Upload(c *gin.Context) {
	log := middleware.GetLogger(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 50MB limit"})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !acceptedMimeTypes[mimeType] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": fmt.Sprintf("unsupported content type %q", mimeType),
		})
		return
	}

	userHint := domain.DocumentType(strings.ToUpper(strings.TrimSpace(c.PostForm("document_type"))))
	if userHint != "" && !domain.IsValidDocumentType(userHint) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unknown document type %q", userHint),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file upload"})
		return
	}
	defer file.Close()

	id := uuid.New().String()
	storageKey := fmt.Sprintf("documents/%s/%s", id, filepath.Base(fileHeader.Filename))

	ctx := c.Request.Context()
	if err := h.store.Upload(ctx, storageKey, file, fileHeader.Size, mimeType); err != nil {
		log.WithError(err).Error("failed to store uploaded document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store document"})
		return
	}

	doc := &domain.Document{
		ID:               id,
		FileName:         fileHeader.Filename,
		MimeType:         mimeType,
		StorageKey:       storageKey,
		FileSize:         fileHeader.Size,
		UserProvidedType: userHint,
		Status:           domain.DocumentStatusPending,
	}
	if err := h.documents.Create(ctx, doc); err != nil {
		log.WithError(err).Error("failed to create document record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create document"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     doc.ID,
		"status": doc.Status,
	})
}

// Process handles POST /api/v1/documents/:id/process. It enqueues the
// pipeline task for a pending document; enqueueing is idempotent per
// document.
func (h *DocumentHandler) Process(c *gin.Context) {
	log := middleware.GetLogger(c)
	ctx := c.Request.Context()
	id := c.Param("id")

	doc, err := h.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		log.WithError(err).Error("failed to load document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}
	if doc.Status == domain.DocumentStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "document already processed"})
		return
	}

	job := &domain.PipelineJob{
		ID:         doc.ID,
		DocumentID: doc.ID,
		StorageKey: doc.StorageKey,
		Status:     domain.JobStatusPending,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := h.jobs.Upsert(ctx, job); err != nil {
		log.WithError(err).Error("failed to create job record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	err = h.queue.Enqueue(ctx, &pipeline.TaskPayload{
		DocumentID: doc.ID,
		StorageKey: doc.StorageKey,
		FileName:   doc.FileName,
		MimeType:   doc.MimeType,
		UserHint:   string(doc.UserProvidedType),
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrAlreadyQueued) {
			c.JSON(http.StatusAccepted, gin.H{"id": doc.ID, "status": "already_queued"})
			return
		}
		log.WithError(err).Error("failed to enqueue document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue document"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":     doc.ID,
		"status": "queued",
	})
}

// Status handles GET /api/v1/documents/:id/status.
func (h *DocumentHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	doc, err := h.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}

	resp := gin.H{
		"id":              doc.ID,
		"status":          doc.Status,
		"progress":        doc.Progress,
		"retry_count":     doc.RetryCount,
		"requires_review": doc.RequiresReview,
	}
	if doc.DocumentType != "" {
		resp["document_type"] = doc.DocumentType
	}
	if doc.ErrorMessage != "" {
		resp["error_message"] = doc.ErrorMessage
	}

	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/v1/documents/:id. The response includes the stage
// results once the pipeline has produced them.
func (h *DocumentHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	doc, err := h.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}

	resp := gin.H{"document": doc}

	if classification, err := h.results.GetClassification(ctx, id); err == nil && classification != nil {
		resp["classification"] = classification
	}
	if payload, err := h.results.GetExtractionPayload(ctx, id); err == nil && len(payload) > 0 {
		resp["extraction"] = payload
	}

	c.JSON(http.StatusOK, resp)
}
