package ocr

import (
	"context"
	"errors"

	"github.com/caredocs/docintel/internal/domain"
)

// Sentinel errors returned by engines and the orchestrator.
var (
	// ErrEngineUnavailable means the engine cannot serve requests right now
	// (missing credentials, unsupported input, region outage). The
	// orchestrator treats it as a signal to try the next engine.
	ErrEngineUnavailable = errors.New("ocr engine unavailable")

	// ErrNoEngineAvailable means every configured engine was tried and none
	// produced a result.
	ErrNoEngineAvailable = errors.New("no ocr engine available")
)

// Options carries per-request hints that influence engine selection and
// processing behavior.
type Options struct {
	// DocumentTypeHint is the uploader's claimed document type, or empty.
	DocumentTypeHint domain.DocumentType
	// ExpectTables requests table-aware analysis when the engine supports it.
	ExpectTables bool
	// ExpectForms requests key-value (form field) detection.
	ExpectForms bool
}

// Engine is a single OCR backend.
type Engine interface {
	// Name returns the engine identifier recorded on results.
	Name() domain.OcrEngine

	// IsAvailable reports whether the engine is configured and reachable
	// enough to attempt a request. It must be cheap; it is called on every
	// document.
	IsAvailable() bool

	// Process runs OCR over the document bytes and returns a normalized
	// result. mimeType distinguishes images from PDFs; engines that cannot
	// handle the input return ErrEngineUnavailable.
	Process(ctx context.Context, content []byte, mimeType string, opts Options) (*domain.OcrResult, error)
}
