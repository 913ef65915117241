package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/llm"
	"github.com/caredocs/docintel/internal/logger"
	"github.com/caredocs/docintel/internal/prompts"
	"github.com/caredocs/docintel/internal/retry"
	"github.com/caredocs/docintel/internal/schema"
)

// defaultConfidence stands in for the overall confidence when the model
// returned data but no per-field confidences to average.
const defaultConfidence = 0.75

// maxContentChars bounds how much document content goes into one extraction
// prompt.
const maxContentChars = 48000

// Extractor turns OCR output into a validated, normalized, typed payload for
// a classified document. LLM calls are retried with exponential backoff; when
// every attempt fails, a minimal well-typed payload is synthesized so the
// pipeline always completes with schema-conformant data.
type Extractor struct {
	provider llm.Provider
	cfg      config.ExtractionConfig
	policy   schema.ReviewPolicy
	log      *logger.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(provider llm.Provider, cfg config.ExtractionConfig, log *logger.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		cfg:      cfg,
		policy: schema.ReviewPolicy{
			ReviewThreshold:          cfg.ReviewThreshold,
			FieldConfidenceThreshold: cfg.FieldConfidenceThreshold,
			CriticalFields:           cfg.CriticalFields,
		},
		log: log.WithField(logger.FieldComponent, "extraction"),
	}
}

// llmExtraction mirrors the JSON envelope the extraction prompt demands.
type llmExtraction struct {
	ExtractedData    json.RawMessage    `json:"extracted_data"`
	FieldConfidences map[string]float64 `json:"field_confidences"`
	ExtractionNotes  string             `json:"extraction_notes"`
}

// Extract runs the full extraction stage for one document.
func (e *Extractor) Extract(ctx context.Context, docType domain.DocumentType, ocrResult *domain.OcrResult) (*domain.ExtractionResult, error) {
	start := time.Now()
	content := BuildDocumentContent(ocrResult)

	var parsed llmExtraction
	err := retry.Do(ctx, e.cfg.MaxRetries, e.cfg.RetryBaseDelay, func(ctx context.Context) error {
		raw, err := e.provider.Complete(ctx, &llm.Request{
			System:      prompts.ExtractionSystemPrompt,
			User:        prompts.BuildExtractionUserPrompt(string(docType), content),
			Temperature: 0,
			WantJSON:    true,
		})
		if err != nil {
			e.log.WithError(err).Warn("extraction attempt failed")
			return err
		}

		var attempt llmExtraction
		if err := json.Unmarshal([]byte(llm.CleanJSONResponse(raw)), &attempt); err != nil {
			e.log.WithError(err).Warn("extraction response is not valid JSON")
			return fmt.Errorf("failed to parse extraction response: %w", err)
		}
		if len(attempt.ExtractedData) == 0 || string(attempt.ExtractedData) == "null" {
			return fmt.Errorf("extraction response missing extracted_data")
		}

		parsed = attempt
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return e.synthesizeResult(docType, ocrResult, start, err), nil
	}

	return e.buildResult(docType, ocrResult, parsed, start), nil
}

// buildResult validates, normalizes, and packages a successful LLM response.
func (e *Extractor) buildResult(docType domain.DocumentType, ocrResult *domain.OcrResult, parsed llmExtraction, start time.Time) *domain.ExtractionResult {
	validation := schema.ValidateAndNormalize(docType, parsed.ExtractedData)
	if !validation.Valid() {
		// Downstream consumers always get a schema-conformant shape, so a
		// payload failing validation is replaced, not passed through.
		result := e.synthesizeResult(docType, ocrResult, start,
			fmt.Errorf("payload failed validation with %d errors", len(validation.Errors)))
		result.ValidationErrors = validation.Errors
		result.ValidationWarnings = append(result.ValidationWarnings, validation.Warnings...)
		return result
	}

	data, err := domain.DecodeExtractedData(docType, validation.Normalized)
	if err != nil {
		// The model produced JSON that does not fit the target shape at all.
		e.log.WithError(err).Warn("extracted payload does not match target schema")
		return e.synthesizeResult(docType, ocrResult, start, err)
	}

	overall := meanConfidence(parsed.FieldConfidences)
	lowFields := e.policy.LowConfidenceFields(parsed.FieldConfidences)
	requiresReview := e.policy.ShouldRequireReview(overall, parsed.FieldConfidences, validation.Errors, validation.Warnings)

	elapsed := time.Since(start).Milliseconds()
	*data.Meta() = domain.ExtractionMetadata{
		ExtractedAt:         time.Now().UTC(),
		EnginesUsed:         []string{string(ocrResult.Engine)},
		OverallConfidence:   overall,
		ProcessingTimeMs:    elapsed,
		Warnings:            validation.Warnings,
		LowConfidenceFields: lowFields,
		ExtractionNotes:     parsed.ExtractionNotes,
	}

	e.log.WithFields(logger.Fields{
		logger.FieldConfidence: overall,
		logger.FieldDurationMs: elapsed,
		"document_type":        string(docType),
		"requires_review":      requiresReview,
		"validation_errors":    len(validation.Errors),
	}).Info("extraction complete")

	return &domain.ExtractionResult{
		DocumentType:        docType,
		ExtractedData:       data,
		FieldConfidences:    parsed.FieldConfidences,
		LowConfidenceFields: lowFields,
		OverallConfidence:   overall,
		RequiresReview:      requiresReview,
		ValidationWarnings:  validation.Warnings,
		ValidationErrors:    validation.Errors,
		ProcessingTimeMs:    elapsed,
		ExtractionMethod:    domain.ExtractionMethodLLM,
	}
}

// synthesizeResult builds the minimal well-typed payload used when extraction
// could not produce usable data. Confidence is zero and review is always
// required.
func (e *Extractor) synthesizeResult(docType domain.DocumentType, ocrResult *domain.OcrResult, start time.Time, cause error) *domain.ExtractionResult {
	elapsed := time.Since(start).Milliseconds()
	warning := domain.ValidationWarning{
		Field:    "",
		Message:  fmt.Sprintf("extraction failed, minimal structure synthesized: %v", cause),
		Severity: domain.SeverityHigh,
	}

	data := domain.NewExtractedData(docType)
	*data.Meta() = domain.ExtractionMetadata{
		ExtractedAt:       time.Now().UTC(),
		EnginesUsed:       []string{string(ocrResult.Engine)},
		OverallConfidence: 0,
		ProcessingTimeMs:  elapsed,
		Warnings:          []domain.ValidationWarning{warning},
	}

	e.log.WithError(cause).WithField("document_type", string(docType)).
		Warn("synthesizing minimal extraction payload")

	return &domain.ExtractionResult{
		DocumentType:       docType,
		ExtractedData:      data,
		OverallConfidence:  0,
		RequiresReview:     true,
		ValidationWarnings: []domain.ValidationWarning{warning},
		ProcessingTimeMs:   elapsed,
		ExtractionMethod:   domain.ExtractionMethodSynthetic,
	}
}

// BuildDocumentContent assembles the text blob the model extracts from: the
// raw transcript, detected tables rendered as markdown, and detected form
// fields as "key: value" lines.
func BuildDocumentContent(ocrResult *domain.OcrResult) string {
	var b strings.Builder
	b.WriteString(ocrResult.RawText)

	if tables := RenderAllTables(ocrResult.Tables); tables != "" {
		b.WriteString("\n\n[Tables]\n")
		b.WriteString(tables)
	}

	if len(ocrResult.KeyValuePairs) > 0 {
		b.WriteString("\n\n[Form Fields]\n")
		for _, kv := range ocrResult.KeyValuePairs {
			b.WriteString(kv.Key)
			b.WriteString(": ")
			b.WriteString(kv.Value)
			b.WriteString("\n")
		}
	}

	content := b.String()
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}
	return content
}

// meanConfidence averages the per-field confidences, falling back to a
// conservative default when the model supplied none.
func meanConfidence(fieldConfidences map[string]float64) float64 {
	if len(fieldConfidences) == 0 {
		return defaultConfidence
	}
	var sum float64
	for _, c := range fieldConfidences {
		sum += c
	}
	return sum / float64(len(fieldConfidences))
}
