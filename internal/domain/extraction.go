package domain

import "time"

// ValidationCode classifies a validation error.
type ValidationCode string

const (
	ValidationMissingRequired ValidationCode = "MISSING_REQUIRED"
	ValidationInvalidFormat   ValidationCode = "INVALID_FORMAT"
	ValidationOutOfRange      ValidationCode = "OUT_OF_RANGE"
	ValidationParseError      ValidationCode = "PARSE_ERROR"
)

// WarningSeverity ranks a validation warning.
type WarningSeverity string

const (
	SeverityLow    WarningSeverity = "LOW"
	SeverityMedium WarningSeverity = "MEDIUM"
	SeverityHigh   WarningSeverity = "HIGH"
)

// ValidationError is a hard schema violation for a single field path.
type ValidationError struct {
	Field   string         `json:"field"`
	Message string         `json:"message"`
	Code    ValidationCode `json:"code"`
}

// ValidationWarning is a soft quality issue that does not invalidate data.
type ValidationWarning struct {
	Field    string          `json:"field"`
	Message  string          `json:"message"`
	Severity WarningSeverity `json:"severity"`
}

// ExtractionMethod indicates how structured data was produced.
type ExtractionMethod string

const (
	ExtractionMethodLLM       ExtractionMethod = "LLM"
	ExtractionMethodSynthetic ExtractionMethod = "SYNTHESIZED"
)

// ExtractionMetadata describes provenance and quality of an extraction run.
// It is embedded in every ExtractedData variant.
type ExtractionMetadata struct {
	ExtractedAt         time.Time           `json:"extractedAt"`
	EnginesUsed         []string            `json:"enginesUsed,omitempty"`
	OverallConfidence   float64             `json:"overallConfidence"`
	ProcessingTimeMs    int64               `json:"processingTimeMs"`
	Warnings            []ValidationWarning `json:"warnings,omitempty"`
	LowConfidenceFields []string            `json:"lowConfidenceFields,omitempty"`
	ExtractionNotes     string              `json:"extractionNotes,omitempty"`
}

// ExtractionResult is the output of the extraction stage. ExtractedData always
// conforms to the schema for DocumentType, even when extraction failed and a
// minimal structure was synthesized instead.
type ExtractionResult struct {
	DocumentType        DocumentType        `json:"document_type"`
	ExtractedData       ExtractedData       `json:"extracted_data"`
	FieldConfidences    map[string]float64  `json:"field_confidences,omitempty"`
	LowConfidenceFields []string            `json:"low_confidence_fields,omitempty"`
	OverallConfidence   float64             `json:"overall_confidence"`
	RequiresReview      bool                `json:"requires_review"`
	ValidationWarnings  []ValidationWarning `json:"validation_warnings,omitempty"`
	ValidationErrors    []ValidationError   `json:"validation_errors,omitempty"`
	ProcessingTimeMs    int64               `json:"processing_time_ms"`
	ExtractionMethod    ExtractionMethod    `json:"extraction_method"`
}
