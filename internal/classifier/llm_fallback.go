package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/llm"
	"github.com/caredocs/docintel/internal/logger"
	"github.com/caredocs/docintel/internal/prompts"
)

// maxClassificationChars bounds how much OCR text goes into the prompt.
// Document type is almost always decidable from the first pages.
const maxClassificationChars = 8000

// typeSynonyms maps common off-list names a model might return to the
// canonical type names.
var typeSynonyms = map[string]domain.DocumentType{
	"LAB":                domain.DocTypeLabResult,
	"LABS":               domain.DocTypeLabResult,
	"LAB_REPORT":         domain.DocTypeLabResult,
	"LABORATORY_REPORT":  domain.DocTypeLabResult,
	"LAB_RESULTS":        domain.DocTypeLabResult,
	"RX":                 domain.DocTypePrescription,
	"MEDICATION_ORDER":   domain.DocTypePrescription,
	"IMAGING_REPORT":     domain.DocTypeRadiologyReport,
	"XRAY_REPORT":        domain.DocTypeRadiologyReport,
	"RADIOLOGY":          domain.DocTypeRadiologyReport,
	"DISCHARGE_NOTE":     domain.DocTypeDischargeSummary,
	"DISCHARGE":          domain.DocTypeDischargeSummary,
	"SURGICAL_REPORT":    domain.DocTypeOperativeReport,
	"OP_NOTE":            domain.DocTypeOperativeReport,
	"CONSULT_NOTE":       domain.DocTypeConsultationNote,
	"CONSULT":            domain.DocTypeConsultationNote,
	"SOAP_NOTE":          domain.DocTypeProgressNote,
	"CLINICAL_NOTE":      domain.DocTypeProgressNote,
	"PATHOLOGY":          domain.DocTypePathologyReport,
	"BIOPSY_REPORT":      domain.DocTypePathologyReport,
	"H_AND_P":            domain.DocTypeHistoryAndPhysical,
	"H&P":                domain.DocTypeHistoryAndPhysical,
	"HISTORY_PHYSICAL":   domain.DocTypeHistoryAndPhysical,
	"VACCINE_RECORD":     domain.DocTypeImmunizationRecord,
	"VACCINATION_RECORD": domain.DocTypeImmunizationRecord,
	"INSURANCE":          domain.DocTypeInsuranceCard,
	"ID_CARD":            domain.DocTypeInsuranceCard,
	"REFERRAL":           domain.DocTypeReferralLetter,
	"BILL":               domain.DocTypeMedicalBill,
	"INVOICE":            domain.DocTypeMedicalBill,
	"BILLING_STATEMENT":  domain.DocTypeMedicalBill,
	"STATEMENT":          domain.DocTypeMedicalBill,
	"EOB":                domain.DocTypeMedicalBill,
	"OTHER":              domain.DocTypeUnknown,
	"UNCLASSIFIED":       domain.DocTypeUnknown,
}

// LLMFallback classifies documents through an LLM when pattern matching is
// not confident enough.
type LLMFallback struct {
	provider llm.Provider
	log      *logger.Logger
}

// NewLLMFallback creates the LLM classification fallback.
func NewLLMFallback(provider llm.Provider, log *logger.Logger) *LLMFallback {
	return &LLMFallback{
		provider: provider,
		log:      log.WithField(logger.FieldComponent, "classifier_llm"),
	}
}

// llmClassification mirrors the JSON shape the classification prompt demands.
type llmClassification struct {
	DocumentType     string  `json:"document_type"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning"`
	AlternativeTypes []struct {
		DocumentType string  `json:"document_type"`
		Confidence   float64 `json:"confidence"`
	} `json:"alternative_types"`
}

// Classify asks the model for a document type. Errors are returned to the
// caller, which keeps the pattern result instead.
func (f *LLMFallback) Classify(ctx context.Context, text string, userHint domain.DocumentType) (*domain.ClassificationResult, error) {
	if len(text) > maxClassificationChars {
		text = text[:maxClassificationChars]
	}

	raw, err := f.provider.Complete(ctx, &llm.Request{
		System:      prompts.ClassificationSystemPrompt,
		User:        prompts.BuildClassificationUserPrompt(text, string(userHint)),
		MaxTokens:   512,
		Temperature: 0,
		WantJSON:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w", err)
	}

	var parsed llmClassification
	if err := json.Unmarshal([]byte(llm.CleanJSONResponse(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	docType := normalizeTypeName(parsed.DocumentType)
	confidence := clamp01(parsed.Confidence)

	result := &domain.ClassificationResult{
		DocumentType: docType,
		Confidence:   confidence,
		Method:       domain.ClassificationLLM,
		Reasoning:    parsed.Reasoning,
	}
	for _, alt := range parsed.AlternativeTypes {
		altType := normalizeTypeName(alt.DocumentType)
		if altType == result.DocumentType {
			continue
		}
		result.AlternativeTypes = append(result.AlternativeTypes, domain.AlternativeType{
			DocumentType: altType,
			Confidence:   clamp01(alt.Confidence),
		})
	}

	return result, nil
}

// normalizeTypeName maps a model-returned type name onto the canonical set,
// going through the synonym table for near misses. Anything unrecognized
// becomes UNKNOWN.
func normalizeTypeName(name string) domain.DocumentType {
	cleaned := strings.ToUpper(strings.TrimSpace(name))
	cleaned = strings.ReplaceAll(cleaned, " ", "_")
	cleaned = strings.ReplaceAll(cleaned, "-", "_")

	if domain.IsValidDocumentType(domain.DocumentType(cleaned)) {
		return domain.DocumentType(cleaned)
	}
	if mapped, ok := typeSynonyms[cleaned]; ok {
		return mapped
	}
	return domain.DocTypeUnknown
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
