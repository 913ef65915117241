package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/llm"
	"github.com/caredocs/docintel/internal/logger"
)

const dischargeSummaryText = `
DISCHARGE SUMMARY

Patient: John Smith   MRN: 123456
Admission Date: 01/02/2024    Discharge Date: 01/07/2024
Admitting Diagnosis: Community-acquired pneumonia
Discharge Diagnosis: Resolved pneumonia

HOSPITAL COURSE:
The patient was admitted through the emergency department and started on
IV antibiotics. He improved steadily and was transitioned to oral therapy.

DISCHARGE MEDICATIONS:
1. Amoxicillin 875mg PO BID x 7 days

DISCHARGE DISPOSITION: Home
Discharge Condition: Stable
Follow up with primary care in one week.
`

const labResultText = `
LABORATORY REPORT
Specimen: Whole blood    Collected: 01/05/2024

Test Name        Result    Reference Range   Flag
WBC              12.1      4.0-11.0          H
Hemoglobin       11.0      13.5-17.5         L
Platelet Count   250       150-400
Glucose          98 mg/dL  70-99
`

func TestClassifyByPatterns(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		wantType domain.DocumentType
	}{
		{name: "discharge summary", text: dischargeSummaryText, wantType: domain.DocTypeDischargeSummary},
		{name: "lab result", text: labResultText, wantType: domain.DocTypeLabResult},
		{
			name:     "prescription",
			text:     "Rx: Lisinopril 10mg\nSig: one tablet PO daily\nDispense: #30\nRefills: 3\nDEA# AB1234567",
			wantType: domain.DocTypePrescription,
		},
		{
			name:     "radiology report",
			text:     "CHEST X-RAY\nTECHNIQUE: PA and lateral views.\nFINDINGS: Lungs are clear.\nIMPRESSION: No acute cardiopulmonary process.",
			wantType: domain.DocTypeRadiologyReport,
		},
		{
			name:     "insurance card",
			text:     "Acme Health PPO\nMember ID: XYZ123\nGroup Number: 554\nRxBIN: 610014\nRxPCN: A4\nCopay: $20 PCP",
			wantType: domain.DocTypeInsuranceCard,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ClassifyByPatterns(tc.text)
			if result.DocumentType != tc.wantType {
				t.Errorf("DocumentType = %s, want %s (matched: %v)",
					result.DocumentType, tc.wantType, result.MatchedPatterns)
			}
			if result.Method != domain.ClassificationPatternMatch {
				t.Errorf("Method = %s, want %s", result.Method, domain.ClassificationPatternMatch)
			}
			if result.Confidence <= 0.5 {
				t.Errorf("Confidence = %.2f, want > 0.5", result.Confidence)
			}
		})
	}
}

// TestClassifyByPatternsDistinctiveDocumentIsConfident verifies that a
// document loaded with type-specific section headers clears the threshold
// that gates the LLM fallback.
func TestClassifyByPatternsDistinctiveDocumentIsConfident(t *testing.T) {
	result := ClassifyByPatterns(dischargeSummaryText)
	if result.Confidence < 0.75 {
		t.Errorf("Confidence = %.2f, want >= 0.75 for a distinctive discharge summary", result.Confidence)
	}
}

func TestClassifyByPatternsNoMatch(t *testing.T) {
	result := ClassifyByPatterns("the quick brown fox jumps over the lazy dog")
	if result.DocumentType != domain.DocTypeUnknown {
		t.Errorf("DocumentType = %s, want %s", result.DocumentType, domain.DocTypeUnknown)
	}
	if result.Confidence != 0 {
		t.Errorf("Confidence = %.2f, want 0", result.Confidence)
	}
}

// TestClassifyByPatternsConfidenceGrowsWithEvidence verifies that more
// matching evidence never lowers confidence.
func TestClassifyByPatternsConfidenceGrowsWithEvidence(t *testing.T) {
	weak := ClassifyByPatterns("reference range")
	strong := ClassifyByPatterns(labResultText)

	if weak.DocumentType != domain.DocTypeLabResult || strong.DocumentType != domain.DocTypeLabResult {
		t.Fatalf("both samples should classify as LAB_RESULT, got %s and %s",
			weak.DocumentType, strong.DocumentType)
	}
	if strong.Confidence < weak.Confidence {
		t.Errorf("confidence dropped with more evidence: weak=%.2f strong=%.2f",
			weak.Confidence, strong.Confidence)
	}
}

func TestClassifyByPatternsAlternatives(t *testing.T) {
	// Labs quoted inside a discharge summary should surface LAB_RESULT as an
	// alternative, not win outright.
	mixed := dischargeSummaryText + "\nLabs on admission: WBC 14.2 (reference range 4.0-11.0), hemoglobin 12.8."
	result := ClassifyByPatterns(mixed)

	if result.DocumentType != domain.DocTypeDischargeSummary {
		t.Fatalf("DocumentType = %s, want %s", result.DocumentType, domain.DocTypeDischargeSummary)
	}
	if len(result.AlternativeTypes) == 0 {
		t.Fatal("expected alternative types")
	}
	if len(result.AlternativeTypes) > 3 {
		t.Errorf("alternatives = %d, want at most 3", len(result.AlternativeTypes))
	}
	found := false
	for _, alt := range result.AlternativeTypes {
		if alt.DocumentType == domain.DocTypeLabResult {
			found = true
		}
	}
	if !found {
		t.Errorf("expected LAB_RESULT among alternatives, got %+v", result.AlternativeTypes)
	}
}

func TestNormalizeTypeName(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  domain.DocumentType
	}{
		{name: "canonical passes through", input: "LAB_RESULT", want: domain.DocTypeLabResult},
		{name: "lowercase canonical", input: "lab_result", want: domain.DocTypeLabResult},
		{name: "spaces become underscores", input: "discharge summary", want: domain.DocTypeDischargeSummary},
		{name: "hyphens become underscores", input: "history-and-physical", want: domain.DocTypeHistoryAndPhysical},
		{name: "synonym labs", input: "LABS", want: domain.DocTypeLabResult},
		{name: "synonym rx", input: "Rx", want: domain.DocTypePrescription},
		{name: "synonym eob", input: "EOB", want: domain.DocTypeMedicalBill},
		{name: "garbage becomes unknown", input: "SHOPPING_LIST", want: domain.DocTypeUnknown},
		{name: "empty becomes unknown", input: "", want: domain.DocTypeUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeTypeName(tc.input); got != tc.want {
				t.Errorf("normalizeTypeName(%q) = %s, want %s", tc.input, got, tc.want)
			}
		})
	}
}

// cannedProvider replays a fixed completion and records the last prompt.
type cannedProvider struct {
	response string
	lastUser string
	calls    int
}

func (p *cannedProvider) Name() string { return "canned" }

func (p *cannedProvider) Complete(ctx context.Context, req *llm.Request) (string, error) {
	p.calls++
	p.lastUser = req.User
	return p.response, nil
}

// errProvider always fails.
type errProvider struct {
	calls int
}

func (p *errProvider) Name() string { return "err" }

func (p *errProvider) Complete(ctx context.Context, req *llm.Request) (string, error) {
	p.calls++
	return "", errors.New("provider unavailable")
}

func TestClassifierKeepsPatternResultOnLLMFailure(t *testing.T) {
	// Ambiguous text forces the fallback path; a failing provider must leave
	// the pattern result in place.
	log := logger.New(nil)
	fallback := NewLLMFallback(&errProvider{}, log)
	c := New(config.ClassificationConfig{
		PatternConfidenceThreshold: 0.75,
		LLMFallbackEnabled:         true,
	}, fallback, log)

	result, err := c.Classify(context.Background(), "glucose result pending", "")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Method != domain.ClassificationPatternMatch {
		t.Errorf("Method = %s, want %s", result.Method, domain.ClassificationPatternMatch)
	}
}

func TestClassifierSkipsFallbackWhenConfident(t *testing.T) {
	log := logger.New(nil)
	provider := &errProvider{}
	c := New(config.ClassificationConfig{
		PatternConfidenceThreshold: 0.75,
		LLMFallbackEnabled:         true,
	}, NewLLMFallback(provider, log), log)

	result, err := c.Classify(context.Background(), dischargeSummaryText, "")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("LLM called %d times for a confident pattern match, want 0", provider.calls)
	}
	if result.DocumentType != domain.DocTypeDischargeSummary {
		t.Errorf("DocumentType = %s, want %s", result.DocumentType, domain.DocTypeDischargeSummary)
	}
}

func TestLLMFallbackParsesResponse(t *testing.T) {
	log := logger.New(nil)
	provider := &cannedProvider{response: `{
		"document_type": "imaging report",
		"confidence": 0.88,
		"reasoning": "Findings and impression sections describe a CT study.",
		"alternative_types": [{"document_type": "PROGRESS_NOTE", "confidence": 0.08}]
	}`}
	fallback := NewLLMFallback(provider, log)

	result, err := fallback.Classify(context.Background(), "some ambiguous text", "")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.DocumentType != domain.DocTypeRadiologyReport {
		t.Errorf("DocumentType = %s, want %s", result.DocumentType, domain.DocTypeRadiologyReport)
	}
	if result.Method != domain.ClassificationLLM {
		t.Errorf("Method = %s, want %s", result.Method, domain.ClassificationLLM)
	}
	if result.Confidence != 0.88 {
		t.Errorf("Confidence = %.2f, want 0.88", result.Confidence)
	}
	if len(result.AlternativeTypes) != 1 || result.AlternativeTypes[0].DocumentType != domain.DocTypeProgressNote {
		t.Errorf("AlternativeTypes = %+v", result.AlternativeTypes)
	}
}

func TestLLMFallbackStripsCodeFences(t *testing.T) {
	log := logger.New(nil)
	provider := &cannedProvider{response: "```json\n{\"document_type\":\"LAB_RESULT\",\"confidence\":0.9,\"reasoning\":\"\"}\n```"}
	fallback := NewLLMFallback(provider, log)

	result, err := fallback.Classify(context.Background(), "text", "")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.DocumentType != domain.DocTypeLabResult {
		t.Errorf("DocumentType = %s, want %s", result.DocumentType, domain.DocTypeLabResult)
	}
}

func TestLLMFallbackTruncatesLongText(t *testing.T) {
	log := logger.New(nil)
	provider := &cannedProvider{response: `{"document_type":"UNKNOWN","confidence":0.5,"reasoning":""}`}
	fallback := NewLLMFallback(provider, log)

	long := strings.Repeat("word ", maxClassificationChars)
	if _, err := fallback.Classify(context.Background(), long, ""); err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(provider.lastUser) > maxClassificationChars+1024 {
		t.Errorf("prompt not truncated: %d chars", len(provider.lastUser))
	}
}
