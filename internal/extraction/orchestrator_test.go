package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/llm"
	"github.com/caredocs/docintel/internal/logger"
)

// scriptedProvider replays responses in order; an empty entry means the call
// fails.
type scriptedProvider struct {
	responses []string
	calls     int
	lastUser  string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req *llm.Request) (string, error) {
	p.lastUser = req.User
	if p.calls >= len(p.responses) {
		p.calls++
		return "", errors.New("no scripted response")
	}
	resp := p.responses[p.calls]
	p.calls++
	if resp == "" {
		return "", errors.New("scripted failure")
	}
	return resp, nil
}

func testConfig() config.ExtractionConfig {
	return config.ExtractionConfig{
		MaxRetries:               2,
		RetryBaseDelay:           time.Millisecond,
		FieldConfidenceThreshold: 0.6,
		ReviewThreshold:          0.7,
		CriticalFields:           []string{"patient.name", "patient.dateOfBirth"},
	}
}

func labOcrResult() *domain.OcrResult {
	return &domain.OcrResult{
		Engine:  domain.OcrEngineTextract,
		RawText: "LABORATORY REPORT\nPatient: Jane Doe",
	}
}

const labExtractionResponse = `{
	"extracted_data": {
		"patient": {"name": "Jane Doe", "dateOfBirth": "03/15/1958", "gender": "F"},
		"panels": [{
			"name": "CBC",
			"results": [{"testName": "WBC", "value": "12.1", "unit": "K/uL", "referenceRange": "4.0-11.0", "flag": "H"}]
		}]
	},
	"field_confidences": {
		"patient.name": 0.95,
		"patient.dateOfBirth": 0.9,
		"panels": 0.85
	},
	"extraction_notes": "clean scan"
}`

func TestExtractSuccess(t *testing.T) {
	provider := &scriptedProvider{responses: []string{labExtractionResponse}}
	e := NewExtractor(provider, testConfig(), logger.New(nil))

	result, err := e.Extract(context.Background(), domain.DocTypeLabResult, labOcrResult())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if result.ExtractionMethod != domain.ExtractionMethodLLM {
		t.Errorf("ExtractionMethod = %s, want %s", result.ExtractionMethod, domain.ExtractionMethodLLM)
	}
	want := (0.95 + 0.9 + 0.85) / 3
	if diff := result.OverallConfidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("OverallConfidence = %f, want %f", result.OverallConfidence, want)
	}
	if result.RequiresReview {
		t.Error("RequiresReview = true for a confident extraction")
	}

	lab, ok := result.ExtractedData.(*domain.LabResultData)
	if !ok {
		t.Fatalf("ExtractedData is %T, want *domain.LabResultData", result.ExtractedData)
	}
	if lab.Patient.Name != "Jane Doe" {
		t.Errorf("patient name = %q", lab.Patient.Name)
	}
	// Normalization rewrote the date and gender before decoding.
	if lab.Patient.DateOfBirth != "1958-03-15" {
		t.Errorf("dateOfBirth = %q, want 1958-03-15", lab.Patient.DateOfBirth)
	}
	if len(lab.Panels) != 1 || len(lab.Panels[0].Results) != 1 {
		t.Fatalf("panels = %+v", lab.Panels)
	}
	if flag := lab.Panels[0].Results[0].Flag; flag != "HIGH" {
		t.Errorf("flag = %q, want HIGH", flag)
	}
	if lab.Metadata.OverallConfidence != result.OverallConfidence {
		t.Errorf("metadata confidence = %f, want %f", lab.Metadata.OverallConfidence, result.OverallConfidence)
	}
	if len(lab.Metadata.EnginesUsed) != 1 || lab.Metadata.EnginesUsed[0] != "textract" {
		t.Errorf("EnginesUsed = %v", lab.Metadata.EnginesUsed)
	}
	if lab.Metadata.ExtractionNotes != "clean scan" {
		t.Errorf("ExtractionNotes = %q", lab.Metadata.ExtractionNotes)
	}
}

func TestExtractRetriesThenSucceeds(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"", "not json at all", labExtractionResponse}}
	e := NewExtractor(provider, testConfig(), logger.New(nil))

	result, err := e.Extract(context.Background(), domain.DocTypeLabResult, labOcrResult())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}
	if result.ExtractionMethod != domain.ExtractionMethodLLM {
		t.Errorf("ExtractionMethod = %s, want %s", result.ExtractionMethod, domain.ExtractionMethodLLM)
	}
}

func TestExtractSynthesizesOnExhaustedRetries(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"", "", ""}}
	e := NewExtractor(provider, testConfig(), logger.New(nil))

	result, err := e.Extract(context.Background(), domain.DocTypeLabResult, labOcrResult())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3 (1 initial + 2 retries)", provider.calls)
	}
	if result.ExtractionMethod != domain.ExtractionMethodSynthetic {
		t.Errorf("ExtractionMethod = %s, want %s", result.ExtractionMethod, domain.ExtractionMethodSynthetic)
	}
	if result.OverallConfidence != 0 {
		t.Errorf("OverallConfidence = %f, want 0", result.OverallConfidence)
	}
	if !result.RequiresReview {
		t.Error("RequiresReview = false, want true")
	}
	if len(result.ValidationWarnings) != 1 || result.ValidationWarnings[0].Severity != domain.SeverityHigh {
		t.Errorf("ValidationWarnings = %+v, want one HIGH warning", result.ValidationWarnings)
	}
	if _, ok := result.ExtractedData.(*domain.LabResultData); !ok {
		t.Errorf("synthesized payload is %T, want *domain.LabResultData", result.ExtractedData)
	}
}

func TestExtractHandlesFencedResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"```json\n" + labExtractionResponse + "\n```"}}
	e := NewExtractor(provider, testConfig(), logger.New(nil))

	result, err := e.Extract(context.Background(), domain.DocTypeLabResult, labOcrResult())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result.ExtractionMethod != domain.ExtractionMethodLLM {
		t.Errorf("ExtractionMethod = %s, want %s", result.ExtractionMethod, domain.ExtractionMethodLLM)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestExtractValidationFailureSynthesizes(t *testing.T) {
	// Missing patient.name and panels: hard validation errors replace the
	// payload with the minimal typed structure.
	provider := &scriptedProvider{responses: []string{`{
		"extracted_data": {"provider": {"name": "Dr. Smith"}},
		"field_confidences": {"provider.name": 0.9}
	}`}}
	e := NewExtractor(provider, testConfig(), logger.New(nil))

	result, err := e.Extract(context.Background(), domain.DocTypeLabResult, labOcrResult())
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result.ExtractionMethod != domain.ExtractionMethodSynthetic {
		t.Errorf("ExtractionMethod = %s, want %s", result.ExtractionMethod, domain.ExtractionMethodSynthetic)
	}
	if len(result.ValidationErrors) == 0 {
		t.Fatal("expected validation errors for missing required fields")
	}
	foundMissing := false
	for _, ve := range result.ValidationErrors {
		if ve.Code == domain.ValidationMissingRequired {
			foundMissing = true
		}
	}
	if !foundMissing {
		t.Errorf("ValidationErrors = %+v, want a MISSING_REQUIRED error", result.ValidationErrors)
	}
	if !result.RequiresReview {
		t.Error("RequiresReview = false, want true when validation failed")
	}
	if result.OverallConfidence != 0 {
		t.Errorf("OverallConfidence = %f, want 0", result.OverallConfidence)
	}
	lab, ok := result.ExtractedData.(*domain.LabResultData)
	if !ok {
		t.Fatalf("ExtractedData is %T", result.ExtractedData)
	}
	if lab.Provider.Name != "" {
		t.Errorf("provider name = %q, want empty synthesized structure", lab.Provider.Name)
	}
}

func TestExtractCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{responses: []string{""}}
	e := NewExtractor(provider, testConfig(), logger.New(nil))

	_, err := e.Extract(ctx, domain.DocTypeLabResult, labOcrResult())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBuildDocumentContent(t *testing.T) {
	ocrResult := &domain.OcrResult{
		RawText: "PATIENT VISIT SUMMARY",
		Tables: []domain.OcrTable{{
			RowCount:    1,
			ColumnCount: 2,
			Cells: []domain.OcrTableCell{
				{RowIndex: 1, ColumnIndex: 1, Text: "Test"},
				{RowIndex: 1, ColumnIndex: 2, Text: "Result"},
			},
		}},
		KeyValuePairs: []domain.KeyValuePair{
			{Key: "Member ID", Value: "XYZ123"},
		},
	}

	content := BuildDocumentContent(ocrResult)
	if !strings.HasPrefix(content, "PATIENT VISIT SUMMARY") {
		t.Errorf("content does not start with raw text: %q", content)
	}
	if !strings.Contains(content, "[Tables]\n| Test | Result |") {
		t.Errorf("tables section missing: %q", content)
	}
	if !strings.Contains(content, "[Form Fields]\nMember ID: XYZ123") {
		t.Errorf("form fields section missing: %q", content)
	}
}

func TestBuildDocumentContentTruncates(t *testing.T) {
	ocrResult := &domain.OcrResult{RawText: strings.Repeat("x", maxContentChars+500)}
	if got := len(BuildDocumentContent(ocrResult)); got != maxContentChars {
		t.Errorf("content length = %d, want %d", got, maxContentChars)
	}
}

func TestMeanConfidence(t *testing.T) {
	if got := meanConfidence(nil); got != defaultConfidence {
		t.Errorf("meanConfidence(nil) = %f, want %f", got, defaultConfidence)
	}
	if got := meanConfidence(map[string]float64{"a": 0.4, "b": 0.6}); got != 0.5 {
		t.Errorf("meanConfidence = %f, want 0.5", got)
	}
}
