package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/logger"
)

// fakeEngine is a scriptable OCR engine for orchestrator tests.
type fakeEngine struct {
	name      domain.OcrEngine
	available bool
	result    *domain.OcrResult
	err       error
	calls     int
}

func (f *fakeEngine) Name() domain.OcrEngine { return f.name }
func (f *fakeEngine) IsAvailable() bool      { return f.available }

func (f *fakeEngine) Process(ctx context.Context, content []byte, mimeType string, opts Options) (*domain.OcrResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func azureFirstConfig() config.OCRConfig {
	return config.OCRConfig{
		PrimaryEngine:  "azure",
		FallbackEngine: "textract",
	}
}

func okResult(engine domain.OcrEngine, confidence float64) *domain.OcrResult {
	return &domain.OcrResult{
		Engine:            engine,
		RawText:           "patient visit summary",
		OverallConfidence: confidence,
	}
}

func TestRunUsesPrimaryEngine(t *testing.T) {
	azure := &fakeEngine{name: domain.OcrEngineAzure, available: true, result: okResult(domain.OcrEngineAzure, 0.9)}
	textract := &fakeEngine{name: domain.OcrEngineTextract, available: true, result: okResult(domain.OcrEngineTextract, 0.95)}
	o := NewOrchestrator(azureFirstConfig(), []Engine{azure, textract}, logger.New(nil))

	result, err := o.Run(context.Background(), []byte("doc"), "application/pdf", Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Engine != domain.OcrEngineAzure {
		t.Errorf("Engine = %s, want azure", result.Engine)
	}
	if textract.calls != 0 {
		t.Errorf("fallback engine called %d times, want 0", textract.calls)
	}
}

func TestRunFallsBackWhenPrimaryFails(t *testing.T) {
	azure := &fakeEngine{name: domain.OcrEngineAzure, available: true, err: errors.New("service error")}
	textract := &fakeEngine{name: domain.OcrEngineTextract, available: true, result: okResult(domain.OcrEngineTextract, 0.95)}
	o := NewOrchestrator(azureFirstConfig(), []Engine{azure, textract}, logger.New(nil))

	result, err := o.Run(context.Background(), []byte("doc"), "application/pdf", Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Engine != domain.OcrEngineTextract {
		t.Errorf("Engine = %s, want textract", result.Engine)
	}
	if azure.calls != 1 {
		t.Errorf("primary engine called %d times, want 1", azure.calls)
	}
}

func TestRunSkipsUnavailableEngine(t *testing.T) {
	azure := &fakeEngine{name: domain.OcrEngineAzure, available: false}
	textract := &fakeEngine{name: domain.OcrEngineTextract, available: true, result: okResult(domain.OcrEngineTextract, 0.95)}
	o := NewOrchestrator(azureFirstConfig(), []Engine{azure, textract}, logger.New(nil))

	result, err := o.Run(context.Background(), []byte("doc"), "application/pdf", Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Engine != domain.OcrEngineTextract {
		t.Errorf("Engine = %s, want textract", result.Engine)
	}
	if azure.calls != 0 {
		t.Errorf("unavailable engine called %d times, want 0", azure.calls)
	}
}

func TestRunNoEngineAvailable(t *testing.T) {
	testCases := []struct {
		name    string
		engines []Engine
	}{
		{name: "no engines configured", engines: nil},
		{
			name: "all unavailable",
			engines: []Engine{
				&fakeEngine{name: domain.OcrEngineAzure, available: false},
				&fakeEngine{name: domain.OcrEngineTextract, available: false},
			},
		},
		{
			name: "all failing",
			engines: []Engine{
				&fakeEngine{name: domain.OcrEngineAzure, available: true, err: errors.New("azure down")},
				&fakeEngine{name: domain.OcrEngineTextract, available: true, err: errors.New("textract down")},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := NewOrchestrator(azureFirstConfig(), tc.engines, logger.New(nil))
			_, err := o.Run(context.Background(), []byte("doc"), "application/pdf", Options{})
			if !errors.Is(err, ErrNoEngineAvailable) {
				t.Errorf("err = %v, want ErrNoEngineAvailable", err)
			}
		})
	}
}

func TestRunPrefersTextractForLabDocuments(t *testing.T) {
	testCases := []struct {
		name string
		opts Options
	}{
		{name: "lab result hint", opts: Options{DocumentTypeHint: domain.DocTypeLabResult}},
		{name: "tables expected", opts: Options{ExpectTables: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			azure := &fakeEngine{name: domain.OcrEngineAzure, available: true, result: okResult(domain.OcrEngineAzure, 0.9)}
			textract := &fakeEngine{name: domain.OcrEngineTextract, available: true, result: okResult(domain.OcrEngineTextract, 0.95)}
			o := NewOrchestrator(azureFirstConfig(), []Engine{azure, textract}, logger.New(nil))

			result, err := o.Run(context.Background(), []byte("doc"), "application/pdf", tc.opts)
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if result.Engine != domain.OcrEngineTextract {
				t.Errorf("Engine = %s, want textract preferred", result.Engine)
			}
			if azure.calls != 0 {
				t.Errorf("azure called %d times, want 0", azure.calls)
			}
		})
	}
}

func TestRunEnsemblePicksHigherConfidence(t *testing.T) {
	cfg := azureFirstConfig()
	cfg.EnsembleEnabled = true

	azure := &fakeEngine{name: domain.OcrEngineAzure, available: true, result: okResult(domain.OcrEngineAzure, 0.80)}
	textract := &fakeEngine{name: domain.OcrEngineTextract, available: true, result: okResult(domain.OcrEngineTextract, 0.93)}
	o := NewOrchestrator(cfg, []Engine{azure, textract}, logger.New(nil))

	result, err := o.Run(context.Background(), []byte("doc"), "application/pdf", Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Engine != domain.OcrEngineTextract {
		t.Errorf("Engine = %s, want the higher-confidence textract result", result.Engine)
	}
	if azure.calls != 1 || textract.calls != 1 {
		t.Errorf("calls = azure %d, textract %d, want both run once", azure.calls, textract.calls)
	}
}

func TestRunEnsembleToleratesOneFailure(t *testing.T) {
	cfg := azureFirstConfig()
	cfg.EnsembleEnabled = true

	azure := &fakeEngine{name: domain.OcrEngineAzure, available: true, err: errors.New("azure down")}
	textract := &fakeEngine{name: domain.OcrEngineTextract, available: true, result: okResult(domain.OcrEngineTextract, 0.93)}
	o := NewOrchestrator(cfg, []Engine{azure, textract}, logger.New(nil))

	result, err := o.Run(context.Background(), []byte("doc"), "application/pdf", Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Engine != domain.OcrEngineTextract {
		t.Errorf("Engine = %s, want textract", result.Engine)
	}
}

func TestRunEnsembleFallsBackToSequentialWithOneEngine(t *testing.T) {
	cfg := azureFirstConfig()
	cfg.EnsembleEnabled = true

	azure := &fakeEngine{name: domain.OcrEngineAzure, available: true, result: okResult(domain.OcrEngineAzure, 0.9)}
	o := NewOrchestrator(cfg, []Engine{azure}, logger.New(nil))

	result, err := o.Run(context.Background(), []byte("doc"), "application/pdf", Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Engine != domain.OcrEngineAzure {
		t.Errorf("Engine = %s, want azure", result.Engine)
	}
}

func TestTextAgreement(t *testing.T) {
	testCases := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "alpha beta gamma", b: "alpha beta gamma", want: 1},
		{name: "disjoint", a: "alpha beta", b: "gamma delta", want: 0},
		{name: "half overlap", a: "alpha beta", b: "beta gamma", want: 1.0 / 3.0},
		{name: "both empty", a: "", b: "", want: 1},
		{name: "case insensitive", a: "Alpha", b: "alpha", want: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := textAgreement(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("textAgreement(%q, %q) = %f, want %f", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
