package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/logger"
)

// Orchestrator picks an engine per document, falls back when the preferred
// engine is unavailable or fails, and optionally runs both engines in
// ensemble mode.
type Orchestrator struct {
	engines  map[domain.OcrEngine]Engine
	primary  domain.OcrEngine
	fallback domain.OcrEngine
	ensemble bool
	timeout  time.Duration
	log      *logger.Logger
}

// NewOrchestrator wires the configured engines into an orchestrator.
func NewOrchestrator(cfg config.OCRConfig, engines []Engine, log *logger.Logger) *Orchestrator {
	byName := make(map[domain.OcrEngine]Engine, len(engines))
	for _, e := range engines {
		byName[e.Name()] = e
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Orchestrator{
		engines:  byName,
		primary:  domain.OcrEngine(cfg.PrimaryEngine),
		fallback: domain.OcrEngine(cfg.FallbackEngine),
		ensemble: cfg.EnsembleEnabled,
		timeout:  timeout,
		log:      log.WithField(logger.FieldComponent, "ocr"),
	}
}

// Run performs OCR on the document, applying the engine selection policy.
//
// Selection: Textract is preferred when the uploader hinted LAB_RESULT or
// tables are expected, because its table reconstruction is stronger on dense
// lab grids. Otherwise the configured primary engine goes first. Any engine
// that is unavailable or fails is skipped in favor of the next one.
func (o *Orchestrator) Run(ctx context.Context, content []byte, mimeType string, opts Options) (*domain.OcrResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	order := o.selectOrder(opts)

	if o.ensemble {
		if result, err := o.runEnsemble(ctx, order, content, mimeType, opts); err == nil {
			return result, nil
		}
		// Ensemble found no usable engine pair; fall through to sequential.
	}

	var lastErr error
	for _, name := range order {
		engine, ok := o.engines[name]
		if !ok {
			continue
		}
		if !engine.IsAvailable() {
			o.log.WithField(logger.FieldEngine, string(name)).Debug("engine unavailable, skipping")
			continue
		}

		result, err := engine.Process(ctx, content, mimeType, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			o.log.WithError(err).WithField(logger.FieldEngine, string(name)).Warn("engine failed, trying next")
			continue
		}
		return result, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w (tried %s): %v", ErrNoEngineAvailable, engineNames(order), lastErr)
	}
	return nil, fmt.Errorf("%w (configured %s)", ErrNoEngineAvailable, engineNames(order))
}

func engineNames(order []domain.OcrEngine) string {
	if len(order) == 0 {
		return "none"
	}
	names := make([]string, len(order))
	for i, n := range order {
		names[i] = string(n)
	}
	return strings.Join(names, ", ")
}

// selectOrder returns the engine preference order for this document.
func (o *Orchestrator) selectOrder(opts Options) []domain.OcrEngine {
	preferTextract := opts.DocumentTypeHint == domain.DocTypeLabResult || opts.ExpectTables
	if preferTextract && o.primary != domain.OcrEngineTextract {
		if _, ok := o.engines[domain.OcrEngineTextract]; ok {
			return dedupeEngines([]domain.OcrEngine{domain.OcrEngineTextract, o.primary, o.fallback})
		}
	}
	return dedupeEngines([]domain.OcrEngine{o.primary, o.fallback})
}

// runEnsemble runs the first two available engines and keeps the result with
// the higher overall confidence. A single engine failing is tolerated; both
// failing is an error so the caller falls back to sequential selection.
func (o *Orchestrator) runEnsemble(ctx context.Context, order []domain.OcrEngine, content []byte, mimeType string, opts Options) (*domain.OcrResult, error) {
	type outcome struct {
		result *domain.OcrResult
		err    error
	}

	var available []Engine
	for _, name := range order {
		if e, ok := o.engines[name]; ok && e.IsAvailable() {
			available = append(available, e)
		}
	}
	if len(available) < 2 {
		return nil, ErrNoEngineAvailable
	}
	available = available[:2]

	outcomes := make([]outcome, len(available))
	done := make(chan int, len(available))
	for i, e := range available {
		go func(i int, e Engine) {
			r, err := e.Process(ctx, content, mimeType, opts)
			outcomes[i] = outcome{result: r, err: err}
			done <- i
		}(i, e)
	}
	for range available {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
		}
	}

	var results []*domain.OcrResult
	for i, oc := range outcomes {
		if oc.err != nil {
			o.log.WithError(oc.err).
				WithField(logger.FieldEngine, string(available[i].Name())).
				Warn("ensemble engine failed")
			continue
		}
		results = append(results, oc.result)
	}

	switch len(results) {
	case 0:
		return nil, ErrNoEngineAvailable
	case 1:
		return results[0], nil
	}

	agreement := textAgreement(results[0].RawText, results[1].RawText)
	best := results[0]
	if results[1].OverallConfidence > best.OverallConfidence {
		best = results[1]
	}
	o.log.WithFields(logger.Fields{
		"agreement":            agreement,
		"chosen_engine":        string(best.Engine),
		logger.FieldConfidence: best.OverallConfidence,
	}).Info("ensemble comparison complete")

	return best, nil
}

func dedupeEngines(names []domain.OcrEngine) []domain.OcrEngine {
	seen := map[domain.OcrEngine]bool{}
	var out []domain.OcrEngine
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// textAgreement is the Jaccard similarity of the word sets of two transcripts.
// It is a coarse signal for how much two engines agree on a document.
func textAgreement(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = true
	}
	return set
}
