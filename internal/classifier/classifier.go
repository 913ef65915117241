package classifier

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/caredocs/docintel/internal/config"
	"github.com/caredocs/docintel/internal/domain"
	"github.com/caredocs/docintel/internal/logger"
)

// typeScore is one type's pattern-match outcome.
type typeScore struct {
	docType    domain.DocumentType
	score      float64
	matched    []string
	confidence float64
}

// Classifier determines a document's type from its OCR text. Pattern matching
// runs first; the LLM fallback is consulted only when the pattern confidence
// is below the configured threshold.
type Classifier struct {
	threshold   float64
	llmFallback *LLMFallback
	log         *logger.Logger
}

// New creates a Classifier. llmFallback may be nil to disable the fallback.
func New(cfg config.ClassificationConfig, llmFallback *LLMFallback, log *logger.Logger) *Classifier {
	threshold := cfg.PatternConfidenceThreshold
	if threshold <= 0 {
		threshold = 0.75
	}
	if !cfg.LLMFallbackEnabled {
		llmFallback = nil
	}
	return &Classifier{
		threshold:   threshold,
		llmFallback: llmFallback,
		log:         log.WithField(logger.FieldComponent, "classifier"),
	}
}

// Classify determines the document type for the given OCR text. userHint is
// the uploader's claimed type ("" when absent); a mismatch between the hint
// and the classification is logged but never overrides the result.
func (c *Classifier) Classify(ctx context.Context, text string, userHint domain.DocumentType) (*domain.ClassificationResult, error) {
	patternResult := ClassifyByPatterns(text)

	result := patternResult
	if patternResult.Confidence < c.threshold && c.llmFallback != nil {
		llmResult, err := c.llmFallback.Classify(ctx, text, userHint)
		if err != nil {
			// The pattern result stands when the LLM is unreachable.
			c.log.WithError(err).Warn("llm classification failed, keeping pattern result")
		} else {
			result = llmResult
		}
	}

	if userHint != "" && userHint != result.DocumentType {
		c.log.WithFields(logger.Fields{
			"user_hint":  string(userHint),
			"classified": string(result.DocumentType),
		}).Warn("classification disagrees with uploader hint")
	}

	c.log.WithFields(logger.Fields{
		logger.FieldConfidence: result.Confidence,
		"document_type":        string(result.DocumentType),
		"method":               string(result.Method),
	}).Info("document classified")

	return result, nil
}

// ClassifyByPatterns scores every document type's pattern table against the
// text and returns the best match.
//
// Per-type score: sum over matched patterns of weight * log2(matchCount+1),
// so repeated hits help with diminishing returns. Confidence:
//
//	0.5 + 0.3*min(score/10, 1) + 0.2*(matchedPatterns/totalPatterns)
//
// capped at 0.99, or 0 when nothing matched. Ties go to the type that comes
// first in the canonical type order.
func ClassifyByPatterns(text string) *domain.ClassificationResult {
	lower := strings.ToLower(text)

	var scores []typeScore
	for _, docType := range domain.AllDocumentTypes {
		patterns, ok := typePatterns[docType]
		if !ok {
			continue
		}

		var score float64
		var matched []string
		for _, p := range patterns {
			count := strings.Count(lower, p.keyword)
			if count == 0 {
				continue
			}
			score += p.weight * math.Log2(float64(count)+1)
			matched = append(matched, p.keyword)
		}
		if score == 0 {
			continue
		}

		coverage := float64(len(matched)) / float64(len(patterns))
		confidence := 0.5 + 0.3*math.Min(score/10, 1) + 0.2*coverage
		if confidence > 0.99 {
			confidence = 0.99
		}

		scores = append(scores, typeScore{
			docType:    docType,
			score:      score,
			matched:    matched,
			confidence: confidence,
		})
	}

	if len(scores) == 0 {
		return &domain.ClassificationResult{
			DocumentType: domain.DocTypeUnknown,
			Confidence:   0,
			Method:       domain.ClassificationPatternMatch,
		}
	}

	// Stable sort keeps the canonical type order for equal scores.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	best := scores[0]
	result := &domain.ClassificationResult{
		DocumentType:    best.docType,
		Confidence:      best.confidence,
		Method:          domain.ClassificationPatternMatch,
		MatchedPatterns: best.matched,
	}
	for _, alt := range scores[1:] {
		result.AlternativeTypes = append(result.AlternativeTypes, domain.AlternativeType{
			DocumentType: alt.docType,
			Confidence:   alt.confidence,
		})
		if len(result.AlternativeTypes) == 3 {
			break
		}
	}

	return result
}
