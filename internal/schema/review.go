package schema

import (
	"sort"
	"strings"

	"github.com/caredocs/docintel/internal/domain"
)

// ReviewPolicy decides when an extraction needs a human look before the data
// is trusted downstream.
type ReviewPolicy struct {
	// ReviewThreshold is the minimum acceptable overall confidence.
	ReviewThreshold float64
	// FieldConfidenceThreshold is the minimum acceptable per-field confidence
	// for critical fields.
	FieldConfidenceThreshold float64
	// CriticalFields are dotted paths (or path fragments) whose low
	// confidence alone triggers review.
	CriticalFields []string
}

// ShouldRequireReview applies the review policy to one extraction outcome.
// Review is required when any of these hold:
//   - overall confidence is below the review threshold
//   - a critical field was extracted with confidence below the field threshold
//   - validation produced a hard error or a HIGH severity warning
func (p ReviewPolicy) ShouldRequireReview(
	overallConfidence float64,
	fieldConfidences map[string]float64,
	validationErrors []domain.ValidationError,
	warnings []domain.ValidationWarning,
) bool {
	if overallConfidence < p.ReviewThreshold {
		return true
	}
	if len(validationErrors) > 0 {
		return true
	}
	for _, w := range warnings {
		if w.Severity == domain.SeverityHigh {
			return true
		}
	}
	for path, conf := range fieldConfidences {
		if conf >= p.FieldConfidenceThreshold {
			continue
		}
		for _, critical := range p.CriticalFields {
			if strings.Contains(path, critical) {
				return true
			}
		}
	}
	return false
}

// LowConfidenceFields returns the field paths whose confidence is below the
// field threshold, for surfacing in extraction metadata.
func (p ReviewPolicy) LowConfidenceFields(fieldConfidences map[string]float64) []string {
	var low []string
	for path, conf := range fieldConfidences {
		if conf < p.FieldConfidenceThreshold {
			low = append(low, path)
		}
	}
	sort.Strings(low)
	return low
}
