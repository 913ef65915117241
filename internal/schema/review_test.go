package schema

import (
	"testing"

	"github.com/caredocs/docintel/internal/domain"
)

func defaultPolicy() ReviewPolicy {
	return ReviewPolicy{
		ReviewThreshold:          0.7,
		FieldConfidenceThreshold: 0.6,
		CriticalFields:           []string{"patient.name", "patient.dateOfBirth"},
	}
}

func TestShouldRequireReview(t *testing.T) {
	testCases := []struct {
		name       string
		overall    float64
		fields     map[string]float64
		errors     []domain.ValidationError
		warnings   []domain.ValidationWarning
		wantReview bool
	}{
		{
			name:       "confident extraction passes",
			overall:    0.9,
			fields:     map[string]float64{"patient.name": 0.95, "patient.dateOfBirth": 0.9},
			wantReview: false,
		},
		{
			name:       "overall below threshold",
			overall:    0.65,
			fields:     map[string]float64{"patient.name": 0.95},
			wantReview: true,
		},
		{
			name:       "overall exactly at threshold passes",
			overall:    0.7,
			fields:     map[string]float64{"patient.name": 0.95},
			wantReview: false,
		},
		{
			name:       "critical field below field threshold",
			overall:    0.9,
			fields:     map[string]float64{"patient.name": 0.4, "impression": 0.95},
			wantReview: true,
		},
		{
			name:       "non-critical field below threshold passes",
			overall:    0.9,
			fields:     map[string]float64{"patient.name": 0.95, "facility.phone": 0.3},
			wantReview: false,
		},
		{
			name:       "validation error forces review",
			overall:    0.9,
			fields:     map[string]float64{"patient.name": 0.95},
			errors:     []domain.ValidationError{{Field: "panels", Code: domain.ValidationMissingRequired}},
			wantReview: true,
		},
		{
			name:       "high severity warning forces review",
			overall:    0.9,
			fields:     map[string]float64{"patient.name": 0.95},
			warnings:   []domain.ValidationWarning{{Field: "", Severity: domain.SeverityHigh}},
			wantReview: true,
		},
		{
			name:       "low severity warning does not force review",
			overall:    0.9,
			fields:     map[string]float64{"patient.name": 0.95},
			warnings:   []domain.ValidationWarning{{Field: "provider.name", Severity: domain.SeverityLow}},
			wantReview: false,
		},
	}

	policy := defaultPolicy()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.ShouldRequireReview(tc.overall, tc.fields, tc.errors, tc.warnings)
			if got != tc.wantReview {
				t.Errorf("ShouldRequireReview = %v, want %v", got, tc.wantReview)
			}
		})
	}
}

func TestLowConfidenceFields(t *testing.T) {
	policy := defaultPolicy()
	got := policy.LowConfidenceFields(map[string]float64{
		"patient.name":   0.95,
		"facility.phone": 0.3,
		"impression":     0.55,
	})

	want := []string{"facility.phone", "impression"}
	if len(got) != len(want) {
		t.Fatalf("LowConfidenceFields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LowConfidenceFields[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
