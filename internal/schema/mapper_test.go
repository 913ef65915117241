package schema

import (
	"encoding/json"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/caredocs/docintel/internal/domain"
)

func TestValidateAndNormalizeMissingRequired(t *testing.T) {
	testCases := []struct {
		name      string
		docType   domain.DocumentType
		payload   string
		wantField string
	}{
		{
			name:      "lab result without patient name",
			docType:   domain.DocTypeLabResult,
			payload:   `{"patient":{"name":""},"panels":[{"name":"CBC","results":[]}]}`,
			wantField: "patient.name",
		},
		{
			name:      "lab result with empty panels",
			docType:   domain.DocTypeLabResult,
			payload:   `{"patient":{"name":"Jane Doe"},"panels":[]}`,
			wantField: "panels",
		},
		{
			name:      "discharge summary without discharge date",
			docType:   domain.DocTypeDischargeSummary,
			payload:   `{"patient":{"name":"Jane Doe"},"admissionDate":"2024-01-02"}`,
			wantField: "dischargeDate",
		},
		{
			name:      "insurance card without member id",
			docType:   domain.DocTypeInsuranceCard,
			payload:   `{"patient":{"name":"Jane Doe"},"insurer":"Acme Health"}`,
			wantField: "memberId",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateAndNormalize(tc.docType, json.RawMessage(tc.payload))
			if result.Valid() {
				t.Fatal("expected validation errors, got none")
			}
			if result.Normalized != nil {
				t.Error("normalized output should be suppressed when validation fails")
			}

			found := false
			for _, e := range result.Errors {
				if e.Field == tc.wantField && e.Code == domain.ValidationMissingRequired {
					found = true
				}
			}
			if !found {
				t.Errorf("expected MISSING_REQUIRED error for %q, got %+v", tc.wantField, result.Errors)
			}
		})
	}
}

func TestValidateAndNormalizeParseError(t *testing.T) {
	result := ValidateAndNormalize(domain.DocTypeLabResult, json.RawMessage(`{not json`))
	if result.Valid() {
		t.Fatal("expected a parse error")
	}
	if result.Errors[0].Code != domain.ValidationParseError {
		t.Errorf("code = %s, want %s", result.Errors[0].Code, domain.ValidationParseError)
	}
}

func TestValidateAndNormalizeRewritesDatesAndEnums(t *testing.T) {
	payload := `{
		"patient": {"name": "John Smith", "dateOfBirth": "03/15/1958", "gender": "M"},
		"provider": {"name": "Dr. Lee"},
		"facility": {"name": "City Hospital"},
		"collectionDate": "January 5, 2024",
		"reportDate": "2024-01-06",
		"panels": [
			{"name": "CBC", "results": [
				{"testName": "WBC", "value": "12.1", "unit": "x10^3/uL", "flag": "H"},
				{"testName": "HGB", "value": "11.0", "unit": "g/dL", "flag": "l"}
			]}
		]
	}`

	result := ValidateAndNormalize(domain.DocTypeLabResult, json.RawMessage(payload))
	if !result.Valid() {
		t.Fatalf("unexpected validation errors: %+v", result.Errors)
	}

	normalized := gjson.ParseBytes(result.Normalized)
	checks := map[string]string{
		"patient.dateOfBirth":         "1958-03-15",
		"patient.gender":              "MALE",
		"collectionDate":              "2024-01-05",
		"reportDate":                  "2024-01-06",
		"panels.0.results.0.flag":     "HIGH",
		"panels.0.results.1.flag":     "LOW",
		"panels.0.results.0.testName": "WBC",
	}
	for path, want := range checks {
		if got := normalized.Get(path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestValidateAndNormalizeWarnings(t *testing.T) {
	payload := `{
		"patient": {"name": "Jane Doe", "dateOfBirth": "sometime in spring"},
		"prescriber": {"name": "xxx"},
		"pharmacy": {"name": "Corner Pharmacy"},
		"medications": [{"name": "Lisinopril", "route": "somehow"}]
	}`

	result := ValidateAndNormalize(domain.DocTypePrescription, json.RawMessage(payload))
	if !result.Valid() {
		t.Fatalf("unexpected validation errors: %+v", result.Errors)
	}

	wantWarnings := map[string]domain.WarningSeverity{
		"patient.dateOfBirth": domain.SeverityMedium, // unparseable date
		"prescriber.name":     domain.SeverityLow,    // placeholder
		"medications.0.route": domain.SeverityLow,    // unknown enum value
	}
	for field, severity := range wantWarnings {
		found := false
		for _, w := range result.Warnings {
			if w.Field == field && w.Severity == severity {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %s warning for %q, got %+v", severity, field, result.Warnings)
		}
	}

	// Unparseable values must survive untouched.
	if got := gjson.GetBytes(result.Normalized, "patient.dateOfBirth").String(); got != "sometime in spring" {
		t.Errorf("unparseable date was modified: %q", got)
	}
}

func TestValidateAndNormalizeIdempotent(t *testing.T) {
	payload := `{
		"patient": {"name": "John Smith", "dateOfBirth": "03/15/1958", "gender": "m"},
		"insurer": "Acme Health",
		"memberId": "ABC123",
		"effectiveDate": "07/01/24"
	}`

	first := ValidateAndNormalize(domain.DocTypeInsuranceCard, json.RawMessage(payload))
	if !first.Valid() {
		t.Fatalf("unexpected validation errors: %+v", first.Errors)
	}
	second := ValidateAndNormalize(domain.DocTypeInsuranceCard, first.Normalized)
	if !second.Valid() {
		t.Fatalf("second pass produced errors: %+v", second.Errors)
	}
	if string(first.Normalized) != string(second.Normalized) {
		t.Errorf("normalization not idempotent:\nfirst:  %s\nsecond: %s", first.Normalized, second.Normalized)
	}
}

func TestValidateAndNormalizePatientNameCasing(t *testing.T) {
	payload := []byte(`{"patient":{"name":"JOHN SMITH"},"panels":[{"name":"CBC","results":[]}]}`)

	result := ValidateAndNormalize(domain.DocTypeLabResult, payload)
	if !result.Valid() {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if got := gjson.GetBytes(result.Normalized, "patient.name").Str; got != "John Smith" {
		t.Errorf("patient.name = %q, want John Smith", got)
	}
	// Other name fields keep their casing.
	if got := gjson.GetBytes(result.Normalized, "panels.0.name").Str; got != "CBC" {
		t.Errorf("panels.0.name = %q, want CBC", got)
	}
}
