package schema

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/caredocs/docintel/internal/domain"
)

// requiredFields lists the dotted paths that must be present and non-empty
// for each document type. Paths address the camelCase JSON shape the
// extraction prompt demands.
var requiredFields = map[domain.DocumentType][]string{
	domain.DocTypeLabResult:          {"patient.name", "panels"},
	domain.DocTypePrescription:       {"patient.name", "medications"},
	domain.DocTypeRadiologyReport:    {"patient.name", "studyType", "impression"},
	domain.DocTypeDischargeSummary:   {"patient.name", "admissionDate", "dischargeDate"},
	domain.DocTypeOperativeReport:    {"patient.name", "procedurePerformed"},
	domain.DocTypeConsultationNote:   {"patient.name", "reasonForConsult"},
	domain.DocTypeProgressNote:       {"patient.name", "assessment"},
	domain.DocTypePathologyReport:    {"patient.name", "diagnosis"},
	domain.DocTypeHistoryAndPhysical: {"patient.name", "chiefComplaint"},
	domain.DocTypeImmunizationRecord: {"patient.name", "immunizations"},
	domain.DocTypeInsuranceCard:      {"insurer", "memberId"},
	domain.DocTypeReferralLetter:     {"patient.name", "reason"},
	domain.DocTypeMedicalBill:        {"totalCharges"},
	domain.DocTypeUnknown:            {},
}

// Result is the outcome of validating and normalizing one extraction payload.
// Normalized is nil when validation produced hard errors.
type Result struct {
	Normalized json.RawMessage
	Errors     []domain.ValidationError
	Warnings   []domain.ValidationWarning
}

// Valid reports whether the payload passed validation.
func (r *Result) Valid() bool { return len(r.Errors) == 0 }

// ValidateAndNormalize checks the payload's required fields for docType and,
// when they hold, rewrites dates to ISO form and enum values to their
// canonical names. Missing required fields are hard errors and suppress the
// normalized output entirely; everything else is a warning.
func ValidateAndNormalize(docType domain.DocumentType, raw json.RawMessage) *Result {
	result := &Result{}

	if !gjson.ValidBytes(raw) {
		result.Errors = append(result.Errors, domain.ValidationError{
			Field:   "",
			Message: "payload is not valid JSON",
			Code:    domain.ValidationParseError,
		})
		return result
	}

	root := gjson.ParseBytes(raw)
	for _, path := range requiredFields[docType] {
		value := root.Get(path)
		if isMissing(value) {
			result.Errors = append(result.Errors, domain.ValidationError{
				Field:   path,
				Message: fmt.Sprintf("required field %q is missing or empty", path),
				Code:    domain.ValidationMissingRequired,
			})
		}
	}
	if len(result.Errors) > 0 {
		return result
	}

	normalized := make([]byte, len(raw))
	copy(normalized, raw)

	walkStrings(root, "", func(path, key, value string) {
		if value == "" {
			return
		}

		if isPlaceholder(value) {
			result.Warnings = append(result.Warnings, domain.ValidationWarning{
				Field:    path,
				Message:  fmt.Sprintf("placeholder value %q", value),
				Severity: domain.SeverityLow,
			})
			return
		}

		if path == "patient.name" {
			if fixed := NormalizePersonName(value); fixed != value {
				normalized, _ = sjson.SetBytes(normalized, path, fixed)
			}
			return
		}

		if isDateKey(key) {
			iso, ok := NormalizeDate(value)
			if !ok {
				result.Warnings = append(result.Warnings, domain.ValidationWarning{
					Field:    path,
					Message:  fmt.Sprintf("unrecognized date format %q", value),
					Severity: domain.SeverityMedium,
				})
				return
			}
			if iso != value {
				normalized, _ = sjson.SetBytes(normalized, path, iso)
			}
			return
		}

		canonical, hasTable, mapped := normalizeEnum(key, value)
		if hasTable && !mapped {
			result.Warnings = append(result.Warnings, domain.ValidationWarning{
				Field:    path,
				Message:  fmt.Sprintf("value %q not in the known set for %s", value, key),
				Severity: domain.SeverityLow,
			})
			return
		}
		if mapped && canonical != value {
			normalized, _ = sjson.SetBytes(normalized, path, canonical)
		}
	})

	result.Normalized = normalized
	return result
}

// isMissing treats null, empty strings, and empty arrays as absent.
func isMissing(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return true
	}
	if v.Type == gjson.String {
		return v.Str == ""
	}
	if v.IsArray() {
		return len(v.Array()) == 0
	}
	return false
}

// walkStrings visits every string leaf in the JSON tree, calling fn with the
// full dotted path, the leaf key, and the value. Array elements are addressed
// by index ("panels.0.results.1.flag").
func walkStrings(value gjson.Result, prefix string, fn func(path, key, value string)) {
	switch {
	case value.IsObject():
		value.ForEach(func(key, child gjson.Result) bool {
			path := key.String()
			if prefix != "" {
				path = prefix + "." + path
			}
			if child.Type == gjson.String {
				fn(path, key.String(), child.Str)
			} else {
				walkStrings(child, path, fn)
			}
			return true
		})
	case value.IsArray():
		for i, child := range value.Array() {
			path := fmt.Sprintf("%s.%d", prefix, i)
			if child.Type == gjson.String {
				fn(path, lastKey(prefix), child.Str)
			} else {
				walkStrings(child, path, fn)
			}
		}
	}
}

// lastKey returns the final key segment of a dotted path, so string array
// elements inherit their array's key (e.g. "serviceDates.0" -> serviceDates).
func lastKey(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}
