package schema

import (
	"strings"
	"time"
	"unicode"
)

// dateLayouts are tried in order. Layouts using a two-digit year are listed
// last and flagged so the century pivot can be applied after parsing.
var dateLayouts = []struct {
	layout   string
	twoDigit bool
}{
	{"2006-01-02", false},
	{"01/02/2006", false},
	{"1/2/2006", false},
	{"01-02-2006", false},
	{"01.02.2006", false},
	{"January 2, 2006", false},
	{"Jan 2, 2006", false},
	{"January 2 2006", false},
	{"2006/01/02", false},
	{"01/02/06", true},
	{"1/2/06", true},
	{"01-02-06", true},
}

// NormalizeDate converts a date string to ISO YYYY-MM-DD. It accepts common
// US formats and spelled-out months and is idempotent on already-normalized
// input. Two-digit years pivot at 50: 50-99 become 19xx, 00-49 become 20xx.
// Returns ok=false when no known layout matches.
func NormalizeDate(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s, false
	}

	for _, dl := range dateLayouts {
		t, err := time.Parse(dl.layout, trimmed)
		if err != nil {
			continue
		}
		if dl.twoDigit && t.Year() >= 2050 {
			// time.Parse pivots two-digit years at 69; shift 50-68 back a century.
			t = t.AddDate(-100, 0, 0)
		}
		return t.Format("2006-01-02"), true
	}

	return s, false
}

// Enum lookup tables. Keys are lowercase; values are the canonical forms.
// Canonical forms map to themselves so normalization is idempotent.

var labFlags = map[string]string{
	"h": "HIGH", "hi": "HIGH", "high": "HIGH",
	"l": "LOW", "lo": "LOW", "low": "LOW",
	"a": "ABNORMAL", "abn": "ABNORMAL", "abnormal": "ABNORMAL", "*": "ABNORMAL",
	"n": "NORMAL", "normal": "NORMAL", "wnl": "NORMAL",
	"c": "CRITICAL", "crit": "CRITICAL", "critical": "CRITICAL", "panic": "CRITICAL",
}

var medicationRoutes = map[string]string{
	"po": "ORAL", "oral": "ORAL", "by mouth": "ORAL",
	"iv": "IV", "intravenous": "IV",
	"im": "IM", "intramuscular": "IM",
	"sq": "SUBCUTANEOUS", "sc": "SUBCUTANEOUS", "subq": "SUBCUTANEOUS", "subcutaneous": "SUBCUTANEOUS",
	"sl": "SUBLINGUAL", "sublingual": "SUBLINGUAL",
	"pr": "RECTAL", "rectal": "RECTAL",
	"top": "TOPICAL", "topical": "TOPICAL",
	"inh": "INHALED", "inhaled": "INHALED", "inhalation": "INHALED",
	"nasal": "NASAL", "intranasal": "NASAL",
	"ophthalmic": "OPHTHALMIC", "otic": "OTIC",
}

var genders = map[string]string{
	"m": "MALE", "male": "MALE",
	"f": "FEMALE", "female": "FEMALE",
	"o": "OTHER", "other": "OTHER",
	"u": "UNKNOWN", "unknown": "UNKNOWN",
}

var admissionSources = map[string]string{
	"ed": "EMERGENCY", "er": "EMERGENCY", "emergency": "EMERGENCY",
	"emergency department": "EMERGENCY", "emergency room": "EMERGENCY",
	"transfer": "TRANSFER", "transferred": "TRANSFER",
	"direct": "DIRECT", "direct admission": "DIRECT",
	"elective": "ELECTIVE", "scheduled": "ELECTIVE",
}

var dischargeConditions = map[string]string{
	"stable": "STABLE", "good": "STABLE",
	"improved": "IMPROVED", "improving": "IMPROVED",
	"unchanged": "UNCHANGED", "fair": "UNCHANGED",
	"worsened": "WORSENED", "deteriorated": "WORSENED", "guarded": "WORSENED",
	"critical": "CRITICAL",
	"expired":  "EXPIRED", "deceased": "EXPIRED",
}

var lateralities = map[string]string{
	"l": "LEFT", "lt": "LEFT", "left": "LEFT",
	"r": "RIGHT", "rt": "RIGHT", "right": "RIGHT",
	"b": "BILATERAL", "bilat": "BILATERAL", "bilateral": "BILATERAL", "both": "BILATERAL",
}

// enumTables maps a JSON leaf key to its lookup table.
var enumTables = map[string]map[string]string{
	"flag":               labFlags,
	"route":              medicationRoutes,
	"gender":             genders,
	"admissionSource":    admissionSources,
	"dischargeCondition": dischargeConditions,
	"laterality":         lateralities,
}

// normalizeEnum maps a raw value through the table for key. The second return
// reports whether key has a table at all; the third whether the value mapped.
func normalizeEnum(key, value string) (string, bool, bool) {
	table, ok := enumTables[key]
	if !ok {
		return value, false, false
	}
	canonical, found := table[strings.ToLower(strings.TrimSpace(value))]
	if !found {
		return value, true, false
	}
	return canonical, true, true
}

// placeholders are junk values OCR or the model sometimes emit in place of
// real data. They survive normalization but get flagged.
var placeholders = map[string]bool{
	"xxx": true, "xx": true, "n/a": true, "na": true,
	"unknown": true, "tbd": true, "?": true, "none given": true,
	"not provided": true, "not available": true,
}

func isPlaceholder(value string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(value))]
}

// isDateKey reports whether a JSON key holds a date by naming convention.
func isDateKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "date") || lower == "dob" || lower == "dateofbirth"
}

// NormalizePersonName collapses whitespace runs and title-cases names the
// scanner shouted ("JOHN SMITH") or flattened ("john smith"). Mixed-case
// names are assumed intentional and pass through with whitespace cleanup
// only.
func NormalizePersonName(name string) string {
	joined := strings.Join(strings.Fields(name), " ")
	if joined == "" {
		return name
	}
	if joined != strings.ToUpper(joined) && joined != strings.ToLower(joined) {
		return joined
	}

	words := strings.Split(strings.ToLower(joined), " ")
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
