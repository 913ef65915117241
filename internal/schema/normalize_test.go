package schema

import "testing"

// TestNormalizeDate verifies common formats convert to ISO and that the
// conversion is idempotent.
func TestNormalizeDate(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "us slash format", input: "03/15/1958", want: "1958-03-15", wantOK: true},
		{name: "us slash no leading zeros", input: "3/5/1958", want: "1958-03-05", wantOK: true},
		{name: "spelled out month", input: "March 15, 1958", want: "1958-03-15", wantOK: true},
		{name: "abbreviated month", input: "Mar 15, 1958", want: "1958-03-15", wantOK: true},
		{name: "already iso", input: "1958-03-15", want: "1958-03-15", wantOK: true},
		{name: "dashes", input: "03-15-1958", want: "1958-03-15", wantOK: true},
		{name: "dots", input: "03.15.1958", want: "1958-03-15", wantOK: true},
		{name: "two digit year pre pivot", input: "03/15/58", want: "1958-03-15", wantOK: true},
		{name: "two digit year post pivot", input: "03/15/21", want: "2021-03-15", wantOK: true},
		{name: "two digit year at pivot", input: "01/01/50", want: "1950-01-01", wantOK: true},
		{name: "two digit year just before pivot", input: "01/01/49", want: "2049-01-01", wantOK: true},
		{name: "surrounding whitespace", input: " 03/15/1958 ", want: "1958-03-15", wantOK: true},
		{name: "not a date", input: "next tuesday", want: "next tuesday", wantOK: false},
		{name: "empty string", input: "", want: "", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeDate(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("NormalizeDate(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

// TestNormalizeDateIdempotent verifies that normalizing twice equals
// normalizing once.
func TestNormalizeDateIdempotent(t *testing.T) {
	inputs := []string{"03/15/1958", "March 15, 1958", "12/31/99", "2020-02-29"}
	for _, input := range inputs {
		once, ok := NormalizeDate(input)
		if !ok {
			t.Fatalf("NormalizeDate(%q) failed", input)
		}
		twice, ok := NormalizeDate(once)
		if !ok {
			t.Fatalf("NormalizeDate(%q) failed on second pass", once)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", input, once, twice)
		}
	}
}

func TestNormalizeEnum(t *testing.T) {
	testCases := []struct {
		name       string
		key        string
		value      string
		want       string
		wantTable  bool
		wantMapped bool
	}{
		{name: "lab flag H", key: "flag", value: "H", want: "HIGH", wantTable: true, wantMapped: true},
		{name: "lab flag lowercase l", key: "flag", value: "l", want: "LOW", wantTable: true, wantMapped: true},
		{name: "lab flag asterisk", key: "flag", value: "*", want: "ABNORMAL", wantTable: true, wantMapped: true},
		{name: "lab flag canonical is stable", key: "flag", value: "HIGH", want: "HIGH", wantTable: true, wantMapped: true},
		{name: "route po", key: "route", value: "PO", want: "ORAL", wantTable: true, wantMapped: true},
		{name: "route by mouth", key: "route", value: "by mouth", want: "ORAL", wantTable: true, wantMapped: true},
		{name: "gender f", key: "gender", value: "F", want: "FEMALE", wantTable: true, wantMapped: true},
		{name: "admission source er", key: "admissionSource", value: "ER", want: "EMERGENCY", wantTable: true, wantMapped: true},
		{name: "discharge condition", key: "dischargeCondition", value: "Stable", want: "STABLE", wantTable: true, wantMapped: true},
		{name: "laterality lt", key: "laterality", value: "lt", want: "LEFT", wantTable: true, wantMapped: true},
		{name: "unknown value keeps original", key: "flag", value: "weird", want: "weird", wantTable: true, wantMapped: false},
		{name: "key without table", key: "diagnosis", value: "H", want: "H", wantTable: false, wantMapped: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, hasTable, mapped := normalizeEnum(tc.key, tc.value)
			if got != tc.want || hasTable != tc.wantTable || mapped != tc.wantMapped {
				t.Errorf("normalizeEnum(%q, %q) = (%q, %v, %v), want (%q, %v, %v)",
					tc.key, tc.value, got, hasTable, mapped, tc.want, tc.wantTable, tc.wantMapped)
			}
		})
	}
}

func TestIsDateKey(t *testing.T) {
	dateKeys := []string{"admissionDate", "dischargeDate", "dateOfBirth", "dob", "studyDate", "dateWritten"}
	for _, key := range dateKeys {
		if !isDateKey(key) {
			t.Errorf("isDateKey(%q) = false, want true", key)
		}
	}
	nonDateKeys := []string{"name", "diagnosis", "mrn", "plan"}
	for _, key := range nonDateKeys {
		if isDateKey(key) {
			t.Errorf("isDateKey(%q) = true, want false", key)
		}
	}
}

func TestNormalizePersonName(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "all caps title-cased", input: "JOHN SMITH", want: "John Smith"},
		{name: "all lower title-cased", input: "john smith", want: "John Smith"},
		{name: "mixed case untouched", input: "John McAllister", want: "John McAllister"},
		{name: "whitespace collapsed", input: "  Jane   Doe ", want: "Jane Doe"},
		{name: "last-first form", input: "SMITH, JOHN", want: "Smith, John"},
		{name: "empty untouched", input: "", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizePersonName(tc.input); got != tc.want {
				t.Errorf("NormalizePersonName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
