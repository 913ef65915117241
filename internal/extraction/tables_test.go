package extraction

import (
	"strings"
	"testing"

	"github.com/caredocs/docintel/internal/domain"
)

func TestRenderTableMarkdown(t *testing.T) {
	table := domain.OcrTable{
		RowCount:    3,
		ColumnCount: 3,
		Cells: []domain.OcrTableCell{
			{RowIndex: 1, ColumnIndex: 1, Text: "Test", IsHeader: true},
			{RowIndex: 1, ColumnIndex: 2, Text: "Result", IsHeader: true},
			{RowIndex: 1, ColumnIndex: 3, Text: "Flag", IsHeader: true},
			{RowIndex: 2, ColumnIndex: 1, Text: "WBC"},
			{RowIndex: 2, ColumnIndex: 2, Text: "12.1"},
			{RowIndex: 2, ColumnIndex: 3, Text: "H"},
			{RowIndex: 3, ColumnIndex: 1, Text: "Glucose"},
			{RowIndex: 3, ColumnIndex: 2, Text: "98"},
			// column 3 of row 3 never reported by the engine
		},
	}

	want := "| Test | Result | Flag |\n" +
		"| --- | --- | --- |\n" +
		"| WBC | 12.1 | H |\n" +
		"| Glucose | 98 |  |\n"

	if got := RenderTableMarkdown(table); got != want {
		t.Errorf("RenderTableMarkdown mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTableMarkdownEdgeCases(t *testing.T) {
	testCases := []struct {
		name  string
		table domain.OcrTable
		check func(t *testing.T, got string)
	}{
		{
			name:  "empty table renders nothing",
			table: domain.OcrTable{},
			check: func(t *testing.T, got string) {
				if got != "" {
					t.Errorf("got %q, want empty string", got)
				}
			},
		},
		{
			name: "out of bounds cells are skipped",
			table: domain.OcrTable{
				RowCount:    1,
				ColumnCount: 1,
				Cells: []domain.OcrTableCell{
					{RowIndex: 1, ColumnIndex: 1, Text: "ok"},
					{RowIndex: 5, ColumnIndex: 1, Text: "dropped"},
					{RowIndex: 0, ColumnIndex: 0, Text: "dropped"},
				},
			},
			check: func(t *testing.T, got string) {
				if strings.Contains(got, "dropped") {
					t.Errorf("out of bounds cell rendered: %q", got)
				}
				if !strings.Contains(got, "| ok |") {
					t.Errorf("valid cell missing: %q", got)
				}
			},
		},
		{
			name: "pipes and newlines sanitized",
			table: domain.OcrTable{
				RowCount:    1,
				ColumnCount: 1,
				Cells: []domain.OcrTableCell{
					{RowIndex: 1, ColumnIndex: 1, Text: "a|b\nc"},
				},
			},
			check: func(t *testing.T, got string) {
				if !strings.Contains(got, `a\|b c`) {
					t.Errorf("cell text not sanitized: %q", got)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, RenderTableMarkdown(tc.table))
		})
	}
}

func TestRenderAllTables(t *testing.T) {
	tables := []domain.OcrTable{
		{
			RowCount:    1,
			ColumnCount: 1,
			Cells:       []domain.OcrTableCell{{RowIndex: 1, ColumnIndex: 1, Text: "first"}},
		},
		{}, // empty, skipped
		{
			RowCount:    1,
			ColumnCount: 1,
			Cells:       []domain.OcrTableCell{{RowIndex: 1, ColumnIndex: 1, Text: "second"}},
		},
	}

	got := RenderAllTables(tables)
	if !strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Fatalf("missing table content: %q", got)
	}
	if strings.Count(got, "| --- |") != 2 {
		t.Errorf("expected 2 header separators, got %d in %q", strings.Count(got, "| --- |"), got)
	}
}
