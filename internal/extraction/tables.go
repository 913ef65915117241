package extraction

import (
	"strings"

	"github.com/caredocs/docintel/internal/domain"
)

// RenderTableMarkdown converts a sparse OCR table into a markdown table. The
// first row is treated as the header row. Cells the engine never reported
// render as empty; spanning cells keep their text in the top-left position
// only.
func RenderTableMarkdown(t domain.OcrTable) string {
	if t.RowCount == 0 || t.ColumnCount == 0 {
		return ""
	}

	grid := make([][]string, t.RowCount)
	for i := range grid {
		grid[i] = make([]string, t.ColumnCount)
	}

	for _, cell := range t.Cells {
		row := cell.RowIndex - 1
		col := cell.ColumnIndex - 1
		if row < 0 || row >= t.RowCount || col < 0 || col >= t.ColumnCount {
			continue
		}
		grid[row][col] = sanitizeCell(cell.Text)
	}

	var b strings.Builder
	for row, cells := range grid {
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
		if row == 0 {
			b.WriteString("|")
			b.WriteString(strings.Repeat(" --- |", t.ColumnCount))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderAllTables renders every detected table, separated by blank lines.
func RenderAllTables(tables []domain.OcrTable) string {
	var parts []string
	for _, t := range tables {
		if md := RenderTableMarkdown(t); md != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, "\n")
}

// sanitizeCell keeps cell text from breaking the markdown table structure.
func sanitizeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
