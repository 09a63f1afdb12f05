// Package report formats validation results as aligned text tables.
package report

import (
	"strings"
	"unicode/utf8"

	"github.com/roach88/vectorcheck/internal/model"
)

const columnSeparator = " | "

// Render formats a table. Each column is as wide as the rune count of its
// longest cell, header included; every cell is right-padded to that width
// and columns are joined with " | ". Display width is not measured, so
// East Asian wide characters misalign. A line of '-' spanning the full
// width separates the header from the rows. Rows shorter than the header are padded with empty
// cells; extra cells are dropped.
//
// Render is pure: the same input always yields the same text.
func Render(header []string, rows [][]string) string {
	if len(header) == 0 {
		return ""
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
			}
		}
	}

	total := len(columnSeparator) * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}

	var b strings.Builder
	writeRow(&b, header, widths)
	b.WriteString(strings.Repeat("-", total))
	b.WriteByte('\n')
	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

func writeRow(b *strings.Builder, row []string, widths []int) {
	for i, w := range widths {
		if i > 0 {
			b.WriteString(columnSeparator)
		}
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", w-utf8.RuneCountInString(cell)))
	}
	b.WriteByte('\n')
}

// MismatchTable lays out mismatch rows as "Expected: <signal>" columns
// followed by "Actual: <signal>" columns, one line per mismatching vector row.
func MismatchTable(signals []string, mismatches []model.MismatchRow) ([]string, [][]string) {
	header := make([]string, 0, 2*len(signals))
	for _, s := range signals {
		header = append(header, "Expected: "+s)
	}
	for _, s := range signals {
		header = append(header, "Actual: "+s)
	}

	rows := make([][]string, 0, len(mismatches))
	for _, m := range mismatches {
		row := make([]string, 0, 2*len(signals))
		row = append(row, m.Expected...)
		row = append(row, m.Actual...)
		rows = append(rows, row)
	}
	return header, rows
}
