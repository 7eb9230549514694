// Package sniff turns raw CSV export bytes into a clean tabular form.
//
// Social platform exports disagree on almost everything: encoding (TikTok
// ships UTF-16, Meta ships UTF-8 with BOM), field separator, and how many
// lines of preamble sit above the real header. This package detects all
// three and produces a Table with cleaned, unique column names.
package sniff

import "strings"

// Table is the intermediate representation of one uploaded file after
// encoding/separator/header normalization, before semantic classification.
// All cells are kept as text; value parsing happens downstream.
type Table struct {
	Columns      []string
	Rows         [][]string // each row has exactly len(Columns) cells
	SourceName   string
	Separator    rune
	Encoding     string
	HeaderOffset int // 0-based line index of the detected header
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of the first column whose lowercase name
// contains any of the given keywords, or -1. Keywords are checked in order,
// so earlier keywords take priority over column position.
func (t *Table) ColumnIndex(keywords ...string) int {
	for _, kw := range keywords {
		for i, c := range t.Columns {
			if strings.Contains(strings.ToLower(c), kw) {
				return i
			}
		}
	}
	return -1
}

// Cell returns the cell at (row, col), or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Columns) {
		return ""
	}
	return t.Rows[row][col]
}
