// Package csvimport reconciles an uploaded athlete spreadsheet against the
// record store: parse, map columns to fields, preview duplicates, then commit
// the whole batch in one store call.
package csvimport

import (
	"errors"
	"strings"
)

// ErrNoDataRows means the upload has a header but no data rows.
var ErrNoDataRows = errors.New("CSV file must have a header row and at least one data row")

// Table is a parsed upload: the first non-empty line is Headers, every
// following non-empty line is a row.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Parse splits raw CSV text on newlines and commas, trimming whitespace and
// surrounding double quotes from each cell. Quoted commas are not supported.
func Parse(text string) (*Table, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < 2 {
		return nil, ErrNoDataRows
	}

	t := &Table{Headers: splitLine(lines[0])}
	for _, line := range lines[1:] {
		t.Rows = append(t.Rows, splitLine(line))
	}
	return t, nil
}

// Cell returns the value of column i in row, or "" when the row is short.
func (t *Table) Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Sample returns up to n rows for display.
func (t *Table) Sample(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

func splitLine(line string) []string {
	cells := strings.Split(line, ",")
	for i, c := range cells {
		c = strings.TrimSpace(c)
		c = strings.TrimPrefix(c, `"`)
		c = strings.TrimSuffix(c, `"`)
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}
