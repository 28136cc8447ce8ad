// Package domain holds the core table model and error taxonomy for gridsnap.
package domain

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table is the unit of extraction and editing: ordered column headers plus
// ordered rows of string cells.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// NewTable creates an empty table with the given headers.
func NewTable(headers []string) *Table {
	return &Table{
		Headers: headers,
		Rows:    [][]string{},
	}
}

// Normalize enforces the rectangular invariant: every row ends up with
// exactly len(Headers) cells. Short rows are padded with empty strings,
// long rows are truncated. When the extraction returned rows but no
// headers, placeholder column names are synthesized from the widest row.
func (t *Table) Normalize() {
	if len(t.Headers) == 0 && len(t.Rows) > 0 {
		width := 0
		for _, row := range t.Rows {
			if len(row) > width {
				width = len(row)
			}
		}
		t.Headers = make([]string, width)
		for i := range t.Headers {
			t.Headers[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	width := len(t.Headers)
	for i, row := range t.Rows {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			t.Rows[i] = padded
		case len(row) > width:
			t.Rows[i] = row[:width]
		}
	}

	if t.Rows == nil {
		t.Rows = [][]string{}
	}
}

// EditCell replaces a single cell value. Both indices are zero-based; the
// table is left unchanged when either is out of bounds.
func (t *Table) EditCell(rowIndex, colIndex int, value string) error {
	if rowIndex < 0 || rowIndex >= len(t.Rows) {
		return IndexOutOfRangeError("row", rowIndex, len(t.Rows))
	}
	if colIndex < 0 || colIndex >= len(t.Headers) {
		return IndexOutOfRangeError("column", colIndex, len(t.Headers))
	}

	t.Rows[rowIndex][colIndex] = value
	return nil
}

// ToCSV serializes the current table state. The header row is emitted
// first; fields containing a comma, quote, or newline are quoted with
// embedded quotes doubled, and records end with CRLF.
func (t *Table) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(t.Headers); err != nil {
		return "", fmt.Errorf("write header row: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// IsEmpty reports whether the table holds no data rows.
func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0
}
