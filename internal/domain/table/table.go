// Package table holds the canonical tabular result shape.
package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Result is a headers + rows table. Every engine response is normalized to it.
type Result struct {
	Headers []string
	Rows    [][]string
}

// RowCount returns the number of rows.
func (r *Result) RowCount() int { return len(r.Rows) }

// CSV renders the table with a header line.
func (r *Result) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(r.Headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(r.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
