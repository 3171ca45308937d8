// Package table reads and writes the CSV tables consumed by the scoring
// pipelines.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mchmarny/riskpulse/pkg/engine"
)

var (
	// ErrEmpty is returned for input without a header row.
	ErrEmpty = errors.New("table has no header row")
)

// Table is a header plus string rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Read parses CSV from r. Header names are trimmed and a leading UTF-8 BOM is
// dropped. Rows shorter than the header are padded with empty values.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	t := &Table{Columns: make([]string, len(header))}
	for i, h := range header {
		t.Columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(t.Rows)+1, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < len(t.Columns) {
			rec = append(rec, make([]string, len(t.Columns)-len(rec))...)
		}
		t.Rows = append(t.Rows, rec[:len(t.Columns)])
	}

	return t, nil
}

// ReadFile parses the CSV file at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Records returns each row as a column-keyed map.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for j, c := range t.Columns {
			m[c] = strings.TrimSpace(row[j])
		}
		out[i] = m
	}
	return out
}

// Vectors returns each row as a feature vector. Empty cells are omitted so
// they count as absent values.
func (t *Table) Vectors() []engine.FeatureVector {
	out := make([]engine.FeatureVector, len(t.Rows))
	for i, rec := range t.Records() {
		v := make(engine.FeatureVector, len(rec))
		for k, val := range rec {
			if val != "" {
				v[k] = val
			}
		}
		out[i] = v
	}
	return out
}

// Write encodes t as CSV.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// Template returns a header-only table for the single-subject pipeline.
func Template(ft *engine.FeatureTable) *Table {
	return &Table{Columns: ft.Columns()}
}
