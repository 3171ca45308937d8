package engine

import (
	"fmt"
	"strings"
)

// Pipeline names the scoring path a table is validated for.
type Pipeline string

const (
	PipelineSubject Pipeline = "subject"
	PipelineBatch   Pipeline = "batch"
)

// SchemaValidationError lists required columns absent from a tabular input.
type SchemaValidationError struct {
	Pipeline Pipeline `json:"pipeline"`
	Missing  []string `json:"missing"`
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s table is missing required columns: %s", e.Pipeline, strings.Join(e.Missing, ", "))
}

// ValueError reports a value that cannot be used by the batch scorer.
type ValueError struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("row %d: column %s: invalid numeric value %q", e.Row, e.Column, e.Value)
}

func validateColumns(p Pipeline, columns, required []string, aliases map[string][]string) error {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[strings.TrimSpace(c)] = true
	}

	var missing []string
	for _, r := range required {
		if have[r] {
			continue
		}
		found := false
		for _, a := range aliases[r] {
			if have[a] {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, r)
		}
	}

	if len(missing) > 0 {
		return &SchemaValidationError{Pipeline: p, Missing: missing}
	}
	return nil
}
