// Package engine implements the deterministic cardio-renal risk model: the
// feature table, linear predictor, Weibull survival curve, hazard peak window,
// risk tiers, one-at-a-time attribution and the simplified batch scorer used by
// hospital operations.
package engine

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Kind is the normalization rule applied to a feature.
type Kind string

const (
	KindNumeric        Kind = "numeric"
	KindNumericInverse Kind = "numeric-inverse"
	KindCategorical    Kind = "categorical"
	KindOrdinal        Kind = "ordinal-categorical"

	labelYes = "Sí"
	labelNo  = "No"
)

var (
	//go:embed features.yaml
	defaultFeatures []byte

	loadDefaultTable = sync.OnceValues(func() (*FeatureTable, error) {
		return LoadFeatureTable(bytes.NewReader(defaultFeatures))
	})

	yesAliases = map[string]bool{"si": true, "sí": true, "yes": true, "y": true, "s": true, "true": true}
	noAliases  = map[string]bool{"no": true, "n": true, "false": true}
)

// IsNumeric reports whether the kind is normalized over a numeric domain.
func (k Kind) IsNumeric() bool {
	return k == KindNumeric || k == KindNumericInverse
}

// Category maps a categorical label to its score offset.
type Category struct {
	Label  string  `json:"label" yaml:"label"`
	Offset float64 `json:"offset" yaml:"offset"`
}

// FeatureSpec declares one input feature.
type FeatureSpec struct {
	Name       string     `json:"name" yaml:"name"`
	Kind       Kind       `json:"kind" yaml:"kind"`
	Domain     []float64  `json:"domain,omitempty" yaml:"domain,omitempty"`
	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty"`
	Weight     float64    `json:"weight" yaml:"weight"`
	Rationale  string     `json:"rationale" yaml:"rationale"`
}

// Lo is the lower bound of a numeric domain.
func (f *FeatureSpec) Lo() float64 {
	return f.Domain[0]
}

// Hi is the upper bound of a numeric domain.
func (f *FeatureSpec) Hi() float64 {
	return f.Domain[1]
}

// Offset returns the offset mapped to label. Labels are matched exactly first,
// then case-insensitively, then through yes/no spellings ("Si", "Yes", "N").
func (f *FeatureSpec) Offset(label string) (float64, bool) {
	c, ok := f.category(label)
	if !ok {
		return 0, false
	}
	return c.Offset, true
}

func (f *FeatureSpec) category(label string) (Category, bool) {
	label = strings.TrimSpace(label)
	for _, c := range f.Categories {
		if c.Label == label {
			return c, true
		}
	}
	for _, c := range f.Categories {
		if strings.EqualFold(c.Label, label) {
			return c, true
		}
	}
	if alias := yesNo(label); alias != "" && alias != label {
		for _, c := range f.Categories {
			if c.Label == alias {
				return c, true
			}
		}
	}
	return Category{}, false
}

// Healthiest returns the raw value that minimizes this feature's contribution:
// the low end for numeric, the high end for numeric-inverse and the first
// category with the smallest offset for categorical kinds.
func (f *FeatureSpec) Healthiest() any {
	switch f.Kind {
	case KindNumeric:
		return f.Lo()
	case KindNumericInverse:
		return f.Hi()
	default:
		best := f.Categories[0]
		for _, c := range f.Categories[1:] {
			if c.Offset < best.Offset {
				best = c
			}
		}
		return best.Label
	}
}

func (f *FeatureSpec) validate() error {
	if f.Name == "" {
		return errors.New("feature name is required")
	}
	switch f.Kind {
	case KindNumeric, KindNumericInverse:
		if len(f.Domain) != 2 {
			return fmt.Errorf("feature %s: domain must have exactly two bounds", f.Name)
		}
		if f.Lo() >= f.Hi() {
			return fmt.Errorf("feature %s: domain low %v must be below high %v", f.Name, f.Lo(), f.Hi())
		}
	case KindCategorical, KindOrdinal:
		if len(f.Categories) == 0 {
			return fmt.Errorf("feature %s: categories are required", f.Name)
		}
		if f.Weight != 1.0 {
			return fmt.Errorf("feature %s: categorical weight must be 1.0, got %v", f.Name, f.Weight)
		}
	default:
		return fmt.Errorf("feature %s: unknown kind %q", f.Name, f.Kind)
	}
	return nil
}

// FeatureTable is the ordered feature registry. It is loaded once and must be
// treated as read-only afterwards.
type FeatureTable struct {
	Version   string         `json:"version" yaml:"version"`
	Centering float64        `json:"centering" yaml:"centering"`
	Features  []*FeatureSpec `json:"features" yaml:"features"`

	index map[string]int
}

// DefaultFeatureTable returns the embedded default table.
func DefaultFeatureTable() *FeatureTable {
	t, err := loadDefaultTable()
	if err != nil {
		panic(fmt.Sprintf("embedded feature table is invalid: %v", err))
	}
	return t
}

// LoadFeatureTable decodes and validates a YAML feature table.
func LoadFeatureTable(r io.Reader) (*FeatureTable, error) {
	var t FeatureTable
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding feature table: %w", err)
	}
	if err := t.init(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFeatureTableFile reads a feature table from path.
func LoadFeatureTableFile(path string) (*FeatureTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening feature table %s: %w", path, err)
	}
	defer f.Close()

	t, err := LoadFeatureTable(f)
	if err != nil {
		return nil, fmt.Errorf("loading feature table %s: %w", path, err)
	}
	return t, nil
}

func (t *FeatureTable) init() error {
	if len(t.Features) == 0 {
		return errors.New("feature table has no features")
	}
	t.index = make(map[string]int, len(t.Features))
	for i, f := range t.Features {
		if f == nil {
			return fmt.Errorf("feature %d is empty", i)
		}
		if err := f.validate(); err != nil {
			return err
		}
		if _, dup := t.index[f.Name]; dup {
			return fmt.Errorf("duplicate feature: %s", f.Name)
		}
		t.index[f.Name] = i
	}
	return nil
}

// Columns returns the canonical, ordered column names.
func (t *FeatureTable) Columns() []string {
	cols := make([]string, len(t.Features))
	for i, f := range t.Features {
		cols[i] = f.Name
	}
	return cols
}

// Get returns the spec for name.
func (t *FeatureTable) Get(name string) (*FeatureSpec, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.Features[i], true
}

// ValidateColumns reports the declared features missing from columns.
func (t *FeatureTable) ValidateColumns(columns []string) error {
	return validateColumns(PipelineSubject, columns, t.Columns(), nil)
}

// yesNo maps yes/no spellings onto the table's canonical labels.
func yesNo(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case yesAliases[l]:
		return labelYes
	case noAliases[l]:
		return labelNo
	default:
		return ""
	}
}
