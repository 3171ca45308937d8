package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFeatureTable(t *testing.T) {
	tbl := DefaultFeatureTable()
	require.NotNil(t, tbl)
	assert.Len(t, tbl.Features, 18)
	assert.InDelta(t, 0.12, tbl.Centering, 1e-12)

	cols := tbl.Columns()
	assert.Equal(t, "age", cols[0])
	assert.Equal(t, "ckd_stage", cols[len(cols)-1])

	egfr, ok := tbl.Get("egfr")
	require.True(t, ok)
	assert.Equal(t, KindNumericInverse, egfr.Kind)

	_, ok = tbl.Get("creatinine")
	assert.False(t, ok)

	for _, f := range tbl.Features {
		assert.NotEmpty(t, f.Rationale, f.Name)
	}
}

func TestLoadFeatureTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty",
			yaml: "version: x\nfeatures: []\n",
			want: "no features",
		},
		{
			name: "inverted domain",
			yaml: "features:\n- name: age\n  kind: numeric\n  domain: [90, 18]\n  weight: 0.1\n",
			want: "must be below",
		},
		{
			name: "single bound",
			yaml: "features:\n- name: age\n  kind: numeric\n  domain: [18]\n  weight: 0.1\n",
			want: "exactly two bounds",
		},
		{
			name: "no categories",
			yaml: "features:\n- name: sex\n  kind: categorical\n  weight: 1.0\n",
			want: "categories are required",
		},
		{
			name: "categorical weight",
			yaml: "features:\n- name: sex\n  kind: categorical\n  weight: 2.0\n  categories:\n  - {label: M, offset: 0}\n",
			want: "weight must be 1.0",
		},
		{
			name: "unknown kind",
			yaml: "features:\n- name: age\n  kind: spline\n  weight: 1\n",
			want: "unknown kind",
		},
		{
			name: "duplicate",
			yaml: "features:\n- name: age\n  kind: numeric\n  domain: [1, 2]\n  weight: 1\n- name: age\n  kind: numeric\n  domain: [1, 2]\n  weight: 1\n",
			want: "duplicate feature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFeatureTable(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFeatureTableFile_Missing(t *testing.T) {
	_, err := LoadFeatureTableFile("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestFeatureSpec_Offset(t *testing.T) {
	tbl := DefaultFeatureTable()
	smoker, _ := tbl.Get("smoker")
	ckd, _ := tbl.Get("ckd_stage")

	tests := []struct {
		spec  *FeatureSpec
		label string
		want  float64
		ok    bool
	}{
		{smoker, "Sí", 0.07, true},
		{smoker, "Si", 0.07, true},
		{smoker, "yes", 0.07, true},
		{smoker, " ex ", 0.02, true},
		{smoker, "N", 0, true},
		{smoker, "sometimes", 0, false},
		{ckd, "3A", 0.05, true},
		{ckd, "5", 0.18, true},
		{ckd, "6", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.spec.Name+"/"+tt.label, func(t *testing.T) {
			got, ok := tt.spec.Offset(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestFeatureSpec_Healthiest(t *testing.T) {
	tbl := DefaultFeatureTable()
	want := map[string]any{
		"age":       18.0,
		"egfr":      120.0,
		"sex":       "F",
		"statin":    "Sí",
		"smoker":    "No",
		"ckd_stage": "No",
	}
	for name, v := range want {
		f, ok := tbl.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, v, f.Healthiest(), name)
	}
}

func TestValidateColumns(t *testing.T) {
	tbl := DefaultFeatureTable()
	assert.NoError(t, tbl.ValidateColumns(tbl.Columns()))

	var cols []string
	for _, c := range tbl.Columns() {
		if c != "hba1c" {
			cols = append(cols, c)
		}
	}
	err := tbl.ValidateColumns(cols)
	require.Error(t, err)

	var se *SchemaValidationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, PipelineSubject, se.Pipeline)
	assert.Equal(t, []string{"hba1c"}, se.Missing)
	assert.Contains(t, se.Error(), "hba1c")
}

func TestFeatureVector_Values(t *testing.T) {
	v := FeatureVector{"a": "6.5", "b": 3, "c": "x", "d": true, "e": "NaN", "f": ""}

	n, ok := v.Number("a")
	assert.True(t, ok)
	assert.InDelta(t, 6.5, n, 1e-12)

	n, ok = v.Number("b")
	assert.True(t, ok)
	assert.InDelta(t, 3, n, 1e-12)

	for _, k := range []string{"c", "e", "f", "missing"} {
		_, ok = v.Number(k)
		assert.False(t, ok, k)
	}

	l, ok := v.Label("d")
	assert.True(t, ok)
	assert.Equal(t, "Sí", l)
	assert.True(t, v.Affirmative("d"))
	assert.False(t, v.Affirmative("c"))

	w := v.With("a", 1.0)
	assert.Equal(t, "6.5", v["a"])
	assert.Equal(t, 1.0, w["a"])
}
