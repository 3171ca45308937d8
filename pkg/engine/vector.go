package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FeatureVector maps a feature name to its raw value (number or category
// label). Values decoded from CSV arrive as strings and are parsed on use.
type FeatureVector map[string]any

// VectorFromRecord builds a vector from a string record, e.g. a CSV row.
func VectorFromRecord(rec map[string]string) FeatureVector {
	v := make(FeatureVector, len(rec))
	for k, val := range rec {
		v[k] = val
	}
	return v
}

// With returns a copy of v with name set to val.
func (v FeatureVector) With(name string, val any) FeatureVector {
	c := make(FeatureVector, len(v)+1)
	for k, x := range v {
		c[k] = x
	}
	c[name] = val
	return c
}

// Number returns the numeric value of name. Missing, empty, non-numeric and
// non-finite values report false.
func (v FeatureVector) Number(name string) (float64, bool) {
	raw, ok := v[name]
	if !ok || raw == nil {
		return 0, false
	}

	var f float64
	switch t := raw.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Label returns the categorical value of name as a string.
func (v FeatureVector) Label(name string) (string, bool) {
	raw, ok := v[name]
	if !ok || raw == nil {
		return "", false
	}

	var s string
	switch t := raw.(type) {
	case string:
		s = strings.TrimSpace(t)
	case bool:
		s = labelNo
		if t {
			s = labelYes
		}
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return "", false
	}
	return s, s != ""
}

// Affirmative reports whether name holds a yes-like label.
func (v FeatureVector) Affirmative(name string) bool {
	l, ok := v.Label(name)
	return ok && yesNo(l) == labelYes
}
