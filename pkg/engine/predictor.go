package engine

import (
	"fmt"
	"log/slog"
)

// Score returns the feature's contribution to the linear predictor. Absent or
// unparsable values contribute 0, numeric values outside the domain are
// clamped, and unknown categories map to a neutral offset.
func (f *FeatureSpec) Score(v FeatureVector) float64 {
	if f.Kind.IsNumeric() {
		x, ok := v.Number(f.Name)
		if !ok {
			return 0
		}
		n := normalize(x, f.Lo(), f.Hi())
		if f.Kind == KindNumericInverse {
			n = 1 - n
		}
		return f.Weight * n
	}

	label, ok := v.Label(f.Name)
	if !ok {
		return 0
	}
	off, found := f.Offset(label)
	if !found {
		slog.Debug("unknown category, using neutral offset", "feature", f.Name, "value", label)
		return 0
	}
	return f.Weight * off
}

// LinearPredictor sums all per-feature scores and subtracts the centering
// constant, so a typical profile lands near 0.
func (t *FeatureTable) LinearPredictor(v FeatureVector) float64 {
	var s float64
	for _, f := range t.Features {
		c := f.Score(v)
		s += c
		slog.Debug(fmt.Sprintf("%s: %+.4f (running=%.4f)", f.Name, c, s))
	}
	lp := s - t.Centering
	slog.Debug(fmt.Sprintf("lp: %.4f", lp))
	return lp
}

// normalize clamps val into [lo, hi] and rescales it to [0, 1].
func normalize(val, lo, hi float64) float64 {
	return (clamp(val, lo, hi) - lo) / (hi - lo)
}

func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
