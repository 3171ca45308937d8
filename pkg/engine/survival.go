package engine

import (
	"math"
)

const (
	shapeBase   = 1.45
	shapeSpread = 0.15
	scaleBase   = 0.015
	maxAbsLP    = 8.0

	// SurvivalFloor keeps survival probabilities strictly positive.
	SurvivalFloor = 1e-6

	// MinCurveMonths is the minimum length of the evaluated monthly curve.
	MinCurveMonths = 60

	// PeakWindowWidth is the width in months of the hazard peak window.
	PeakWindowWidth = 6
)

// TimeUnit is the unit of a curve's time axis.
type TimeUnit string

const (
	UnitMonth TimeUnit = "month"
	UnitDay   TimeUnit = "day"
)

// SurvivalPoint is one sample of a survival curve.
type SurvivalPoint struct {
	Time           int     `json:"time" yaml:"time"`
	Survival       float64 `json:"survival" yaml:"survival"`
	CumulativeRisk float64 `json:"cumulative_risk" yaml:"cumulativeRisk"`
}

// SurvivalCurve is an ordered, non-increasing survival series.
type SurvivalCurve struct {
	Unit   TimeUnit        `json:"unit" yaml:"unit"`
	Points []SurvivalPoint `json:"points" yaml:"points"`
}

// At returns the survival probability at time t.
func (c SurvivalCurve) At(t int) (float64, bool) {
	for _, p := range c.Points {
		if p.Time == t {
			return p.Survival, true
		}
	}
	return 0, false
}

// Window is an inclusive time interval.
type Window struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// WeibullParams are the shape (K) and scale (Lambda) of the survival model.
type WeibullParams struct {
	K      float64 `json:"k" yaml:"k"`
	Lambda float64 `json:"lambda" yaml:"lambda"`
}

// ParamsFromLP derives Weibull parameters from the linear predictor. The shape
// stays in a narrow positive band through tanh; the scale grows exponentially.
func ParamsFromLP(lp float64) WeibullParams {
	lp = clamp(lp, -maxAbsLP, maxAbsLP)
	return WeibullParams{
		K:      shapeBase + shapeSpread*math.Tanh(lp),
		Lambda: scaleBase * math.Exp(lp),
	}
}

// Survival returns S(t) = exp(-(lambda*t)^k) clamped to [SurvivalFloor, 1].
func (p WeibullParams) Survival(t float64) float64 {
	if t <= 0 {
		return 1
	}
	s := math.Exp(-math.Pow(p.Lambda*t, p.K))
	if math.IsNaN(s) {
		return SurvivalFloor
	}
	return clamp(s, SurvivalFloor, 1)
}

// Hazard returns the instantaneous hazard k * lambda^k * t^(k-1).
func (p WeibullParams) Hazard(t float64) float64 {
	return p.K * math.Pow(p.Lambda, p.K) * math.Pow(t, p.K-1)
}

// Curve evaluates the survival curve at every month in [0, months].
func (p WeibullParams) Curve(months int) SurvivalCurve {
	c := SurvivalCurve{
		Unit:   UnitMonth,
		Points: make([]SurvivalPoint, 0, months+1),
	}
	for m := 0; m <= months; m++ {
		s := p.Survival(float64(m))
		c.Points = append(c.Points, SurvivalPoint{Time: m, Survival: s, CumulativeRisk: 1 - s})
	}
	return c
}

// PeakWindow finds the PeakWindowWidth-month window within [1, horizon] whose
// average hazard is highest. The earliest window wins ties. A horizon shorter
// than the window width returns the full range.
func (p WeibullParams) PeakWindow(horizon int) Window {
	if horizon < 1 {
		return Window{}
	}
	if horizon < PeakWindowWidth {
		return Window{Start: 1, End: horizon}
	}

	h := make([]float64, horizon)
	for i := range h {
		h[i] = p.Hazard(float64(i + 1))
	}

	best, bestStart := math.Inf(-1), 0
	for s := 0; s+PeakWindowWidth <= horizon; s++ {
		var sum float64
		for _, v := range h[s : s+PeakWindowWidth] {
			sum += v
		}
		if avg := sum / PeakWindowWidth; avg > best {
			best, bestStart = avg, s
		}
	}

	start := bestStart + 1
	return Window{Start: start, End: min(horizon, start+PeakWindowWidth-1)}
}
