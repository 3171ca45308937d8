package engine

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	// DefaultHorizonMonths is the horizon used by attribution and cohort scoring.
	DefaultHorizonMonths = 24
)

var (
	// ErrInvalidHorizon is returned for horizons below one month.
	ErrInvalidHorizon = errors.New("horizon must be at least one month")
)

// Metadata exposes the intermediate values behind a risk result.
type Metadata struct {
	LP         float64 `json:"lp" yaml:"lp"`
	K          float64 `json:"k" yaml:"k"`
	Lambda     float64 `json:"lambda" yaml:"lambda"`
	PeakWindow Window  `json:"peak_window" yaml:"peakWindow"`
}

// RiskResult is the single-subject scoring output.
type RiskResult struct {
	RiskPercent   float64       `json:"risk_percent" yaml:"riskPercent"`
	HorizonMonths int           `json:"horizon_months" yaml:"horizonMonths"`
	Tier          Tier          `json:"tier" yaml:"tier"`
	SurvivalCurve SurvivalCurve `json:"survival_curve" yaml:"survivalCurve"`
	Metadata      Metadata      `json:"metadata" yaml:"metadata"`
}

// Engine scores single subjects against an immutable feature table.
type Engine struct {
	table *FeatureTable
}

// New creates an engine over table. A nil table selects the embedded default.
func New(table *FeatureTable) *Engine {
	if table == nil {
		table = DefaultFeatureTable()
	}
	return &Engine{table: table}
}

// Table returns the engine's feature table.
func (e *Engine) Table() *FeatureTable {
	return e.table
}

// Compute scores v at horizonMonths. The curve is evaluated to at least
// MinCurveMonths so the peak window search always has enough range.
func (e *Engine) Compute(v FeatureVector, horizonMonths int) (*RiskResult, error) {
	if horizonMonths < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizonMonths)
	}

	lp := e.table.LinearPredictor(v)
	p := ParamsFromLP(lp)
	curve := p.Curve(max(horizonMonths, MinCurveMonths))

	s, _ := curve.At(horizonMonths)
	risk := (1 - s) * 100

	res := &RiskResult{
		RiskPercent:   risk,
		HorizonMonths: horizonMonths,
		Tier:          TierFor(risk),
		SurvivalCurve: curve,
		Metadata: Metadata{
			LP:         lp,
			K:          p.K,
			Lambda:     p.Lambda,
			PeakWindow: p.PeakWindow(horizonMonths),
		},
	}

	slog.Debug("risk computed",
		"lp", lp, "k", p.K, "lambda", p.Lambda, "horizon", horizonMonths, "risk", risk)

	return res, nil
}

// riskAt returns only the risk percentage at horizon.
func (e *Engine) riskAt(v FeatureVector, horizonMonths int) float64 {
	p := ParamsFromLP(e.table.LinearPredictor(v))
	return (1 - p.Survival(float64(horizonMonths))) * 100
}
