package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	batchRiskScale   = 0.9
	batchRiskMin     = 0.03
	batchRiskMax     = 0.95
	batchStdEpsilon  = 1e-6
	batchHazardBase  = 0.015
	batchHazardSlope = 0.045

	// BatchCurveDays is the horizon of the batch survival curve.
	BatchCurveDays = 60
	// BatchCurveStep is the sampling step of the batch survival curve.
	BatchCurveStep = 5
	// BatchSurvivalFloor is the lowest survival value on a batch curve.
	BatchSurvivalFloor = 0.02
)

type batchTerm struct {
	column string
	label  string
	weight float64
	center float64
	scale  float64
	rank   float64
}

var (
	// batch terms in canonical column order; rank weights the heuristic
	// top feature ordering
	batchTerms = []batchTerm{
		{column: "creatinine", label: "Creatinine", weight: 0.9, center: 1.0, scale: 1, rank: 0.35},
		{column: "hba1c", label: "HbA1c", weight: 0.6, center: 6.0, scale: 1, rank: 0.30},
		{column: "sbp", label: "SBP", weight: 0.05, center: 120, scale: 10, rank: 0.08},
		{column: "polypharmacy_n", label: "Polypharmacy", weight: 0.08, center: 0, scale: 1, rank: 0.15},
		{column: "admissions_6m", label: "PriorAdmissions6m", weight: 0.5, center: 0, scale: 1, rank: 0.12},
	}

	batchAliases = map[string][]string{
		"creatinine":     {"creatinina"},
		"sbp":            {"sistolica"},
		"polypharmacy_n": {"polifarmacia_n"},
		"admissions_6m":  {"hosp_6m"},
	}
)

// BatchColumns returns the clinical-operations columns the batch scorer needs.
func BatchColumns() []string {
	cols := make([]string, len(batchTerms))
	for i, t := range batchTerms {
		cols[i] = t.column
	}
	return cols
}

// ValidateBatchColumns reports batch columns missing from columns. Legacy
// Spanish headers are accepted as aliases.
func ValidateBatchColumns(columns []string) error {
	return validateColumns(PipelineBatch, columns, BatchColumns(), batchAliases)
}

// ScoredRow is one batch input row augmented with its scores.
type ScoredRow struct {
	Record        FeatureVector `json:"record" yaml:"record"`
	RiskFactor    float64       `json:"risk_factor" yaml:"riskFactor"`
	Tier          Tier          `json:"tier" yaml:"tier"`
	SurvivalCurve SurvivalCurve `json:"survival_curve" yaml:"survivalCurve"`
	TStartDays    int           `json:"t_start_days" yaml:"tStartDays"`
	TEndDays      int           `json:"t_end_days" yaml:"tEndDays"`
	TopFeatures   []string      `json:"top_features" yaml:"topFeatures"`
}

// ScoreBatch scores records in two phases: the raw index of every row and the
// batch mean and standard deviation first, then each row's logistic risk,
// curve, jittered window and top features. Phase two runs in parallel. Because
// of the batch-wide normalization a row's risk depends on the other rows.
//
// Window jitter is drawn from a PCG source seeded with (seed, row index), so
// results are reproducible for a given seed and row order.
func ScoreBatch(ctx context.Context, records []FeatureVector, seed uint64) ([]*ScoredRow, error) {
	model, err := FitBatchModel(records)
	if err != nil {
		return nil, err
	}

	out := make([]*ScoredRow, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, rec := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			out[i] = model.scoreRow(rec, model.indexes[i], rng)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring batch: %w", err)
	}

	slog.Debug("batch scored", "rows", len(out), "mean", model.Mean, "std", model.Std)
	return out, nil
}

// BatchLogisticModel converts the batch index into a risk factor using the
// mean and standard deviation of the batch it was fitted on.
type BatchLogisticModel struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
	N    int     `json:"n" yaml:"n"`

	indexes []float64
}

// FitBatchModel computes the raw index of every record and the batch
// statistics. A column absent from every record returns a
// SchemaValidationError; a blank or non-numeric value in one row returns a
// ValueError for that row.
func FitBatchModel(records []FeatureVector) (*BatchLogisticModel, error) {
	m := &BatchLogisticModel{
		N:       len(records),
		indexes: make([]float64, len(records)),
	}

	if len(records) > 0 {
		if err := ValidateBatchColumns(recordColumns(records...)); err != nil {
			return nil, err
		}
	}

	for i, rec := range records {
		x, err := batchIndex(rec)
		if err != nil {
			if ve, ok := err.(*ValueError); ok {
				ve.Row = i
			}
			return nil, err
		}
		m.indexes[i] = x
		m.Mean += x
	}

	if m.N == 0 {
		return m, nil
	}
	m.Mean /= float64(m.N)

	// sample standard deviation; a single row has no spread
	if m.N > 1 {
		var ss float64
		for _, x := range m.indexes {
			ss += (x - m.Mean) * (x - m.Mean)
		}
		m.Std = math.Sqrt(ss / float64(m.N-1))
	}
	return m, nil
}

// Name identifies the model.
func (m *BatchLogisticModel) Name() string {
	return ModelBatchLogistic
}

// Score returns the risk factor of v relative to the fitted batch.
func (m *BatchLogisticModel) Score(v FeatureVector) (float64, error) {
	if err := ValidateBatchColumns(recordColumns(v)); err != nil {
		return 0, err
	}
	x, err := batchIndex(v)
	if err != nil {
		return 0, err
	}
	return m.riskFactor(x), nil
}

// SurvivalCurve returns the exponential decay curve for a risk factor,
// sampled every BatchCurveStep days up to horizonDays.
func (m *BatchLogisticModel) SurvivalCurve(riskFactor float64, horizonDays int) SurvivalCurve {
	return batchCurve(riskFactor, horizonDays)
}

func (m *BatchLogisticModel) riskFactor(x float64) float64 {
	var z float64
	if m.N > 1 {
		z = (x - m.Mean) / (m.Std + batchStdEpsilon)
	}
	return clamp(sigmoid(z)*batchRiskScale, batchRiskMin, batchRiskMax)
}

func (m *BatchLogisticModel) scoreRow(rec FeatureVector, x float64, rng *rand.Rand) *ScoredRow {
	risk := m.riskFactor(x)
	start, end := jitterWindow(rng, risk)
	return &ScoredRow{
		Record:        rec,
		RiskFactor:    risk,
		Tier:          BatchTierFor(risk),
		SurvivalCurve: batchCurve(risk, BatchCurveDays),
		TStartDays:    start,
		TEndDays:      end,
		TopFeatures:   topFeatures(risk),
	}
}

// batchIndex expects the columns to be validated; a term absent from v is a
// blank cell.
func batchIndex(v FeatureVector) (float64, error) {
	var x float64
	for _, t := range batchTerms {
		col, ok := resolveBatchColumn(v, t.column)
		if !ok {
			return 0, &ValueError{Column: t.column}
		}
		val, ok := v.Number(col)
		if !ok {
			return 0, &ValueError{Column: t.column, Value: fmt.Sprint(v[col])}
		}
		x += t.weight * (val - t.center) / t.scale
	}
	return x, nil
}

// recordColumns returns the union of keys across records.
func recordColumns(records ...FeatureVector) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

func resolveBatchColumn(v FeatureVector, column string) (string, bool) {
	if _, ok := v[column]; ok {
		return column, true
	}
	for _, a := range batchAliases[column] {
		if _, ok := v[a]; ok {
			return a, true
		}
	}
	return "", false
}

func batchCurve(riskFactor float64, horizonDays int) SurvivalCurve {
	hazard := batchHazardBase + batchHazardSlope*riskFactor
	c := SurvivalCurve{Unit: UnitDay}
	for d := 0; d <= horizonDays; d += BatchCurveStep {
		s := clamp(math.Exp(-hazard*float64(d)), BatchSurvivalFloor, 1)
		c.Points = append(c.Points, SurvivalPoint{Time: d, Survival: s, CumulativeRisk: 1 - s})
	}
	return c
}

// jitterWindow draws the priority window in days: higher risk gets an earlier,
// narrower window.
func jitterWindow(rng *rand.Rand, risk float64) (int, int) {
	var start, end int
	switch {
	case risk >= BatchThresholds.High:
		start = 7 + rng.IntN(7)
		end = start + 10 + rng.IntN(8)
	case risk >= BatchThresholds.Medium:
		start = 12 + rng.IntN(8)
		end = start + 12 + rng.IntN(12)
	default:
		start = 18 + rng.IntN(7)
		end = start + 14 + rng.IntN(14)
	}
	return start, end
}

// topFeatures ranks the batch features by rank weight scaled by risk. This is
// a heuristic ordering, not a marginal contribution.
func topFeatures(risk float64) []string {
	terms := make([]batchTerm, len(batchTerms))
	copy(terms, batchTerms)
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].rank*risk > terms[j].rank*risk
	})
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.label
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
