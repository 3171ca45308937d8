package engine

// RiskModel is a scoring strategy. Score returns the model's native risk index
// for a subject and SurvivalCurve expands an index into a curve. The two
// implementations use different formulas and output ranges and are selected
// explicitly by the caller.
type RiskModel interface {
	Name() string
	Score(v FeatureVector) (float64, error)
	SurvivalCurve(score float64, horizon int) SurvivalCurve
}

const (
	ModelWeibull       = "weibull"
	ModelBatchLogistic = "batch-logistic"
)

var (
	_ RiskModel = (*WeibullModel)(nil)
	_ RiskModel = (*BatchLogisticModel)(nil)
)

// WeibullModel is the single-subject strategy: Score returns the linear
// predictor and SurvivalCurve the monthly Weibull curve it implies.
type WeibullModel struct {
	table *FeatureTable
}

// NewWeibullModel creates the model over table (nil selects the default).
func NewWeibullModel(table *FeatureTable) *WeibullModel {
	if table == nil {
		table = DefaultFeatureTable()
	}
	return &WeibullModel{table: table}
}

// Name identifies the model.
func (m *WeibullModel) Name() string {
	return ModelWeibull
}

// Score returns the linear predictor of v.
func (m *WeibullModel) Score(v FeatureVector) (float64, error) {
	return m.table.LinearPredictor(v), nil
}

// SurvivalCurve returns the monthly curve for lp out to
// max(horizonMonths, MinCurveMonths).
func (m *WeibullModel) SurvivalCurve(lp float64, horizonMonths int) SurvivalCurve {
	return ParamsFromLP(lp).Curve(max(horizonMonths, MinCurveMonths))
}
