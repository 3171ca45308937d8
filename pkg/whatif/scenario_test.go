package whatif

import (
	"testing"

	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(risk, s30 float64) *engine.ScoredRow {
	return &engine.ScoredRow{
		RiskFactor: risk,
		SurvivalCurve: engine.SurvivalCurve{
			Unit: engine.UnitDay,
			Points: []engine.SurvivalPoint{
				{Time: 0, Survival: 1},
				{Time: EventRateDay, Survival: s30, CumulativeRisk: 1 - s30},
			},
		},
	}
}

func TestRunScenario(t *testing.T) {
	rows := []*engine.ScoredRow{
		row(0.1, 0.9),
		row(0.8, 0.5),
		row(0.5, 0.7),
		row(0.2, 0.8),
	}

	s, err := RunScenario(rows, Assumptions{Coverage: 0.5, Efficacy: 0.2, CostPerEvent: 1000, CostPerPatient: 10})
	require.NoError(t, err)

	assert.Equal(t, 4, s.CohortSize)
	assert.Equal(t, 2, s.Treated)
	// treated rows carry event rates 0.5 and 0.3
	assert.InDelta(t, 0.4, s.BaselineRate, 1e-12)
	assert.InDelta(t, 4*0.4*0.5*0.2, s.Avoided, 1e-12)
	assert.InDelta(t, 160, s.Result.Benefit, 1e-9)
	assert.InDelta(t, 20, s.Result.Cost, 1e-9)
	assert.InDelta(t, 7, s.Result.Ratio, 1e-9)

	// input order is untouched
	assert.InDelta(t, 0.1, rows[0].RiskFactor, 1e-12)
}

func TestRunScenario_CoverageRoundsUp(t *testing.T) {
	rows := []*engine.ScoredRow{row(0.1, 0.9), row(0.2, 0.9), row(0.3, 0.9)}
	s, err := RunScenario(rows, Assumptions{Coverage: 0.1, Efficacy: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Treated)
}

func TestRunScenario_Empty(t *testing.T) {
	s, err := RunScenario(nil, DefaultAssumptions())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Treated)
	assert.Equal(t, 0.0, s.Avoided)
}

func TestRunScenario_Invalid(t *testing.T) {
	_, err := RunScenario(nil, Assumptions{Coverage: 2})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestEventRate_Fallback(t *testing.T) {
	assert.InDelta(t, DefaultEventRate, EventRate(&engine.ScoredRow{}), 1e-12)
}

func TestRunScenario_FromBatch(t *testing.T) {
	recs := []engine.FeatureVector{
		{"creatinine": 1.0, "hba1c": 6.0, "sbp": 120, "polypharmacy_n": 2, "admissions_6m": 0},
		{"creatinine": 2.1, "hba1c": 9.0, "sbp": 160, "polypharmacy_n": 10, "admissions_6m": 2},
	}
	rows, err := engine.ScoreBatch(t.Context(), recs, 1)
	require.NoError(t, err)

	s, err := RunScenario(rows, DefaultAssumptions())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Treated)
	assert.Greater(t, s.BaselineRate, 0.0)
	assert.Less(t, s.BaselineRate, 1.0)
}
