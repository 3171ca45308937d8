package cohort

import (
	"fmt"
	"testing"

	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subjects(n int) []Subject {
	out := make([]Subject, n)
	for i := range out {
		sex := "M"
		dept := "Finance"
		if i%2 == 1 {
			sex = "F"
			dept = "Nursing"
		}
		out[i] = Subject{
			ID:         fmt.Sprintf("E-%05d", i+1),
			Department: dept,
			Record: engine.FeatureVector{
				"age": 25 + i%50, "sex": sex, "sbp": 110 + i%60, "hba1c": 5.0 + float64(i%7)*0.5,
				"egfr": 110 - i%70, "smoker": []string{"No", "Ex", "Sí"}[i%3],
				"diabetes": "No", "statin": "Sí",
			},
		}
	}
	return out
}

func TestFilter(t *testing.T) {
	all := subjects(40)

	assert.Len(t, Filter{}.Apply(all), 40)
	assert.Len(t, Filter{Department: "Finance"}.Apply(all), 20)
	assert.Len(t, Filter{Sex: "F"}.Apply(all), 20)

	aged := Filter{AgeMin: 30, AgeMax: 39}.Apply(all)
	assert.Len(t, aged, 10)
	for _, s := range aged {
		age, _ := s.Record.Number("age")
		assert.GreaterOrEqual(t, age, 30.0)
		assert.LessOrEqual(t, age, 39.0)
	}
}

func TestScoreAndSummarize(t *testing.T) {
	scored, err := Score(t.Context(), engine.New(nil), subjects(40))
	require.NoError(t, err)
	require.Len(t, scored, 40)

	for _, s := range scored {
		assert.Equal(t, engine.TierFor(s.RiskPercent), s.Tier)
		assert.InDelta(t, s.RiskPercent, float64(int(s.RiskPercent*10+0.5))/10, 1e-9)
	}

	sum, err := Summarize(scored, 5)
	require.NoError(t, err)
	assert.Equal(t, 40, sum.Size)
	assert.Greater(t, sum.MeanRisk, 0.0)
	assert.LessOrEqual(t, sum.ShareHigh+sum.ShareMedium, 1.0)
	require.Len(t, sum.Top, 5)
	for i := 1; i < len(sum.Top); i++ {
		assert.GreaterOrEqual(t, sum.Top[i-1].RiskPercent, sum.Top[i].RiskPercent)
	}

	require.Len(t, sum.Histogram, HistogramBins)
	total := 0
	for _, b := range sum.Histogram {
		total += b.Count
	}
	assert.Equal(t, 40, total)
}

func TestSummarize_TooSmall(t *testing.T) {
	scored, err := Score(t.Context(), engine.New(nil), subjects(MinCohortSize-1))
	require.NoError(t, err)

	_, err = Summarize(scored, 0)
	assert.ErrorIs(t, err, ErrCohortTooSmall)
}

func TestHistogram_Constant(t *testing.T) {
	bins := histogram([]float64{5, 5, 5}, 4)
	assert.Equal(t, 3, bins[0].Count)
	assert.Equal(t, 5.0, bins[0].Lo)
}

func TestHistogram_MaxInLastBin(t *testing.T) {
	bins := histogram([]float64{0, 10}, 10)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 1, bins[9].Count)
}
