package cohort

import (
	"testing"

	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchRows(t *testing.T, n int) []*engine.ScoredRow {
	t.Helper()
	recs := make([]engine.FeatureVector, n)
	for i := range recs {
		recs[i] = engine.FeatureVector{
			"creatinine":     0.7 + float64(i%12)*0.15,
			"hba1c":          5.5 + float64(i%9)*0.4,
			"sbp":            110 + i%50,
			"polypharmacy_n": i % 10,
			"admissions_6m":  i % 3,
		}
	}
	rows, err := engine.ScoreBatch(t.Context(), recs, 5)
	require.NoError(t, err)
	return rows
}

func TestDeciles(t *testing.T) {
	rows := batchRows(t, 45)
	ds, err := Deciles(rows)
	require.NoError(t, err)
	require.Len(t, ds, 10)

	total := 0
	for i, d := range ds {
		assert.Equal(t, i+1, d.Decile)
		assert.GreaterOrEqual(t, d.Size, 4)
		assert.LessOrEqual(t, d.Size, 5)
		total += d.Size
		require.Len(t, d.Points, 13)
		assert.InDelta(t, 1.0, d.Points[0].Survival, 1e-12)
	}
	assert.Equal(t, 45, total)

	// higher deciles decay at least as fast
	last := len(ds[0].Points) - 1
	assert.GreaterOrEqual(t, ds[0].Points[last].Survival, ds[9].Points[last].Survival)
}

func TestDeciles_TooSmall(t *testing.T) {
	_, err := Deciles(batchRows(t, 9))
	assert.ErrorIs(t, err, ErrCohortTooSmall)
}
