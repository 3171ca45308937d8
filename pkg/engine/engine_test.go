package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Example(t *testing.T) {
	e := New(nil)
	res, err := e.Compute(exampleVector(), 24)
	require.NoError(t, err)

	assert.InDelta(t, 21.09, res.RiskPercent, 0.05)
	assert.Greater(t, res.RiskPercent, 5.0)
	assert.Less(t, res.RiskPercent, 25.0)
	assert.Equal(t, TierFor(res.RiskPercent), res.Tier)
	assert.Equal(t, 24, res.HorizonMonths)

	assert.InDelta(t, 0.0317, res.Metadata.LP, 1e-3)
	assert.Equal(t, Window{Start: 19, End: 24}, res.Metadata.PeakWindow)

	assert.Len(t, res.SurvivalCurve.Points, MinCurveMonths+1)
	s, ok := res.SurvivalCurve.At(24)
	require.True(t, ok)
	assert.InDelta(t, 100*(1-s), res.RiskPercent, 1e-9)
}

func TestCompute_Horizons(t *testing.T) {
	e := New(nil)
	v := exampleVector()

	prev := 0.0
	for _, h := range []int{1, 6, 12, 24, 60, 72} {
		res, err := e.Compute(v, h)
		require.NoError(t, err)
		assert.Greater(t, res.RiskPercent, prev, "horizon %d", h)
		assert.Len(t, res.SurvivalCurve.Points, max(h, MinCurveMonths)+1)
		prev = res.RiskPercent
	}
}

func TestCompute_InvalidHorizon(t *testing.T) {
	_, err := New(nil).Compute(exampleVector(), 0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestCompute_Monotonic(t *testing.T) {
	e := New(nil)
	base := exampleVector()

	for _, f := range e.Table().Features {
		if !f.Kind.IsNumeric() || f.Weight <= 0 {
			continue
		}
		t.Run(f.Name, func(t *testing.T) {
			prev := -1.0
			for i := 0; i <= 20; i++ {
				x := f.Lo() + (f.Hi()-f.Lo())*float64(i)/20
				if f.Kind == KindNumericInverse {
					// worse values sit at the low end
					x = f.Hi() - (f.Hi()-f.Lo())*float64(i)/20
				}
				res, err := e.Compute(base.With(f.Name, x), 24)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.RiskPercent, prev-1e-12)
				prev = res.RiskPercent
			}
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	e := New(nil)
	a, err := e.Compute(exampleVector(), 24)
	require.NoError(t, err)
	b, err := e.Compute(exampleVector(), 24)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
