package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplain(t *testing.T) {
	e := New(nil)
	attrs := e.Explain(exampleVector())
	require.Len(t, attrs, len(e.Table().Features))

	for i := 1; i < len(attrs); i++ {
		assert.GreaterOrEqual(t, math.Abs(attrs[i-1].Contribution), math.Abs(attrs[i].Contribution))
	}

	assert.Equal(t, "sglt2", attrs[0].Feature)
	assert.InDelta(t, 1.412, attrs[0].Contribution, 0.01)
	assert.NotEmpty(t, attrs[0].Rationale)

	byName := make(map[string]float64, len(attrs))
	for _, a := range attrs {
		byName[a.Feature] = a.Contribution
	}
	// already at the healthiest value
	assert.InDelta(t, 0, byName["prior_cv"], 1e-12)
	assert.InDelta(t, 0, byName["diabetes"], 1e-12)
	// statin "No" raises risk
	assert.Greater(t, byName["statin"], 0.0)
}

func TestExplain_NotAdditive(t *testing.T) {
	e := New(nil)
	v := exampleVector()

	var sum float64
	healthy := v
	for _, a := range e.Explain(v) {
		sum += a.Contribution
	}
	for _, f := range e.Table().Features {
		healthy = healthy.With(f.Name, f.Healthiest())
	}
	joint := e.riskAt(v, DefaultHorizonMonths) - e.riskAt(healthy, DefaultHorizonMonths)

	assert.InDelta(t, 6.23, sum, 0.05)
	assert.InDelta(t, 5.47, joint, 0.05)
	assert.Greater(t, math.Abs(sum-joint), 0.5)
}
