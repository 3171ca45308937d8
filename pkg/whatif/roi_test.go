package whatif

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvoidedEvents(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		rate     float64
		coverage float64
		efficacy float64
		want     float64
		err      bool
	}{
		{"typical", 1000, 0.2, 0.3, 0.25, 15, false},
		{"no coverage", 1000, 0.2, 0, 0.25, 0, false},
		{"full", 10, 1, 1, 1, 10, false},
		{"negative coverage", 10, 0.2, -0.1, 0.5, 0, true},
		{"efficacy above one", 10, 0.2, 0.5, 1.5, 0, true},
		{"rate above one", 10, 2, 0.5, 0.5, 0, true},
		{"negative cohort", -1, 0.2, 0.5, 0.5, 0, true},
		{"nan coverage", 10, 0.2, math.NaN(), 0.5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AvoidedEvents(tt.n, tt.rate, tt.coverage, tt.efficacy)
			if tt.err {
				assert.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAvoidedEvents_FirstInvalidInput(t *testing.T) {
	for range 20 {
		_, err := AvoidedEvents(10, 2, -1, 3)
		require.ErrorIs(t, err, ErrOutOfRange)
		assert.Contains(t, err.Error(), "baseline rate")
	}

	_, err := AvoidedEvents(10, 0.2, -1, 3)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "coverage")
}

func TestROI(t *testing.T) {
	r, err := ROI(15, 2500, 45, 300)
	require.NoError(t, err)
	assert.InDelta(t, 37500, r.Benefit, 1e-9)
	assert.InDelta(t, 13500, r.Cost, 1e-9)
	assert.InDelta(t, 24000.0/13500.0, r.Ratio, 1e-12)
}

func TestROI_NoBenefit(t *testing.T) {
	r, err := ROI(0, 2500, 45, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Benefit)
	assert.InDelta(t, -1.0, r.Ratio, 1e-12)
}

func TestROI_ZeroCost(t *testing.T) {
	r, err := ROI(3, 2500, 0, 10)
	require.NoError(t, err)
	assert.True(t, math.IsInf(r.Ratio, 1))

	r, err = ROI(3, 2500, 45, 0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(r.Ratio, 1))
}

func TestROI_Negative(t *testing.T) {
	_, err := ROI(-1, 2500, 45, 10)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestResult_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(&Result{Benefit: 10, Cost: 0, Ratio: math.Inf(1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"benefit":10,"cost":0,"ratio":null,"unbounded":true}`, string(b))

	b, err = json.Marshal(Result{Benefit: 20, Cost: 10, Ratio: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"benefit":20,"cost":10,"ratio":1}`, string(b))
}
