package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendedActions(t *testing.T) {
	tests := []struct {
		name   string
		v      FeatureVector
		tier   Tier
		window Window
		want   int
		first  string
	}{
		{
			name:   "example",
			v:      exampleVector(),
			tier:   TierHigh,
			window: Window{Start: 19, End: 24},
			// statin "No" and uacr 45
			want:  4,
			first: tierActions[TierHigh],
		},
		{
			name:   "no drivers",
			v:      FeatureVector{"statin": "Sí", "egfr": 95, "hba1c": 5.4},
			tier:   TierLow,
			window: Window{Start: 1, End: 6},
			want:   2,
			first:  tierActions[TierLow],
		},
		{
			name: "every driver",
			v: FeatureVector{
				"hba1c": 8.1, "sbp": 150, "ldl": 160, "egfr": 40, "bmi": 33, "smoker": "Si",
			},
			tier:   TierMedium,
			window: Window{Start: 19, End: 24},
			want:   8,
			first:  tierActions[TierMedium],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecommendedActions(tt.v, tt.tier, tt.window)
			assert.Len(t, got, tt.want)
			assert.Equal(t, tt.first, got[0])
			assert.Contains(t, got[len(got)-1], "months")
		})
	}
}

func TestRecommendedActions_Window(t *testing.T) {
	got := RecommendedActions(FeatureVector{}, TierLow, Window{Start: 19, End: 24})
	assert.Equal(t, "Reinforce interventions between months 19-24 (highest hazard window).", got[len(got)-1])
}
