package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		risk float64
		want Tier
	}{
		{0, TierLow},
		{9.999, TierLow},
		{10, TierMedium},
		{19.999, TierMedium},
		{20, TierHigh},
		{100, TierHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.risk), "risk %v", tt.risk)
	}
}

func TestBatchTierFor(t *testing.T) {
	tests := []struct {
		risk float64
		want Tier
	}{
		{0.03, TierLow},
		{0.1499, TierLow},
		{0.15, TierMedium},
		{0.3999, TierMedium},
		{0.40, TierHigh},
		{0.95, TierHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BatchTierFor(tt.risk), "risk %v", tt.risk)
	}
}
