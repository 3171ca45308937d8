package engine

// Tier is a discrete risk bucket used for prioritization and display.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Thresholds are inclusive lower bounds of the medium and high tiers.
type Thresholds struct {
	Medium float64 `json:"medium" yaml:"medium"`
	High   float64 `json:"high" yaml:"high"`
}

var (
	// SubjectThresholds bucket single-subject risk percentages.
	SubjectThresholds = Thresholds{Medium: 10, High: 20}

	// BatchThresholds bucket batch risk factors in [0, 1].
	BatchThresholds = Thresholds{Medium: 0.15, High: 0.40}
)

// Classify maps v onto a tier.
func (t Thresholds) Classify(v float64) Tier {
	switch {
	case v >= t.High:
		return TierHigh
	case v >= t.Medium:
		return TierMedium
	default:
		return TierLow
	}
}

// TierFor classifies a single-subject risk percentage.
func TierFor(riskPercent float64) Tier {
	return SubjectThresholds.Classify(riskPercent)
}

// BatchTierFor classifies a batch risk factor.
func BatchTierFor(riskFactor float64) Tier {
	return BatchThresholds.Classify(riskFactor)
}
