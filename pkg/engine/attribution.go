package engine

import (
	"math"
	"sort"
)

// Attribution is one feature's estimated share of a subject's current risk.
type Attribution struct {
	Feature      string  `json:"feature" yaml:"feature"`
	Contribution float64 `json:"contribution_pp" yaml:"contributionPP"`
	Rationale    string  `json:"rationale" yaml:"rationale"`
}

// Explain moves each feature, one at a time, to its healthiest value and
// records the drop in 24-month risk, in percentage points. Positive values mark
// features currently raising risk. Results are ordered by absolute magnitude.
//
// The entries are independent perturbations, not a decomposition: they do not
// sum to the total risk difference from an all-healthy profile.
func (e *Engine) Explain(v FeatureVector) []Attribution {
	base := e.riskAt(v, DefaultHorizonMonths)

	out := make([]Attribution, 0, len(e.table.Features))
	for _, f := range e.table.Features {
		cf := v.With(f.Name, f.Healthiest())
		out = append(out, Attribution{
			Feature:      f.Name,
			Contribution: base - e.riskAt(cf, DefaultHorizonMonths),
			Rationale:    f.Rationale,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Contribution) > math.Abs(out[j].Contribution)
	})
	return out
}
