package whatif

import (
	"math"
	"sort"

	"github.com/mchmarny/riskpulse/pkg/engine"
)

// Assumptions are the program parameters of a scenario.
type Assumptions struct {
	Coverage       float64 `json:"coverage" yaml:"coverage"`
	Efficacy       float64 `json:"efficacy" yaml:"efficacy"`
	CostPerEvent   float64 `json:"cost_per_event" yaml:"costPerEvent"`
	CostPerPatient float64 `json:"cost_per_patient" yaml:"costPerPatient"`
}

// DefaultAssumptions returns the scenario defaults: 30% coverage, 25%
// efficacy, 2500 per event and 45 per treated patient.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		Coverage:       0.30,
		Efficacy:       0.25,
		CostPerEvent:   2500,
		CostPerPatient: 45,
	}
}

// Scenario is the outcome of running a program over a scored cohort.
type Scenario struct {
	Assumptions  Assumptions `json:"assumptions" yaml:"assumptions"`
	CohortSize   int         `json:"cohort_size" yaml:"cohortSize"`
	Treated      int         `json:"treated" yaml:"treated"`
	BaselineRate float64     `json:"baseline_rate" yaml:"baselineRate"`
	Avoided      float64     `json:"avoided_events" yaml:"avoidedEvents"`
	Result       *Result     `json:"result" yaml:"result"`
}

// RunScenario treats the ceil(n * coverage) highest-risk rows. The baseline
// rate is the mean 30-day event rate of the treated rows, applied to the whole
// cohort through AvoidedEvents.
func RunScenario(rows []*engine.ScoredRow, a Assumptions) (*Scenario, error) {
	if err := unit("coverage", a.Coverage); err != nil {
		return nil, err
	}
	if err := unit("efficacy", a.Efficacy); err != nil {
		return nil, err
	}

	ranked := make([]*engine.ScoredRow, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RiskFactor > ranked[j].RiskFactor
	})

	treated := min(len(ranked), int(math.Ceil(float64(len(ranked))*a.Coverage)))

	var rate float64
	for _, r := range ranked[:treated] {
		rate += EventRate(r)
	}
	if treated > 0 {
		rate /= float64(treated)
	}

	avoided, err := AvoidedEvents(len(rows), rate, a.Coverage, a.Efficacy)
	if err != nil {
		return nil, err
	}
	res, err := ROI(avoided, a.CostPerEvent, a.CostPerPatient, treated)
	if err != nil {
		return nil, err
	}

	return &Scenario{
		Assumptions:  a,
		CohortSize:   len(rows),
		Treated:      treated,
		BaselineRate: rate,
		Avoided:      avoided,
		Result:       res,
	}, nil
}

// EventRate returns 1 - S(30 days) of a scored row.
func EventRate(r *engine.ScoredRow) float64 {
	s, ok := r.SurvivalCurve.At(EventRateDay)
	if !ok {
		return DefaultEventRate
	}
	return 1 - s
}
