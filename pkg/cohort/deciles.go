package cohort

import (
	"fmt"
	"sort"

	"github.com/mchmarny/riskpulse/pkg/engine"
)

// Decile is the average survival curve of one risk decile (1 lowest).
type Decile struct {
	Decile int                    `json:"decile" yaml:"decile"`
	Size   int                    `json:"size" yaml:"size"`
	Points []engine.SurvivalPoint `json:"points" yaml:"points"`
}

// Deciles ranks batch rows by risk factor, splits them into ten equal-count
// groups and averages S(t) per day within each group. At least MinCohortSize
// rows are required.
func Deciles(rows []*engine.ScoredRow) ([]Decile, error) {
	if len(rows) < MinCohortSize {
		return nil, fmt.Errorf("%w: %d rows, need %d", ErrCohortTooSmall, len(rows), MinCohortSize)
	}

	ranked := make([]*engine.ScoredRow, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RiskFactor < ranked[j].RiskFactor
	})

	groups := make([][]*engine.ScoredRow, 10)
	for i, r := range ranked {
		d := i * 10 / len(ranked)
		groups[d] = append(groups[d], r)
	}

	out := make([]Decile, 0, 10)
	for i, g := range groups {
		out = append(out, Decile{Decile: i + 1, Size: len(g), Points: meanCurve(g)})
	}
	return out, nil
}

func meanCurve(rows []*engine.ScoredRow) []engine.SurvivalPoint {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, r := range rows {
		for _, p := range r.SurvivalCurve.Points {
			sums[p.Time] += p.Survival
			counts[p.Time]++
		}
	}

	times := make([]int, 0, len(sums))
	for t := range sums {
		times = append(times, t)
	}
	sort.Ints(times)

	out := make([]engine.SurvivalPoint, len(times))
	for i, t := range times {
		s := sums[t] / float64(counts[t])
		out[i] = engine.SurvivalPoint{Time: t, Survival: s, CumulativeRisk: 1 - s}
	}
	return out
}
