// Package cohort aggregates scored subjects for population views.
package cohort

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/mchmarny/riskpulse/pkg/engine"
	"golang.org/x/sync/errgroup"
)

const (
	// MinCohortSize is the smallest cohort aggregates are reported for.
	MinCohortSize = 10

	// HistogramBins is the number of risk histogram bins.
	HistogramBins = 20

	// DefaultTopN is the length of the priority list.
	DefaultTopN = 50
)

var (
	// ErrCohortTooSmall is returned when a cohort has fewer than MinCohortSize
	// subjects.
	ErrCohortTooSmall = errors.New("cohort too small to report aggregates")
)

// Subject is one member of a population cohort.
type Subject struct {
	ID         string               `json:"id" yaml:"id"`
	Department string               `json:"department,omitempty" yaml:"department,omitempty"`
	Record     engine.FeatureVector `json:"record" yaml:"record"`
}

// Scored is a subject with its 24-month risk.
type Scored struct {
	ID          string      `json:"id" yaml:"id"`
	Department  string      `json:"department,omitempty" yaml:"department,omitempty"`
	Age         float64     `json:"age" yaml:"age"`
	Sex         string      `json:"sex" yaml:"sex"`
	RiskPercent float64     `json:"risk_pct_24m" yaml:"riskPct24m"`
	Tier        engine.Tier `json:"risk_tier_24m" yaml:"riskTier24m"`
}

// Filter narrows a cohort. Zero values match everything.
type Filter struct {
	Department string  `json:"department,omitempty" yaml:"department,omitempty"`
	Sex        string  `json:"sex,omitempty" yaml:"sex,omitempty"`
	AgeMin     float64 `json:"age_min,omitempty" yaml:"ageMin,omitempty"`
	AgeMax     float64 `json:"age_max,omitempty" yaml:"ageMax,omitempty"`
}

// Match reports whether s passes the filter.
func (f Filter) Match(s Subject) bool {
	if f.Department != "" && s.Department != f.Department {
		return false
	}
	if f.Sex != "" {
		if l, _ := s.Record.Label("sex"); l != f.Sex {
			return false
		}
	}
	if f.AgeMin > 0 || f.AgeMax > 0 {
		age, ok := s.Record.Number("age")
		if !ok {
			return false
		}
		if f.AgeMin > 0 && age < f.AgeMin {
			return false
		}
		if f.AgeMax > 0 && age > f.AgeMax {
			return false
		}
	}
	return true
}

// Apply returns the subjects matching f.
func (f Filter) Apply(subjects []Subject) []Subject {
	out := make([]Subject, 0, len(subjects))
	for _, s := range subjects {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// Score computes each subject's 24-month risk, rounded to one decimal.
func Score(ctx context.Context, e *engine.Engine, subjects []Subject) ([]*Scored, error) {
	out := make([]*Scored, len(subjects))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, s := range subjects {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Compute(s.Record, engine.DefaultHorizonMonths)
			if err != nil {
				return fmt.Errorf("scoring subject %s: %w", s.ID, err)
			}
			age, _ := s.Record.Number("age")
			sex, _ := s.Record.Label("sex")
			risk := math.Round(res.RiskPercent*10) / 10
			out[i] = &Scored{
				ID:          s.ID,
				Department:  s.Department,
				Age:         age,
				Sex:         sex,
				RiskPercent: risk,
				Tier:        engine.TierFor(risk),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Bin is one histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo    float64 `json:"lo" yaml:"lo"`
	Hi    float64 `json:"hi" yaml:"hi"`
	Count int     `json:"count" yaml:"count"`
}

// Summary holds the cohort-level aggregates.
type Summary struct {
	Size        int       `json:"size" yaml:"size"`
	MeanRisk    float64   `json:"mean_risk_pct" yaml:"meanRiskPct"`
	ShareHigh   float64   `json:"share_high" yaml:"shareHigh"`
	ShareMedium float64   `json:"share_medium" yaml:"shareMedium"`
	Histogram   []Bin     `json:"histogram" yaml:"histogram"`
	Top         []*Scored `json:"top" yaml:"top"`
}

// Summarize aggregates scored subjects. Cohorts under MinCohortSize return
// ErrCohortTooSmall so individuals cannot be singled out.
func Summarize(scored []*Scored, topN int) (*Summary, error) {
	if len(scored) < MinCohortSize {
		return nil, fmt.Errorf("%w: %d subjects, need %d", ErrCohortTooSmall, len(scored), MinCohortSize)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	s := &Summary{Size: len(scored)}
	risks := make([]float64, len(scored))
	for i, r := range scored {
		risks[i] = r.RiskPercent
		s.MeanRisk += r.RiskPercent
		switch r.Tier {
		case engine.TierHigh:
			s.ShareHigh++
		case engine.TierMedium:
			s.ShareMedium++
		}
	}
	n := float64(len(scored))
	s.MeanRisk /= n
	s.ShareHigh /= n
	s.ShareMedium /= n
	s.Histogram = histogram(risks, HistogramBins)

	ranked := make([]*Scored, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RiskPercent > ranked[j].RiskPercent
	})
	s.Top = ranked[:min(topN, len(ranked))]

	return s, nil
}

// histogram spreads values over equal-width bins between their min and max.
// The max value falls into the last bin.
func histogram(values []float64, bins int) []Bin {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lo: lo + float64(i)*width, Hi: lo + float64(i+1)*width}
	}
	for _, v := range values {
		i := min(int((v-lo)/width), bins-1)
		out[i].Count++
	}
	return out
}
