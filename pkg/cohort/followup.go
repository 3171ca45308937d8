package cohort

import (
	"sort"
	"time"

	"github.com/mchmarny/riskpulse/pkg/engine"
)

const (
	followUpMinDays = 7
	followUpMaxDays = 14
)

// SuggestFollowUp returns the first control date: today plus the window start
// clamped to one to two weeks.
func SuggestFollowUp(today time.Time, tStartDays int) time.Time {
	d := min(max(tStartDays, followUpMinDays), followUpMaxDays)
	return today.AddDate(0, 0, d)
}

// Criteria selects batch rows for a clinic cohort. Zero values match all.
type Criteria struct {
	MinHbA1c        float64 `json:"min_hba1c,omitempty" yaml:"minHba1c,omitempty"`
	MinCreatinine   float64 `json:"min_creatinine,omitempty" yaml:"minCreatinine,omitempty"`
	MinPolypharmacy float64 `json:"min_polypharmacy,omitempty" yaml:"minPolypharmacy,omitempty"`
}

// Select returns the rows meeting every minimum.
func (c Criteria) Select(rows []*engine.ScoredRow) []*engine.ScoredRow {
	out := make([]*engine.ScoredRow, 0, len(rows))
	for _, r := range rows {
		if below(r.Record, c.MinHbA1c, "hba1c") ||
			below(r.Record, c.MinCreatinine, "creatinine", "creatinina") ||
			below(r.Record, c.MinPolypharmacy, "polypharmacy_n", "polifarmacia_n") {
			continue
		}
		out = append(out, r)
	}
	return out
}

func below(v engine.FeatureVector, threshold float64, names ...string) bool {
	if threshold <= 0 {
		return false
	}
	for _, n := range names {
		if x, ok := v.Number(n); ok {
			return x < threshold
		}
	}
	return true
}

// Appointment is one agenda entry.
type Appointment struct {
	Row  *engine.ScoredRow `json:"row" yaml:"row"`
	Date time.Time         `json:"date" yaml:"date"`
}

// Agenda schedules the first control of every row, highest risk first.
func Agenda(rows []*engine.ScoredRow, today time.Time) []Appointment {
	out := make([]Appointment, len(rows))
	for i, r := range rows {
		out[i] = Appointment{Row: r, Date: SuggestFollowUp(today, r.TStartDays)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Row.RiskFactor > out[j].Row.RiskFactor
	})
	return out
}
