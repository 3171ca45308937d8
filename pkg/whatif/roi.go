// Package whatif estimates the return on an intervention program.
package whatif

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	// EventRateDay is the curve point used as a row's event rate.
	EventRateDay = 30

	// DefaultEventRate is used when a row's curve has no EventRateDay point.
	DefaultEventRate = 0.15
)

var (
	// ErrOutOfRange is returned for rates, coverage or efficacy outside [0, 1]
	// and for negative counts or costs.
	ErrOutOfRange = errors.New("value out of range")
)

// Result is the financial outcome of a program.
type Result struct {
	Benefit float64 `json:"benefit" yaml:"benefit"`
	Cost    float64 `json:"cost" yaml:"cost"`
	// Ratio is (benefit - cost) / cost, +Inf when cost is zero.
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

// MarshalJSON encodes an unbounded ratio as null with "unbounded" set, since
// JSON has no infinity.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Benefit   float64  `json:"benefit"`
		Cost      float64  `json:"cost"`
		Ratio     *float64 `json:"ratio"`
		Unbounded bool     `json:"unbounded,omitempty"`
	}{Benefit: r.Benefit, Cost: r.Cost}

	if math.IsInf(r.Ratio, 0) {
		out.Unbounded = true
	} else {
		out.Ratio = &r.Ratio
	}
	return json.Marshal(out)
}

// AvoidedEvents returns n * baselineRate * coverage * efficacy.
func AvoidedEvents(n int, baselineRate, coverage, efficacy float64) (float64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: cohort size %d", ErrOutOfRange, n)
	}
	if err := unit("baseline rate", baselineRate); err != nil {
		return 0, err
	}
	if err := unit("coverage", coverage); err != nil {
		return 0, err
	}
	if err := unit("efficacy", efficacy); err != nil {
		return 0, err
	}
	return float64(n) * baselineRate * coverage * efficacy, nil
}

// ROI prices avoided events against the cost of treating nTreated patients.
func ROI(avoided, costPerEvent, costPerPatient float64, nTreated int) (*Result, error) {
	if avoided < 0 || costPerEvent < 0 || costPerPatient < 0 || nTreated < 0 {
		return nil, fmt.Errorf("%w: negative ROI input", ErrOutOfRange)
	}

	r := &Result{
		Benefit: avoided * costPerEvent,
		Cost:    costPerPatient * float64(nTreated),
	}
	if r.Cost == 0 {
		r.Ratio = math.Inf(1)
		return r, nil
	}
	r.Ratio = (r.Benefit - r.Cost) / r.Cost
	return r, nil
}

func unit(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s %v not in [0, 1]", ErrOutOfRange, name, v)
	}
	return nil
}
