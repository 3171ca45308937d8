// Package sample generates seeded synthetic cohorts for demos and tests.
package sample

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
)

const (
	// DefaultSeed is the seed used when none is configured.
	DefaultSeed = 42
)

// weighted is a category with its sampling probability.
type weighted struct {
	value string
	p     float64
}

type source struct {
	rng *rand.Rand
}

func newSource(seed uint64) *source {
	return &source{rng: rand.New(rand.NewPCG(seed, 0x5eed))}
}

// normal draws from N(mean, sd) clamped to [lo, hi].
func (s *source) normal(mean, sd, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, mean+sd*s.rng.NormFloat64()))
}

func (s *source) choice(opts []weighted) string {
	x := s.rng.Float64()
	for _, o := range opts {
		if x < o.p {
			return o.value
		}
		x -= o.p
	}
	return opts[len(opts)-1].value
}

func (s *source) pick(opts []string) string {
	return opts[s.rng.IntN(len(opts))]
}

// poisson uses Knuth's multiplication method, fine for small means.
func (s *source) poisson(mean float64) int {
	l, k, p := math.Exp(-mean), 0, 1.0
	for {
		p *= s.rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

// chachaSeed expands a uint64 seed into a ChaCha8 key.
func chachaSeed(seed uint64) [32]byte {
	var b [32]byte
	for i := range 4 {
		binary.LittleEndian.PutUint64(b[i*8:], seed+uint64(i)*0x9e3779b97f4a7c15)
	}
	return b
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
