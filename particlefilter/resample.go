package particlefilter

import (
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Resampler selects how Resample draws the next generation.
type Resampler int

const (
	// Multinomial makes n independent draws, each picking particle i with
	// probability proportional to its weight.
	Multinomial Resampler = iota
	// Systematic uses a single random offset and n evenly spaced pointers
	// through the cumulative weights. Lower variance, same expectation.
	Systematic
)

func (r Resampler) String() string {
	switch r {
	case Multinomial:
		return "multinomial"
	case Systematic:
		return "systematic"
	default:
		return "unknown"
	}
}

func ParseResampler(s string) (Resampler, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multinomial":
		return Multinomial, nil
	case "systematic", "low-variance":
		return Systematic, nil
	default:
		return 0, errors.Wrapf(ErrInvalidArgument, "unknown resampler %q", s)
	}
}

// Resample replaces the particle set with len(set) draws taken with replacement,
// proportional to weight. Drawn particles keep the weight of their source and are
// renumbered 0..N-1.
//
// If every weight is zero the set is left alone and ErrDegenerateWeights is
// returned, unless the filter was built WithUniformFallback.
func (f *Filter) Resample() error {
	if !f.initialized {
		return ErrNotInitialized
	}

	weights := f.Weights()
	for i, w := range weights {
		if !isFinite(w) || w < 0 {
			return errors.Wrapf(ErrDegenerateWeights, "particle %d has weight %v", f.particles[i].ID, w)
		}
	}

	if maxW := floats.Max(weights); maxW > 0 {
		// scaled so the sum cannot overflow
		floats.Scale(1/maxW, weights)
	} else {
		if !f.uniformFallback {
			return errors.Wrap(ErrDegenerateWeights, "all weights are zero")
		}
		f.logger.WithField("particles", len(weights)).Warn("all particle weights are zero, resampling uniformly")
		for i := range weights {
			weights[i] = 1
		}
	}

	indices := f.resampler.draw(weights, len(weights), f.rng)

	next := make([]Particle, len(indices))
	for i, idx := range indices {
		next[i] = f.particles[idx].clone()
		next[i].ID = i
	}
	f.particles = next
	return nil
}

func (r Resampler) draw(weights []float64, n int, rng *rand.Rand) []int {
	if r == Systematic {
		return systematic(weights, n, rng)
	}
	return multinomial(weights, n, rng)
}

func multinomial(weights []float64, n int, rng *rand.Rand) []int {
	dist := distuv.NewCategorical(weights, rng)

	out := make([]int, n)
	for i := range out {
		out[i] = int(dist.Rand())
	}
	return out
}

func systematic(weights []float64, n int, rng *rand.Rand) []int {
	step := floats.Sum(weights) / float64(n)
	u := rng.Float64() * step

	out := make([]int, n)
	j := 0
	cumulative := weights[0]
	for i := range out {
		target := u + float64(i)*step
		for cumulative <= target && j < len(weights)-1 {
			j++
			cumulative += weights[j]
		}
		// rounding at the tail can strand the pointer on a zero weight
		pick := j
		for weights[pick] == 0 && pick > 0 {
			pick--
		}
		out[i] = pick
	}
	return out
}
