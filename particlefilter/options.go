package particlefilter

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultNumParticles     = 30
	DefaultYawRateThreshold = 1e-5
)

type Option func(*Filter) error

func WithNumParticles(n int) Option {
	return func(f *Filter) error {
		if n <= 0 {
			return errors.Wrapf(ErrInvalidArgument, "particle count %d", n)
		}
		f.numParticles = n
		return nil
	}
}

// WithSeed makes every draw of the filter reproducible. Without it the generator
// is seeded from the runtime's random source.
func WithSeed(seed uint64) Option {
	return func(f *Filter) error {
		f.seed = &seed
		return nil
	}
}

func WithResampler(r Resampler) Option {
	return func(f *Filter) error {
		if r != Multinomial && r != Systematic {
			return errors.Wrapf(ErrInvalidArgument, "resampler %d", int(r))
		}
		f.resampler = r
		return nil
	}
}

// WithUniformFallback resamples uniformly when every weight is zero instead of
// returning ErrDegenerateWeights.
func WithUniformFallback() Option {
	return func(f *Filter) error {
		f.uniformFallback = true
		return nil
	}
}

// WithNormalizedLikelihood multiplies in the 1/(2π σx σy) density coefficient for
// every observation. It does not change resampling, only the absolute weights.
func WithNormalizedLikelihood() Option {
	return func(f *Filter) error {
		f.normalized = true
		return nil
	}
}

// WithRangeGate limits association to landmarks within the sensor range of the
// particle, falling back to the whole map when none are in range.
func WithRangeGate() Option {
	return func(f *Filter) error {
		f.rangeGate = true
		return nil
	}
}

// WithWorkers spreads the weighting pass over n goroutines. Weighting draws no
// random numbers, so results do not depend on n.
func WithWorkers(n int) Option {
	return func(f *Filter) error {
		if n <= 0 {
			return errors.Wrapf(ErrInvalidArgument, "worker count %d", n)
		}
		f.workers = n
		return nil
	}
}

func WithYawRateThreshold(eps float64) Option {
	return func(f *Filter) error {
		if err := checkStdDev("yaw rate threshold", eps); err != nil {
			return err
		}
		f.yawRateThreshold = eps
		return nil
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *Filter) error {
		if logger == nil {
			return errors.Wrap(ErrInvalidArgument, "nil logger")
		}
		f.logger = logger
		return nil
	}
}
