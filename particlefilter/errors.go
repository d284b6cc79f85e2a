package particlefilter

import (
	"github.com/pkg/errors"
)

var (
	ErrNotInitialized     = errors.New("particle filter is not initialized")
	ErrAlreadyInitialized = errors.New("particle filter is already initialized")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNumeric            = errors.New("non-finite particle pose")
	ErrDegenerateWeights  = errors.New("particle weights are degenerate")
)

func checkFinite(name string, vs ...float64) error {
	for i, v := range vs {
		if !isFinite(v) {
			return errors.Wrapf(ErrInvalidArgument, "%s[%d] = %v is not finite", name, i, v)
		}
	}
	return nil
}

// checkStdDev accepts zero, which turns the matching noise source off.
func checkStdDev(name string, vs ...float64) error {
	if err := checkFinite(name, vs...); err != nil {
		return err
	}
	for i, v := range vs {
		if v < 0 {
			return errors.Wrapf(ErrInvalidArgument, "%s[%d] = %v is negative", name, i, v)
		}
	}
	return nil
}

func checkPositive(name string, vs ...float64) error {
	if err := checkFinite(name, vs...); err != nil {
		return err
	}
	for i, v := range vs {
		if v <= 0 {
			return errors.Wrapf(ErrInvalidArgument, "%s[%d] = %v must be positive", name, i, v)
		}
	}
	return nil
}
