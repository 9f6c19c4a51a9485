// Package hyperparams provides the schedules used for learning rates.
package hyperparams

import (
	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

// Lookup returns the schedule with the given TypeString, built from base (the starting value), min
// (the final value, where there is one) and period (the number of iterations the schedule covers).
// "step" drops from base to min halfway through the period.
func Lookup(name string, base, min float64, period int) (hd.HyperParameter, error) {
	switch name {
	case Constant(0).TypeString():
		return Constant(base), nil
	case Step(0).TypeString():
		return Step(base).Add(period/2, min), nil
	case Cosine(0, 0, 1).TypeString():
		return Cosine(base, min, period), nil
	}

	return nil, errors.Errorf("No schedule with name %q", name)
}
