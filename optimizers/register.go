// Package optimizers provides the update rules for parameter groups.
package optimizers

import (
	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

// Settings are what a config file can set for any optimizer. Momentum is the momentum factor of
// SGD, and β1 of Adam.
type Settings struct {
	Momentum    float64
	WeightDecay float64
}

var list = map[string]func(Settings) hd.Optimizer{
	SGD().TypeString(): func(s Settings) hd.Optimizer {
		return SGD().Momentum(s.Momentum).WeightDecay(s.WeightDecay)
	},
	Adam().TypeString(): func(s Settings) hd.Optimizer {
		return Adam().Betas(s.Momentum, 0.999).WeightDecay(s.WeightDecay)
	},
}

// Lookup returns a new Optimizer of the type given by its TypeString, with the given settings.
func Lookup(name string, s Settings) (hd.Optimizer, error) {
	f, ok := list[name]
	if !ok {
		return nil, errors.Errorf("No optimizer with name %q", name)
	}

	return f(s), nil
}
