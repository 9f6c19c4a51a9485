package optimizers

import (
	"github.com/pkg/errors"
)

type sgd struct {
	momentum    float64
	weightDecay float64

	// one velocity per parameter, allocated on first use
	velocity [][]float64
}

// SGD returns stochastic gradient descent. Momentum and weight decay can be set by Momentum and
// WeightDecay; both default to 0.
//
// With weight decay λ and momentum μ, each value p with gradient g is updated by:
//	d = g + λp
//	v = μv + d   (v = d on the first step)
//	p = p - lr·v
func SGD() *sgd {
	return &sgd{}
}

// Momentum sets the momentum factor, returning the optimizer.
func (s *sgd) Momentum(m float64) *sgd {
	s.momentum = m
	return s
}

// WeightDecay sets the L2 penalty, returning the optimizer.
func (s *sgd) WeightDecay(wd float64) *sgd {
	s.weightDecay = wd
	return s
}

func (s *sgd) TypeString() string {
	return "sgd"
}

func (s *sgd) Check(sizes []int) error {
	return check(s.velocity, sizes)
}

func (s *sgd) Advance() {}

func (s *sgd) Run(param, size int, value, grad func(int) float64, add func(int, float64), learningRate float64) error {
	v, fresh, err := state(&s.velocity, param, size)
	if err != nil {
		return err
	}

	for i := 0; i < size; i++ {
		d := grad(i) + s.weightDecay*value(i)

		if s.momentum != 0 {
			if fresh {
				v[i] = d
			} else {
				v[i] = s.momentum*v[i] + d
			}
			d = v[i]
		}

		add(i, -learningRate*d)
	}

	return nil
}

// check returns an error if any parameter that already has a slot has changed size
func check(slots [][]float64, sizes []int) error {
	for i, n := range sizes {
		if i < len(slots) && slots[i] != nil && len(slots[i]) != n {
			return errors.Errorf("Parameter %d has %d values, previously %d", i, n, len(slots[i]))
		}
	}
	return nil
}

// state returns the slot of the given parameter, allocating it (and returning true) if it has not
// been used before
func state(slots *[][]float64, param, size int) ([]float64, bool, error) {
	if param < 0 {
		return nil, false, errors.Errorf("Parameter index %d is negative", param)
	}

	for len(*slots) <= param {
		*slots = append(*slots, nil)
	}

	if (*slots)[param] == nil {
		(*slots)[param] = make([]float64, size)
		return (*slots)[param], true, nil
	} else if len((*slots)[param]) != size {
		return nil, false, errors.Errorf("Parameter %d has %d values, previously %d", param, size, len((*slots)[param]))
	}

	return (*slots)[param], false, nil
}
