package hyperparams

import (
	"math"
)

type cosine struct {
	base, min float64
	period    int
}

// Cosine returns cosine annealing from base down to min over the given number of iterations:
//
//	min + (base - min)·(1 + cos(π·t/period))/2
//
// evaluated at iteration t. Iterations past the period stay at min.
func Cosine(base, min float64, period int) *cosine {
	if period < 1 {
		period = 1
	}
	return &cosine{base, min, period}
}

func (c *cosine) TypeString() string {
	return "cosine"
}

func (c *cosine) Value(iter int) float64 {
	if iter <= 0 {
		return c.base
	} else if iter >= c.period {
		return c.min
	}

	return c.min + (c.base-c.min)*(1+math.Cos(math.Pi*float64(iter)/float64(c.period)))/2
}
