package initializers

import (
	"math/rand"
)

type uniformInit struct {
	source
	lower, upper float64
}

// Uniform returns an Initalizer that draws from a uniform random sample within a
// range, which can be set by Range. The range defaults to [-1, 1).
//
// The result of Uniform is a type that implements hdarts.Initializer. Zero is never drawn.
func Uniform() *uniformInit {
	return &uniformInit{lower: -1, upper: 1}
}

// Range sets the Range of a Uniform Initializer, returning the same Initializer
func (u *uniformInit) Range(lower, upper float64) *uniformInit {
	u.lower = lower
	u.upper = upper
	return u
}

// From sets the generator that values are drawn from, returning the Initializer.
func (u *uniformInit) From(r *rand.Rand) *uniformInit {
	u.r = r
	return u
}

func (u *uniformInit) Set(fanIn, fanOut int, ws []float64) {
	if u.lower > u.upper {
		u.lower, u.upper = u.upper, u.lower
	}

	for i := 0; i < len(ws); i++ {
		w := u.float()*(u.upper-u.lower) + u.lower
		if w == 0 {
			// discard and try again
			i--
			continue
		}
		ws[i] = w
	}
}
