package initializers

import (
	"math"
	"math/rand"
)

type varianceScaling struct {
	source

	// either: "in", "out", "avg"
	mode   string
	factor float64
}

const defaultVarianceMode string = "avg"

// VarianceScaling returns the variance scaling initializer, which has 3 modes and a user-defined
// scaling factor. The three modes can be set by In, Out, and Avg. It defaults to Avg.
func VarianceScaling() *varianceScaling {
	return &varianceScaling{mode: defaultVarianceMode, factor: 1}
}

// Factor sets the scaling factor to be used for the Initializer. The default factor is 1.
func (v *varianceScaling) Factor(f float64) *varianceScaling {
	v.factor = f
	return v
}

// In sets the scaling to be based on the number of inputs to each value (the fan-in).
func (v *varianceScaling) In() *varianceScaling {
	v.mode = "in"
	return v
}

// Out sets the scaling to be based on the number of outputs from each value (the fan-out).
func (v *varianceScaling) Out() *varianceScaling {
	v.mode = "out"
	return v
}

// Avg sets the scaling to be based on the average of the fan-in and fan-out.
func (v *varianceScaling) Avg() *varianceScaling {
	v.mode = "avg"
	return v
}

// From sets the generator that values are drawn from, returning the Initializer.
func (v *varianceScaling) From(r *rand.Rand) *varianceScaling {
	v.r = r
	return v
}

// Set is the implementation of hdarts.Initializer
func (v *varianceScaling) Set(fanIn, fanOut int, ws []float64) {
	var scale float64
	if v.mode == "in" {
		scale = float64(fanIn)
	} else if v.mode == "out" {
		scale = float64(fanOut)
	} else { // must be "avg"
		scale = float64(fanIn+fanOut) / 2
	}

	if scale < 1 {
		scale = 1
	}

	gen := TruncNormal()
	gen.SD(math.Sqrt(v.factor / scale))
	gen.r = v.r

	for i := 0; i < len(ws); i++ {
		ws[i] = gen.Gen()
	}
}
