package hdarts

import (
	"math"
)

// RunningStats holds the per-channel statistics that batch normalization uses outside of
// training. They are updated by every forward pass in training mode.
type RunningStats struct {
	Mean []float64 `json:"mean"`
	Var  []float64 `json:"var"`

	Momentum float64 `json:"momentum"`
	Eps      float64 `json:"eps"`
}

// StatsHolder is implemented by Operators that keep running statistics, themselves or through the
// Operators they contain.
type StatsHolder interface {
	RunningStats() []*RunningStats
}

// RunningStatsOf returns the running statistics kept by op, always in the same order, or nil if it
// keeps none.
func RunningStatsOf(op Operator) []*RunningStats {
	if h, ok := op.(StatsHolder); ok {
		return h.RunningStats()
	}
	return nil
}

func runningStatsOf(ops ...Operator) []*RunningStats {
	var rs []*RunningStats
	for _, op := range ops {
		rs = append(rs, RunningStatsOf(op)...)
	}
	return rs
}

// NewRunningStats returns the statistics for c channels, starting at mean 0 and variance 1.
func NewRunningStats(c int) *RunningStats {
	rs := &RunningStats{
		Mean:     make([]float64, c),
		Var:      make([]float64, c),
		Momentum: 0.1,
		Eps:      1e-5,
	}
	for i := range rs.Var {
		rs.Var[i] = 1
	}
	return rs
}

// BatchNorm2d normalizes every channel of x [N, C, H, W]. In training mode the statistics of the
// batch are used (and folded into stats); otherwise the running statistics are. gamma and beta
// scale and shift the result per channel; both may be nil for a normalization without an affine
// transform.
func BatchNorm2d(x, gamma, beta *Tensor, stats *RunningStats, training bool) *Tensor {
	if len(x.Shape) != 4 {
		shapePanic("BatchNorm2d", "expected 4 dimensions, got %v", x.Shape)
	}

	n, c, hw := x.Shape[0], x.Shape[1], x.Shape[2]*x.Shape[3]
	if len(stats.Mean) != c {
		shapePanic("BatchNorm2d", "statistics for %d channels given %d", len(stats.Mean), c)
	}

	inputs := []*Tensor{x}
	if gamma != nil {
		inputs = append(inputs, gamma)
	}
	if beta != nil {
		inputs = append(inputs, beta)
	}
	checkDevice("BatchNorm2d", inputs...)

	for _, t := range inputs[1:] {
		if t.Size() != c {
			shapePanic("BatchNorm2d", "affine parameter with %d values for %d channels", t.Size(), c)
		}
	}

	m := float64(n * hw)
	mean := make([]float64, c)
	invStd := make([]float64, c)

	// calls f with the index of every value in channel ch
	each := func(ch int, f func(i int)) {
		for b := 0; b < n; b++ {
			base := (b*c + ch) * hw
			for i := base; i < base+hw; i++ {
				f(i)
			}
		}
	}

	for ch := 0; ch < c; ch++ {
		if !training {
			mean[ch] = stats.Mean[ch]
			invStd[ch] = 1 / math.Sqrt(stats.Var[ch]+stats.Eps)
			continue
		}

		var sum float64
		each(ch, func(i int) { sum += x.Data[i] })
		mu := sum / m

		var sq float64
		each(ch, func(i int) { sq += (x.Data[i] - mu) * (x.Data[i] - mu) })
		v := sq / m

		mean[ch] = mu
		invStd[ch] = 1 / math.Sqrt(v+stats.Eps)

		unbiased := v
		if m > 1 {
			unbiased = sq / (m - 1)
		}
		stats.Mean[ch] = (1-stats.Momentum)*stats.Mean[ch] + stats.Momentum*mu
		stats.Var[ch] = (1-stats.Momentum)*stats.Var[ch] + stats.Momentum*unbiased
	}

	xhat := make([]float64, len(x.Data))
	d := make([]float64, len(x.Data))
	for ch := 0; ch < c; ch++ {
		g, bt := 1.0, 0.0
		if gamma != nil {
			g = gamma.Data[ch]
		}
		if beta != nil {
			bt = beta.Data[ch]
		}
		each(ch, func(i int) {
			xhat[i] = (x.Data[i] - mean[ch]) * invStd[ch]
			d[i] = g*xhat[i] + bt
		})
	}

	out := result(x.Shape, d, inputs...)
	if !out.requiresGrad {
		return out
	}

	out.backFn = func() {
		for ch := 0; ch < c; ch++ {
			var sumDy, sumDyXhat float64
			each(ch, func(i int) {
				sumDy += out.Grad[i]
				sumDyXhat += out.Grad[i] * xhat[i]
			})

			if gamma != nil && gamma.Grad != nil {
				gamma.Grad[ch] += sumDyXhat
			}
			if beta != nil && beta.Grad != nil {
				beta.Grad[ch] += sumDy
			}

			if x.Grad == nil {
				continue
			}

			g := 1.0
			if gamma != nil {
				g = gamma.Data[ch]
			}

			if !training {
				each(ch, func(i int) { x.Grad[i] += out.Grad[i] * g * invStd[ch] })
				continue
			}

			// dx = invStd/m · (m·dxhat - Σdxhat - xhat·Σ(dxhat·xhat)), with dxhat = g·dy
			each(ch, func(i int) {
				x.Grad[i] += g * invStd[ch] / m * (m*out.Grad[i] - sumDy - xhat[i]*sumDyXhat)
			})
		}
	}

	return out
}
