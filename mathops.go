package hdarts

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ReLU returns max(x, 0), element-wise. NaN is passed through, in both directions, so that it
// reaches the loss.
func ReLU(x *Tensor) *Tensor {
	d := make([]float64, len(x.Data))
	for i, v := range x.Data {
		if v > 0 || math.IsNaN(v) {
			d[i] = v
		}
	}

	out := result(x.Shape, d, x)
	if out.requiresGrad {
		out.backFn = func() {
			if x.Grad == nil {
				return
			}
			for i, v := range x.Data {
				if v > 0 || math.IsNaN(v) {
					x.Grad[i] += out.Grad[i]
				}
			}
		}
	}

	return out
}

// Add returns the element-wise sum of its inputs, which must all have the same shape.
func Add(xs ...*Tensor) *Tensor {
	if len(xs) == 0 {
		shapePanic("Add", "no inputs")
	}
	checkDevice("Add", xs...)

	d := make([]float64, len(xs[0].Data))
	for _, x := range xs {
		if !sameShape(x.Shape, xs[0].Shape) {
			shapePanic("Add", "shape %v does not match %v", x.Shape, xs[0].Shape)
		}
		floats.Add(d, x.Data)
	}

	out := result(xs[0].Shape, d, xs...)
	if out.requiresGrad {
		out.backFn = func() {
			for _, x := range xs {
				if x.Grad != nil {
					floats.Add(x.Grad, out.Grad)
				}
			}
		}
	}

	return out
}

// Softmax returns exp(θ_k) / Σ_j exp(θ_j) over every value of θ. The maximum is subtracted before
// exponentiating, so large-magnitude scores do not overflow.
func Softmax(theta *Tensor) *Tensor {
	d := softmax(theta.Data)

	out := result(theta.Shape, d, theta)
	if out.requiresGrad {
		out.backFn = func() {
			if theta.Grad == nil {
				return
			}
			// dθ_i = s_i (g_i - Σ_j g_j s_j)
			dot := floats.Dot(out.Grad, d)
			for i := range d {
				theta.Grad[i] += d[i] * (out.Grad[i] - dot)
			}
		}
	}

	return out
}

func softmax(vs []float64) []float64 {
	d := make([]float64, len(vs))
	if len(vs) == 0 {
		return d
	}

	max := floats.Max(vs)
	var sum float64
	for i, v := range vs {
		d[i] = math.Exp(v - max)
		sum += d[i]
	}

	floats.Scale(1/sum, d)
	return d
}

// WeightedSum returns Σ_k w_k·xs[k], where w holds one value per input. Every input must have the
// same shape.
func WeightedSum(w *Tensor, xs []*Tensor) *Tensor {
	if w.Size() != len(xs) || len(xs) == 0 {
		shapePanic("WeightedSum", "%d weights for %d inputs", w.Size(), len(xs))
	}
	checkDevice("WeightedSum", append([]*Tensor{w}, xs...)...)

	shape := xs[0].Shape
	d := make([]float64, len(xs[0].Data))
	for k, x := range xs {
		if !sameShape(x.Shape, shape) {
			shapePanic("WeightedSum", "input %d has shape %v, expected %v", k, x.Shape, shape)
		}
		floats.AddScaled(d, w.Data[k], x.Data)
	}

	out := result(shape, d, append([]*Tensor{w}, xs...)...)
	if out.requiresGrad {
		out.backFn = func() {
			for k, x := range xs {
				if x.Grad != nil {
					floats.AddScaled(x.Grad, w.Data[k], out.Grad)
				}
				if w.Grad != nil {
					w.Grad[k] += floats.Dot(out.Grad, x.Data)
				}
			}
		}
	}

	return out
}

// GlobalAvgPool averages each channel of an [N, C, H, W] tensor, returning [N, C].
func GlobalAvgPool(x *Tensor) *Tensor {
	if len(x.Shape) != 4 {
		shapePanic("GlobalAvgPool", "expected 4 dimensions, got %v", x.Shape)
	}

	n, c, hw := x.Shape[0], x.Shape[1], x.Shape[2]*x.Shape[3]
	d := make([]float64, n*c)
	for i := range d {
		d[i] = floats.Sum(x.Data[i*hw:(i+1)*hw]) / float64(hw)
	}

	out := result([]int{n, c}, d, x)
	if out.requiresGrad {
		out.backFn = func() {
			if x.Grad == nil {
				return
			}
			for i := range d {
				g := out.Grad[i] / float64(hw)
				grad := x.Grad[i*hw : (i+1)*hw]
				for j := range grad {
					grad[j] += g
				}
			}
		}
	}

	return out
}
