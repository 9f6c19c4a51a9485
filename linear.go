package hdarts

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear returns x·wᵀ + b for x [N, In], w [Out, In] and b [Out]. b may be nil.
func Linear(x, w, b *Tensor) *Tensor {
	inputs := []*Tensor{x, w}
	if b != nil {
		inputs = append(inputs, b)
	}
	checkDevice("Linear", inputs...)

	if len(x.Shape) != 2 || len(w.Shape) != 2 || x.Shape[1] != w.Shape[1] {
		shapePanic("Linear", "input %v does not fit weights %v", x.Shape, w.Shape)
	}

	n, in, outSize := x.Shape[0], x.Shape[1], w.Shape[0]
	if b != nil && b.Size() != outSize {
		shapePanic("Linear", "bias of %d values for %d outputs", b.Size(), outSize)
	}

	xm := mat.NewDense(n, in, x.Data)
	wm := mat.NewDense(outSize, in, w.Data)

	d := make([]float64, n*outSize)
	ym := mat.NewDense(n, outSize, d)
	ym.Mul(xm, wm.T())

	if b != nil {
		for i := 0; i < n; i++ {
			floats.Add(d[i*outSize:(i+1)*outSize], b.Data)
		}
	}

	out := result([]int{n, outSize}, d, inputs...)
	if out.requiresGrad {
		out.backFn = func() {
			gm := mat.NewDense(n, outSize, out.Grad)

			if x.Grad != nil {
				var dx mat.Dense
				dx.Mul(gm, wm)
				floats.Add(x.Grad, dx.RawMatrix().Data)
			}

			if w.Grad != nil {
				var dw mat.Dense
				dw.Mul(gm.T(), xm)
				floats.Add(w.Grad, dw.RawMatrix().Data)
			}

			if b != nil && b.Grad != nil {
				for i := 0; i < n; i++ {
					floats.Add(b.Grad, out.Grad[i*outSize:(i+1)*outSize])
				}
			}
		}
	}

	return out
}
