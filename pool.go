package hdarts

import (
	"math"

	"github.com/sharnoff/hdarts/utils"
)

type poolDims struct {
	n, c, h, w int
	oh, ow     int
	k, s, p    int
}

func newPoolDims(op string, x *Tensor, k, stride, padding int) poolDims {
	if len(x.Shape) != 4 {
		shapePanic(op, "expected 4 dimensions, got %v", x.Shape)
	}

	args := ConvArgs{Stride: stride, Padding: padding}.normalized()
	pd := poolDims{
		n: x.Shape[0], c: x.Shape[1], h: x.Shape[2], w: x.Shape[3],
		k: k, s: args.Stride, p: args.Padding,
	}
	pd.oh, pd.ow = args.OutputSize(pd.h, k), args.OutputSize(pd.w, k)

	if pd.oh < 1 || pd.ow < 1 {
		shapePanic(op, "input %dx%d too small for window %d", pd.h, pd.w, k)
	}

	return pd
}

// window calls f with the index of every non-padding input in the window of output (plane, y, z)
func (pd poolDims) window(plane, y, z int, f func(in int)) {
	for kh := 0; kh < pd.k; kh++ {
		iy := y*pd.s - pd.p + kh
		if iy < 0 || iy >= pd.h {
			continue
		}
		for kw := 0; kw < pd.k; kw++ {
			iz := z*pd.s - pd.p + kw
			if iz < 0 || iz >= pd.w {
				continue
			}
			f((plane*pd.h+iy)*pd.w + iz)
		}
	}
}

// MaxPool2d takes the maximum of each k×k window of every channel. Padding never wins.
func MaxPool2d(x *Tensor, k, stride, padding int) *Tensor {
	pd := newPoolDims("MaxPool2d", x, k, stride, padding)

	planes := pd.n * pd.c
	size := pd.oh * pd.ow
	d := make([]float64, planes*size)

	// the input index each output was taken from
	switches := make([]int, len(d))

	utils.MultiThread(0, planes, func(plane int) {
		for y := 0; y < pd.oh; y++ {
			for z := 0; z < pd.ow; z++ {
				o := plane*size + y*pd.ow + z
				best, arg := math.Inf(-1), -1
				pd.window(plane, y, z, func(in int) {
					// NaN wins the window
					if arg == -1 || x.Data[in] > best || (math.IsNaN(x.Data[in]) && !math.IsNaN(best)) {
						best, arg = x.Data[in], in
					}
				})
				d[o], switches[o] = best, arg
			}
		}
	}, 1, 1)

	out := result([]int{pd.n, pd.c, pd.oh, pd.ow}, d, x)
	if out.requiresGrad {
		out.backFn = func() {
			if x.Grad == nil {
				return
			}
			for o, in := range switches {
				x.Grad[in] += out.Grad[o]
			}
		}
	}

	return out
}

// AvgPool2d averages each k×k window of every channel. Padding is not counted in the average.
func AvgPool2d(x *Tensor, k, stride, padding int) *Tensor {
	pd := newPoolDims("AvgPool2d", x, k, stride, padding)

	planes := pd.n * pd.c
	size := pd.oh * pd.ow
	d := make([]float64, planes*size)
	counts := make([]int, size)

	for y := 0; y < pd.oh; y++ {
		for z := 0; z < pd.ow; z++ {
			pd.window(0, y, z, func(int) { counts[y*pd.ow+z]++ })
		}
	}

	utils.MultiThread(0, planes, func(plane int) {
		for y := 0; y < pd.oh; y++ {
			for z := 0; z < pd.ow; z++ {
				var sum float64
				pd.window(plane, y, z, func(in int) { sum += x.Data[in] })
				d[plane*size+y*pd.ow+z] = sum / float64(counts[y*pd.ow+z])
			}
		}
	}, 1, 1)

	out := result([]int{pd.n, pd.c, pd.oh, pd.ow}, d, x)
	if out.requiresGrad {
		out.backFn = func() {
			if x.Grad == nil {
				return
			}
			// planes are disjoint in x.Grad
			utils.MultiThread(0, planes, func(plane int) {
				for y := 0; y < pd.oh; y++ {
					for z := 0; z < pd.ow; z++ {
						g := out.Grad[plane*size+y*pd.ow+z] / float64(counts[y*pd.ow+z])
						pd.window(plane, y, z, func(in int) { x.Grad[in] += g })
					}
				}
			}, 1, 1)
		}
	}

	return out
}
