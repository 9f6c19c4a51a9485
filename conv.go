package hdarts

import (
	"github.com/sharnoff/hdarts/utils"
)

// ConvArgs describes a 2-D convolution: the square filter is applied with the given stride,
// zero-padding and dilation, in both spatial dimensions. Groups splits the input and output
// channels into that many independent convolutions; Groups equal to the number of input channels
// is a depthwise convolution.
type ConvArgs struct {
	Stride   int
	Padding  int
	Dilation int
	Groups   int
}

func (a ConvArgs) normalized() ConvArgs {
	if a.Stride < 1 {
		a.Stride = 1
	}
	if a.Dilation < 1 {
		a.Dilation = 1
	}
	if a.Groups < 1 {
		a.Groups = 1
	}
	return a
}

// OutputSize returns the spatial size resulting from applying a filter of size k to an input of
// the given size.
func (a ConvArgs) OutputSize(size, k int) int {
	a = a.normalized()
	return (size+2*a.Padding-a.Dilation*(k-1)-1)/a.Stride + 1
}

// Conv2d convolves x [N, Cin, H, W] with the filters w [Cout, Cin/Groups, K, K]. There is no bias.
func Conv2d(x, w *Tensor, args ConvArgs) *Tensor {
	checkDevice("Conv2d", x, w)
	args = args.normalized()

	if len(x.Shape) != 4 || len(w.Shape) != 4 {
		shapePanic("Conv2d", "input %v and filter %v must both have 4 dimensions", x.Shape, w.Shape)
	}

	n, cin, h, wd := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	cout, k := w.Shape[0], w.Shape[2]
	g := args.Groups

	if cin%g != 0 || cout%g != 0 {
		shapePanic("Conv2d", "channels %d -> %d not divisible into %d groups", cin, cout, g)
	} else if w.Shape[1] != cin/g || w.Shape[3] != k {
		shapePanic("Conv2d", "filter %v does not fit %d input channels in %d groups", w.Shape, cin, g)
	}

	oh, ow := args.OutputSize(h, k), args.OutputSize(wd, k)
	if oh < 1 || ow < 1 {
		shapePanic("Conv2d", "input %dx%d too small for filter %d", h, wd, k)
	}

	cinG, coutG := cin/g, cout/g
	s, p, dil := args.Stride, args.Padding, args.Dilation

	// calls f with the input and filter indexes of every product contributing to output
	// (b, oc, y, z)
	taps := func(b, oc, y, z int, f func(in, wi int)) {
		grp := oc / coutG
		for icl := 0; icl < cinG; icl++ {
			ic := grp*cinG + icl
			for kh := 0; kh < k; kh++ {
				iy := y*s - p + kh*dil
				if iy < 0 || iy >= h {
					continue
				}
				for kw := 0; kw < k; kw++ {
					iz := z*s - p + kw*dil
					if iz < 0 || iz >= wd {
						continue
					}
					f(((b*cin+ic)*h+iy)*wd+iz, ((oc*cinG+icl)*k+kh)*k+kw)
				}
			}
		}
	}

	d := make([]float64, n*cout*oh*ow)
	utils.MultiThread(0, n*cout, func(bc int) {
		b, oc := bc/cout, bc%cout
		for y := 0; y < oh; y++ {
			for z := 0; z < ow; z++ {
				var sum float64
				taps(b, oc, y, z, func(in, wi int) {
					sum += x.Data[in] * w.Data[wi]
				})
				d[((b*cout+oc)*oh+y)*ow+z] = sum
			}
		}
	}, 1, 1)

	out := result([]int{n, cout, oh, ow}, d, x, w)
	if out.requiresGrad {
		out.backFn = func() {
			outIndex := func(b, oc, y, z int) int { return ((b*cout+oc)*oh+y)*ow + z }

			// each sample only writes to its own slice of x.Grad
			if x.Grad != nil {
				utils.MultiThread(0, n, func(b int) {
					for oc := 0; oc < cout; oc++ {
						for y := 0; y < oh; y++ {
							for z := 0; z < ow; z++ {
								gr := out.Grad[outIndex(b, oc, y, z)]
								if gr == 0 {
									continue
								}
								taps(b, oc, y, z, func(in, wi int) {
									x.Grad[in] += gr * w.Data[wi]
								})
							}
						}
					}
				}, 1, 1)
			}

			// and each output channel only to its own filter
			if w.Grad != nil {
				utils.MultiThread(0, cout, func(oc int) {
					for b := 0; b < n; b++ {
						for y := 0; y < oh; y++ {
							for z := 0; z < ow; z++ {
								gr := out.Grad[outIndex(b, oc, y, z)]
								if gr == 0 {
									continue
								}
								taps(b, oc, y, z, func(in, wi int) {
									w.Grad[wi] += gr * x.Data[in]
								})
							}
						}
					}
				}, 1, 1)
			}
		}
	}

	return out
}
