package operators

import (
	hd "github.com/sharnoff/hdarts"
)

type identity int8

// Identity returns an operator that returns its input
func Identity() identity {
	return identity(0)
}

func (t identity) TypeString() string {
	return "identity"
}

func (t identity) Forward(x *hd.Tensor) *hd.Tensor {
	return x
}

func (t identity) Weights() []*hd.Tensor {
	return nil
}

func (t identity) SetTraining(bool) {}

// Skip returns the skip connection for c channels. With stride 1 it is the identity; otherwise the
// input is reduced by a strided 1×1 convolution, so that it lines up with the other candidates.
func Skip(c, stride int, init hd.Initializer) hd.Operator {
	if stride == 1 {
		return Identity()
	}

	return FactorizedReduce(c, stride, init)
}

// FactorizedReduce returns the reduction used by strided skip connections: ReLU, a 1×1 convolution
// with the given stride, then batch normalization without an affine transform.
func FactorizedReduce(c, stride int, init hd.Initializer) hd.Operator {
	return hd.Sequential("factorized_reduce",
		hd.Rectifier(),
		hd.Conv(c, c, 1, hd.ConvArgs{Stride: stride}, init),
		hd.BatchNorm(c, false),
	)
}

type zero int

// Zero returns the "none" operation: zeros, at the resolution given by the stride. It has no weights
// and passes no gradient back.
func Zero(stride int) zero {
	if stride < 1 {
		stride = 1
	}
	return zero(stride)
}

func (z zero) TypeString() string {
	return "none"
}

func (z zero) Forward(x *hd.Tensor) *hd.Tensor {
	args := hd.ConvArgs{Stride: int(z)}
	n, c := x.Shape[0], x.Shape[1]
	h, w := args.OutputSize(x.Shape[2], 1), args.OutputSize(x.Shape[3], 1)

	out := hd.Zeros(n, c, h, w)
	out.Device = x.Device
	return out
}

func (z zero) Weights() []*hd.Tensor {
	return nil
}

func (z zero) SetTraining(bool) {}
