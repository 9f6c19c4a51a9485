package operators

import (
	"fmt"

	hd "github.com/sharnoff/hdarts"
)

// depthwise then pointwise convolution, then batch normalization
func dwpw(c, k int, args hd.ConvArgs, init hd.Initializer) []hd.Operator {
	args.Groups = c
	return []hd.Operator{
		hd.Rectifier(),
		hd.Conv(c, c, k, args, init),
		hd.Conv(c, c, 1, hd.ConvArgs{}, init),
		hd.BatchNorm(c, false),
	}
}

// SepConv returns the separable convolution with a k×k filter: twice, ReLU followed by a depthwise
// k×k convolution, a pointwise convolution and batch normalization. Only the first depthwise
// convolution has the given stride.
func SepConv(c, k, stride int, init hd.Initializer) hd.Operator {
	ops := dwpw(c, k, hd.ConvArgs{Stride: stride, Padding: k / 2}, init)
	ops = append(ops, dwpw(c, k, hd.ConvArgs{Padding: k / 2}, init)...)

	return hd.Sequential(fmt.Sprintf("sep_conv_%dx%d", k, k), ops...)
}

// DilConv returns the dilated convolution with a k×k filter and dilation 2: ReLU, a depthwise
// dilated convolution, a pointwise convolution and batch normalization.
func DilConv(c, k, stride int, init hd.Initializer) hd.Operator {
	args := hd.ConvArgs{Stride: stride, Padding: k - 1, Dilation: 2}
	return hd.Sequential(fmt.Sprintf("dil_conv_%dx%d", k, k), dwpw(c, k, args, init)...)
}
