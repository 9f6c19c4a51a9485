package hdarts

import (
	"fmt"
)

type conv struct {
	w    *Tensor
	args ConvArgs
}

// Conv returns a convolution from cin to cout channels with a k×k filter and no bias. The filter is
// set by the Initializer, with fan-in and fan-out counted per output value.
func Conv(cin, cout, k int, args ConvArgs, init Initializer) *conv {
	args = args.normalized()
	if cin%args.Groups != 0 || cout%args.Groups != 0 {
		panic(configErrorf("conv of %d -> %d channels cannot be split into %d groups", cin, cout, args.Groups))
	}

	c := &conv{
		w:    NewParam("conv", cout, cin/args.Groups, k, k),
		args: args,
	}

	fanIn := cin / args.Groups * k * k
	fanOut := cout / args.Groups * k * k
	init.Set(fanIn, fanOut, c.w.Data)

	return c
}

func (c *conv) TypeString() string {
	return fmt.Sprintf("conv_%dx%d", c.w.Shape[2], c.w.Shape[3])
}

func (c *conv) Forward(x *Tensor) *Tensor {
	return Conv2d(x, c.w, c.args)
}

func (c *conv) Weights() []*Tensor {
	return []*Tensor{c.w}
}

func (c *conv) SetTraining(bool) {}

type batchNorm struct {
	gamma, beta *Tensor
	stats       *RunningStats
	training    bool
}

// BatchNorm returns a batch normalization over c channels. If affine is false, the normalized
// values are not scaled or shifted, and the layer has no weights.
func BatchNorm(c int, affine bool) *batchNorm {
	bn := &batchNorm{
		stats:    NewRunningStats(c),
		training: true,
	}

	if affine {
		bn.gamma = NewParam("bn.gamma", c)
		bn.beta = NewParam("bn.beta", c)
		for i := range bn.gamma.Data {
			bn.gamma.Data[i] = 1
		}
	}

	return bn
}

func (bn *batchNorm) TypeString() string {
	return "batch_norm"
}

func (bn *batchNorm) Forward(x *Tensor) *Tensor {
	return BatchNorm2d(x, bn.gamma, bn.beta, bn.stats, bn.training)
}

func (bn *batchNorm) Weights() []*Tensor {
	if bn.gamma == nil {
		return nil
	}
	return []*Tensor{bn.gamma, bn.beta}
}

func (bn *batchNorm) SetTraining(training bool) {
	bn.training = training
}

// Stats returns the running statistics used outside of training.
func (bn *batchNorm) Stats() *RunningStats {
	return bn.stats
}

func (bn *batchNorm) RunningStats() []*RunningStats {
	return []*RunningStats{bn.stats}
}

type relu struct{}

// Rectifier returns the Operator applying ReLU.
func Rectifier() relu {
	return relu{}
}

func (relu) TypeString() string        { return "relu" }
func (relu) Forward(x *Tensor) *Tensor { return ReLU(x) }
func (relu) Weights() []*Tensor        { return nil }
func (relu) SetTraining(bool)          {}

type sequential struct {
	name string
	ops  []Operator
}

// Sequential returns an Operator that applies each of the given Operators in turn. Its
// TypeString is the name given.
func Sequential(name string, ops ...Operator) *sequential {
	return &sequential{name, ops}
}

func (s *sequential) TypeString() string {
	return s.name
}

func (s *sequential) Forward(x *Tensor) *Tensor {
	for _, op := range s.ops {
		x = op.Forward(x)
	}
	return x
}

func (s *sequential) Weights() []*Tensor {
	var ws []*Tensor
	for _, op := range s.ops {
		ws = append(ws, op.Weights()...)
	}
	return ws
}

func (s *sequential) SetTraining(training bool) {
	for _, op := range s.ops {
		op.SetTraining(training)
	}
}

func (s *sequential) RunningStats() []*RunningStats {
	return runningStatsOf(s.ops...)
}

// ReLUConvBN is the usual ReLU, convolution and batch normalization stack, mapping cin to cout
// channels.
func ReLUConvBN(cin, cout, k int, args ConvArgs, affine bool, init Initializer) Operator {
	return Sequential("relu_conv_bn",
		Rectifier(),
		Conv(cin, cout, k, args, init),
		BatchNorm(cout, affine),
	)
}

type dense struct {
	w, b *Tensor
}

// Dense returns a fully connected layer from in to out values, with a bias. The weights are set by
// the Initializer; the bias starts at zero.
func Dense(in, out int, init Initializer) *dense {
	d := &dense{
		w: NewParam("dense.w", out, in),
		b: NewParam("dense.b", out),
	}
	init.Set(in, out, d.w.Data)
	return d
}

func (d *dense) TypeString() string {
	return "dense"
}

// Forward maps [N, In] to [N, Out]
func (d *dense) Forward(x *Tensor) *Tensor {
	return Linear(x, d.w, d.b)
}

func (d *dense) Weights() []*Tensor {
	return []*Tensor{d.w, d.b}
}

func (d *dense) SetTraining(bool) {}
