package operators

import (
	"fmt"

	hd "github.com/sharnoff/hdarts"
)

type pool struct {
	k, stride int
	bn        hd.Operator
	max       bool
}

// MaxPool returns max pooling over k×k windows, padded to keep the resolution (divided by the
// stride), followed by batch normalization without an affine transform.
func MaxPool(c, k, stride int) *pool {
	return &pool{k, stride, hd.BatchNorm(c, false), true}
}

// AvgPool returns average pooling in the same manner as MaxPool. Padding is not counted in the
// averages.
func AvgPool(c, k, stride int) *pool {
	return &pool{k, stride, hd.BatchNorm(c, false), false}
}

func (p *pool) TypeString() string {
	if p.max {
		return fmt.Sprintf("max_pool_%dx%d", p.k, p.k)
	}
	return fmt.Sprintf("avg_pool_%dx%d", p.k, p.k)
}

func (p *pool) Forward(x *hd.Tensor) *hd.Tensor {
	var y *hd.Tensor
	if p.max {
		y = hd.MaxPool2d(x, p.k, p.stride, p.k/2)
	} else {
		y = hd.AvgPool2d(x, p.k, p.stride, p.k/2)
	}

	return p.bn.Forward(y)
}

func (p *pool) Weights() []*hd.Tensor {
	return p.bn.Weights()
}

func (p *pool) SetTraining(training bool) {
	p.bn.SetTraining(training)
}

func (p *pool) RunningStats() []*hd.RunningStats {
	return hd.RunningStatsOf(p.bn)
}
