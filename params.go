package hdarts

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ParamGroup is a set of parameters owned by a single Optimizer, with the learning rate it is given
// at each epoch. Every parameter of a Model belongs to exactly one ParamGroup.
type ParamGroup struct {
	name   string
	params []*Tensor
	opt    Optimizer
	lr     HyperParameter
}

// NewParamGroup returns the group of the given parameters. Each must be a parameter: a Tensor that
// requires gradients and was not computed from anything.
func NewParamGroup(name string, params []*Tensor, opt Optimizer, lr HyperParameter) (*ParamGroup, error) {
	if opt == nil {
		return nil, NilArgError{"Optimizer"}
	} else if lr == nil {
		return nil, NilArgError{"Learning rate"}
	} else if len(params) == 0 {
		return nil, errors.Wrapf(ErrNoParams, "Can't create group %q", name)
	}

	for i, p := range params {
		if p == nil || !p.IsParam() {
			return nil, errors.Errorf("Value %d of group %q is not a parameter", i, name)
		}
	}

	return &ParamGroup{name, params, opt, lr}, nil
}

// Name returns the name of the group.
func (g *ParamGroup) Name() string {
	return g.name
}

// Params returns the parameters of the group.
func (g *ParamGroup) Params() []*Tensor {
	return g.params
}

// Optimizer returns the update rule of the group.
func (g *ParamGroup) Optimizer() Optimizer {
	return g.opt
}

// LearningRate returns the learning rate of the group at the given epoch.
func (g *ParamGroup) LearningRate(epoch int) float64 {
	return g.lr.Value(epoch)
}

// ZeroGrad sets the gradient of every parameter in the group to zero.
func (g *ParamGroup) ZeroGrad() {
	for _, p := range g.params {
		p.ZeroGrad()
	}
}

// GradNorm returns the euclidean norm of the gradients of the whole group.
func (g *ParamGroup) GradNorm() float64 {
	var sq float64
	for _, p := range g.params {
		sq += floats.Dot(p.Grad, p.Grad)
	}
	return math.Sqrt(sq)
}

// ClipGradNorm scales the gradients of the group so that their total norm is at most max, and
// returns the norm from before clipping. Non-finite gradients are left as they are, for Step to
// reject.
func (g *ParamGroup) ClipGradNorm(max float64) float64 {
	norm := g.GradNorm()
	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		return norm
	}

	if coef := max / (norm + 1e-6); coef < 1 {
		for _, p := range g.params {
			floats.Scale(coef, p.Grad)
		}
	}

	return norm
}

// Step applies the Optimizer to every parameter of the group, with the learning rate for the
// epoch. Every gradient is checked before anything is changed: if any is not finite, Step returns
// ErrNonFinite and neither the parameters nor the state of the Optimizer are touched. The same holds
// if the Optimizer rejects the sizes of the parameters.
func (g *ParamGroup) Step(epoch int) error {
	sizes := make([]int, len(g.params))
	for i, p := range g.params {
		if !allFinite(p.Grad) {
			return errors.Wrapf(ErrNonFinite, "Gradient of %q in group %q", p.Name(), g.name)
		}
		sizes[i] = p.Size()
	}

	if err := g.opt.Check(sizes); err != nil {
		return errors.Wrapf(err, "%s can't step group %q", g.opt.TypeString(), g.name)
	}

	lr := g.lr.Value(epoch)
	g.opt.Advance()

	for i, p := range g.params {
		value := func(j int) float64 { return p.Data[j] }
		grad := func(j int) float64 { return p.Grad[j] }
		add := func(j int, v float64) { p.Data[j] += v }

		if err := g.opt.Run(i, p.Size(), value, grad, add, lr); err != nil {
			return errors.Wrapf(err, "Failed to run %s on %q in group %q", g.opt.TypeString(), p.Name(), g.name)
		}
	}

	return nil
}
