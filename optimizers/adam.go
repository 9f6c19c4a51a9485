package optimizers

import (
	"math"
)

type adam struct {
	beta1, beta2 float64
	epsilon      float64
	weightDecay  float64

	// the number of steps taken, counted by Advance
	t int

	m, v [][]float64
}

// Adam returns the Adam optimizer, with β1 = 0.9, β2 = 0.999 and ε = 1e-8 unless set otherwise.
// Weight decay is applied as an L2 penalty added to the gradient.
func Adam() *adam {
	return &adam{beta1: 0.9, beta2: 0.999, epsilon: 1e-8}
}

// Betas sets the decay rates of the first and second moment estimates, returning the optimizer.
func (a *adam) Betas(b1, b2 float64) *adam {
	a.beta1, a.beta2 = b1, b2
	return a
}

// Epsilon sets the term added to the denominator, returning the optimizer.
func (a *adam) Epsilon(eps float64) *adam {
	a.epsilon = eps
	return a
}

// WeightDecay sets the L2 penalty, returning the optimizer.
func (a *adam) WeightDecay(wd float64) *adam {
	a.weightDecay = wd
	return a
}

func (a *adam) TypeString() string {
	return "adam"
}

func (a *adam) Check(sizes []int) error {
	if err := check(a.m, sizes); err != nil {
		return err
	}
	return check(a.v, sizes)
}

// Advance counts a step; the bias corrections of every Run until the next Advance use it.
func (a *adam) Advance() {
	a.t++
}

// Steps returns the number of steps taken.
func (a *adam) Steps() int {
	return a.t
}

func (a *adam) Run(param, size int, value, grad func(int) float64, add func(int, float64), learningRate float64) error {
	m, _, err := state(&a.m, param, size)
	if err != nil {
		return err
	}
	v, _, err := state(&a.v, param, size)
	if err != nil {
		return err
	}

	t := a.t
	if t < 1 {
		t = 1
	}
	bc1 := 1 - math.Pow(a.beta1, float64(t))
	bc2 := 1 - math.Pow(a.beta2, float64(t))

	for i := 0; i < size; i++ {
		g := grad(i) + a.weightDecay*value(i)

		m[i] = a.beta1*m[i] + (1-a.beta1)*g
		v[i] = a.beta2*v[i] + (1-a.beta2)*g*g

		mHat := m[i] / bc1
		vHat := v[i] / bc2

		add(i, -learningRate*mHat/(math.Sqrt(vHat)+a.epsilon))
	}

	return nil
}
