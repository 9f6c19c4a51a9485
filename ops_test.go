package hdarts

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func randParam(rng *rand.Rand, name string, shape ...int) *Tensor {
	p := NewParam(name, shape...)
	for i := range p.Data {
		p.Data[i] = rng.NormFloat64()
	}
	return p
}

// weightedTotal reduces x to Σ c_i·x_i, so that every value of x affects the result differently
func weightedTotal(x *Tensor, c []float64) *Tensor {
	out := result([]int{1}, []float64{floats.Dot(x.Data, c)}, x)
	if out.requiresGrad {
		out.backFn = func() {
			if x.Grad != nil {
				floats.AddScaled(x.Grad, out.Grad[0], c)
			}
		}
	}
	return out
}

func coefficients(rng *rand.Rand, n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = rng.NormFloat64()
	}
	return c
}

// checkGradients compares the gradients given by Backward against central differences
func checkGradients(t *testing.T, params []*Tensor, f func() *Tensor) {
	t.Helper()

	for _, p := range params {
		p.ZeroGrad()
	}
	if err := Backward(f()); err != nil {
		t.Fatalf("Backward: %v", err)
	}

	const h = 1e-6
	for _, p := range params {
		analytic := append([]float64(nil), p.Grad...)

		for i := range p.Data {
			orig := p.Data[i]
			p.Data[i] = orig + h
			plus := f().Item()
			p.Data[i] = orig - h
			minus := f().Item()
			p.Data[i] = orig

			numeric := (plus - minus) / (2 * h)
			if math.Abs(numeric-analytic[i]) > 1e-5*math.Max(1, math.Abs(numeric)) {
				t.Errorf("%s[%d]: gradient %g, numeric %g", p.Name(), i, analytic[i], numeric)
			}
		}
	}
}

func TestGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	t.Run("Conv2d", func(t *testing.T) {
		cases := []struct {
			name string
			cin  int
			cout int
			k    int
			args ConvArgs
		}{
			{"plain", 2, 3, 3, ConvArgs{Padding: 1}},
			{"strided", 2, 2, 3, ConvArgs{Stride: 2, Padding: 1}},
			{"dilated", 2, 2, 3, ConvArgs{Padding: 2, Dilation: 2}},
			{"depthwise", 2, 2, 3, ConvArgs{Padding: 1, Groups: 2}},
			{"pointwise", 3, 2, 1, ConvArgs{}},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				x := randParam(rng, "x", 2, c.cin, 5, 5)
				w := randParam(rng, "w", c.cout, c.cin/c.args.normalized().Groups, c.k, c.k)

				size := c.args.OutputSize(5, c.k)
				coef := coefficients(rng, 2*c.cout*size*size)

				checkGradients(t, []*Tensor{x, w}, func() *Tensor {
					return weightedTotal(Conv2d(x, w, c.args), coef)
				})
			})
		}
	})

	t.Run("MaxPool2d", func(t *testing.T) {
		x := randParam(rng, "x", 1, 2, 5, 5)
		coef := coefficients(rng, 2*3*3)
		checkGradients(t, []*Tensor{x}, func() *Tensor {
			return weightedTotal(MaxPool2d(x, 3, 2, 1), coef)
		})
	})

	t.Run("AvgPool2d", func(t *testing.T) {
		x := randParam(rng, "x", 1, 2, 4, 4)
		coef := coefficients(rng, 2*4*4)
		checkGradients(t, []*Tensor{x}, func() *Tensor {
			return weightedTotal(AvgPool2d(x, 3, 1, 1), coef)
		})
	})

	t.Run("BatchNorm2d", func(t *testing.T) {
		x := randParam(rng, "x", 3, 2, 2, 2)
		gamma := randParam(rng, "gamma", 2)
		beta := randParam(rng, "beta", 2)
		coef := coefficients(rng, 3*2*2*2)

		checkGradients(t, []*Tensor{x, gamma, beta}, func() *Tensor {
			return weightedTotal(BatchNorm2d(x, gamma, beta, NewRunningStats(2), true), coef)
		})
	})

	t.Run("Linear", func(t *testing.T) {
		x := randParam(rng, "x", 3, 4)
		w := randParam(rng, "w", 2, 4)
		b := randParam(rng, "b", 2)
		coef := coefficients(rng, 3*2)

		checkGradients(t, []*Tensor{x, w, b}, func() *Tensor {
			return weightedTotal(Linear(x, w, b), coef)
		})
	})

	t.Run("WeightedSum", func(t *testing.T) {
		theta := randParam(rng, "theta", 3)
		xs := []*Tensor{randParam(rng, "a", 4), randParam(rng, "b", 4), randParam(rng, "c", 4)}
		coef := coefficients(rng, 4)

		checkGradients(t, append([]*Tensor{theta}, xs...), func() *Tensor {
			return weightedTotal(WeightedSum(Softmax(theta), xs), coef)
		})
	})

	t.Run("ReLUAdd", func(t *testing.T) {
		a := randParam(rng, "a", 6)
		b := randParam(rng, "b", 6)
		coef := coefficients(rng, 6)

		checkGradients(t, []*Tensor{a, b}, func() *Tensor {
			return weightedTotal(Add(ReLU(a), b, a), coef)
		})
	})

	t.Run("CrossEntropy", func(t *testing.T) {
		x := randParam(rng, "x", 2, 3, 2, 2)
		labels := []int{2, 0}

		checkGradients(t, []*Tensor{x}, func() *Tensor {
			loss, err := CrossEntropy(GlobalAvgPool(x), labels)
			if err != nil {
				t.Fatal(err)
			}
			return loss
		})
	})
}

func TestSoftmax(t *testing.T) {
	cases := []struct {
		name  string
		theta []float64
	}{
		{"zeros", []float64{0, 0, 0, 0}},
		{"small", []float64{1e-3, -2e-3, 5e-4}},
		{"large", []float64{1000, 999, -1000}},
		{"single", []float64{42}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := Softmax(NewTensor([]int{len(c.theta)}, c.theta))
			if !w.IsFinite() {
				t.Fatalf("weights not finite: %v", w.Data)
			}

			for _, v := range w.Data {
				if v < 0 || v > 1 {
					t.Errorf("weight %g out of [0, 1]", v)
				}
			}

			if sum := floats.Sum(w.Data); math.Abs(sum-1) > 1e-12 {
				t.Errorf("weights sum to %g", sum)
			}
		})
	}

	w := Softmax(NewTensor([]int{4}, []float64{0, 0, 0, 0}))
	for _, v := range w.Data {
		if math.Abs(v-0.25) > 1e-15 {
			t.Errorf("uniform scores gave weight %g, expected 0.25", v)
		}
	}
}

func TestNaNPropagates(t *testing.T) {
	nan := math.NaN()

	x := NewParam("x", 3)
	copy(x.Data, []float64{nan, 1, -1})

	y := ReLU(x)
	if !math.IsNaN(y.Data[0]) || y.Data[1] != 1 || y.Data[2] != 0 {
		t.Errorf("ReLU gave %v, expected [NaN 1 0]", y.Data)
	}

	if err := Backward(weightedTotal(y, []float64{1, 1, 1})); err != nil {
		t.Fatal(err)
	}
	if x.Grad[0] != 1 || x.Grad[1] != 1 || x.Grad[2] != 0 {
		t.Errorf("ReLU gradient %v, expected [1 1 0]", x.Grad)
	}

	// the NaN is neither first nor last in its window
	img := NewTensor([]int{1, 1, 3, 3}, []float64{5, 1, 1, 1, nan, 1, 1, 1, 9})
	p := MaxPool2d(img, 3, 1, 0)
	if !math.IsNaN(p.Data[0]) {
		t.Errorf("MaxPool2d gave %v, expected NaN", p.Data)
	}

	loss, err := CrossEntropy(GlobalAvgPool(ReLU(MaxPool2d(img, 3, 3, 1))), []int{0})
	if err != nil {
		t.Fatal(err)
	}
	if loss.IsFinite() {
		t.Errorf("loss %g computed from NaN input is finite", loss.Item())
	}
}

func TestCrossEntropyLarge(t *testing.T) {
	logits := NewTensor([]int{1, 3}, []float64{1e4, 0, -1e4})

	loss, err := CrossEntropy(logits, []int{1})
	if err != nil {
		t.Fatal(err)
	}

	if !loss.IsFinite() || math.Abs(loss.Item()-1e4) > 1e-6 {
		t.Errorf("loss %g, expected 1e4", loss.Item())
	}

	if _, err := CrossEntropy(logits, []int{3}); err == nil {
		t.Error("expected error for label out of range")
	}
}

func TestBackwardNotScalar(t *testing.T) {
	if err := Backward(NewParam("p", 2)); err != ErrNotScalar {
		t.Errorf("got %v, expected ErrNotScalar", err)
	}
}

func TestPlacement(t *testing.T) {
	a := NewParam("a", 2)
	b := NewParam("b", 2).To("gpu")

	err := func() (err error) {
		defer recoverForward(&err)
		Add(a, b)
		return nil
	}()

	if _, ok := err.(PlacementError); !ok {
		t.Fatalf("expected PlacementError, got %v", err)
	}
}

func TestEdgeIndex(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 7} {
		idx := 0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if got := edgeIndex(n, i, j); got != idx {
					t.Errorf("edgeIndex(%d, %d, %d) = %d, expected %d", n, i, j, got, idx)
				}
				idx++
			}
		}

		if idx != EdgeCount(n) {
			t.Errorf("EdgeCount(%d) = %d, counted %d", n, EdgeCount(n), idx)
		}
	}
}
