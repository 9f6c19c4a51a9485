package optimizers

import (
	"math"
	"testing"
)

// step runs a single update of a parameter with the given values and gradients
func step(opt interface {
	Advance()
	Run(int, int, func(int) float64, func(int) float64, func(int, float64), float64) error
}, ps, gs []float64, lr float64) error {
	opt.Advance()
	return opt.Run(0, len(ps),
		func(i int) float64 { return ps[i] },
		func(i int) float64 { return gs[i] },
		func(i int, v float64) { ps[i] += v },
		lr)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestSGD(t *testing.T) {
	cases := []struct {
		name     string
		opt      *sgd
		expected []float64 // after each of two steps with the same gradient
	}{
		// p = 1, g = 0.5, lr = 0.1
		{"plain", SGD(), []float64{0.95, 0.9}},
		{"momentum", SGD().Momentum(0.9), []float64{0.95, 0.855}},
		{"weight decay", SGD().WeightDecay(0.1), []float64{0.94, 0.8806}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ps := []float64{1}
			for i, e := range c.expected {
				if err := step(c.opt, ps, []float64{0.5}, 0.1); err != nil {
					t.Fatal(err)
				}
				if !approx(ps[0], e) {
					t.Errorf("after step %d: %g, expected %g", i+1, ps[0], e)
				}
			}
		})
	}
}

func TestAdam(t *testing.T) {
	opt := Adam()
	ps := []float64{1, 1}

	// the first step moves by lr in the direction against the gradient, whatever its size
	if err := step(opt, ps, []float64{0.001, -100}, 0.01); err != nil {
		t.Fatal(err)
	}

	if math.Abs(ps[0]-0.99) > 1e-6 || math.Abs(ps[1]-1.01) > 1e-6 {
		t.Errorf("got %v, expected [0.99 1.01]", ps)
	}

	if opt.Steps() != 1 {
		t.Errorf("%d steps, expected 1", opt.Steps())
	}
}

func TestStateSize(t *testing.T) {
	opt := SGD().Momentum(0.9)
	if err := step(opt, []float64{1, 2}, []float64{1, 1}, 0.1); err != nil {
		t.Fatal(err)
	}
	if err := step(opt, []float64{1}, []float64{1}, 0.1); err == nil {
		t.Error("expected error for parameter changing size")
	}
}

func TestCheck(t *testing.T) {
	cases := []struct {
		name string
		opt  interface {
			Advance()
			Check([]int) error
			Run(int, int, func(int) float64, func(int) float64, func(int, float64), float64) error
		}
	}{
		{"sgd", SGD().Momentum(0.9)},
		{"adam", Adam()},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.opt.Check([]int{2, 3}); err != nil {
				t.Fatalf("fresh optimizer: %v", err)
			}
			if err := step(c.opt, []float64{1, 2}, []float64{1, 1}, 0.1); err != nil {
				t.Fatal(err)
			}

			if err := c.opt.Check([]int{2, 3}); err != nil {
				t.Errorf("same size and a new parameter: %v", err)
			}
			if err := c.opt.Check([]int{1}); err == nil {
				t.Error("expected error for parameter changing size")
			}
		})
	}
}

func TestLookup(t *testing.T) {
	settings := Settings{Momentum: 0.5, WeightDecay: 0.1}

	for _, name := range []string{"sgd", "adam"} {
		opt, err := Lookup(name, settings)
		if err != nil {
			t.Fatal(err)
		} else if opt.TypeString() != name {
			t.Errorf("Lookup(%q) gave %q", name, opt.TypeString())
		}
	}

	opt, _ := Lookup("sgd", settings)
	if s := opt.(*sgd); s.momentum != 0.5 || s.weightDecay != 0.1 {
		t.Errorf("settings not applied to sgd: %+v", s)
	}
	opt, _ = Lookup("adam", settings)
	if a := opt.(*adam); a.beta1 != 0.5 || a.beta2 != 0.999 || a.weightDecay != 0.1 {
		t.Errorf("settings not applied to adam: %+v", a)
	}

	if _, err := Lookup("rmsprop", settings); err == nil {
		t.Error("expected error for unknown optimizer")
	}
}
