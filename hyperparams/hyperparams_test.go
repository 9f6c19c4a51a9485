package hyperparams

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	c := Cosine(0.025, 0.001, 50)

	cases := []struct {
		iter     int
		expected float64
	}{
		{-1, 0.025},
		{0, 0.025},
		{25, 0.013},
		{50, 0.001},
		{80, 0.001},
	}

	for _, tc := range cases {
		if v := c.Value(tc.iter); math.Abs(v-tc.expected) > 1e-12 {
			t.Errorf("Value(%d) = %g, expected %g", tc.iter, v, tc.expected)
		}
	}

	for i := 1; i <= 50; i++ {
		if c.Value(i) > c.Value(i-1) {
			t.Errorf("Value(%d) > Value(%d)", i, i-1)
		}
	}
}

func TestStep(t *testing.T) {
	s := Step(1).Add(20, 0.01).Add(10, 0.1)

	cases := map[int]float64{0: 1, 9: 1, 10: 0.1, 19: 0.1, 20: 0.01, 100: 0.01}
	for iter, expected := range cases {
		if v := s.Value(iter); v != expected {
			t.Errorf("Value(%d) = %g, expected %g", iter, v, expected)
		}
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"constant", "step", "cosine"} {
		h, err := Lookup(name, 1, 0, 10)
		if err != nil {
			t.Fatal(err)
		} else if h.TypeString() != name {
			t.Errorf("Lookup(%q) gave %q", name, h.TypeString())
		} else if h.Value(0) != 1 {
			t.Errorf("%s starts at %g, expected 1", name, h.Value(0))
		}
	}

	step, _ := Lookup("step", 1, 0.1, 10)
	if step.Value(4) != 1 || step.Value(5) != 0.1 {
		t.Errorf("step schedule gave %g at 4 and %g at 5, expected 1 and 0.1", step.Value(4), step.Value(5))
	}

	if _, err := Lookup("linear", 1, 0, 10); err == nil {
		t.Error("expected error for unknown schedule")
	}
}
