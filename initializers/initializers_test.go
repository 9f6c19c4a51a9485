package initializers

import (
	"math"
	"math/rand"
	"testing"
)

func TestVarianceScaling(t *testing.T) {
	ws := make([]float64, 20000)
	He().From(rand.New(rand.NewSource(1))).Set(50, 10, ws)

	var sum, sq float64
	for _, w := range ws {
		sum += w
		sq += w * w
	}
	mean := sum / float64(len(ws))
	sd := math.Sqrt(sq/float64(len(ws)) - mean*mean)

	// truncated at two standard deviations, which narrows the spread to about 0.88 of it
	expected := math.Sqrt(2.0/50) * 0.88
	if math.Abs(mean) > 0.01 || math.Abs(sd-expected) > 0.01 {
		t.Errorf("mean %g, sd %g; expected 0 and about %g", mean, sd, expected)
	}

	bound := 2 * math.Sqrt(2.0/50)
	for _, w := range ws {
		if math.Abs(w) > bound+1e-12 {
			t.Fatalf("value %g beyond truncation at %g", w, bound)
		}
	}
}

func TestDeterministic(t *testing.T) {
	a, b := make([]float64, 10), make([]float64, 10)
	Xavier().From(rand.New(rand.NewSource(4))).Set(3, 3, a)
	Xavier().From(rand.New(rand.NewSource(4))).Set(3, 3, b)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("value %d differs for the same seed: %g, %g", i, a[i], b[i])
		}
	}
}

func TestUniform(t *testing.T) {
	ws := make([]float64, 1000)
	Uniform().Range(0.5, -0.5).From(rand.New(rand.NewSource(2))).Set(1, 1, ws)

	for _, w := range ws {
		if w == 0 || w < -0.5 || w >= 0.5 {
			t.Fatalf("value %g outside of [-0.5, 0.5) or zero", w)
		}
	}
}

func TestTruncNormal(t *testing.T) {
	g := TruncNormal().SD(0.2).Mean(1).From(rand.New(rand.NewSource(3)))
	for i := 0; i < 5000; i++ {
		if v := g.Gen(); math.Abs(v-1) > 0.4 {
			t.Fatalf("value %g beyond truncation at 1 ± 0.4", v)
		}
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		init, err := Lookup(name, rand.New(rand.NewSource(5)))
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}

		ws := make([]float64, 100)
		init.Set(10, 10, ws)
		for _, w := range ws {
			if w == 0 || math.IsNaN(w) {
				t.Fatalf("%s set a value of %g", name, w)
			}
		}
	}

	ws := make([]float64, 1000)
	normal, _ := Lookup("normal", rand.New(rand.NewSource(6)))
	normal.Set(1, 1, ws)
	for _, w := range ws {
		if math.Abs(w) > 2*normalSD {
			t.Fatalf("normal initializer gave %g, beyond truncation at %g", w, 2*normalSD)
		}
	}

	if _, err := Lookup("orthogonal", nil); err == nil {
		t.Error("expected error for unknown initializer")
	}
}
