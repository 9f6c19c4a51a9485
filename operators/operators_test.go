package operators

import (
	"math/rand"
	"testing"

	hd "github.com/sharnoff/hdarts"
	"github.com/sharnoff/hdarts/initializers"
)

func TestPrimitiveShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	init := initializers.He().From(rng)

	x := hd.Zeros(2, 4, 5, 5)
	for i := range x.Data {
		x.Data[i] = rng.NormFloat64()
	}

	for _, p := range Primitives() {
		for _, stride := range []int{1, 2} {
			op := p.New(4, stride, init)
			y := op.Forward(x)

			size := 5
			if stride == 2 {
				size = 3
			}

			expected := []int{2, 4, size, size}
			for i := range expected {
				if len(y.Shape) != 4 || y.Shape[i] != expected[i] {
					t.Errorf("%s stride %d: output shape %v, expected %v", p.Name, stride, y.Shape, expected)
					break
				}
			}

			if !y.IsFinite() {
				t.Errorf("%s stride %d: output not finite", p.Name, stride)
			}
		}
	}
}

func TestPrimitiveOrder(t *testing.T) {
	expected := []string{
		"none", "max_pool_3x3", "avg_pool_3x3", "skip_connect",
		"sep_conv_3x3", "sep_conv_5x5", "dil_conv_3x3", "dil_conv_5x5",
	}

	names := Names()
	if len(names) != len(expected) || LenOps != len(expected) {
		t.Fatalf("got %d primitives, expected %d", len(names), len(expected))
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("primitive %d is %q, expected %q", i, names[i], expected[i])
		}
	}

	if _, err := Lookup("sep_conv_7x7"); err == nil {
		t.Error("expected error for unknown primitive")
	}
}

func TestZeroHasNoGradient(t *testing.T) {
	x := hd.NewParam("x", 1, 1, 2, 2)
	y := Zero(2).Forward(x)

	if y.RequiresGrad() {
		t.Error("output of none requires gradients")
	}
	for _, v := range y.Data {
		if v != 0 {
			t.Fatalf("output of none is %v", y.Data)
		}
	}
	if y.Shape[2] != 1 || y.Shape[3] != 1 {
		t.Errorf("shape %v, expected [1 1 1 1]", y.Shape)
	}
}

func TestSkipIdentity(t *testing.T) {
	x := hd.NewParam("x", 1, 2, 3, 3)
	if Skip(2, 1, initializers.He()).Forward(x) != x {
		t.Error("skip connection with stride 1 is not the identity")
	}
	if len(Skip(2, 2, initializers.He()).Weights()) == 0 {
		t.Error("strided skip connection has no weights")
	}
}
