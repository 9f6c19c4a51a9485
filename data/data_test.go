package data

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	hd "github.com/sharnoff/hdarts"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		n, pct       int
		train, valid int
	}{
		{100, 100, 50, 50},
		{100, 50, 25, 25},
		{101, 100, 50, 51},
		{60000, 10, 3000, 3000},
		{10, 0, 0, 0},
	}

	for _, c := range cases {
		train, valid := Split(c.n, c.pct)
		if len(train) != c.train || len(valid) != c.valid {
			t.Errorf("Split(%d, %d): %d and %d, expected %d and %d",
				c.n, c.pct, len(train), len(valid), c.train, c.valid)
		}

		seen := make(map[int]bool)
		for _, i := range append(train, valid...) {
			if seen[i] {
				t.Errorf("Split(%d, %d): index %d used twice", c.n, c.pct, i)
			}
			seen[i] = true
		}
	}
}

func TestLoader(t *testing.T) {
	ds := NewSynthetic(10, 1)
	train, valid := Split(ds.Len(), 100)

	l, err := NewLoader(ds, train, 2, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	if l.Len() != 3 {
		t.Errorf("%d batches, expected 3", l.Len())
	}

	last := l.Batch(2)
	if last.Size() != 1 || last.X.Shape[0] != 1 {
		t.Errorf("last batch has %d examples, expected 1", last.Size())
	}

	l.Shuffle()
	seen := make(map[int]bool)
	for _, i := range l.Indices() {
		seen[i] = true
	}
	for _, i := range valid {
		if seen[i] {
			t.Errorf("validation example %d given by the training loader", i)
		}
	}
	if len(seen) != len(train) {
		t.Errorf("%d distinct examples after shuffling, expected %d", len(seen), len(train))
	}

	b := l.Batch(0)
	expected := []int{2, 1, 4, 4}
	for i := range expected {
		if b.X.Shape[i] != expected[i] {
			t.Fatalf("batch shape %v, expected %v", b.X.Shape, expected)
		}
	}

	if _, err := NewLoader(ds, []int{10}, 2, nil); err == nil {
		t.Error("expected error for index out of range")
	}
	if _, err := NewLoader(ds, nil, 2, nil); err == nil {
		t.Error("expected error for no examples")
	}
}

func TestSynthetic(t *testing.T) {
	a, b := NewSynthetic(4, 3), NewSynthetic(4, 3)

	for i := 0; i < a.Len(); i++ {
		xa, ya := a.Example(i)
		xb, yb := b.Example(i)
		if ya != i%2 || ya != yb {
			t.Errorf("example %d: classes %d and %d, expected %d", i, ya, yb, i%2)
		}
		for j := range xa {
			if xa[j] != xb[j] {
				t.Fatalf("example %d differs for the same seed", i)
			}
		}
	}
}

func TestGet(t *testing.T) {
	info, ds, err := Get("synthetic", "")
	if err != nil {
		t.Fatal(err)
	}
	if info.NumClasses != 2 || ds.Len() != 100 {
		t.Errorf("synthetic: %d classes and %d examples", info.NumClasses, ds.Len())
	}

	_, _, err = Get("imagenet", "")
	if _, ok := err.(hd.ConfigurationError); !ok {
		t.Errorf("expected ConfigurationError, got %v", err)
	}

	if _, _, err := Get("mnist", t.TempDir()); err == nil {
		t.Error("expected error for missing files")
	}
}

func TestLoadMNIST(t *testing.T) {
	line := func(label, pixel int) string {
		vs := make([]string, 785)
		vs[0] = fmt.Sprint(label)
		for i := 1; i < len(vs); i++ {
			vs[i] = fmt.Sprint(pixel)
		}
		return strings.Join(vs, ",")
	}

	path := filepath.Join(t.TempDir(), "mnist_train.csv")
	content := line(3, 0) + "\n" + line(7, 255) + "\n\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ds, err := LoadMNIST(path)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("%d examples, expected 2", ds.Len())
	}

	x, y := ds.Example(1)
	if y != 7 || len(x) != 784 {
		t.Errorf("example 1: class %d with %d values", y, len(x))
	}
	if expected := (1 - mnistMean) / mnistSD; math.Abs(x[0]-expected) > 1e-12 {
		t.Errorf("pixel %g, expected %g", x[0], expected)
	}

	if err := os.WriteFile(path, []byte("11,"+strings.Repeat("0,", 783)+"0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMNIST(path); err == nil {
		t.Error("expected error for label out of range")
	}
}

func TestLoadCIFAR10(t *testing.T) {
	dir := t.TempDir()
	for b := 1; b <= cifarBatches; b++ {
		rec := make([]byte, cifarRecord)
		rec[0] = byte(b)
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("data_batch_%d.bin", b)), rec, 0644); err != nil {
			t.Fatal(err)
		}
	}

	ds, err := LoadCIFAR10(dir)
	if err != nil {
		t.Fatal(err)
	}

	if ds.Len() != cifarBatches {
		t.Fatalf("%d examples, expected %d", ds.Len(), cifarBatches)
	}
	for i := 0; i < ds.Len(); i++ {
		if _, y := ds.Example(i); y != i+1 {
			t.Errorf("example %d has class %d, expected %d", i, y, i+1)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "data_batch_3.bin"), []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCIFAR10(dir); err == nil {
		t.Error("expected error for truncated file")
	}
}
