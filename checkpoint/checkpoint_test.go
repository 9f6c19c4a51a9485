package checkpoint

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	hd "github.com/sharnoff/hdarts"
	"github.com/sharnoff/hdarts/costfuncs"
	"github.com/sharnoff/hdarts/initializers"
	"github.com/sharnoff/hdarts/operators"
)

func testConfig() hd.Config {
	return hd.Config{
		NumLevels:       2,
		NumNodesAtLevel: []int{3, 4},
		NumOpsAtLevel:   []int{operators.LenOps, 3},
		ChannelsStart:   2,
		NumCells:        3,
		StemMultiplier:  1,
	}
}

func TestRoundTrip(t *testing.T) {
	cfg := testConfig()
	rng := rand.New(rand.NewSource(9))
	normal := hd.NewAlpha("normal", cfg, rng)
	reduce := hd.NewAlpha("reduce", cfg, rng)

	// values that only survive if every bit does
	normal.Edge(0, 1, 0, 2).Data[3] = math.Nextafter(1, 2)
	reduce.Edge(1, 0, 2, 3).Data[0] = -5e-324

	root := t.TempDir()
	if err := Save(normal, reduce, 0, root, false); err != nil {
		t.Fatal(err)
	}

	n, r, err := Load(root, 0)
	if err != nil {
		t.Fatal(err)
	}

	if !n.Equal(normal) || !r.Equal(reduce) {
		t.Error("loaded alpha differs from saved")
	}
	if err := n.Validate(cfg); err != nil {
		t.Errorf("loaded alpha invalid: %v", err)
	}
	if n.Edge(0, 0, 0, 1).Name() != normal.Edge(0, 0, 0, 1).Name() {
		t.Errorf("name %q not kept", normal.Edge(0, 0, 0, 1).Name())
	}

	if _, _, err := Load(root, Best); err == nil {
		t.Error("best checkpoint exists without any best epoch")
	}
}

func TestBest(t *testing.T) {
	cfg := testConfig()
	rng := rand.New(rand.NewSource(9))
	normal := hd.NewAlpha("normal", cfg, rng)
	reduce := hd.NewAlpha("reduce", cfg, rng)

	root := t.TempDir()
	if err := Save(normal, reduce, 0, root, true); err != nil {
		t.Fatal(err)
	}

	first := normal.Edge(0, 0, 0, 1).Data[0]
	normal.Edge(0, 0, 0, 1).Data[0] = 42

	if err := Save(normal, reduce, 1, root, false); err != nil {
		t.Fatal(err)
	}

	best, _, err := Load(root, Best)
	if err != nil {
		t.Fatal(err)
	}
	if v := best.Edge(0, 0, 0, 1).Data[0]; v != first {
		t.Errorf("best checkpoint has %g, expected %g from epoch 0", v, first)
	}

	latest, _, err := Load(root, 1)
	if err != nil {
		t.Fatal(err)
	}
	if v := latest.Edge(0, 0, 0, 1).Data[0]; v != 42 {
		t.Errorf("epoch 1 has %g, expected 42", v)
	}

	entries, err := os.ReadDir(Dir(root, 1))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != normalFile && e.Name() != reduceFile {
			t.Errorf("unexpected file %q left in checkpoint", e.Name())
		}
	}
}

func TestSaveNonFinite(t *testing.T) {
	cfg := testConfig()
	normal := hd.NewAlpha("normal", cfg, rand.New(rand.NewSource(1)))
	reduce := hd.NewAlpha("reduce", cfg, rand.New(rand.NewSource(2)))
	normal.Edge(0, 0, 0, 1).Data[0] = math.Inf(1)

	if err := Save(normal, reduce, 0, t.TempDir(), false); err == nil {
		t.Error("expected error saving a score that is not finite")
	}
}

func TestCheckpointerWeights(t *testing.T) {
	build := func(seed int64, normal, reduce *hd.Alpha) *hd.Model {
		rng := rand.New(rand.NewSource(seed))
		m, err := hd.NewModel(hd.ModelArgs{
			AlphaNormal:   normal,
			AlphaReduce:   reduce,
			Config:        testConfig(),
			Primitives:    operators.Primitives(),
			InputChannels: 1,
			NumClasses:    2,
			Criterion:     costfuncs.CrossEntropy(),
			Init:          initializers.He().From(rng),
			Rand:          rng,
		})
		if err != nil {
			t.Fatal(err)
		}
		return m
	}

	a := build(1, nil, nil)
	b := build(2, a.AlphaNormal(), a.AlphaReduce())
	c := Checkpointer{Root: filepath.Join(t.TempDir(), "run"), SaveWeights: true}

	// a forward pass in training mode moves the batch statistics away from where b has them
	x := hd.NewTensor([]int{2, 1, 4, 4}, nil)
	for i := range x.Data {
		x.Data[i] = float64(i%7) - 3
	}
	if _, err := a.Forward(x); err != nil {
		t.Fatal(err)
	}

	if c.HasWeights(Best) {
		t.Error("weights found before any were saved")
	}
	if err := c.Save(a, 3, true); err != nil {
		t.Fatal(err)
	}
	if !c.HasWeights(Best) || !c.HasWeights(3) {
		t.Error("saved weights not found")
	}

	if err := c.LoadWeights(b, Best); err != nil {
		t.Fatal(err)
	}

	ra, rb := a.RunningStats(), b.RunningStats()
	if len(ra) == 0 || len(ra) != len(rb) {
		t.Fatalf("%d and %d sets of batch statistics", len(ra), len(rb))
	}
	for i := range ra {
		for j := range ra[i].Mean {
			if ra[i].Mean[j] != rb[i].Mean[j] || ra[i].Var[j] != rb[i].Var[j] {
				t.Fatalf("batch statistics %d channel %d not restored", i, j)
			}
		}
	}

	a.Eval()
	b.Eval()
	ya, err := a.Forward(x)
	if err != nil {
		t.Fatal(err)
	}
	yb, err := b.Forward(x)
	if err != nil {
		t.Fatal(err)
	}
	for i := range ya.Data {
		if ya.Data[i] != yb.Data[i] {
			t.Fatalf("restored model gives %g for logit %d, expected %g", yb.Data[i], i, ya.Data[i])
		}
	}

	wa, wb := a.Weights(), b.Weights()
	for i := range wa {
		for j := range wa[i].Data {
			if wa[i].Data[j] != wb[i].Data[j] {
				t.Fatalf("weight %d value %d: %g, loaded %g", i, j, wa[i].Data[j], wb[i].Data[j])
			}
		}
	}

	normal, _, err := c.Load(3)
	if err != nil {
		t.Fatal(err)
	}
	if !normal.Equal(a.AlphaNormal()) {
		t.Error("architecture from checkpointer differs from model")
	}

	if err := (Checkpointer{Root: t.TempDir()}).LoadWeights(b, 0); err == nil {
		t.Error("expected error loading weights that were never saved")
	}
}
