package data

import (
	"math/rand"

	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

// Split returns the indices of the training and validation examples out of n: the first
// percentage% of the examples are taken, and divided in half. The two sets never overlap.
func Split(n, percentage int) (train, valid []int) {
	if percentage < 0 {
		percentage = 0
	} else if percentage > 100 {
		percentage = 100
	}

	total := n * percentage / 100
	half := total / 2

	train = make([]int, half)
	valid = make([]int, total-half)
	for i := range train {
		train[i] = i
	}
	for i := range valid {
		valid[i] = half + i
	}

	return train, valid
}

// Batch is a set of examples as a single tensor [N, C, H, W], with their classes.
type Batch struct {
	X *hd.Tensor
	Y []int
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int {
	return len(b.Y)
}

// Loader gives the examples of a subset of a Dataset in batches, in an order that is reshuffled by
// Shuffle.
type Loader struct {
	ds        Dataset
	indices   []int
	batchSize int
	rng       *rand.Rand
}

// NewLoader returns the Loader over the given examples of the Dataset.
func NewLoader(ds Dataset, indices []int, batchSize int, rng *rand.Rand) (*Loader, error) {
	if ds == nil {
		return nil, errors.New("Loader given no dataset")
	} else if batchSize < 1 {
		return nil, errors.Errorf("Batch size must be at least 1, got %d", batchSize)
	} else if len(indices) == 0 {
		return nil, errors.New("Loader given no examples")
	} else if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	for _, i := range indices {
		if i < 0 || i >= ds.Len() {
			return nil, errors.Errorf("Index %d out of range for %d examples", i, ds.Len())
		}
	}

	idx := make([]int, len(indices))
	copy(idx, indices)

	return &Loader{ds, idx, batchSize, rng}, nil
}

// Len returns the number of batches. The last batch may be smaller than the rest.
func (l *Loader) Len() int {
	return (len(l.indices) + l.batchSize - 1) / l.batchSize
}

// Indices returns the examples of the Dataset the Loader gives, in their current order.
func (l *Loader) Indices() []int {
	return l.indices
}

// Shuffle changes the order the examples are given in.
func (l *Loader) Shuffle() {
	l.rng.Shuffle(len(l.indices), func(i, j int) {
		l.indices[i], l.indices[j] = l.indices[j], l.indices[i]
	})
}

// Batch returns the batch at the given position, 0 ≤ i < Len().
func (l *Loader) Batch(i int) Batch {
	start := i * l.batchSize
	end := start + l.batchSize
	if end > len(l.indices) {
		end = len(l.indices)
	}

	info := l.ds.Info()
	size := info.ExampleSize()

	n := end - start
	x := make([]float64, n*size)
	y := make([]int, n)
	for b, idx := range l.indices[start:end] {
		vs, class := l.ds.Example(idx)
		copy(x[b*size:(b+1)*size], vs)
		y[b] = class
	}

	return Batch{
		X: hd.NewTensor([]int{n, info.InputChannels, info.InputSize, info.InputSize}, x),
		Y: y,
	}
}
