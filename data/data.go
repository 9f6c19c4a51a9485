// Package data provides the datasets a search can be run on, and the loaders that split them into
// disjoint training and validation batches.
package data

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

// Info describes the examples of a Dataset: square images of InputSize×InputSize with
// InputChannels channels, each labeled with one of NumClasses classes.
type Info struct {
	InputSize     int
	InputChannels int
	NumClasses    int
}

// ExampleSize returns the number of values in a single example.
func (i Info) ExampleSize() int {
	return i.InputChannels * i.InputSize * i.InputSize
}

// Dataset is a set of labeled examples. Example returns the values of the example, channel-major,
// and its class.
type Dataset interface {
	Info() Info
	Len() int
	Example(int) ([]float64, int)
}

// Names of the supported datasets
const (
	Synthetic = "synthetic"
	MNIST     = "mnist"
	CIFAR10   = "cifar10"
)

// Get returns the dataset with the given name, read from the directory at path. The synthetic
// dataset is generated and ignores path. Unknown names give a hd.ConfigurationError.
//
// The files expected are "mnist_train.csv" for MNIST, and "cifar-10-batches-bin/data_batch_N.bin"
// for CIFAR-10.
func Get(name, path string) (Info, Dataset, error) {
	var ds Dataset
	var err error

	switch strings.ToLower(name) {
	case Synthetic:
		ds = NewSynthetic(100, 1)
	case MNIST:
		ds, err = LoadMNIST(filepath.Join(path, "mnist_train.csv"))
	case CIFAR10:
		ds, err = LoadCIFAR10(filepath.Join(path, "cifar-10-batches-bin"))
	default:
		return Info{}, nil, hd.ConfigurationError{Reason: fmt.Sprintf("unsupported dataset %q", name)}
	}

	if err != nil {
		return Info{}, nil, errors.Wrapf(err, "Failed to load dataset %q from %q", name, path)
	}

	return ds.Info(), ds, nil
}

type memory struct {
	info Info
	xs   [][]float64
	ys   []int
}

// NewMemory returns a Dataset holding the given examples. Every example must have
// info.ExampleSize() values and a class below info.NumClasses.
func NewMemory(info Info, xs [][]float64, ys []int) (Dataset, error) {
	if len(xs) != len(ys) {
		return nil, errors.Errorf("%d examples given with %d labels", len(xs), len(ys))
	}

	for i := range xs {
		if len(xs[i]) != info.ExampleSize() {
			return nil, errors.Errorf("Example %d has %d values, expected %d", i, len(xs[i]), info.ExampleSize())
		} else if ys[i] < 0 || ys[i] >= info.NumClasses {
			return nil, errors.Errorf("Example %d has class %d, expected below %d", i, ys[i], info.NumClasses)
		}
	}

	return &memory{info, xs, ys}, nil
}

func (m *memory) Info() Info {
	return m.info
}

func (m *memory) Len() int {
	return len(m.xs)
}

func (m *memory) Example(i int) ([]float64, int) {
	return m.xs[i], m.ys[i]
}
