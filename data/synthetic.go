package data

import (
	"math/rand"
)

// NewSynthetic returns a toy dataset of n examples of 4×4 single-channel images in 2 classes.
// Examples of class 0 are bright in their left half and those of class 1 in their right half,
// with a little noise everywhere. The examples alternate between classes and are the same for the
// same seed.
func NewSynthetic(n int, seed int64) Dataset {
	const size = 4

	rng := rand.New(rand.NewSource(seed))
	info := Info{InputSize: size, InputChannels: 1, NumClasses: 2}

	m := &memory{info: info, xs: make([][]float64, n), ys: make([]int, n)}
	for i := 0; i < n; i++ {
		class := i % 2
		x := make([]float64, size*size)
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				v := 0.1 * rng.NormFloat64()
				if (z < size/2) == (class == 0) {
					v++
				}
				x[y*size+z] = v
			}
		}

		m.xs[i], m.ys[i] = x, class
	}

	return m
}
