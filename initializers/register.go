// Package initializers provides the ways the weights of layers can be set when a Model is built.
package initializers

import (
	"math/rand"

	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

// the standard deviation of the "normal" initializer, before truncation
const normalSD = 0.1

// Names returns the names accepted by Lookup.
func Names() []string {
	return []string{"uniform", "normal", "lecun", "he", "xavier", "glorot"}
}

// Lookup returns the Initializer with the given name, drawing from r. "normal" is a truncated
// normal with a fixed standard deviation of 0.1; the rest are as their constructors describe.
func Lookup(name string, r *rand.Rand) (hd.Initializer, error) {
	switch name {
	case "uniform":
		return Uniform().From(r), nil
	case "normal":
		return Random(TruncNormal().SD(normalSD).From(r)), nil
	case "lecun":
		return LeCun().From(r), nil
	case "he":
		return He().From(r), nil
	case "xavier", "glorot":
		return Xavier().From(r), nil
	}

	return nil, errors.Errorf("No initializer with name %q", name)
}
