// Package costfuncs provides the loss criteria that Models can be built with.
package costfuncs

import (
	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

var list = map[string]func() hd.CostFunction{
	CrossEntropy().TypeString(): func() hd.CostFunction { return CrossEntropy() },
}

// Lookup returns the CostFunction with the given TypeString.
func Lookup(name string) (hd.CostFunction, error) {
	f, ok := list[name]
	if !ok {
		return nil, errors.Errorf("No cost function with name %q", name)
	}

	return f(), nil
}
