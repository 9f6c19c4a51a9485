// Package operators provides the primitive operations available on the edges of the lowest level of
// the hierarchy. Every primitive maps C channels to C channels; with stride 2 it halves the
// resolution.
package operators

import (
	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

// the order here is the order of every level-0 θ
var primitives = []hd.Primitive{
	{Name: "none", New: func(c, stride int, init hd.Initializer) hd.Operator { return Zero(stride) }},
	{Name: "max_pool_3x3", New: func(c, stride int, init hd.Initializer) hd.Operator { return MaxPool(c, 3, stride) }},
	{Name: "avg_pool_3x3", New: func(c, stride int, init hd.Initializer) hd.Operator { return AvgPool(c, 3, stride) }},
	{Name: "skip_connect", New: func(c, stride int, init hd.Initializer) hd.Operator { return Skip(c, stride, init) }},
	{Name: "sep_conv_3x3", New: func(c, stride int, init hd.Initializer) hd.Operator { return SepConv(c, 3, stride, init) }},
	{Name: "sep_conv_5x5", New: func(c, stride int, init hd.Initializer) hd.Operator { return SepConv(c, 5, stride, init) }},
	{Name: "dil_conv_3x3", New: func(c, stride int, init hd.Initializer) hd.Operator { return DilConv(c, 3, stride, init) }},
	{Name: "dil_conv_5x5", New: func(c, stride int, init hd.Initializer) hd.Operator { return DilConv(c, 5, stride, init) }},
}

// LenOps is the number of primitives, and so the required value of num_ops_at_level[0].
var LenOps = len(primitives)

// Primitives returns every primitive, in order.
func Primitives() []hd.Primitive {
	ps := make([]hd.Primitive, len(primitives))
	copy(ps, primitives)
	return ps
}

// Names returns the names of the primitives, in order.
func Names() []string {
	names := make([]string, len(primitives))
	for i, p := range primitives {
		names[i] = p.Name
	}
	return names
}

// Lookup returns the primitive with the given name.
func Lookup(name string) (hd.Primitive, error) {
	for _, p := range primitives {
		if p.Name == name {
			return p, nil
		}
	}

	return hd.Primitive{}, errors.Errorf("No primitive with name %q", name)
}
