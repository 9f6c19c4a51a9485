package hdarts

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Alpha holds the architecture parameters of one kind of cell. It is organized as
// level → group → edge → θ, where θ is a vector of raw scores with one value for each candidate on
// the edge. The scores are only ever turned into weights by a softmax at the time of use.
type Alpha struct {
	Levels []AlphaLevel `json:"levels"`
}

// AlphaLevel holds the groups of one level. Each group is the architecture of one distinct graph.
type AlphaLevel struct {
	Groups []AlphaGroup `json:"groups"`
}

// AlphaGroup holds one θ for each edge of a graph with the given number of nodes, ordered by
// (From, To).
type AlphaGroup struct {
	Nodes int         `json:"nodes"`
	Edges []AlphaEdge `json:"edges"`
}

// AlphaEdge is the θ of the edge From → To
type AlphaEdge struct {
	From  int     `json:"from"`
	To    int     `json:"to"`
	Theta *Tensor `json:"theta"`
}

// EdgeCount returns the number of forward edges in a complete DAG of n nodes: n(n-1)/2.
func EdgeCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// edgeIndex returns the position of the edge i → j in a group of n nodes
func edgeIndex(n, i, j int) int {
	// the edges leaving each node before i, then the position after i
	return i*(2*n-i-1)/2 + (j - i - 1)
}

// NewAlpha returns the architecture parameters for the Config, with every score drawn from
// 1e-3·N(0, 1). The Config must already be valid. name is used to name the parameters.
func NewAlpha(name string, cfg Config, rng *rand.Rand) *Alpha {
	a := &Alpha{Levels: make([]AlphaLevel, cfg.NumLevels)}

	for l := range a.Levels {
		groups := make([]AlphaGroup, cfg.NumGroups(l))
		n := cfg.NumNodesAtLevel[l]

		for g := range groups {
			groups[g] = AlphaGroup{Nodes: n, Edges: make([]AlphaEdge, 0, EdgeCount(n))}

			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					theta := NewParam(fmt.Sprintf("%s/%d/%d/%d_%d", name, l, g, i, j), cfg.NumOpsAtLevel[l])
					for k := range theta.Data {
						theta.Data[k] = 1e-3 * rng.NormFloat64()
					}

					groups[g].Edges = append(groups[g].Edges, AlphaEdge{i, j, theta})
				}
			}
		}

		a.Levels[l].Groups = groups
	}

	return a
}

// Edge returns θ for the edge i → j of the given group at the given level. It returns nil if there
// is no such edge.
func (a *Alpha) Edge(level, group, i, j int) *Tensor {
	if level < 0 || level >= len(a.Levels) {
		return nil
	}

	groups := a.Levels[level].Groups
	if group < 0 || group >= len(groups) {
		return nil
	}

	n := groups[group].Nodes
	if i < 0 || j <= i || j >= n {
		return nil
	}

	idx := edgeIndex(n, i, j)
	if idx >= len(groups[group].Edges) {
		return nil
	}

	return groups[group].Edges[idx].Theta
}

// Level returns every θ at the given level, across all groups.
func (a *Alpha) Level(level int) []*Tensor {
	if level < 0 || level >= len(a.Levels) {
		return nil
	}

	var ts []*Tensor
	for _, g := range a.Levels[level].Groups {
		for _, e := range g.Edges {
			ts = append(ts, e.Theta)
		}
	}
	return ts
}

// Validate returns a ConfigurationError if the structure of the Alpha does not match the Config:
// the number of levels, groups or edges, the ordering of edges, or the length of any θ.
func (a *Alpha) Validate(cfg Config) error {
	if len(a.Levels) != cfg.NumLevels {
		return configErrorf("alpha has %d levels, expected %d", len(a.Levels), cfg.NumLevels)
	}

	for l, lvl := range a.Levels {
		if len(lvl.Groups) != cfg.NumGroups(l) {
			return configErrorf("alpha level %d has %d groups, expected %d", l, len(lvl.Groups), cfg.NumGroups(l))
		}

		n := cfg.NumNodesAtLevel[l]
		for g, grp := range lvl.Groups {
			if grp.Nodes != n {
				return configErrorf("alpha level %d group %d is for %d nodes, expected %d", l, g, grp.Nodes, n)
			} else if len(grp.Edges) != EdgeCount(n) {
				return configErrorf("alpha level %d group %d has %d edges, expected %d for %d nodes",
					l, g, len(grp.Edges), EdgeCount(n), n)
			}

			for idx, e := range grp.Edges {
				if e.From < 0 || e.To <= e.From || e.To >= n || edgeIndex(n, e.From, e.To) != idx {
					return configErrorf("alpha level %d group %d: edge %d_%d out of place", l, g, e.From, e.To)
				} else if e.Theta == nil {
					return configErrorf("alpha level %d group %d: edge %d_%d has no weights", l, g, e.From, e.To)
				} else if e.Theta.Size() != cfg.NumOpsAtLevel[l] {
					return configErrorf("alpha level %d group %d: edge %d_%d has %d weights, expected %d",
						l, g, e.From, e.To, e.Theta.Size(), cfg.NumOpsAtLevel[l])
				}
			}
		}
	}

	return nil
}

// Params returns every θ, level by level.
func (a *Alpha) Params() []*Tensor {
	var ts []*Tensor
	for l := range a.Levels {
		ts = append(ts, a.Level(l)...)
	}
	return ts
}

// CopyFrom sets every θ to the values of the corresponding θ in src, which must have the same
// structure. The tensors themselves are kept, so anything built over them sees the new values.
func (a *Alpha) CopyFrom(src *Alpha) error {
	dst, from := a.Params(), src.Params()
	if len(dst) != len(from) {
		return errors.Errorf("Can't copy alpha with %d edges into alpha with %d", len(from), len(dst))
	}

	for i := range dst {
		if dst[i].Size() != from[i].Size() {
			return errors.Errorf("Can't copy %d weights into edge %q with %d", from[i].Size(), dst[i].Name(), dst[i].Size())
		}
	}

	for i := range dst {
		copy(dst[i].Data, from[i].Data)
	}

	return nil
}

// Equal returns whether both have the same structure and bit-identical scores.
func (a *Alpha) Equal(b *Alpha) bool {
	if len(a.Levels) != len(b.Levels) {
		return false
	}

	for l := range a.Levels {
		ga, gb := a.Levels[l].Groups, b.Levels[l].Groups
		if len(ga) != len(gb) {
			return false
		}

		for g := range ga {
			if ga[g].Nodes != gb[g].Nodes || len(ga[g].Edges) != len(gb[g].Edges) {
				return false
			}

			for e := range ga[g].Edges {
				ea, eb := ga[g].Edges[e], gb[g].Edges[e]
				if ea.From != eb.From || ea.To != eb.To || ea.Theta.Size() != eb.Theta.Size() {
					return false
				}

				for k := range ea.Theta.Data {
					if math.Float64bits(ea.Theta.Data[k]) != math.Float64bits(eb.Theta.Data[k]) {
						return false
					}
				}
			}
		}
	}

	return true
}
