package hdarts

import (
	"github.com/pkg/errors"
)

// Primitive is one of the fixed operations available at level 0. New builds a fresh instance for c
// channels with the given stride; the output has c channels and the resolution of the input divided
// by the stride.
type Primitive struct {
	Name string
	New  func(c, stride int, init Initializer) Operator
}

// Registry enumerates the candidates for the edges of every level. At level 0 they are the
// primitives, in order. At every level L above, they are the graphs of level L-1, one for each of
// its groups. The Registry holds no state beyond what it was constructed with; every call to
// Candidates builds new Operators.
type Registry struct {
	cfg   Config
	prims []Primitive
	init  Initializer
}

// NewRegistry returns the Registry for the Config. It returns a ConfigurationError if the Config is
// not valid for the given primitives.
func NewRegistry(cfg Config, prims []Primitive, init Initializer) (*Registry, error) {
	if init == nil {
		return nil, NilArgError{"Initializer"}
	} else if err := cfg.Validate(len(prims)); err != nil {
		return nil, err
	}

	for i, p := range prims {
		if p.New == nil {
			return nil, errors.Errorf("Primitive %d (%q) has no constructor", i, p.Name)
		}
	}

	return &Registry{cfg, prims, init}, nil
}

// NumCandidates returns the number of candidates on every edge of the given level.
func (r *Registry) NumCandidates(level int) int {
	return r.cfg.NumOpsAtLevel[level]
}

// PrimitiveNames returns the names of the primitives, in order.
func (r *Registry) PrimitiveNames() []string {
	names := make([]string, len(r.prims))
	for i, p := range r.prims {
		names[i] = p.Name
	}
	return names
}

// Candidates returns new instances of every candidate for an edge at the given level, for c
// channels and the given stride. The candidates at levels above 0 are built over the θs of alpha.
func (r *Registry) Candidates(level int, alpha *Alpha, c, stride int) ([]Operator, error) {
	if level < 0 || level >= r.cfg.NumLevels {
		return nil, errors.Errorf("Level %d does not exist (%d levels)", level, r.cfg.NumLevels)
	}

	var ops []Operator
	if level == 0 {
		ops = make([]Operator, len(r.prims))
		for k, p := range r.prims {
			ops[k] = p.New(c, stride, r.init)
		}
	} else {
		ops = make([]Operator, r.cfg.NumGroups(level-1))
		for k := range ops {
			g, err := r.Graph(level-1, k, alpha, c, stride)
			if err != nil {
				return nil, err
			}
			ops[k] = g
		}
	}

	if len(ops) != r.cfg.NumOpsAtLevel[level] {
		return nil, configErrorf("level %d has %d candidates, but num_ops_at_level[%d] is %d",
			level, len(ops), level, r.cfg.NumOpsAtLevel[level])
	}

	return ops, nil
}

// Graph builds the graph of the given group at the given level, over the θs of alpha. Edges leaving
// the input node have the given stride; all others have stride 1.
func (r *Registry) Graph(level, group int, alpha *Alpha, c, stride int) (*LevelGraph, error) {
	if alpha == nil {
		return nil, NilArgError{"Alpha"}
	} else if level < 0 || level >= len(alpha.Levels) || group < 0 || group >= len(alpha.Levels[level].Groups) {
		return nil, configErrorf("alpha has no group %d at level %d", group, level)
	}

	n := r.cfg.NumNodesAtLevel[level]
	ag := alpha.Levels[level].Groups[group]
	if ag.Nodes != n || len(ag.Edges) != EdgeCount(n) {
		return nil, configErrorf("alpha level %d group %d has %d edges for %d nodes, expected %d for %d",
			level, group, len(ag.Edges), ag.Nodes, EdgeCount(n), n)
	}

	g := &LevelGraph{
		level:  level,
		group:  group,
		nodes:  n,
		stride: stride,
		edges:  make([]*MixtureEdge, len(ag.Edges)),
	}

	for idx, ae := range ag.Edges {
		s := 1
		if ae.From == 0 {
			s = stride
		}

		cands, err := r.Candidates(level, alpha, c, s)
		if err != nil {
			return nil, err
		}

		if g.edges[idx], err = NewMixtureEdge(ae.Theta, cands); err != nil {
			return nil, err
		}
	}

	return g, nil
}
