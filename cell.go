package hdarts

// cell is one repetition of the top-level graph. The input is first brought to the channel count of
// the cell, and the graph then runs with the stride of the cell.
type cell struct {
	reduction bool
	pre       Operator
	graph     *LevelGraph
}

func newCell(reg *Registry, alpha *Alpha, cPrev, c int, reduction bool, init Initializer) (*cell, error) {
	stride := 1
	if reduction {
		stride = 2
	}

	top := len(alpha.Levels) - 1
	graph, err := reg.Graph(top, 0, alpha, c, stride)
	if err != nil {
		return nil, err
	}

	return &cell{
		reduction: reduction,
		pre:       ReLUConvBN(cPrev, c, 1, ConvArgs{}, false, init),
		graph:     graph,
	}, nil
}

func (c *cell) Forward(x *Tensor) *Tensor {
	return c.graph.Forward(c.pre.Forward(x))
}

func (c *cell) Weights() []*Tensor {
	return append(c.pre.Weights(), c.graph.Weights()...)
}

func (c *cell) SetTraining(training bool) {
	c.pre.SetTraining(training)
	c.graph.SetTraining(training)
}

func (c *cell) RunningStats() []*RunningStats {
	return runningStatsOf(c.pre, c.graph)
}

// mixtureEdges returns every MixtureEdge in the cell, at every level
func (c *cell) mixtureEdges() []*MixtureEdge {
	var es []*MixtureEdge

	var walk func(g *LevelGraph)
	walk = func(g *LevelGraph) {
		for _, e := range g.edges {
			es = append(es, e)
			for _, cand := range e.cands {
				if sub, ok := cand.(*LevelGraph); ok {
					walk(sub)
				}
			}
		}
	}

	walk(c.graph)
	return es
}
