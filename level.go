package hdarts

import (
	"fmt"
)

// LevelGraph is one graph of a level of the hierarchy: nodes 0 through n-1, with a MixtureEdge for
// every pair i < j. Node 0 is the input of the graph and node n-1 its output; every other node is
// the sum of the edges coming into it.
//
// LevelGraph is an Operator, so the graphs of one level are the candidates of the level above.
type LevelGraph struct {
	level, group int
	nodes        int
	stride       int

	// ordered by (from, to), the same as the edges of an AlphaGroup
	edges []*MixtureEdge
}

// Level returns the level of the hierarchy that the graph belongs to.
func (g *LevelGraph) Level() int {
	return g.level
}

// Group returns the index of the graph among those of its level.
func (g *LevelGraph) Group() int {
	return g.group
}

// NumNodes returns the number of nodes in the graph, including input and output.
func (g *LevelGraph) NumNodes() int {
	return g.nodes
}

// Stride returns the stride of the graph. Only the edges leaving the input node are strided, so
// every path through the graph reduces resolution by the same amount.
func (g *LevelGraph) Stride() int {
	return g.stride
}

// Edges returns the MixtureEdges of the graph, ordered by (from, to).
func (g *LevelGraph) Edges() []*MixtureEdge {
	return g.edges
}

func (g *LevelGraph) TypeString() string {
	return fmt.Sprintf("level_%d_graph_%d", g.level, g.group)
}

// Forward computes every node in order. output(0) is x, and output(j) is the sum, over i < j, of
// edge i → j applied to output(i). The output of the last node is returned.
func (g *LevelGraph) Forward(x *Tensor) *Tensor {
	outputs := make([]*Tensor, g.nodes)
	outputs[0] = x

	for j := 1; j < g.nodes; j++ {
		in := make([]*Tensor, j)
		for i := 0; i < j; i++ {
			in[i] = g.edges[edgeIndex(g.nodes, i, j)].Forward(outputs[i])
		}
		outputs[j] = Add(in...)
	}

	return outputs[g.nodes-1]
}

func (g *LevelGraph) Weights() []*Tensor {
	var ws []*Tensor
	for _, e := range g.edges {
		ws = append(ws, e.Weights()...)
	}
	return ws
}

func (g *LevelGraph) SetTraining(training bool) {
	for _, e := range g.edges {
		e.SetTraining(training)
	}
}

func (g *LevelGraph) RunningStats() []*RunningStats {
	var rs []*RunningStats
	for _, e := range g.edges {
		rs = append(rs, e.RunningStats()...)
	}
	return rs
}
