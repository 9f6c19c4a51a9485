package hdarts

import (
	"fmt"
)

// MixtureEdge is one edge of a LevelGraph: the continuous relaxation of choosing one of its
// candidates. Its output is Σ_k softmax(θ)_k · candidate_k(x).
type MixtureEdge struct {
	theta *Tensor
	cands []Operator
}

// NewMixtureEdge returns the edge mixing the given candidates by θ. It returns a ConfigurationError
// if θ does not have exactly one score for each candidate.
func NewMixtureEdge(theta *Tensor, candidates []Operator) (*MixtureEdge, error) {
	if theta == nil {
		return nil, NilArgError{"Edge weights"}
	} else if len(candidates) != theta.Size() {
		return nil, configErrorf("edge %q has %d weights for %d candidates", theta.Name(), theta.Size(), len(candidates))
	}

	for i, c := range candidates {
		if c == nil {
			return nil, NilArgError{fmt.Sprintf("Candidate %d", i)}
		}
	}

	return &MixtureEdge{theta, candidates}, nil
}

func (e *MixtureEdge) TypeString() string {
	return "mixture"
}

// Forward applies every candidate to x and sums the results, weighted by the softmax of θ. The
// softmax is recomputed on every call.
func (e *MixtureEdge) Forward(x *Tensor) *Tensor {
	outs := make([]*Tensor, len(e.cands))
	for k, c := range e.cands {
		outs[k] = c.Forward(x)
	}

	return WeightedSum(Softmax(e.theta), outs)
}

// Weights returns the weights of the candidates. θ is not included.
func (e *MixtureEdge) Weights() []*Tensor {
	var ws []*Tensor
	for _, c := range e.cands {
		ws = append(ws, c.Weights()...)
	}
	return ws
}

func (e *MixtureEdge) SetTraining(training bool) {
	for _, c := range e.cands {
		c.SetTraining(training)
	}
}

func (e *MixtureEdge) RunningStats() []*RunningStats {
	return runningStatsOf(e.cands...)
}

// Theta returns the raw scores of the edge.
func (e *MixtureEdge) Theta() *Tensor {
	return e.theta
}

// Candidates returns the Operators mixed by the edge, in the order of θ.
func (e *MixtureEdge) Candidates() []Operator {
	return e.cands
}

// Probabilities returns softmax(θ), without recording anything for Backward.
func (e *MixtureEdge) Probabilities() []float64 {
	return softmax(e.theta.Data)
}
