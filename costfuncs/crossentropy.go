package costfuncs

import (
	hd "github.com/sharnoff/hdarts"
)

type crossEntropy bool

// CrossEntropy returns the usual classification criterion: the mean negative log-likelihood of the
// correct classes, taking the softmax of the logits.
func CrossEntropy() *crossEntropy {
	c := crossEntropy(false)
	return &c
}

func NegativeLog() *crossEntropy {
	return CrossEntropy()
}

func (c *crossEntropy) TypeString() string {
	return "cross-entropy"
}

func (c *crossEntropy) Cost(logits *hd.Tensor, labels []int) (*hd.Tensor, error) {
	return hd.CrossEntropy(logits, labels)
}
