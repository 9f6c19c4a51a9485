package hdarts

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// CrossEntropy returns the mean, over the batch, of the negative log-likelihood of the correct
// class under the softmax of the logits [N, K]. It is computed through log-sum-exp, so large
// logits do not overflow.
func CrossEntropy(logits *Tensor, labels []int) (*Tensor, error) {
	if len(logits.Shape) != 2 {
		return nil, ShapeError{"CrossEntropy", "logits must have 2 dimensions"}
	}

	n, k := logits.Shape[0], logits.Shape[1]
	if n != len(labels) {
		return nil, errors.Errorf("%d labels for a batch of %d", len(labels), n)
	} else if n == 0 {
		return nil, errors.New("Empty batch")
	}

	for i, y := range labels {
		if y < 0 || y >= k {
			return nil, errors.Errorf("Label %d of sample %d is out of range for %d classes", y, i, k)
		}
	}

	probs := make([]float64, n*k)
	var sum float64
	for i := 0; i < n; i++ {
		row := logits.Data[i*k : (i+1)*k]
		lse := floats.LogSumExp(row)
		sum += lse - row[labels[i]]

		p := probs[i*k : (i+1)*k]
		for j := range p {
			p[j] = math.Exp(row[j] - lse)
		}
	}

	out := result([]int{1}, []float64{sum / float64(n)}, logits)
	if out.requiresGrad {
		out.backFn = func() {
			if logits.Grad == nil {
				return
			}
			g := out.Grad[0] / float64(n)
			for i := 0; i < n; i++ {
				for j := 0; j < k; j++ {
					d := probs[i*k+j]
					if j == labels[i] {
						d--
					}
					logits.Grad[i*k+j] += g * d
				}
			}
		}
	}

	return out, nil
}
