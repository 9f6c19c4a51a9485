package metrics

import (
	"math"

	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

// AverageMeter keeps the running average of a value, weighted by the number of samples each
// update covers.
type AverageMeter struct {
	Val   float64
	Sum   float64
	Count int
	Avg   float64
}

// Reset clears the meter.
func (m *AverageMeter) Reset() {
	*m = AverageMeter{}
}

// Update adds a value covering n samples.
func (m *AverageMeter) Update(val float64, n int) {
	m.Val = val
	m.Sum += val * float64(n)
	m.Count += n
	if m.Count > 0 {
		m.Avg = m.Sum / float64(m.Count)
	}
}

// Accuracy returns, for each k, the fraction of samples whose correct class is among the k
// highest logits. logits is [N, K]. A k at or above K counts every sample as correct, except that a
// sample with a NaN logit is never correct.
func Accuracy(logits *hd.Tensor, labels []int, ks ...int) ([]float64, error) {
	if len(logits.Shape) != 2 || logits.Shape[0] != len(labels) {
		return nil, errors.Errorf("Logits of shape %v given for %d labels", logits.Shape, len(labels))
	}

	n, classes := logits.Shape[0], logits.Shape[1]
	correct := make([]int, len(ks))

	for i := 0; i < n; i++ {
		row := logits.Data[i*classes : (i+1)*classes]
		y := labels[i]
		if y < 0 || y >= classes {
			return nil, errors.Errorf("Label %d of sample %d out of range for %d classes", y, i, classes)
		}

		// the number of classes ranked above the correct one; ties go to the lower index
		rank := 0
		for j, v := range row {
			if math.IsNaN(v) {
				rank = classes
				break
			} else if v > row[y] || (v == row[y] && j < y) {
				rank++
			}
		}

		for ki, k := range ks {
			if rank < k && rank < classes {
				correct[ki]++
			}
		}
	}

	acc := make([]float64, len(ks))
	for ki := range ks {
		if n > 0 {
			acc[ki] = float64(correct[ki]) / float64(n)
		}
	}

	return acc, nil
}
