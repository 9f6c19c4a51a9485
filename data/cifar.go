package data

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	cifarSize    int = 32
	cifarClasses int = 10
	cifarBatches int = 5

	// one byte of label, then 1024 bytes of each of red, green and blue
	cifarRecord int = 1 + 3*cifarSize*cifarSize
)

var (
	cifarMean = [3]float64{0.49139968, 0.48215827, 0.44653124}
	cifarSD   = [3]float64{0.24703233, 0.24348505, 0.26158768}
)

// LoadCIFAR10 reads the training set of CIFAR-10 from the directory of its binary version, which
// holds data_batch_1.bin through data_batch_5.bin. Each channel is scaled to [0, 1] and then
// standardized. The files are decoded concurrently.
func LoadCIFAR10(dirPath string) (Dataset, error) {
	parts := make([]*memory, cifarBatches)

	var g errgroup.Group
	for b := 0; b < cifarBatches; b++ {
		b := b
		g.Go(func() error {
			fileName := filepath.Join(dirPath, fmt.Sprintf("data_batch_%d.bin", b+1))
			raw, err := os.ReadFile(fileName)
			if err != nil {
				return errors.Wrapf(err, "Failed to read file %q", fileName)
			}

			parts[b], err = decodeCIFAR(raw)
			return errors.Wrapf(err, "Failed to decode file %q", fileName)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &memory{info: parts[0].info}
	for _, p := range parts {
		m.xs = append(m.xs, p.xs...)
		m.ys = append(m.ys, p.ys...)
	}

	return m, nil
}

func decodeCIFAR(raw []byte) (*memory, error) {
	if len(raw)%cifarRecord != 0 {
		return nil, errors.Errorf("%d bytes is not a whole number of %d-byte records", len(raw), cifarRecord)
	}

	n := len(raw) / cifarRecord
	plane := cifarSize * cifarSize
	m := &memory{
		info: Info{InputSize: cifarSize, InputChannels: 3, NumClasses: cifarClasses},
		xs:   make([][]float64, n),
		ys:   make([]int, n),
	}

	for i := 0; i < n; i++ {
		rec := raw[i*cifarRecord : (i+1)*cifarRecord]
		if int(rec[0]) >= cifarClasses {
			return nil, errors.Errorf("Record %d has label %d", i, rec[0])
		}

		x := make([]float64, 3*plane)
		for j, v := range rec[1:] {
			ch := j / plane
			x[j] = (float64(v)/255 - cifarMean[ch]) / cifarSD[ch]
		}

		m.xs[i], m.ys[i] = x, int(rec[0])
	}

	return m, nil
}
