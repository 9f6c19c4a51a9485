package data

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sharnoff/hdarts/utils"
	"golang.org/x/sync/errgroup"
)

const (
	mnistSize    int = 28
	mnistClasses int = 10

	mnistMean float64 = 0.13066051707548254
	mnistSD   float64 = 0.30810780244715075
)

// LoadMNIST reads MNIST from a CSV file with one image per line: the class, then the 784 pixel
// values (0 to 255) in row-major order. Pixels are scaled to [0, 1] and then standardized.
func LoadMNIST(fileName string) (Dataset, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open file %q", fileName)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read file %q", fileName)
	}

	info := Info{InputSize: mnistSize, InputChannels: 1, NumClasses: mnistClasses}
	m := &memory{info: info, xs: make([][]float64, len(lines)), ys: make([]int, len(lines))}

	// each goroutine fills its own range of examples
	const chunk = 1024
	var g errgroup.Group
	g.SetLimit(utils.NumCPU())
	for start := 0; start < len(lines); start += chunk {
		start := start
		end := start + chunk
		if end > len(lines) {
			end = len(lines)
		}

		g.Go(func() error {
			for i := start; i < end; i++ {
				x, y, err := parseImage(lines[i])
				if err != nil {
					return errors.Wrapf(err, "Bad image at line %d of %q", i+1, fileName)
				}
				m.xs[i], m.ys[i] = x, y
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m, nil
}

func parseImage(s string) ([]float64, int, error) {
	strs := strings.Split(s, ",")
	if len(strs) != mnistSize*mnistSize+1 {
		return nil, 0, errors.Errorf("%d fields, expected %d", len(strs), mnistSize*mnistSize+1)
	}

	lbl, err := strconv.Atoi(strings.TrimSpace(strs[0]))
	if err != nil {
		return nil, 0, errors.Wrapf(err, "Bad label %q", strs[0])
	} else if lbl < 0 || lbl >= mnistClasses {
		return nil, 0, errors.Errorf("Label %d out of range", lbl)
	}

	x := make([]float64, mnistSize*mnistSize)
	for i := range x {
		v, err := strconv.Atoi(strings.TrimSpace(strs[i+1]))
		if err != nil {
			return nil, 0, errors.Wrapf(err, "Bad pixel %q", strs[i+1])
		}
		x[i] = (float64(v)/255 - mnistMean) / mnistSD
	}

	return x, lbl, nil
}
