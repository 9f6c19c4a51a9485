// Package metrics records the progress of a search: scalar series keyed by tag and step, and free
// text such as the final architecture. It also provides the running averages and accuracies the
// series are made of.
package metrics

// Writer accepts the series of a search. Tags are of the form "train/loss" or "val/top1".
type Writer interface {
	AddScalar(tag string, value float64, step int)
	AddText(tag, text string, step int)
}

// Point is one value of a scalar series
type Point struct {
	Tag   string
	Step  int
	Value float64

	// order of arrival, to keep repeated steps apart
	seq int
}

// Text is one entry of a text series
type Text struct {
	Tag  string
	Step int
	Text string

	seq int
}

type multi []Writer

// Multi returns a Writer that passes everything to each of the given Writers, in order.
func Multi(ws ...Writer) Writer {
	var m multi
	for _, w := range ws {
		if w != nil {
			m = append(m, w)
		}
	}
	return m
}

func (m multi) AddScalar(tag string, value float64, step int) {
	for _, w := range m {
		w.AddScalar(tag, value, step)
	}
}

func (m multi) AddText(tag, text string, step int) {
	for _, w := range m {
		w.AddText(tag, text, step)
	}
}
