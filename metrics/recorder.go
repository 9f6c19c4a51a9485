package metrics

import (
	"math"
	"sync"

	"github.com/tidwall/btree"
)

// Recorder is a Writer that keeps everything in memory, ordered by tag and then by step.
type Recorder struct {
	mu  sync.Mutex
	seq int

	scalars *btree.BTreeG[Point]
	texts   *btree.BTreeG[Text]
}

// pointLess sorts points by tag, then step, using the order of arrival as a tie-breaker so that
// repeated steps are all kept
func pointLess(a, b Point) bool {
	if a.Tag != b.Tag {
		return a.Tag < b.Tag
	} else if a.Step != b.Step {
		return a.Step < b.Step
	}
	return a.seq < b.seq
}

func textLess(a, b Text) bool {
	if a.Tag != b.Tag {
		return a.Tag < b.Tag
	} else if a.Step != b.Step {
		return a.Step < b.Step
	}
	return a.seq < b.seq
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		scalars: btree.NewBTreeG[Point](pointLess),
		texts:   btree.NewBTreeG[Text](textLess),
	}
}

func (r *Recorder) next() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq
}

func (r *Recorder) AddScalar(tag string, value float64, step int) {
	r.scalars.Set(Point{Tag: tag, Step: step, Value: value, seq: r.next()})
}

func (r *Recorder) AddText(tag, text string, step int) {
	r.texts.Set(Text{Tag: tag, Step: step, Text: text, seq: r.next()})
}

// Scalars returns the series with the given tag, by step.
func (r *Recorder) Scalars(tag string) []Point {
	var ps []Point
	r.scalars.Ascend(Point{Tag: tag, Step: math.MinInt}, func(p Point) bool {
		if p.Tag != tag {
			return false
		}
		ps = append(ps, p)
		return true
	})
	return ps
}

// Texts returns the text entries with the given tag, by step.
func (r *Recorder) Texts(tag string) []Text {
	var ts []Text
	r.texts.Ascend(Text{Tag: tag, Step: math.MinInt}, func(t Text) bool {
		if t.Tag != tag {
			return false
		}
		ts = append(ts, t)
		return true
	})
	return ts
}

// Last returns the most recent value of the series with the given tag, and whether there is one.
func (r *Recorder) Last(tag string) (Point, bool) {
	ps := r.Scalars(tag)
	if len(ps) == 0 {
		return Point{}, false
	}
	return ps[len(ps)-1], true
}

// Tags returns the tags of every scalar series, in order.
func (r *Recorder) Tags() []string {
	var tags []string
	r.scalars.Scan(func(p Point) bool {
		if len(tags) == 0 || tags[len(tags)-1] != p.Tag {
			tags = append(tags, p.Tag)
		}
		return true
	})
	return tags
}
