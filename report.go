package hdarts

import (
	"fmt"
	"strings"
)

// EdgeChoice is the discrete choice for one edge: the candidate with the highest score, along with
// the full weight vector that the choice was made from.
type EdgeChoice struct {
	Level  int `json:"level"`
	Group  int `json:"group"`
	From   int `json:"from"`
	To     int `json:"to"`
	Choice int `json:"choice"`

	// softmax(θ)
	Weights []float64 `json:"weights"`
}

// Report is the discrete architecture read from both Alpha structures.
type Report struct {
	Normal []EdgeChoice `json:"normal"`
	Reduce []EdgeChoice `json:"reduce"`
}

// Finalize reads the discrete architecture out of the Alpha structures: for every edge of every
// group of every level, the arg-max of its weights. Ties go to the lowest index. Finalize does not
// change anything.
func Finalize(normal, reduce *Alpha) *Report {
	return &Report{
		Normal: choices(normal),
		Reduce: choices(reduce),
	}
}

func choices(a *Alpha) []EdgeChoice {
	if a == nil {
		return nil
	}

	var cs []EdgeChoice
	for l, lvl := range a.Levels {
		for g, grp := range lvl.Groups {
			for _, e := range grp.Edges {
				w := softmax(e.Theta.Data)

				choice := 0
				for k := range w {
					if w[k] > w[choice] {
						choice = k
					}
				}

				cs = append(cs, EdgeChoice{l, g, e.From, e.To, choice, w})
			}
		}
	}

	return cs
}

// NormalText returns the text form of the choices for normal cells.
func (r *Report) NormalText() string {
	return choicesText(r.Normal)
}

// ReduceText returns the text form of the choices for reduction cells.
func (r *Report) ReduceText() string {
	return choicesText(r.Reduce)
}

func (r *Report) String() string {
	return "normal:\n" + r.NormalText() + "reduce:\n" + r.ReduceText()
}

// one line per group, then one per edge:
//
//	level 0 group 1
//	  0_1: 3 [0.1248 0.1251 ...]
func choicesText(cs []EdgeChoice) string {
	var sb strings.Builder

	for i, c := range cs {
		if i == 0 || c.Level != cs[i-1].Level || c.Group != cs[i-1].Group {
			fmt.Fprintf(&sb, "level %d group %d\n", c.Level, c.Group)
		}

		ws := make([]string, len(c.Weights))
		for k, w := range c.Weights {
			ws[k] = fmt.Sprintf("%.4f", w)
		}
		fmt.Fprintf(&sb, "  %d_%d: %d [%s]\n", c.From, c.To, c.Choice, strings.Join(ws, " "))
	}

	return sb.String()
}
