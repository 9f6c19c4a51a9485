package hdarts

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
)

// ModelArgs is the set of arguments to NewModel. Config, Primitives, InputChannels, NumClasses,
// Criterion and Init are required.
type ModelArgs struct {
	Config     Config
	Primitives []Primitive

	InputChannels int
	NumClasses    int

	Criterion CostFunction
	Init      Initializer

	// Device is where the Model's tensors live. Only Host is supported; it is the default.
	Device Device

	// Rand is the source used to initialize the architecture. If nil, a source seeded with 1 is used.
	Rand *rand.Rand

	// AlphaNormal and AlphaReduce, if given, are used instead of new architecture parameters, for
	// resuming a search. They must match the Config.
	AlphaNormal *Alpha
	AlphaReduce *Alpha
}

// Model is the whole searchable network: a stem, a stack of cells and a classifier, with the loss
// criterion and the architecture parameters of both kinds of cell.
//
// Model is not safe for concurrent use. A single goroutine is expected to drive it.
type Model struct {
	cfg    Config
	device Device

	normal, reduce *Alpha

	stem       Operator
	cells      []*cell
	classifier *dense

	criterion CostFunction

	inputChannels int
	training      bool
}

// NewModel builds the Model described by args. The Config and any given Alpha are checked before
// anything is built; if either is invalid, NewModel returns a ConfigurationError and no Model.
func NewModel(args ModelArgs) (m *Model, err error) {
	if args.Criterion == nil {
		return nil, NilArgError{"Criterion"}
	} else if args.Init == nil {
		return nil, NilArgError{"Initializer"}
	}

	cfg := args.Config
	if err := cfg.Validate(len(args.Primitives)); err != nil {
		return nil, err
	}

	if args.InputChannels < 1 {
		return nil, configErrorf("input channels must be at least 1, got %d", args.InputChannels)
	} else if args.NumClasses < 1 {
		return nil, configErrorf("number of classes must be at least 1, got %d", args.NumClasses)
	}

	if args.Device == "" {
		args.Device = Host
	} else if args.Device != Host {
		return nil, configErrorf("tensors can only be placed on %q, not %q", Host, args.Device)
	}

	for _, a := range []*Alpha{args.AlphaNormal, args.AlphaReduce} {
		if a == nil {
			continue
		} else if err := a.Validate(cfg); err != nil {
			return nil, err
		}
	}

	defer func() {
		if err != nil {
			m = nil
		}
	}()
	// layers panic if given impossible channel counts
	defer recoverForward(&err)

	rng := args.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	m = &Model{
		cfg:           cfg,
		device:        args.Device,
		normal:        args.AlphaNormal,
		reduce:        args.AlphaReduce,
		criterion:     args.Criterion,
		inputChannels: args.InputChannels,
		training:      true,
	}

	if m.normal == nil {
		m.normal = NewAlpha("normal", cfg, rng)
	}
	if m.reduce == nil {
		m.reduce = NewAlpha("reduce", cfg, rng)
	}

	reg, err := NewRegistry(cfg, args.Primitives, args.Init)
	if err != nil {
		return nil, err
	}

	c := cfg.ChannelsStart
	cCur := c * cfg.StemMultiplier
	m.stem = Sequential("stem",
		Conv(args.InputChannels, cCur, 3, ConvArgs{Padding: 1}, args.Init),
		BatchNorm(cCur, true),
	)

	cPrev := cCur
	for i := 0; i < cfg.NumCells; i++ {
		reduction := i == cfg.NumCells/3 || i == 2*cfg.NumCells/3
		alpha := m.normal
		if reduction {
			c *= 2
			alpha = m.reduce
		}

		cl, err := newCell(reg, alpha, cPrev, c, reduction, args.Init)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to build cell %d", i)
		}

		m.cells = append(m.cells, cl)
		cPrev = c
	}

	m.classifier = Dense(cPrev, args.NumClasses, args.Init)
	return m, nil
}

// Config returns the Config the Model was built from.
func (m *Model) Config() Config {
	return m.cfg
}

// Device returns where the Model's tensors live.
func (m *Model) Device() Device {
	return m.device
}

// Criterion returns the loss criterion of the Model.
func (m *Model) Criterion() CostFunction {
	return m.criterion
}

// AlphaNormal returns the architecture parameters shared by every normal cell.
func (m *Model) AlphaNormal() *Alpha {
	return m.normal
}

// AlphaReduce returns the architecture parameters shared by every reduction cell.
func (m *Model) AlphaReduce() *Alpha {
	return m.reduce
}

// NumCells returns the number of cells, and which of them are reduction cells.
func (m *Model) NumCells() (int, []int) {
	var reductions []int
	for i, c := range m.cells {
		if c.reduction {
			reductions = append(reductions, i)
		}
	}
	return len(m.cells), reductions
}

// Forward returns the logits [N, NumClasses] of a batch x [N, C, H, W]. It is deterministic given
// the weights, the architecture, the input and (in training mode) the batch statistics.
//
// ShapeError and PlacementError are returned if x does not fit the Model or is not on its Device.
func (m *Model) Forward(x *Tensor) (logits *Tensor, err error) {
	if x == nil {
		return nil, NilArgError{"Input"}
	} else if len(x.Shape) != 4 || x.Shape[1] != m.inputChannels {
		return nil, ShapeError{"Model.Forward", fmt.Sprintf("input %v, expected [N, %d, H, W]", x.Shape, m.inputChannels)}
	} else if x.Device != m.device {
		return nil, PlacementError{"Model.Forward", []Device{x.Device, m.device}}
	}

	defer recoverForward(&err)

	h := m.stem.Forward(x)
	for _, c := range m.cells {
		h = c.Forward(h)
	}

	return m.classifier.Forward(GlobalAvgPool(h)), nil
}

// Loss runs the Model on x and returns the loss given by the criterion for the labels, along with
// the logits.
func (m *Model) Loss(x *Tensor, labels []int) (loss, logits *Tensor, err error) {
	if logits, err = m.Forward(x); err != nil {
		return nil, nil, err
	}

	if loss, err = m.criterion.Cost(logits, labels); err != nil {
		return nil, nil, errors.Wrapf(err, "Failed to compute %s loss", m.criterion.TypeString())
	}

	return loss, logits, nil
}

// Weights returns every parameter of the Model that is not an architecture parameter. These are
// the values updated by the weights optimizer.
func (m *Model) Weights() []*Tensor {
	ws := m.stem.Weights()
	for _, c := range m.cells {
		ws = append(ws, c.Weights()...)
	}
	return append(ws, m.classifier.Weights()...)
}

// RunningStats returns the batch statistics of every batch normalization in the Model, in a fixed
// order. They are not parameters, but are needed to evaluate a restored Model.
func (m *Model) RunningStats() []*RunningStats {
	rs := RunningStatsOf(m.stem)
	for _, c := range m.cells {
		rs = append(rs, c.RunningStats()...)
	}
	return rs
}

// AlphaLevel returns the architecture parameters of the given level only, of both kinds of cell.
// These are the values updated by the optimizer of that level. It returns nil for a level that does
// not exist.
func (m *Model) AlphaLevel(level int) []*Tensor {
	return append(m.normal.Level(level), m.reduce.Level(level)...)
}

// Parameters returns every parameter of the Model: the weights, followed by the architecture
// parameters of each level in ascending order.
func (m *Model) Parameters() []*Tensor {
	ps := m.Weights()
	for l := 0; l < m.cfg.NumLevels; l++ {
		ps = append(ps, m.AlphaLevel(l)...)
	}
	return ps
}

// MixtureEdges returns every MixtureEdge of the Model, at every level of every cell.
func (m *Model) MixtureEdges() []*MixtureEdge {
	var es []*MixtureEdge
	for _, c := range m.cells {
		es = append(es, c.mixtureEdges()...)
	}
	return es
}

// Train switches the whole Model to training behavior.
func (m *Model) Train() {
	m.setTraining(true)
}

// Eval switches the whole Model to evaluation behavior.
func (m *Model) Eval() {
	m.setTraining(false)
}

// Training returns whether the Model is in training mode.
func (m *Model) Training() bool {
	return m.training
}

func (m *Model) setTraining(training bool) {
	m.training = training
	m.stem.SetTraining(training)
	for _, c := range m.cells {
		c.SetTraining(training)
	}
	m.classifier.SetTraining(training)
}
