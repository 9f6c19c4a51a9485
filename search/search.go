// Package search runs the bi-level optimization: at every step, the architecture of each level is
// updated against a validation batch, then the weights against a training batch.
package search

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
	"github.com/sharnoff/hdarts/checkpoint"
	"github.com/sharnoff/hdarts/data"
	"github.com/sharnoff/hdarts/hyperparams"
	"github.com/sharnoff/hdarts/metrics"
	"go.uber.org/atomic"
)

// StepOrder is the order in which the two kinds of update are made within a step. Within the
// architecture updates, levels always go in ascending order, each against a fresh forward pass.
type StepOrder int

const (
	// AlphaThenWeights updates the architecture of every level, then the weights.
	AlphaThenWeights StepOrder = iota

	// WeightsThenAlpha updates the weights, then the architecture of every level.
	WeightsThenAlpha
)

func (o StepOrder) String() string {
	switch o {
	case AlphaThenWeights:
		return "alpha-then-weights"
	case WeightsThenAlpha:
		return "weights-then-alpha"
	}
	return fmt.Sprintf("StepOrder(%d)", int(o))
}

// EventKind identifies an update reported to an Observer
type EventKind int

const (
	// AlphaStep is the update of the architecture of one level
	AlphaStep EventKind = iota
	// WeightsStep is the update of the weights
	WeightsStep
)

func (k EventKind) String() string {
	if k == AlphaStep {
		return "alpha"
	}
	return "weights"
}

// Event is a single completed update. Level is only meaningful for AlphaStep.
type Event struct {
	Kind  EventKind
	Epoch int
	Step  int
	Level int
	Loss  float64
}

// Option configures a Searcher
type Option func(*Searcher)

// WithWriter sets where the series of the search are written. The default is a new
// metrics.Recorder.
func WithWriter(w metrics.Writer) Option {
	return func(s *Searcher) { s.writer = w }
}

// WithLogger sets where progress is logged. The default logs text to stderr.
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) { s.logger = l }
}

// WithDataset sets the dataset to search on, instead of the one named by the Config.
func WithDataset(ds data.Dataset) Option {
	return func(s *Searcher) { s.ds = ds }
}

// WithObserver sets a function called after every update, from the goroutine running the search.
func WithObserver(f func(Event)) Option {
	return func(s *Searcher) { s.observe = f }
}

// WithCheckpointer sets where checkpoints are saved. The default is a directory named by the ID of
// the search, under the checkpoint path of the Config.
func WithCheckpointer(c checkpoint.Checkpointer) Option {
	return func(s *Searcher) { s.ckpt = c }
}

// WithStepOrder sets the order of updates within a step. The default is AlphaThenWeights.
func WithStepOrder(o StepOrder) Option {
	return func(s *Searcher) { s.order = o }
}

// WithID sets the ID of the search, instead of one from NewID.
func WithID(id string) Option {
	return func(s *Searcher) { s.id = id }
}

// WithAlpha resumes from the given architecture, which must match the Config.
func WithAlpha(normal, reduce *hd.Alpha) Option {
	return func(s *Searcher) { s.resumeNormal, s.resumeReduce = normal, reduce }
}

// Searcher runs a single search. It owns the Model and the optimizers of both partitions of its
// parameters, and is driven by a single goroutine; only Terminate may be called from elsewhere.
type Searcher struct {
	cfg   Config
	id    string
	order StepOrder

	ds           data.Dataset
	train, valid *data.Loader

	model   *hd.Model
	alpha   []*hd.ParamGroup // one per level
	weights *hd.ParamGroup

	writer  metrics.Writer
	logger  *slog.Logger
	observe func(Event)
	ckpt    checkpoint.Checkpointer

	resumeNormal, resumeReduce *hd.Alpha

	// the epoch in progress
	epoch atomic.Int64

	terminated  atomic.Bool
	alphaSteps  atomic.Int64
	weightSteps atomic.Int64
	nonFinite   atomic.Int64
	best        atomic.Float64
}

// New builds everything the search needs: the data loaders, the Model and its optimizers, each of
// the kind named by the Config. The Config is checked first; if it is invalid, New returns a
// hd.ConfigurationError before anything else is done. Unknown datasets are also a
// hd.ConfigurationError.
func New(cfg Config, opts ...Option) (*Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Searcher{cfg: cfg}
	for _, o := range opts {
		o(s)
	}

	if s.id == "" {
		s.id = NewID()
	}

	if s.writer == nil {
		s.writer = metrics.NewRecorder()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if s.ckpt.Root == "" {
		s.ckpt = checkpoint.Checkpointer{
			Root:        filepath.Join(cfg.CheckpointPath, s.id),
			SaveWeights: cfg.SaveWeights,
		}
	}

	if s.ds == nil {
		_, ds, err := data.Get(cfg.Dataset, cfg.DataPath)
		if err != nil {
			return nil, err
		}
		s.ds = ds
	}

	info := s.ds.Info()

	trainIdx, validIdx := data.Split(s.ds.Len(), cfg.PercentageOfData)
	var err error
	if s.train, err = data.NewLoader(s.ds, trainIdx, cfg.BatchSize, rand.New(rand.NewSource(cfg.Seed+1))); err != nil {
		return nil, errors.Wrap(err, "Failed to create training loader")
	} else if s.valid, err = data.NewLoader(s.ds, validIdx, cfg.BatchSize, rand.New(rand.NewSource(cfg.Seed+2))); err != nil {
		return nil, errors.Wrap(err, "Failed to create validation loader")
	}

	// every name was resolved by Validate, so none of these fail
	rng := rand.New(rand.NewSource(cfg.Seed))
	primitives, _ := cfg.primitives()
	criterion, _ := cfg.criterion()
	initializer, _ := cfg.weightsInit(rng)
	weightsOpt, _ := cfg.weightsOptimizer()
	schedule, _ := cfg.weightsSchedule()

	s.model, err = hd.NewModel(hd.ModelArgs{
		Config:        cfg.Config,
		Primitives:    primitives,
		InputChannels: info.InputChannels,
		NumClasses:    info.NumClasses,
		Criterion:     criterion,
		Init:          initializer,
		Rand:          rng,
		AlphaNormal:   s.resumeNormal,
		AlphaReduce:   s.resumeReduce,
	})
	if err != nil {
		return nil, err
	}

	if s.weights, err = hd.NewParamGroup("weights", s.model.Weights(), weightsOpt, schedule); err != nil {
		return nil, err
	}

	for l := 0; l < cfg.NumLevels; l++ {
		opt, _ := cfg.alphaOptimizer()
		g, err := hd.NewParamGroup(fmt.Sprintf("alpha/%d", l), s.model.AlphaLevel(l), opt, hyperparams.Constant(cfg.AlphaLR))
		if err != nil {
			return nil, err
		}
		s.alpha = append(s.alpha, g)
	}

	return s, nil
}

// NewID returns a new identifier for a search: the time it was created, and a random suffix.
func NewID() string {
	return time.Now().Format("02-01-2006--15-04-05") + "--" + uuid.New().String()[:8]
}

// ID returns the identifier of the search.
func (s *Searcher) ID() string {
	return s.id
}

// Config returns the Config of the search.
func (s *Searcher) Config() Config {
	return s.cfg
}

// Model returns the Model being searched.
func (s *Searcher) Model() *hd.Model {
	return s.model
}

// Writer returns where the series of the search are written.
func (s *Searcher) Writer() metrics.Writer {
	return s.writer
}

// Checkpointer returns where checkpoints are saved.
func (s *Searcher) Checkpointer() checkpoint.Checkpointer {
	return s.ckpt
}

// AlphaSteps returns the number of architecture updates made so far, across all levels.
func (s *Searcher) AlphaSteps() int64 {
	return s.alphaSteps.Load()
}

// WeightsSteps returns the number of weight updates made so far.
func (s *Searcher) WeightsSteps() int64 {
	return s.weightSteps.Load()
}

// NonFinite returns the number of updates skipped because a loss or gradient was not finite.
func (s *Searcher) NonFinite() int64 {
	return s.nonFinite.Load()
}

// Best returns the best validation top-1 accuracy so far.
func (s *Searcher) Best() float64 {
	return s.best.Load()
}
