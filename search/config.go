package search

import (
	"math/rand"
	"os"

	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
	"github.com/sharnoff/hdarts/costfuncs"
	"github.com/sharnoff/hdarts/hyperparams"
	"github.com/sharnoff/hdarts/initializers"
	"github.com/sharnoff/hdarts/operators"
	"github.com/sharnoff/hdarts/optimizers"
	"gopkg.in/yaml.v3"
)

// Config holds everything needed to run a search: the search space and Model, the data, and the
// optimization of both weights and architecture.
type Config struct {
	hd.Config `yaml:",inline"`

	// Primitives names the candidates of level 0, in the order of their scores. There must be as
	// many as num_ops_at_level[0].
	Primitives  []string `yaml:"primitives"`
	Criterion   string   `yaml:"criterion"`
	WeightsInit string   `yaml:"weights_init"`

	Dataset          string `yaml:"dataset"`
	DataPath         string `yaml:"data_path"`
	PercentageOfData int    `yaml:"percentage_of_data"`
	BatchSize        int    `yaml:"batch_size"`
	Epochs           int    `yaml:"epochs"`

	WeightsOptimizer    string  `yaml:"weights_optimizer"`
	WeightsLRSchedule   string  `yaml:"weights_lr_schedule"`
	WeightsLR           float64 `yaml:"weights_lr"`
	WeightsLRMin        float64 `yaml:"weights_lr_min"`
	WeightsMomentum     float64 `yaml:"weights_momentum"`
	WeightsWeightDecay  float64 `yaml:"weights_weight_decay"`
	WeightsGradientClip float64 `yaml:"weights_gradient_clip"`

	AlphaOptimizer   string  `yaml:"alpha_optimizer"`
	AlphaLR          float64 `yaml:"alpha_lr"`
	AlphaWeightDecay float64 `yaml:"alpha_weight_decay"`

	// AlphaMomentum is β1 of the architecture optimizers, if they are Adam
	AlphaMomentum float64 `yaml:"alpha_momentum"`

	PrintStepFrequency int    `yaml:"print_step_frequency"`
	CheckpointPath     string `yaml:"checkpoint_path"`
	LogDir             string `yaml:"log_dir"`
	SaveWeights        bool   `yaml:"save_weights"`
	Seed               int64  `yaml:"seed"`
}

// DefaultConfig returns the Config used for anything a config file does not set.
func DefaultConfig() Config {
	return Config{
		Config: hd.Config{
			NumLevels:       2,
			NumNodesAtLevel: []int{3, 4},
			NumOpsAtLevel:   []int{8, 3},
			ChannelsStart:   16,
			NumCells:        5,
			StemMultiplier:  1,
		},

		Primitives:  operators.Names(),
		Criterion:   costfuncs.CrossEntropy().TypeString(),
		WeightsInit: "he",

		Dataset:          "synthetic",
		DataPath:         "./data",
		PercentageOfData: 100,
		BatchSize:        64,
		Epochs:           50,

		WeightsOptimizer:    "sgd",
		WeightsLRSchedule:   "cosine",
		WeightsLR:           0.025,
		WeightsLRMin:        0.001,
		WeightsMomentum:     0.9,
		WeightsWeightDecay:  3e-4,
		WeightsGradientClip: 5,

		AlphaOptimizer:   "adam",
		AlphaLR:          3e-4,
		AlphaWeightDecay: 1e-3,
		AlphaMomentum:    0.5,

		PrintStepFrequency: 50,
		CheckpointPath:     "./checkpoints",
		LogDir:             "./logs",
		SaveWeights:        false,
		Seed:               2,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys that do not exist are an error, so that
// typos are never silently ignored. An empty path gives the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "Failed to open config %q", path)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "Failed to decode config %q", path)
	}

	return cfg, nil
}

// Validate checks the whole Config, returning a hd.ConfigurationError for the first problem
// found: a training setting out of range, a name that nothing is registered under, or a search
// space that does not fit the primitives.
func (c Config) Validate() error {
	bad := func(reason string) error { return hd.ConfigurationError{Reason: reason} }

	switch {
	case c.PercentageOfData < 1 || c.PercentageOfData > 100:
		return bad("percentage_of_data must be in [1, 100]")
	case c.BatchSize < 1:
		return bad("batch_size must be at least 1")
	case c.Epochs < 1:
		return bad("epochs must be at least 1")
	case c.WeightsLR <= 0 || c.WeightsLRMin < 0:
		return bad("weights_lr must be positive and weights_lr_min non-negative")
	case c.WeightsGradientClip <= 0:
		return bad("weights_gradient_clip must be positive")
	case c.AlphaLR <= 0:
		return bad("alpha_lr must be positive")
	case c.AlphaMomentum < 0 || c.AlphaMomentum >= 1:
		return bad("alpha_momentum must be in [0, 1)")
	case c.PrintStepFrequency < 1:
		return bad("print_step_frequency must be at least 1")
	}

	ps, err := c.primitives()
	if err != nil {
		return bad(err.Error())
	}

	checks := []func() error{
		func() error { _, err := c.criterion(); return err },
		func() error { _, err := c.weightsInit(nil); return err },
		func() error { _, err := c.weightsOptimizer(); return err },
		func() error { _, err := c.weightsSchedule(); return err },
		func() error { _, err := c.alphaOptimizer(); return err },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return bad(err.Error())
		}
	}

	return c.Config.Validate(len(ps))
}

// primitives resolves the names of the level-0 candidates
func (c Config) primitives() ([]hd.Primitive, error) {
	seen := make(map[string]bool)
	ps := make([]hd.Primitive, len(c.Primitives))

	for i, name := range c.Primitives {
		if seen[name] {
			return nil, errors.Errorf("primitive %q given more than once", name)
		}
		seen[name] = true

		var err error
		if ps[i], err = operators.Lookup(name); err != nil {
			return nil, err
		}
	}

	return ps, nil
}

func (c Config) criterion() (hd.CostFunction, error) {
	return costfuncs.Lookup(c.Criterion)
}

func (c Config) weightsInit(r *rand.Rand) (hd.Initializer, error) {
	return initializers.Lookup(c.WeightsInit, r)
}

func (c Config) weightsOptimizer() (hd.Optimizer, error) {
	return optimizers.Lookup(c.WeightsOptimizer, optimizers.Settings{
		Momentum:    c.WeightsMomentum,
		WeightDecay: c.WeightsWeightDecay,
	})
}

func (c Config) weightsSchedule() (hd.HyperParameter, error) {
	return hyperparams.Lookup(c.WeightsLRSchedule, c.WeightsLR, c.WeightsLRMin, c.Epochs)
}

// alphaOptimizer returns a new optimizer for one level of the architecture
func (c Config) alphaOptimizer() (hd.Optimizer, error) {
	return optimizers.Lookup(c.AlphaOptimizer, optimizers.Settings{
		Momentum:    c.AlphaMomentum,
		WeightDecay: c.AlphaWeightDecay,
	})
}
