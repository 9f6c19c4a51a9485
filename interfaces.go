package hdarts

// Operator is anything that can sit on an edge of a LevelGraph: a primitive operation, a stack of
// layers, or a whole LevelGraph of the level below. All Operators map a [N, C, H, W] input to a
// [N, C, H', W'] output, where H' and W' are determined by the stride the Operator was built with.
type Operator interface {
	// TypeString returns the string corresponding to the type of the Operator.
	// For example: the max-pooling primitive returns "max_pool_3x3"
	TypeString() string

	// Forward computes the output of the Operator. Errors are panicked as ShapeError or
	// PlacementError, and recovered by Model.Forward
	Forward(*Tensor) *Tensor

	// Weights returns the learnable parameters of the Operator, and of everything it contains.
	// Architecture parameters are never included.
	Weights() []*Tensor

	// SetTraining switches the Operator (and everything it contains) between training and
	// evaluation behavior
	SetTraining(bool)
}

// Optimizer is an update rule for a group of parameters, owned by a single ParamGroup.
type Optimizer interface {
	// TypeString returns the string corresponding to the type of the Optimizer.
	// For example: the Optimizer "Adam" should return "adam", or something
	// to that effect.
	TypeString() string

	// Check is called once per step, before anything else, with the number of values of each
	// parameter in the group. It returns an error if Run would fail for any of them, and changes
	// nothing.
	Check(sizes []int) error

	// Advance is called once per step, after Check and before Run is called for each parameter.
	Advance()

	// Run is called to suggest changes to each value of a parameter, given:
	// the index of the parameter in its group, number of values, value at index,
	// gradient at index, function to add to values, and a learning-rate
	//
	// Run(param, size int, value func(int) float64, grad func(int) float64, add func(int, float64), learningRate float64) error
	Run(int, int, func(int) float64, func(int) float64, func(int, float64), float64) error
}

// HyperParameter is a value that may change over the course of training, such as a learning rate.
type HyperParameter interface {
	TypeString() string

	// Value returns the value at the given iteration; for learning rates, the epoch
	Value(int) float64
}

// Initializer dictates how the values of a parameter will be set, given the number of inputs and
// outputs that each value connects (fan-in and fan-out) and the slice to fill.
type Initializer interface {
	Set(fanIn, fanOut int, ws []float64)
}

// CostFunction is the loss criterion: it turns the logits of a batch and the correct classes into
// a single value that can be propagated back through the Model.
type CostFunction interface {
	TypeString() string

	// Cost returns the loss of the given logits [N, K] for the labels (one per sample).
	Cost(*Tensor, []int) (*Tensor, error)
}
