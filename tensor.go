package hdarts

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// Device identifies where the values of a Tensor live. Every Tensor taking part in a single
// operation must be on the same Device.
type Device string

// Host is the Device for tensors held in main memory, and the only one the operations in this
// package compute on.
const Host Device = "cpu"

// Tensor is a dense, row-major array of float64 that records how it was computed, so that
// gradients can be propagated back to the Tensors it was computed from. Images are stored as
// [N, C, H, W].
//
// Tensors created by NewParam are the learnable values of a model; they always require gradients.
// The result of an operation requires gradients if and only if one of its inputs does.
type Tensor struct {
	Shape  []int
	Data   []float64
	Grad   []float64
	Device Device

	name         string
	requiresGrad bool

	// the tensors this one was computed from, and how to pass Grad back to them
	children []*Tensor
	backFn   func()
}

// NewTensor returns a constant Tensor on the Host with the given shape, wrapping data. If data is
// nil, it is allocated. NewTensor panics with ShapeError if the length of data does not match
// the shape.
func NewTensor(shape []int, data []float64) *Tensor {
	size := shapeSize(shape)
	if data == nil {
		data = make([]float64, size)
	} else if len(data) != size {
		shapePanic("NewTensor", "%d values given for shape %v", len(data), shape)
	}

	s := make([]int, len(shape))
	copy(s, shape)

	return &Tensor{Shape: s, Data: data, Device: Host}
}

// Zeros returns a constant Tensor of the given shape, filled with zeros.
func Zeros(shape ...int) *Tensor {
	return NewTensor(shape, nil)
}

// NewParam returns a learnable Tensor of the given shape, with all values zero.
func NewParam(name string, shape ...int) *Tensor {
	t := NewTensor(shape, nil)
	t.name = name
	t.requiresGrad = true
	t.Grad = make([]float64, len(t.Data))
	return t
}

func shapeSize(shape []int) int {
	size := 1
	for _, d := range shape {
		if d < 0 {
			shapePanic("shape", "negative dimension in %v", shape)
		}
		size *= d
	}
	return size
}

// Name returns the name given to a parameter. It is empty for other tensors.
func (t *Tensor) Name() string {
	return t.name
}

// Size returns the number of values in the Tensor.
func (t *Tensor) Size() int {
	return len(t.Data)
}

// Dims returns a copy of the Tensor's shape.
func (t *Tensor) Dims() []int {
	d := make([]int, len(t.Shape))
	copy(d, t.Shape)
	return d
}

// RequiresGrad returns whether gradients are accumulated into the Tensor by Backward.
func (t *Tensor) RequiresGrad() bool {
	return t.requiresGrad
}

// IsParam returns whether the Tensor is a leaf that requires gradients: a learnable value.
func (t *Tensor) IsParam() bool {
	return t.requiresGrad && t.backFn == nil && len(t.children) == 0
}

// Item returns the single value held by the Tensor. It panics with ShapeError if the Tensor does
// not hold exactly one value.
func (t *Tensor) Item() float64 {
	if len(t.Data) != 1 {
		shapePanic("Item", "tensor has %d values", len(t.Data))
	}
	return t.Data[0]
}

// ZeroGrad sets the gradient of the Tensor to zero.
func (t *Tensor) ZeroGrad() {
	for i := range t.Grad {
		t.Grad[i] = 0
	}
}

// IsFinite returns whether every value in the Tensor is finite.
func (t *Tensor) IsFinite() bool {
	return allFinite(t.Data)
}

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Detach returns a constant copy of the Tensor: same values, no gradient, no history.
func (t *Tensor) Detach() *Tensor {
	d := make([]float64, len(t.Data))
	copy(d, t.Data)
	c := NewTensor(t.Shape, d)
	c.Device = t.Device
	return c
}

// To returns a copy of a constant Tensor placed on the given Device. Only Host tensors can be
// computed on; To exists so that data can be tagged with the device it was prepared for.
func (t *Tensor) To(d Device) *Tensor {
	c := t.Detach()
	c.Device = d
	return c
}

// result creates the output Tensor of an operation on the given inputs. The output requires
// gradients if any input does, in which case the inputs are recorded for Backward.
func result(shape []int, data []float64, inputs ...*Tensor) *Tensor {
	out := NewTensor(shape, data)
	if len(inputs) != 0 {
		out.Device = inputs[0].Device
	}

	for _, in := range inputs {
		if in.requiresGrad {
			out.requiresGrad = true
			break
		}
	}

	if out.requiresGrad {
		out.Grad = make([]float64, len(out.Data))
		out.children = inputs
	}

	return out
}

// checkDevice panics with PlacementError if the given tensors are not all on the same Device.
func checkDevice(op string, ts ...*Tensor) {
	for _, t := range ts[1:] {
		if t.Device != ts[0].Device {
			devs := make([]Device, len(ts))
			for i := range ts {
				devs[i] = ts[i].Device
			}
			panic(PlacementError{op, devs})
		}
	}
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// tensorJSON is the stored form of a Tensor. Only the values are kept; the history and gradient
// of a Tensor are never stored.
type tensorJSON struct {
	Name  string    `json:"name,omitempty"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// MarshalJSON encodes the name, shape and values of the Tensor. encoding/json writes float64 in
// the shortest form that parses back to the same bits, so a round trip is exact.
func (t *Tensor) MarshalJSON() ([]byte, error) {
	if !t.IsFinite() {
		return nil, errors.Wrapf(ErrNonFinite, "Can't encode tensor %q", t.name)
	}

	return json.Marshal(tensorJSON{t.name, t.Shape, t.Data})
}

// UnmarshalJSON decodes a Tensor written by MarshalJSON. The decoded Tensor is a parameter on the
// Host.
func (t *Tensor) UnmarshalJSON(b []byte) error {
	var tj tensorJSON
	if err := json.Unmarshal(b, &tj); err != nil {
		return err
	}

	if shapeSize(tj.Shape) != len(tj.Data) {
		return errors.Errorf("Tensor %q has %d values for shape %v", tj.Name, len(tj.Data), tj.Shape)
	}

	*t = *NewParam(tj.Name, tj.Shape...)
	copy(t.Data, tj.Data)
	return nil
}
