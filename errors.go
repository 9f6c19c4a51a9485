package hdarts

import (
	"fmt"
	"strings"
)

// Error is a wrapper for specific types of errors for which there is no additional information
// necessary. These errors are defined as global variables.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

// These are the global errors that may be returned or panicked.
var (
	// ErrNonFinite is returned when a loss or a gradient is NaN or infinite. It is not fatal: the
	// update that would have used the value is skipped.
	ErrNonFinite = Error{"Value is not finite"}

	// ErrNotScalar is returned by Backward if the root holds more than one value.
	ErrNotScalar = Error{"Backward requires a tensor holding exactly one value"}

	ErrNoParams = Error{"Parameter group has no parameters"}
)

// NilArgError documents errors resulting from certain arguments provided to a function being nil.
type NilArgError struct{ string }

func (err NilArgError) Error() string {
	return err.string + " is nil"
}

// ConfigurationError is returned when the architecture described by a Config cannot be built, or
// when something handed to the constructors does not match it. It is always surfaced before any
// training state exists.
type ConfigurationError struct {
	Reason string
}

func (err ConfigurationError) Error() string {
	return "configuration error: " + err.Reason
}

func configErrorf(format string, args ...interface{}) ConfigurationError {
	return ConfigurationError{fmt.Sprintf(format, args...)}
}

// PlacementError is produced when the tensors participating in a single operation do not all
// reside on the same Device.
type PlacementError struct {
	Op      string
	Devices []Device
}

func (err PlacementError) Error() string {
	ds := make([]string, len(err.Devices))
	for i, d := range err.Devices {
		ds[i] = string(d)
	}

	return fmt.Sprintf("placement error: %s given tensors on different devices (%s)", err.Op, strings.Join(ds, ", "))
}

// ShapeError is produced when an operation is given tensors whose shapes it cannot work with.
type ShapeError struct {
	Op     string
	Reason string
}

func (err ShapeError) Error() string {
	return fmt.Sprintf("shape error in %s: %s", err.Op, err.Reason)
}

func shapePanic(op, format string, args ...interface{}) {
	panic(ShapeError{op, fmt.Sprintf(format, args...)})
}

// recoverForward converts the panics raised by tensor operations (and by layers given impossible
// arguments) into a returned error. Any other panic is passed along.
func recoverForward(err *error) {
	r := recover()
	if r == nil {
		return
	}

	switch e := r.(type) {
	case PlacementError:
		*err = e
	case ShapeError:
		*err = e
	case ConfigurationError:
		*err = e
	default:
		panic(r)
	}
}
