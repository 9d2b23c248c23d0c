package vectorset

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks. Each typed error below matches exactly one of them.
var (
	ErrInsufficientData    = errors.New("insufficient data")
	ErrInvalidDimension    = errors.New("invalid target dimension")
	ErrInvalidClusterCount = errors.New("invalid cluster count")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrDimensionMismatch   = errors.New("vector dimension mismatch")
)

// InsufficientDataError reports that an operation needs more vectors than it was given.
type InsufficientDataError struct {
	Operation string
	Required  int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need at least %d vectors, got %d", e.Operation, e.Required, e.Got)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// InvalidDimensionError reports a projection target outside [1, Max].
type InvalidDimensionError struct {
	Requested int
	Max       int
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("target dimension %d outside [1, %d]", e.Requested, e.Max)
}

func (e *InvalidDimensionError) Is(target error) bool { return target == ErrInvalidDimension }

// InvalidClusterCountError reports a cluster count outside [1, N].
type InvalidClusterCountError struct {
	K int
	N int
}

func (e *InvalidClusterCountError) Error() string {
	return fmt.Sprintf("cluster count %d outside [1, %d]", e.K, e.N)
}

func (e *InvalidClusterCountError) Is(target error) bool { return target == ErrInvalidClusterCount }

// DimensionMismatchError reports a vector whose length differs from the rest of its set.
type DimensionMismatchError struct {
	Index    int
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector %d has dimension %d, expected %d", e.Index, e.Got, e.Expected)
}

func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// InvalidParameterError reports a configuration value outside its documented range.
type InvalidParameterError struct {
	Name   string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Name, e.Value, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// NumericDegeneracyWarning records a numerical degeneracy that was recovered
// locally with a substitute value. It is attached to results, never returned as an error.
type NumericDegeneracyWarning struct {
	Index  int
	Reason string
}

func (w NumericDegeneracyWarning) String() string {
	return fmt.Sprintf("vector %d: %s", w.Index, w.Reason)
}
