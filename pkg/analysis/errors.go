package analysis

import (
	"errors"
	"fmt"

	"github.com/chazu/umbra/pkg/raycast"
	"github.com/chazu/umbra/pkg/sample"
	"github.com/chazu/umbra/pkg/sensor"
)

// Input errors. Every analysis validates its arguments before any ray is
// cast and reports the first failure as an *InputError wrapping one of
// these.
var (
	ErrInvalidSensorSpec     = sensor.ErrInvalidSensorSpec
	ErrInvalidDirection      = sensor.ErrInvalidDirection
	ErrInvalidDetailLevel    = sample.ErrInvalidDetailLevel
	ErrInvalidRayCount       = sample.ErrInvalidRayCount
	ErrInvalidViewAngle      = sample.ErrInvalidViewAngle
	ErrInvalidDistanceRange  = raycast.ErrInvalidDistanceRange
	ErrInvalidRadius         = errors.New("invalid radius")
	ErrMissingModelAttribute = errors.New("missing model attribute")
	ErrInvalidModelAttribute = errors.New("invalid model attribute")
	ErrInvalidMethod         = errors.New("invalid method")
)

// Code classifies an InputError.
type Code int

const (
	CodeUnknown Code = iota
	CodeInvalidSensorSpec
	CodeInvalidDirection
	CodeInvalidDetailLevel
	CodeInvalidRayCount
	CodeInvalidViewAngle
	CodeInvalidDistanceRange
	CodeInvalidRadius
	CodeMissingModelAttribute
	CodeInvalidModelAttribute
	CodeInvalidMethod
)

var codes = []struct {
	code Code
	name string
	errs []error
}{
	{CodeInvalidSensorSpec, "InvalidSensorSpec", []error{ErrInvalidSensorSpec}},
	{CodeInvalidDirection, "InvalidDirection", []error{ErrInvalidDirection, raycast.ErrInvalidDirection}},
	{CodeInvalidDetailLevel, "InvalidDetailLevel", []error{ErrInvalidDetailLevel}},
	{CodeInvalidRayCount, "InvalidRayCount", []error{ErrInvalidRayCount}},
	{CodeInvalidViewAngle, "InvalidViewAngle", []error{ErrInvalidViewAngle}},
	{CodeInvalidDistanceRange, "InvalidDistanceRange", []error{ErrInvalidDistanceRange}},
	{CodeInvalidRadius, "InvalidRadius", []error{ErrInvalidRadius}},
	{CodeMissingModelAttribute, "MissingModelAttribute", []error{ErrMissingModelAttribute}},
	{CodeInvalidModelAttribute, "InvalidModelAttribute", []error{ErrInvalidModelAttribute}},
	{CodeInvalidMethod, "InvalidMethod", []error{ErrInvalidMethod}},
}

func (c Code) String() string {
	for _, e := range codes {
		if e.code == c {
			return e.name
		}
	}
	return "Unknown"
}

func (c Code) sentinel() error {
	for _, e := range codes {
		if e.code == c {
			return e.errs[0]
		}
	}
	return nil
}

func classify(err error) Code {
	for _, e := range codes {
		for _, s := range e.errs {
			if errors.Is(err, s) {
				return e.code
			}
		}
	}
	return CodeUnknown
}

// InputError reports a rejected argument. Index is the offending sensor
// or ray, or -1 when the error is not tied to one.
type InputError struct {
	Code  Code
	Index int
	Err   error
}

func (e *InputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s at index %d: %v", e.Code, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's code, so errors from lower
// packages with their own sentinels still match the analysis ones.
func (e *InputError) Is(target error) bool {
	s := e.Code.sentinel()
	return s != nil && s == target
}

// inputError wraps err for family, lifting the index out of a
// sensor.IndexError when there is one.
func inputError(family string, index int, err error) error {
	var ie *sensor.IndexError
	if errors.As(err, &ie) {
		index, err = ie.Index, ie.Err
	}
	return fmt.Errorf("analysis: %s: %w", family, &InputError{Code: classify(err), Index: index, Err: err})
}
