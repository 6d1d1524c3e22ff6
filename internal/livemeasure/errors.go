package livemeasure

import (
	"errors"
	"fmt"
)

// ErrPrecondition matches every PreconditionError through errors.Is.
var ErrPrecondition = errors.New("precondition violated")

// ErrAlreadyExecuted is returned when Execute is called on a step that
// already ran.
var ErrAlreadyExecuted = errors.New("step already executed")

// PreconditionError reports input the step cannot process: an unknown
// metric, a measure inconsistent with its metric, or a malformed tree.
// It aborts the step and is never retried.
type PreconditionError struct {
	// Component is the key of the offending component, if any.
	Component string

	// Metric is the key of the offending metric, if any.
	Metric string

	// Reason is a human-readable description.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

func (e *PreconditionError) Error() string {
	msg := e.Reason
	switch {
	case e.Component != "" && e.Metric != "":
		msg = fmt.Sprintf("%s (component=%s, metric=%s)", e.Reason, e.Component, e.Metric)
	case e.Component != "":
		msg = fmt.Sprintf("%s (component=%s)", e.Reason, e.Component)
	case e.Metric != "":
		msg = fmt.Sprintf("%s (metric=%s)", e.Reason, e.Metric)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrPrecondition) true.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// IsPrecondition returns true if err is or wraps a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
