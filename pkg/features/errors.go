package features

import (
	"errors"
	"fmt"
)

var (
	ErrUnseenCategory = errors.New("unseen category")
	ErrNumericDomain  = errors.New("numeric domain error")
	ErrNoData         = errors.New("no data to fit")
	ErrNotFitted      = errors.New("not fitted")
)

// UnseenCategoryError is returned when Apply meets a categorical value the
// encoder never saw during Fit.
type UnseenCategoryError struct {
	Column string
	Value  string
}

func (e *UnseenCategoryError) Error() string {
	return fmt.Sprintf("unseen category %q in column %q", e.Value, e.Column)
}

func (e *UnseenCategoryError) Is(target error) bool { return target == ErrUnseenCategory }

// NumericDomainError is returned for arithmetic outside the defined domain:
// division by zero, log of a non-positive value, or a missing operand.
type NumericDomainError struct {
	Stage  string
	Column string
	Row    int
	Value  float64
	Reason string
}

func (e *NumericDomainError) Error() string {
	return fmt.Sprintf("%s: column %q row %d: %s (value %g)", e.Stage, e.Column, e.Row, e.Reason, e.Value)
}

func (e *NumericDomainError) Is(target error) bool { return target == ErrNumericDomain }

// NoDataError is returned when Fit has nothing to learn from for a column.
type NoDataError struct {
	Stage  string
	Column string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("%s: column %q has no values to fit on", e.Stage, e.Column)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// NotFittedError is returned by Apply on a stateful stage before Fit.
type NotFittedError struct {
	Stage string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: apply called before fit", e.Stage)
}

func (e *NotFittedError) Is(target error) bool { return target == ErrNotFitted }
