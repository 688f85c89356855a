package tsp

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (possibly wrapped in *Error) by the package.
var (
	// ErrEmptyMatrix is returned for a distance matrix with no rows.
	ErrEmptyMatrix = errors.New("tsp: empty distance matrix")
	// ErrNonSquare is returned when a row length differs from the row count.
	ErrNonSquare = errors.New("tsp: distance matrix is not square")
	// ErrNonFinite is returned for NaN or infinite distances.
	ErrNonFinite = errors.New("tsp: distance is not finite")
	// ErrNegativeDistance is returned for a distance below zero.
	ErrNegativeDistance = errors.New("tsp: negative distance")
	// ErrAsymmetric is returned in strict mode when d(i,j) != d(j,i).
	ErrAsymmetric = errors.New("tsp: distance matrix is not symmetric")
	// ErrNonZeroDiagonal is returned in strict mode when d(i,i) != 0.
	ErrNonZeroDiagonal = errors.New("tsp: distance matrix has a non-zero diagonal")
	// ErrInstanceTooSmall is returned when an operation needs more cities
	// than the instance has.
	ErrInstanceTooSmall = errors.New("tsp: instance too small")
	// ErrInvalidTour is returned for a sequence that is not a permutation of 0..N-1.
	ErrInvalidTour = errors.New("tsp: invalid tour")
	// ErrUnknownAlgorithm is returned for an unrecognised algorithm name.
	ErrUnknownAlgorithm = errors.New("tsp: unknown algorithm")
	// ErrUnknownPolicy is returned for an unrecognised neighbor-selection policy.
	ErrUnknownPolicy = errors.New("tsp: unknown neighbor policy")
	// ErrTooManyCities is returned when a caller-imposed bound on exact search is exceeded.
	ErrTooManyCities = errors.New("tsp: too many cities for exact search")
)

// Error carries the operation and component in which a failure happened.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error, usually one of the sentinels above.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	switch {
	case e.Component != "" && e.Op != "":
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	case e.Component != "":
		prefix = e.Component
	case e.Op != "":
		prefix = e.Op
	}

	msg := e.Message
	if prefix != "" {
		if msg != "" {
			msg = prefix + ": " + msg
		} else {
			msg = prefix
		}
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// wrapErrorf wraps err with a formatted message. It returns nil for a nil err.
func wrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// AsError reports whether err is (or wraps) an *Error and returns it.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
