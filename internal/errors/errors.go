// Package errors maps solver failures onto HTTP responses and recovers
// from handler panics.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/copyleftdev/tourclimb/internal/matrixio"
	"github.com/copyleftdev/tourclimb/internal/store"
	"github.com/copyleftdev/tourclimb/internal/tsp"
)

// Request-level sentinels used by the HTTP layer.
var (
	ErrBadRequest = stderrors.New("bad request")
	ErrNotFound   = stderrors.New("not found")
	ErrConflict   = stderrors.New("conflict")
)

// APIError is the JSON error body returned by the HTTP API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

var invalidInstance = []error{
	tsp.ErrEmptyMatrix,
	tsp.ErrNonSquare,
	tsp.ErrNonFinite,
	tsp.ErrNegativeDistance,
	tsp.ErrAsymmetric,
	tsp.ErrNonZeroDiagonal,
	tsp.ErrInstanceTooSmall,
	tsp.ErrInvalidTour,
	matrixio.ErrMalformed,
}

// FromError classifies err into an APIError.
func FromError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	e := &APIError{Message: err.Error()}
	switch {
	case isAny(err, invalidInstance...):
		e.Status, e.Code = http.StatusBadRequest, "invalid_instance"
	case isAny(err, tsp.ErrUnknownAlgorithm, tsp.ErrUnknownPolicy, ErrBadRequest):
		e.Status, e.Code = http.StatusBadRequest, "invalid_request"
	case stderrors.Is(err, tsp.ErrTooManyCities):
		e.Status, e.Code = http.StatusUnprocessableEntity, "too_many_cities"
	case isAny(err, ErrNotFound, store.ErrNotFound):
		e.Status, e.Code = http.StatusNotFound, "not_found"
	case stderrors.Is(err, ErrConflict):
		e.Status, e.Code = http.StatusConflict, "conflict"
	case isAny(err, context.Canceled, context.DeadlineExceeded):
		e.Status, e.Code = http.StatusServiceUnavailable, "cancelled"
	default:
		e.Status, e.Code = http.StatusInternalServerError, "internal"
		e.Message = http.StatusText(http.StatusInternalServerError)
	}
	return e
}

// Write sends err as a JSON error body with the matching status code.
func Write(w http.ResponseWriter, err error) *APIError {
	e := FromError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": e})
	return e
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}
