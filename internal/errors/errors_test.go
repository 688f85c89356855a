package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/tourclimb/internal/logging"
	"github.com/copyleftdev/tourclimb/internal/store"
	"github.com/copyleftdev/tourclimb/internal/tsp"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"non square", &tsp.Error{Op: "new_distances", Err: tsp.ErrNonSquare}, http.StatusBadRequest, "invalid_instance"},
		{"asymmetric", fmt.Errorf("load: %w", tsp.ErrAsymmetric), http.StatusBadRequest, "invalid_instance"},
		{"unknown policy", tsp.ErrUnknownPolicy, http.StatusBadRequest, "invalid_request"},
		{"bad request", fmt.Errorf("%w: missing distances", ErrBadRequest), http.StatusBadRequest, "invalid_request"},
		{"too many cities", tsp.ErrTooManyCities, http.StatusUnprocessableEntity, "too_many_cities"},
		{"run not found", fmt.Errorf("%w: run x", ErrNotFound), http.StatusNotFound, "not_found"},
		{"stored run not found", store.ErrNotFound, http.StatusNotFound, "not_found"},
		{"conflict", ErrConflict, http.StatusConflict, "conflict"},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, "cancelled"},
		{"other", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromError(tt.err)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.code, e.Code)
		})
	}

	assert.Equal(t, "Internal Server Error", FromError(fmt.Errorf("secret detail")).Message)
}

func TestWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	Write(rr, fmt.Errorf("%w: run 42", ErrNotFound))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "not_found", body["error"]["code"])
	assert.Contains(t, body["error"]["message"], "run 42")
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.InfoLevel, &buf)

	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "Recovered from panic")
}

func TestErrorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.InfoLevel, &buf)

	handler := ErrorHandler(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Contains(t, buf.String(), `"status":502`)
}
