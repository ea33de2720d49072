package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"offloadd/internal/pipeline"
	"offloadd/internal/scheduler"
	"offloadd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps well-known scheduler and pipeline errors to HTTP status
// codes. Allocation failures are checked before capacity because the
// scheduler reports them wrapped in a capacity error.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case scheduler.IsUnknownComponent(err):
		return http.StatusNotFound
	case pipeline.IsInvalidRequest(err):
		return http.StatusBadRequest
	case pipeline.IsTooBusy(err):
		return http.StatusTooManyRequests
	case scheduler.IsAllocationFailure(err), errors.Is(err, scheduler.ErrClosed):
		return http.StatusServiceUnavailable
	case scheduler.IsCapacityExceeded(err):
		return http.StatusInsufficientStorage
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
