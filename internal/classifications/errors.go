package classifications

import (
	"errors"
	"net/http"
)

// Domain errors for classification ingestion.
var (
	ErrInvalid         = errors.New("invalid classification")
	ErrUnknownWorkflow = errors.New("workflow not configured")
)

// MapHTTPStatus maps classification domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalid) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnknownWorkflow) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
