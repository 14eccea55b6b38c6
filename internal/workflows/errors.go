package workflows

import (
	"errors"
	"net/http"
)

// Domain errors for workflow configuration.
var (
	ErrNotFound      = errors.New("workflow not found")
	ErrInvalidConfig = errors.New("invalid workflow config")
)

// MapHTTPStatus maps workflow domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidConfig) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
