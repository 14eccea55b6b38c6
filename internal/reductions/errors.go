package reductions

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound  = errors.New("reduction not found")
	ErrDuplicate = errors.New("reduction write conflict")
)

// MapHTTPStatus maps reduction domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
