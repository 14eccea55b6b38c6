package extracts

import (
	"errors"
	"net/http"
)

// Domain errors for extract operations.
var (
	ErrNotFound  = errors.New("extract not found")
	ErrDuplicate = errors.New("extract write conflict")
)

// MapHTTPStatus maps extract domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
