package signers

import (
	"errors"
	"net/http"
)

// Directory errors.
var (
	ErrNotFound    = errors.New("signer not found")
	ErrUnavailable = errors.New("signer directory unavailable")
	ErrForbidden   = errors.New("operator may not assign fields to other signers")
)

// MapHTTPStatus maps directory errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
