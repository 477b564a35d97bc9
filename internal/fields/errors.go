package fields

import (
	"errors"
	"net/http"
)

// Domain errors for field operations.
var (
	ErrNotFound      = errors.New("field not found")
	ErrDuplicate     = errors.New("field already exists")
	ErrInvalidKind   = errors.New("kind must be signature, initials, or date")
	ErrInvalidRole   = errors.New("role must be first_party, second_first_party, counterparty, or third_party")
	ErrInvalidPage   = errors.New("page number must be at least 1")
	ErrMissingRole   = errors.New("placeholder requires an assigned role")
	ErrEmptyPayload  = errors.New("field payload is empty")
	ErrPayloadKind   = errors.New("payload does not fit field kind")
	ErrAlreadySigned = errors.New("field is already signed")
)

// MapHTTPStatus maps field domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrAlreadySigned):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidKind),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInvalidPage),
		errors.Is(err, ErrMissingRole),
		errors.Is(err, ErrEmptyPayload),
		errors.Is(err, ErrPayloadKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
