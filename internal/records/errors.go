package records

import (
	"errors"
	"net/http"
)

// Domain errors for record operations.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("record already exists")
	ErrDocumentNotFound = errors.New("document not found")
	ErrNoImage          = errors.New("record has no stored image")
	ErrInvalidImage     = errors.New("invalid image payload")
	ErrInvalidRecord    = errors.New("invalid record")
	ErrResolveFailed    = errors.New("image resolution failed")
	ErrForeignImage     = errors.New("image url is outside the image proxy")
)

// MapHTTPStatus maps record domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDocumentNotFound),
		errors.Is(err, ErrNoImage):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidImage), errors.Is(err, ErrInvalidRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrResolveFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
