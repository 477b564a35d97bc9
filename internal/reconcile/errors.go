package reconcile

import (
	"errors"
	"net/http"
)

// Validation and save errors. Validation errors are reported before any
// call to the saver.
var (
	ErrInvalidMode      = errors.New("mode must be sign, setup, or combined")
	ErrNoSelfFields     = errors.New("place at least one signature, initials, or date field before saving")
	ErrNoPlaceholders   = errors.New("place at least one field for another signer before saving")
	ErrNothingToSave    = errors.New("place at least one field before saving")
	ErrOperatorIdentity = errors.New("signer name and title are required")
	ErrSaveRejected     = errors.New("save rejected")
)

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrNoSelfFields) ||
		errors.Is(err, ErrNoPlaceholders) ||
		errors.Is(err, ErrNothingToSave) ||
		errors.Is(err, ErrOperatorIdentity)
}

// MapHTTPStatus maps reconcile errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSaveRejected):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
