package sessions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/quill/internal/canvas"
	"github.com/JaimeStill/quill/internal/capture"
	"github.com/JaimeStill/quill/internal/documents"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/gesture"
	"github.com/JaimeStill/quill/internal/reconcile"
	"github.com/JaimeStill/quill/internal/records"
	"github.com/JaimeStill/quill/internal/signers"
)

// Session errors.
var (
	ErrNotFound       = errors.New("session not found")
	ErrSaving         = errors.New("session is saving")
	ErrClosed         = errors.New("session is closed")
	ErrFailed         = errors.New("session failed to load its document")
	ErrNoAnchor       = errors.New("click a page location before placing a field")
	ErrNoCapture      = errors.New("open a capture before completing it")
	ErrNotPlaceholder = errors.New("field is not an unsigned placeholder")
	ErrNotAssignee    = errors.New("placeholder is assigned to another signer")
	ErrInvalidRequest = errors.New("invalid session request")
)

// MapHTTPStatus maps session errors, and the errors of the systems a session
// composes, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSaving),
		errors.Is(err, ErrClosed),
		errors.Is(err, ErrFailed),
		errors.Is(err, ErrNoAnchor),
		errors.Is(err, ErrNoCapture),
		errors.Is(err, ErrNotPlaceholder):
		return http.StatusConflict
	case errors.Is(err, ErrNotAssignee):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, reconcile.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, canvas.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, canvas.ErrInvalidRect), errors.Is(err, canvas.ErrOffPage):
		return http.StatusBadRequest
	}

	for _, mapper := range []func(error) int{
		reconcile.MapHTTPStatus,
		gesture.MapHTTPStatus,
		capture.MapHTTPStatus,
		fields.MapHTTPStatus,
		signers.MapHTTPStatus,
		records.MapHTTPStatus,
		documents.MapHTTPStatus,
	} {
		if status := mapper(err); status != http.StatusInternalServerError {
			return status
		}
	}
	return http.StatusInternalServerError
}
