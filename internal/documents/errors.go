package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/quill/pkg/storage"
)

// Domain errors for document operations.
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicate    = errors.New("document already exists")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid file")
	ErrNotPDF       = errors.New("document is not a pdf")
	ErrPageNotFound = errors.New("page not found")
	ErrRenderFailed = errors.New("page render failed")
)

// MapHTTPStatus maps document domain errors to appropriate HTTP status codes.
// Blob storage errors that reach a handler map through storage.MapHTTPStatus.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotPDF):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrRenderFailed):
		return http.StatusBadGateway
	}
	return storage.MapHTTPStatus(err)
}
