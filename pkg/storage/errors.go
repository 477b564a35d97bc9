package storage

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// Blob store errors. Documents and signature images surface these through
// their own systems.
var (
	ErrNotFound    = errors.New("blob not found")
	ErrEmptyKey    = errors.New("storage key must not be empty")
	ErrInvalidKey  = errors.New("storage key must be relative with no traversal, backslash, or NUL")
	ErrUnavailable = errors.New("blob store unavailable")
)

// MapError translates an Azure blob error from op on key. Missing blobs
// become ErrNotFound; a missing container or rejected credentials become
// ErrUnavailable. Other errors are wrapped with the operation and key.
func MapError(err error, op, key string) error {
	switch {
	case err == nil:
		return nil
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return ErrNotFound
	case bloberror.HasCode(err,
		bloberror.ContainerNotFound,
		bloberror.ContainerBeingDeleted,
		bloberror.AuthenticationFailed,
		bloberror.AuthorizationFailure,
		bloberror.ServerBusy,
	):
		return fmt.Errorf("%w: %s blob %s: %w", ErrUnavailable, op, key, err)
	}
	return fmt.Errorf("%s blob %s: %w", op, key, err)
}

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
