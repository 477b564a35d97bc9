package database

import (
	"errors"
	"net/http"
)

// ErrNotReady is wrapped by Ping when the server cannot be reached.
var ErrNotReady = errors.New("database unreachable")

// MapHTTPStatus maps connectivity failures to 503 and anything else to 500.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotReady) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
