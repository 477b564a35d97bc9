// Package gesture implements the pointer-driven drag and resize controllers.
// Each controller listens on the canvas only while its gesture is active, and
// a shared Gate keeps at most one gesture active at a time.
package gesture

import (
	"errors"
	"net/http"
)

// Gesture errors.
var (
	ErrGestureActive = errors.New("another gesture is already active")
	ErrNotActive     = errors.New("no gesture is active")
	ErrInvalidKind   = errors.New("gesture must be drag or resize")
)

// MapHTTPStatus maps gesture errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrGestureActive), errors.Is(err, ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Kind names a gesture.
type Kind string

// Gesture kinds.
const (
	KindDrag   Kind = "drag"
	KindResize Kind = "resize"
)

// ParseKind validates s as a gesture kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDrag, KindResize:
		return k, nil
	}
	return "", ErrInvalidKind
}

// Gate admits one gesture at a time.
type Gate struct {
	kind    Kind
	fieldID string
}

// Active returns the running gesture and its field, if any.
func (g *Gate) Active() (Kind, string, bool) {
	return g.kind, g.fieldID, g.kind != ""
}

// Busy reports whether any gesture is active.
func (g *Gate) Busy() bool {
	return g.kind != ""
}

func (g *Gate) acquire(k Kind, fieldID string) error {
	if g.kind != "" {
		return ErrGestureActive
	}
	g.kind = k
	g.fieldID = fieldID
	return nil
}

func (g *Gate) release(k Kind) {
	if g.kind == k {
		g.kind = ""
		g.fieldID = ""
	}
}
