package canvas

import (
	"maps"
	"slices"

	"github.com/JaimeStill/quill/internal/geometry"
)

// EventType distinguishes pointer events delivered to listeners.
type EventType string

// Pointer event types.
const (
	PointerMove EventType = "move"
	PointerUp   EventType = "up"
)

// PointerEvent is a pointer event in client pixels.
type PointerEvent struct {
	Type  EventType      `json:"type"`
	Point geometry.Point `json:"point"`
}

// Listener receives pointer events while registered.
type Listener func(PointerEvent)

// Listen registers l for move and up events and returns the function that
// removes it. Calling the returned function more than once is harmless.
func (c *Canvas) Listen(l Listener) (detach func()) {
	id := c.nextID
	c.nextID++
	c.listeners[id] = l

	return func() {
		delete(c.listeners, id)
	}
}

// Dispatch delivers ev to every registered listener and returns how many
// listeners received it. Listeners may detach themselves while handling ev.
func (c *Canvas) Dispatch(ev PointerEvent) int {
	ids := slices.Sorted(maps.Keys(c.listeners))
	n := 0
	for _, id := range ids {
		if l, ok := c.listeners[id]; ok {
			l(ev)
			n++
		}
	}
	return n
}

// Listeners returns the number of registered listeners.
func (c *Canvas) Listeners() int {
	return len(c.listeners)
}
