package gesture

import (
	"math"

	"github.com/JaimeStill/quill/internal/canvas"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/geometry"
)

// Resize changes one field's width symmetrically about its center.
type Resize struct {
	gate    *Gate
	canvas  *canvas.Canvas
	store   *fields.Store
	fieldID string
	detach  func()
}

// NewResize creates an idle resize controller.
func NewResize(gate *Gate, c *canvas.Canvas, store *fields.Store) *Resize {
	return &Resize{gate: gate, canvas: c, store: store}
}

// Active reports whether a resize is in progress.
func (r *Resize) Active() bool {
	return r.detach != nil
}

// Start begins resizing fieldID.
func (r *Resize) Start(fieldID string, _ geometry.Point) error {
	f, err := r.store.Get(fieldID)
	if err != nil {
		return err
	}
	if !r.canvas.HasPage(f.Base().PageNumber) {
		return canvas.ErrPageNotFound
	}

	if err := r.gate.acquire(KindResize, fieldID); err != nil {
		return err
	}

	r.fieldID = fieldID
	r.detach = r.canvas.Listen(r.handle)
	return nil
}

// Move sets the width to twice the pointer's horizontal distance from the
// field's center, as a percentage of the owning page's width.
func (r *Resize) Move(pt geometry.Point) error {
	if !r.Active() {
		return ErrNotActive
	}

	f, err := r.store.Get(r.fieldID)
	if err != nil {
		return err
	}
	b := f.Base()

	page, ok := r.canvas.Page(b.PageNumber)
	if !ok {
		return canvas.ErrPageNotFound
	}

	center := page.Rect.Denormalize(b.Position())
	width := geometry.ClampWidth(page.Rect.WidthPercent(2 * math.Abs(pt.X-center.X)))

	_, err = r.store.Update(r.fieldID, fields.Patch{Width: &width})
	return err
}

// End finishes the resize and detaches its listener. Ending an idle resize is a no-op.
func (r *Resize) End() {
	if r.detach != nil {
		r.detach()
		r.detach = nil
	}
	r.gate.release(KindResize)
	r.fieldID = ""
}

func (r *Resize) handle(ev canvas.PointerEvent) {
	switch ev.Type {
	case canvas.PointerMove:
		_ = r.Move(ev.Point)
	case canvas.PointerUp:
		_ = r.Move(ev.Point)
		r.End()
	}
}
