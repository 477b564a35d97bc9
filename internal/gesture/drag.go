package gesture

import (
	"github.com/JaimeStill/quill/internal/canvas"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/geometry"
)

// Drag moves one field by following the pointer, across pages if needed.
type Drag struct {
	gate    *Gate
	canvas  *canvas.Canvas
	store   *fields.Store
	fieldID string
	offset  geometry.Point
	detach  func()
}

// NewDrag creates an idle drag controller.
func NewDrag(gate *Gate, c *canvas.Canvas, store *fields.Store) *Drag {
	return &Drag{gate: gate, canvas: c, store: store}
}

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool {
	return d.detach != nil
}

// Start begins dragging fieldID. The pointer's offset from the field's visual
// center is kept for the whole gesture so the field does not jump under it.
func (d *Drag) Start(fieldID string, pt geometry.Point) error {
	f, err := d.store.Get(fieldID)
	if err != nil {
		return err
	}
	b := f.Base()

	page, ok := d.canvas.Page(b.PageNumber)
	if !ok {
		return canvas.ErrPageNotFound
	}

	if err := d.gate.acquire(KindDrag, fieldID); err != nil {
		return err
	}

	d.fieldID = fieldID
	d.offset = pt.Sub(page.Rect.Denormalize(b.Position()))
	d.detach = d.canvas.Listen(d.handle)
	return nil
}

// Move repositions the field for a pointer at pt. A pointer over no page
// leaves the field where it is.
func (d *Drag) Move(pt geometry.Point) error {
	if !d.Active() {
		return ErrNotActive
	}

	page, ok := d.canvas.PageAt(pt)
	if !ok {
		return nil
	}

	pos := geometry.ClampPosition(page.Rect.Normalize(pt.Sub(d.offset)))
	_, err := d.store.Update(d.fieldID, fields.Patch{
		PageNumber: &page.Number,
		Position:   &pos,
	})
	return err
}

// End finishes the drag and detaches its listener. Ending an idle drag is a no-op.
func (d *Drag) End() {
	if d.detach != nil {
		d.detach()
		d.detach = nil
	}
	d.gate.release(KindDrag)
	d.fieldID = ""
	d.offset = geometry.Point{}
}

func (d *Drag) handle(ev canvas.PointerEvent) {
	switch ev.Type {
	case canvas.PointerMove:
		// a failed move leaves the field at its last good position
		_ = d.Move(ev.Point)
	case canvas.PointerUp:
		_ = d.Move(ev.Point)
		d.End()
	}
}
