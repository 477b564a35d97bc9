package canvas

import (
	"fmt"

	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/geometry"
)

// Overlay describes how a field is drawn over its page, in client pixels.
type Overlay struct {
	FieldID     string        `json:"field_id"`
	Kind        fields.Kind   `json:"kind"`
	Page        int           `json:"page"`
	Box         geometry.Rect `json:"box"`
	Style       fields.Style  `json:"style"`
	Dashed      bool          `json:"dashed"`
	Instruction string        `json:"instruction,omitempty"`
	Image       string        `json:"image,omitempty"`
	Text        string        `json:"text,omitempty"`
}

// Overlays lays out fs against the current page rects. Fields on pages the
// canvas does not know are omitted.
func (c *Canvas) Overlays(fs []fields.Field) []Overlay {
	out := make([]Overlay, 0, len(fs))
	for _, f := range fs {
		b := f.Base()
		p, ok := c.pages[b.PageNumber]
		if !ok || !p.Rect.Valid() {
			continue
		}
		out = append(out, overlayFor(f, p.Rect))
	}
	return out
}

func overlayFor(f fields.Field, rect geometry.Rect) Overlay {
	b := f.Base()
	m := f.Mark()
	awaiting := fields.AwaitingSignature(f)

	width := rect.WidthPixels(b.Width)
	height := width * aspect(f.Kind())
	if awaiting && b.Height > 0 {
		height = rect.HeightPixels(b.Height)
	}

	center := rect.Denormalize(b.Position())
	o := Overlay{
		FieldID: b.ID,
		Kind:    f.Kind(),
		Page:    b.PageNumber,
		Box: geometry.Rect{
			Left:   center.X - width/2,
			Top:    center.Y - height/2,
			Width:  width,
			Height: height,
		},
		Style: fields.StyleFor(role(b)),
	}

	if awaiting {
		o.Dashed = true
		o.Instruction = instruction(f)
		return o
	}

	o.Image = m.Image
	o.Text = m.Text
	return o
}

func aspect(k fields.Kind) float64 {
	switch k {
	case fields.KindInitials:
		return 0.5
	case fields.KindDate:
		return 0.25
	default:
		return 0.35
	}
}

func role(b *fields.Placement) fields.Role {
	if b.Assignment == nil {
		return ""
	}
	return b.Assignment.Role
}

func instruction(f fields.Field) string {
	b := f.Base()
	action := map[fields.Kind]string{
		fields.KindSignature: "Sign here",
		fields.KindInitials:  "Initial here",
		fields.KindDate:      "Date here",
	}[f.Kind()]

	if b.Assignment == nil {
		return action
	}

	who := b.Assignment.Label
	if who == "" {
		who = fields.StyleFor(b.Assignment.Role).Label
	}
	return fmt.Sprintf("%s: %s", action, who)
}
