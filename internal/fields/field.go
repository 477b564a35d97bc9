// Package fields implements the placed-field model: the signature, initials, and
// date marks positioned on document pages, the signer roles they may be assigned to,
// and the ordered store that holds a session's field set.
package fields

import (
	"encoding/json"
	"slices"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/geometry"
)

// Kind tags the variant of a placed field.
type Kind string

// Field kinds.
const (
	KindSignature Kind = "signature"
	KindInitials  Kind = "initials"
	KindDate      Kind = "date"
)

var kinds = []Kind{KindSignature, KindInitials, KindDate}

// Kinds returns the valid field kinds.
func Kinds() []Kind {
	return kinds
}

// ParseKind validates s as a known field kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(kinds, k) {
		return "", ErrInvalidKind
	}
	return k, nil
}

// UnmarshalJSON rejects unknown kinds.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseKind(raw)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// DefaultWidth returns the initial width, in percent of page width, for a new field.
func DefaultWidth(k Kind) float64 {
	switch k {
	case KindInitials:
		return 10
	case KindDate:
		return 15
	default:
		return 20
	}
}

// DefaultHeight returns the height, in percent of page height, drawn for an
// unsigned placeholder of kind k.
func DefaultHeight(k Kind) float64 {
	switch k {
	case KindInitials:
		return 6
	case KindDate:
		return 4
	default:
		return 8
	}
}

// Assignment binds a field to the signer expected to author it.
type Assignment struct {
	Role       Role   `json:"role"`
	IdentityID string `json:"identity_id,omitempty"`
	Label      string `json:"label,omitempty"`
}

// Signer identifies the human who authored, or will author, a mark.
type Signer struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Placement is the positioned-element shape shared by every field kind.
// X and Y locate the element's center.
type Placement struct {
	ID          string
	PersistedID string
	PageNumber  int
	X           float64
	Y           float64
	Width       float64
	Height      float64
	Signer      Signer
	Assignment  *Assignment
	Placeholder bool
	Delegated   bool
	Signed      bool
}

// Position returns the placement's normalized center.
func (p *Placement) Position() geometry.Position {
	return geometry.Position{X: p.X, Y: p.Y}
}

// Mark is the payload attached to a signed field. ImageURL references a
// remotely stored image that has not been resolved into Image yet.
type Mark struct {
	Image    string `json:"image,omitempty"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Empty reports whether the mark carries no payload at all.
func (m Mark) Empty() bool {
	return m.Image == "" && m.Text == "" && m.ImageURL == ""
}

// Visible reports whether the mark has locally renderable content.
func (m Mark) Visible() bool {
	return m.Image != "" || m.Text != ""
}

// Field is a placed mark. The concrete types are *SignatureField,
// *InitialsField, and *DateField.
type Field interface {
	Kind() Kind
	Base() *Placement
	Mark() Mark
	Clone() Field
	attach(m Mark) error
}

// SignatureField is a full signature mark.
type SignatureField struct {
	Placement
	Payload Mark
}

// InitialsField is an initials mark.
type InitialsField struct {
	Placement
	Payload Mark
}

// DateField is a system-generated date. Its only payload is text.
type DateField struct {
	Placement
	Text string
}

func (f *SignatureField) Kind() Kind       { return KindSignature }
func (f *SignatureField) Base() *Placement { return &f.Placement }
func (f *SignatureField) Mark() Mark       { return f.Payload }

func (f *SignatureField) Clone() Field {
	c := *f
	c.Assignment = cloneAssignment(f.Assignment)
	return &c
}

func (f *SignatureField) attach(m Mark) error {
	f.Payload = m
	return nil
}

func (f *InitialsField) Kind() Kind       { return KindInitials }
func (f *InitialsField) Base() *Placement { return &f.Placement }
func (f *InitialsField) Mark() Mark       { return f.Payload }

func (f *InitialsField) Clone() Field {
	c := *f
	c.Assignment = cloneAssignment(f.Assignment)
	return &c
}

func (f *InitialsField) attach(m Mark) error {
	f.Payload = m
	return nil
}

func (f *DateField) Kind() Kind       { return KindDate }
func (f *DateField) Base() *Placement { return &f.Placement }
func (f *DateField) Mark() Mark       { return Mark{Text: f.Text} }

func (f *DateField) Clone() Field {
	c := *f
	c.Assignment = cloneAssignment(f.Assignment)
	return &c
}

func (f *DateField) attach(m Mark) error {
	if m.Image != "" || m.ImageURL != "" || m.Text == "" {
		return ErrPayloadKind
	}
	f.Text = m.Text
	return nil
}

// New builds a field of the given kind. A missing ID is generated; position and
// width are clamped to the placement bounds. Only an unsigned placeholder may be
// created without a payload.
func New(kind Kind, p Placement, m Mark) (Field, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PageNumber < 1 {
		return nil, ErrInvalidPage
	}
	if p.Width == 0 {
		p.Width = DefaultWidth(kind)
	}
	p.X = geometry.ClampCoord(p.X)
	p.Y = geometry.ClampCoord(p.Y)
	p.Width = geometry.ClampWidth(p.Width)

	if p.Placeholder && p.Assignment == nil {
		return nil, ErrMissingRole
	}
	if p.Assignment != nil {
		if _, err := ParseRole(string(p.Assignment.Role)); err != nil {
			return nil, err
		}
	}

	var f Field
	switch kind {
	case KindSignature:
		f = &SignatureField{Placement: p}
	case KindInitials:
		f = &InitialsField{Placement: p}
	case KindDate:
		f = &DateField{Placement: p}
	default:
		return nil, ErrInvalidKind
	}

	base := f.Base()
	base.Signed = false

	if m.Empty() {
		if !base.Placeholder {
			return nil, ErrEmptyPayload
		}
		if base.Height == 0 {
			base.Height = DefaultHeight(kind)
		}
		return f, nil
	}

	if err := sign(f, m); err != nil {
		return nil, err
	}
	return f, nil
}

// AwaitingSignature reports whether f should be drawn with the unsigned
// placeholder treatment: either it has no payload yet, or its payload is a
// remote image that has not been resolved.
func AwaitingSignature(f Field) bool {
	return !f.Mark().Visible()
}

func sign(f Field, m Mark) error {
	if m.Empty() {
		return ErrEmptyPayload
	}
	base := f.Base()
	if base.Signed {
		return ErrAlreadySigned
	}
	if err := f.attach(m); err != nil {
		return err
	}
	base.Signed = true
	base.Placeholder = false
	base.Height = 0
	return nil
}

func cloneAssignment(a *Assignment) *Assignment {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
