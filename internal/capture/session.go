// Package capture produces the payload for a signature, initials, or date mark.
// A Session is scoped to one open capture dialog: it owns the ink pad while in
// draw mode and releases it on mode switch or Close.
package capture

import (
	"time"

	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/geometry"
)

// Mode selects how the operator supplies a mark.
type Mode string

// Capture modes.
const (
	ModeDraw   Mode = "draw"
	ModeType   Mode = "type"
	ModeUpload Mode = "upload"
)

// ParseMode validates s as a capture mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeDraw, ModeType, ModeUpload:
		return m, nil
	}
	return "", ErrInvalidMode
}

// Options are the rendering parameters for a capture session.
type Options struct {
	PadWidth      int
	PadHeight     int
	StrokeWidth   float64
	FontSize      float64
	Padding       int
	DefaultFont   string
	DateLayout    string
	MaxImageBytes int64
	Clock         func() time.Time
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		PadWidth:      600,
		PadHeight:     200,
		StrokeWidth:   3,
		FontSize:      48,
		Padding:       16,
		DefaultFont:   FontScript,
		DateLayout:    "01/02/2006",
		MaxImageBytes: 2 << 20,
		Clock:         time.Now,
	}
}

// Session is one open capture dialog.
type Session struct {
	opts   Options
	mode   Mode
	pad    *Pad
	text   string
	font   string
	upload string
	closed bool
}

// Open starts a capture session in the given mode.
func Open(mode Mode, opts Options) (*Session, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DefaultFont == "" {
		opts.DefaultFont = FontScript
	}

	s := &Session{opts: opts, font: opts.DefaultFont}
	s.enter(mode)
	return s, nil
}

// Mode returns the active mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	return s.closed
}

// SetMode switches input mode. Leaving draw mode releases the pad and its strokes.
func (s *Session) SetMode(mode Mode) error {
	if s.closed {
		return ErrClosed
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	if mode == s.mode {
		return nil
	}
	s.enter(mode)
	return nil
}

func (s *Session) enter(mode Mode) {
	s.pad = nil
	if mode == ModeDraw {
		s.pad = NewPad(s.opts.PadWidth, s.opts.PadHeight, s.opts.StrokeWidth)
	}
	s.mode = mode
}

// Pad returns the live ink pad, or nil outside draw mode.
func (s *Session) Pad() *Pad {
	return s.pad
}

// Stroke adds an ink stroke.
func (s *Session) Stroke(points []geometry.Point) error {
	if s.closed {
		return ErrClosed
	}
	if s.pad == nil {
		return ErrWrongMode
	}
	return s.pad.Stroke(points)
}

// ClearStrokes empties the pad.
func (s *Session) ClearStrokes() error {
	if s.closed {
		return ErrClosed
	}
	if s.pad == nil {
		return ErrWrongMode
	}
	s.pad.Clear()
	return nil
}

// SetText records typed text and, when non-empty, the font to render it in.
func (s *Session) SetText(text, fontName string) error {
	if s.closed {
		return ErrClosed
	}
	if s.mode != ModeType {
		return ErrWrongMode
	}
	if fontName != "" {
		if _, err := loadFont(fontName); err != nil {
			return err
		}
		s.font = fontName
	}
	s.text = text
	return nil
}

// Upload validates and stores an uploaded image.
func (s *Session) Upload(data []byte) error {
	if s.closed {
		return ErrClosed
	}
	if s.mode != ModeUpload {
		return ErrWrongMode
	}
	uri, err := EncodeUpload(data, s.opts.MaxImageBytes)
	if err != nil {
		return err
	}
	s.upload = uri
	return nil
}

// Close tears the session down. It is safe to call more than once.
func (s *Session) Close() {
	s.pad = nil
	s.text = ""
	s.upload = ""
	s.closed = true
}

// Ready reports whether Complete would succeed for a field of kind k.
func (s *Session) Ready(k fields.Kind) bool {
	return s.check(k) == nil
}

func (s *Session) check(k fields.Kind) error {
	if s.closed {
		return ErrClosed
	}
	if k == fields.KindDate {
		return nil
	}
	switch s.mode {
	case ModeDraw:
		if s.pad == nil || s.pad.Empty() {
			return ErrEmptyDrawing
		}
	case ModeType:
		if NormalizeText(s.text) == "" {
			return ErrBlankText
		}
	case ModeUpload:
		if s.upload == "" {
			return ErrNoFile
		}
	}
	return nil
}

// Complete produces the mark for a field of kind k. Dates are generated from
// the session clock regardless of mode. Typed marks keep their literal text
// alongside the rendered image.
func (s *Session) Complete(k fields.Kind) (fields.Mark, error) {
	if err := s.check(k); err != nil {
		return fields.Mark{}, err
	}

	if k == fields.KindDate {
		return fields.Mark{Text: s.opts.Clock().Format(s.opts.DateLayout)}, nil
	}

	switch s.mode {
	case ModeDraw:
		img, err := s.pad.Export()
		if err != nil {
			return fields.Mark{}, err
		}
		return fields.Mark{Image: img}, nil
	case ModeType:
		text := NormalizeText(s.text)
		img, err := RenderText(text, s.font, s.opts.FontSize, s.opts.Padding)
		if err != nil {
			return fields.Mark{}, err
		}
		return fields.Mark{Image: img, Text: text}, nil
	default:
		return fields.Mark{Image: s.upload}, nil
	}
}
