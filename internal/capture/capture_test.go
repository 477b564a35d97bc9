package capture_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/quill/internal/capture"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/geometry"
)

func testOptions() capture.Options {
	opts := capture.DefaultOptions()
	opts.Clock = func() time.Time {
		return time.Date(2026, time.March, 4, 15, 0, 0, 0, time.UTC)
	}
	return opts
}

func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	prefix := "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("uri prefix = %q", uri[:min(len(uri), 30)])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPadEmptyAndClear(t *testing.T) {
	p := capture.NewPad(100, 50, 2)
	if !p.Empty() {
		t.Fatal("new pad should be empty")
	}

	p.Stroke(nil)
	if !p.Empty() {
		t.Error("stroke with no points should be ignored")
	}

	p.Stroke([]geometry.Point{{X: 10, Y: 10}, {X: 90, Y: 40}})
	if p.Empty() {
		t.Error("pad should not be empty after a stroke")
	}

	p.Clear()
	if !p.Empty() {
		t.Error("pad should be empty after Clear")
	}
	if _, err := p.Export(); !errors.Is(err, capture.ErrEmptyDrawing) {
		t.Errorf("Export() error = %v, want ErrEmptyDrawing", err)
	}
}

func TestPadStrokeLimits(t *testing.T) {
	tooMany := make([]geometry.Point, capture.MaxStrokePoints+1)

	tests := []struct {
		name   string
		points []geometry.Point
		want   error
	}{
		{"in bounds", []geometry.Point{{X: 10, Y: 10}, {X: 90, Y: 40}}, nil},
		{"out of bounds is clamped", []geometry.Point{{X: -1e300, Y: 25}, {X: 4e9, Y: 25}}, nil},
		{"nan", []geometry.Point{{X: math.NaN(), Y: 1}}, capture.ErrInvalidStroke},
		{"infinite", []geometry.Point{{X: 1, Y: math.Inf(1)}}, capture.ErrInvalidStroke},
		{"too many points", tooMany, capture.ErrStrokeLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := capture.NewPad(100, 50, 4)
			err := p.Stroke(tt.points)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Stroke() error = %v, want %v", err, tt.want)
			}
			if tt.want != nil && !p.Empty() {
				t.Error("rejected stroke was kept")
			}
		})
	}
}

func TestPadClampsToEdges(t *testing.T) {
	p := capture.NewPad(100, 50, 4)
	if err := p.Stroke([]geometry.Point{{X: -1e300, Y: 25}, {X: 4e9, Y: 25}}); err != nil {
		t.Fatal(err)
	}

	img := p.Rasterize()
	for _, x := range []int{1, 50, 98} {
		if r, _, _, _ := img.At(x, 25).RGBA(); r > 0x4000 {
			t.Errorf("pixel (%d,25) not inked", x)
		}
	}
}

func TestPadStrokeCount(t *testing.T) {
	p := capture.NewPad(100, 50, 2)
	for i := range capture.MaxStrokes {
		if err := p.Stroke([]geometry.Point{{X: float64(i % 100), Y: 10}}); err != nil {
			t.Fatalf("stroke %d: %v", i, err)
		}
	}
	if err := p.Stroke([]geometry.Point{{X: 1, Y: 1}}); !errors.Is(err, capture.ErrStrokeLimit) {
		t.Errorf("Stroke() past limit error = %v, want ErrStrokeLimit", err)
	}
	if p.Strokes() != capture.MaxStrokes {
		t.Errorf("Strokes() = %d, want %d", p.Strokes(), capture.MaxStrokes)
	}
}

func TestPadRasterizeInksOverWhite(t *testing.T) {
	p := capture.NewPad(100, 50, 4)
	p.Stroke([]geometry.Point{{X: 10, Y: 25}, {X: 90, Y: 25}})

	img := p.Rasterize()

	if r, g, b, _ := img.At(50, 25).RGBA(); r > 0x4000 || g > 0x4000 || b > 0x4000 {
		t.Errorf("stroke pixel not inked: %v %v %v", r, g, b)
	}
	if r, g, b, _ := img.At(50, 5).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("background pixel not white: %v %v %v", r, g, b)
	}
}

func TestRenderTextSizedToText(t *testing.T) {
	short, err := capture.RenderText("AB", capture.FontScript, 32, 10)
	if err != nil {
		t.Fatalf("RenderText() error = %v", err)
	}
	long, err := capture.RenderText("Alexandra Bartholomew", capture.FontScript, 32, 10)
	if err != nil {
		t.Fatalf("RenderText() error = %v", err)
	}

	sw := decodeDataURI(t, short).Bounds().Dx()
	lw := decodeDataURI(t, long).Bounds().Dx()
	if sw <= 20 || lw <= sw {
		t.Errorf("widths short=%d long=%d", sw, lw)
	}
}

func TestRenderTextErrors(t *testing.T) {
	if _, err := capture.RenderText("   ", capture.FontScript, 32, 10); !errors.Is(err, capture.ErrBlankText) {
		t.Errorf("blank error = %v", err)
	}
	if _, err := capture.RenderText("AB", "comic", 32, 10); !errors.Is(err, capture.ErrUnknownFont) {
		t.Errorf("font error = %v", err)
	}
}

func TestNormalizeText(t *testing.T) {
	decomposed := "  Jose\u0301 "
	if got := capture.NormalizeText(decomposed); got != "Jos\u00e9" {
		t.Errorf("NormalizeText() = %q", got)
	}
}

func TestEncodeUpload(t *testing.T) {
	data := pngBytes(t)

	uri, err := capture.EncodeUpload(data, 0)
	if err != nil {
		t.Fatalf("EncodeUpload() error = %v", err)
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	if uri != want {
		t.Error("upload was not used verbatim")
	}

	tests := []struct {
		name string
		data []byte
		max  int64
		err  error
	}{
		{"no file", nil, 0, capture.ErrNoFile},
		{"not an image", []byte("%PDF-1.7 not an image"), 0, capture.ErrInvalidImage},
		{"too large", data, 8, capture.ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := capture.EncodeUpload(tt.data, tt.max); !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestSessionTypedInitials(t *testing.T) {
	s, err := capture.Open(capture.ModeType, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	if s.Ready(fields.KindInitials) {
		t.Error("session should not be ready before text is entered")
	}
	if err := s.SetText("AB", ""); err != nil {
		t.Fatal(err)
	}
	if !s.Ready(fields.KindInitials) {
		t.Fatal("session should be ready")
	}

	m, err := s.Complete(fields.KindInitials)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if m.Text != "AB" || m.Image == "" {
		t.Errorf("mark = text %q image %d bytes", m.Text, len(m.Image))
	}

	f, err := fields.New(fields.KindInitials, fields.Placement{PageNumber: 1, X: 50, Y: 8.33}, m)
	if err != nil {
		t.Fatal(err)
	}
	b := f.Base()
	if b.Placeholder || !b.Signed || f.Mark().Text != "AB" {
		t.Errorf("field = %+v mark text %q", *b, f.Mark().Text)
	}
}

func TestSessionDateUsesClock(t *testing.T) {
	s, err := capture.Open(capture.ModeDraw, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	m, err := s.Complete(fields.KindDate)
	if err != nil {
		t.Fatal(err)
	}
	if m.Text != "03/04/2026" || m.Image != "" {
		t.Errorf("mark = %+v", m)
	}
}

func TestSessionModeSwitchReleasesPad(t *testing.T) {
	s, err := capture.Open(capture.ModeDraw, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Stroke([]geometry.Point{{X: 1, Y: 1}, {X: 20, Y: 20}}); err != nil {
		t.Fatal(err)
	}

	if err := s.SetMode(capture.ModeType); err != nil {
		t.Fatal(err)
	}
	if s.Pad() != nil {
		t.Error("pad should be released when leaving draw mode")
	}
	if err := s.Stroke([]geometry.Point{{X: 1, Y: 1}}); !errors.Is(err, capture.ErrWrongMode) {
		t.Errorf("Stroke() in type mode error = %v", err)
	}

	if err := s.SetMode(capture.ModeDraw); err != nil {
		t.Fatal(err)
	}
	if s.Pad() == nil || !s.Pad().Empty() {
		t.Error("returning to draw mode should start a fresh pad")
	}
}

func TestSessionCompletionFailures(t *testing.T) {
	tests := []struct {
		name string
		mode capture.Mode
		err  error
	}{
		{"empty drawing", capture.ModeDraw, capture.ErrEmptyDrawing},
		{"blank text", capture.ModeType, capture.ErrBlankText},
		{"no file", capture.ModeUpload, capture.ErrNoFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := capture.Open(tt.mode, testOptions())
			if err != nil {
				t.Fatal(err)
			}
			if s.Ready(fields.KindSignature) {
				t.Error("Ready() = true")
			}
			if _, err := s.Complete(fields.KindSignature); !errors.Is(err, tt.err) {
				t.Errorf("Complete() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestSessionClose(t *testing.T) {
	s, err := capture.Open(capture.ModeUpload, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Upload(pngBytes(t)); err != nil {
		t.Fatal(err)
	}

	s.Close()
	s.Close()

	if !s.Closed() || s.Pad() != nil {
		t.Error("session not torn down")
	}
	if _, err := s.Complete(fields.KindSignature); !errors.Is(err, capture.ErrClosed) {
		t.Errorf("Complete() after close error = %v", err)
	}
}

func TestOpenRejectsUnknownMode(t *testing.T) {
	if _, err := capture.Open("paint", testOptions()); !errors.Is(err, capture.ErrInvalidMode) {
		t.Errorf("error = %v", err)
	}
}
