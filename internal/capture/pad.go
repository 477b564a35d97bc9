package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/JaimeStill/quill/internal/geometry"
)

var ink = image.NewUniform(color.RGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff})

// Pad is a freehand ink surface. Stroke points are in pad pixels.
type Pad struct {
	width   int
	height  int
	stroke  float64
	strokes [][]geometry.Point
}

// NewPad creates an empty pad of the given pixel size.
func NewPad(width, height int, strokeWidth float64) *Pad {
	return &Pad{
		width:  max(width, 1),
		height: max(height, 1),
		stroke: math.Max(strokeWidth, 1),
	}
}

// Input limits for a pad.
const (
	MaxStrokes      = 64
	MaxStrokePoints = 512
)

// Stroke appends one continuous stroke. Strokes with no points are ignored.
// Points outside the pad are clamped to its edges; non-finite points and
// strokes beyond the input limits are rejected.
func (p *Pad) Stroke(points []geometry.Point) error {
	if len(points) == 0 {
		return nil
	}
	if len(points) > MaxStrokePoints {
		return fmt.Errorf("%w: %d points, limit is %d", ErrStrokeLimit, len(points), MaxStrokePoints)
	}
	if len(p.strokes) >= MaxStrokes {
		return fmt.Errorf("%w: limit is %d strokes", ErrStrokeLimit, MaxStrokes)
	}

	stroke := make([]geometry.Point, len(points))
	for i, pt := range points {
		if !finite(pt.X) || !finite(pt.Y) {
			return ErrInvalidStroke
		}
		stroke[i] = geometry.Point{
			X: math.Min(math.Max(pt.X, 0), float64(p.width)),
			Y: math.Min(math.Max(pt.Y, 0), float64(p.height)),
		}
	}
	p.strokes = append(p.strokes, stroke)
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clear removes every stroke.
func (p *Pad) Clear() {
	p.strokes = nil
}

// Empty reports whether no stroke has been drawn.
func (p *Pad) Empty() bool {
	return len(p.strokes) == 0
}

// Strokes returns the number of strokes drawn.
func (p *Pad) Strokes() int {
	return len(p.strokes)
}

// Rasterize draws the strokes over a white background. Every segment and
// joint shares one winding, so the whole drawing is filled in a single pass.
func (p *Pad) Rasterize() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	z := vector.NewRasterizer(p.width, p.height)
	z.DrawOp = draw.Over
	half := float32(p.stroke / 2)

	for _, s := range p.strokes {
		dot(z, s[0], half)
		for i := 1; i < len(s); i++ {
			segment(z, s[i-1], s[i], half)
			dot(z, s[i], half)
		}
	}
	z.Draw(img, img.Bounds(), ink, image.Point{})
	return img
}

// Export rasterizes the pad into a PNG data URI.
func (p *Pad) Export() (string, error) {
	if p.Empty() {
		return "", ErrEmptyDrawing
	}
	return encodePNG(p.Rasterize())
}

func segment(z *vector.Rasterizer, a, b geometry.Point, half float32) {
	dx, dy := float32(b.X-a.X), float32(b.Y-a.Y)
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*half, dx/length*half

	ax, ay := float32(a.X), float32(a.Y)
	bx, by := float32(b.X), float32(b.Y)
	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
}

// dot winds the same way as segment so overlaps add instead of cancel.
func dot(z *vector.Rasterizer, c geometry.Point, half float32) {
	x, y := float32(c.X), float32(c.Y)
	z.MoveTo(x-half, y-half)
	z.LineTo(x-half, y+half)
	z.LineTo(x+half, y+half)
	z.LineTo(x+half, y-half)
	z.ClosePath()
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	uri, err := encoding.EncodeImageDataURI(buf.Bytes(), document.PNG)
	if err != nil {
		return "", fmt.Errorf("encode data uri: %w", err)
	}
	return uri, nil
}
