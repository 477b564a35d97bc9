// Package geometry implements the resolution-independent coordinate model used to
// position fields on document pages. Pixel coordinates exist only transiently while
// handling a pointer event; everything stored is expressed as a percentage of the
// page's width or height.
package geometry

import "math"

// Placement bounds, in percent.
const (
	MinCoord = 5.0
	MaxCoord = 95.0
	MinWidth = 5.0
	MaxWidth = 50.0
)

// Point is a pointer position in client (screen) pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Position is a normalized location expressed as a percentage of page width (X)
// and page height (Y).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the on-screen rectangle a page currently occupies, in client pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the rect has a positive area.
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Left+r.Width &&
		p.Y >= r.Top && p.Y < r.Top+r.Height
}

// Normalize converts a client pixel position to a percentage of the rect.
// The result depends only on the pointer's position relative to the rect,
// never on the rect's pixel size.
func (r Rect) Normalize(p Point) Position {
	return Position{
		X: (p.X - r.Left) / r.Width * 100,
		Y: (p.Y - r.Top) / r.Height * 100,
	}
}

// Denormalize converts a normalized position back to client pixels for this rect.
func (r Rect) Denormalize(pos Position) Point {
	return Point{
		X: r.Left + pos.X/100*r.Width,
		Y: r.Top + pos.Y/100*r.Height,
	}
}

// WidthPercent converts a horizontal pixel distance into a percentage of the rect width.
func (r Rect) WidthPercent(px float64) float64 {
	return px / r.Width * 100
}

// WidthPixels converts a width percentage into pixels for this rect.
func (r Rect) WidthPixels(pct float64) float64 {
	return pct / 100 * r.Width
}

// HeightPixels converts a height percentage into pixels for this rect.
func (r Rect) HeightPixels(pct float64) float64 {
	return pct / 100 * r.Height
}

// ClampCoord clamps a normalized coordinate to [MinCoord, MaxCoord].
func ClampCoord(v float64) float64 {
	return clamp(v, MinCoord, MaxCoord)
}

// ClampWidth clamps a normalized width to [MinWidth, MaxWidth].
func ClampWidth(v float64) float64 {
	return clamp(v, MinWidth, MaxWidth)
}

// ClampPosition clamps both coordinates of pos.
func ClampPosition(pos Position) Position {
	return Position{X: ClampCoord(pos.X), Y: ClampCoord(pos.Y)}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
