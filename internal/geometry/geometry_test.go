package geometry_test

import (
	"math"
	"testing"

	"github.com/JaimeStill/quill/internal/geometry"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		rect  geometry.Rect
		point geometry.Point
		want  geometry.Position
	}{
		{
			name:  "center of page",
			rect:  geometry.Rect{Left: 0, Top: 0, Width: 700, Height: 900},
			point: geometry.Point{X: 350, Y: 450},
			want:  geometry.Position{X: 50, Y: 50},
		},
		{
			name:  "offset page",
			rect:  geometry.Rect{Left: 100, Top: 40, Width: 800, Height: 1000},
			point: geometry.Point{X: 500, Y: 540},
			want:  geometry.Position{X: 50, Y: 50},
		},
		{
			name:  "top left corner",
			rect:  geometry.Rect{Left: 10, Top: 10, Width: 200, Height: 200},
			point: geometry.Point{X: 10, Y: 10},
			want:  geometry.Position{X: 0, Y: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rect.Normalize(tt.point)
			if !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeResolutionIndependent(t *testing.T) {
	widths := []float64{320, 700, 800, 1440, 2560}
	fractions := []geometry.Position{
		{X: 0.5, Y: 0.25},
		{X: 0.1, Y: 0.9},
		{X: 0.333, Y: 0.777},
	}

	for _, f := range fractions {
		var first *geometry.Position
		for _, w := range widths {
			h := w * 11 / 8.5
			rect := geometry.Rect{Left: 25, Top: 60, Width: w, Height: h}
			p := geometry.Point{X: rect.Left + f.X*w, Y: rect.Top + f.Y*h}

			got := rect.Normalize(p)
			if first == nil {
				first = &got
				continue
			}
			if math.Abs(got.X-first.X) > 1e-6 || math.Abs(got.Y-first.Y) > 1e-6 {
				t.Errorf("width %v: Normalize() = %+v, want %+v", w, got, *first)
			}
		}
	}
}

func TestPlacementScenario(t *testing.T) {
	rect := geometry.Rect{Width: 700, Height: 900}
	got := rect.Normalize(geometry.Point{X: 350, Y: 75})

	if !approx(got.X, 50) {
		t.Errorf("x = %v, want 50", got.X)
	}
	if math.Abs(got.Y-8.333) > 0.001 {
		t.Errorf("y = %v, want ~8.33", got.Y)
	}
}

func TestDenormalizeRoundTrip(t *testing.T) {
	rect := geometry.Rect{Left: 12, Top: 34, Width: 640, Height: 828}
	pos := geometry.Position{X: 42.5, Y: 71.25}

	got := rect.Normalize(rect.Denormalize(pos))
	if !approx(got.X, pos.X) || !approx(got.Y, pos.Y) {
		t.Errorf("round trip = %+v, want %+v", got, pos)
	}
}

func TestContains(t *testing.T) {
	rect := geometry.Rect{Left: 0, Top: 100, Width: 100, Height: 100}

	tests := []struct {
		point geometry.Point
		want  bool
	}{
		{geometry.Point{X: 50, Y: 150}, true},
		{geometry.Point{X: 0, Y: 100}, true},
		{geometry.Point{X: 100, Y: 150}, false},
		{geometry.Point{X: 50, Y: 200}, false},
		{geometry.Point{X: -1, Y: 150}, false},
	}

	for _, tt := range tests {
		if got := rect.Contains(tt.point); got != tt.want {
			t.Errorf("Contains(%+v) = %v, want %v", tt.point, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) float64
		in   float64
		want float64
	}{
		{"coord below", geometry.ClampCoord, -20, 5},
		{"coord above", geometry.ClampCoord, 140, 95},
		{"coord inside", geometry.ClampCoord, 42, 42},
		{"coord NaN", geometry.ClampCoord, math.NaN(), 5},
		{"width below", geometry.ClampWidth, 1, 5},
		{"width above", geometry.ClampWidth, 75, 50},
		{"width inside", geometry.ClampWidth, 20, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
