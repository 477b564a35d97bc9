package gesture_test

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/JaimeStill/quill/internal/canvas"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/geometry"
	"github.com/JaimeStill/quill/internal/gesture"
)

type fixture struct {
	canvas *canvas.Canvas
	store  *fields.Store
	gate   *gesture.Gate
	drag   *gesture.Drag
	resize *gesture.Resize
	id     string
}

// newFixture lays out two 600px-wide pages stacked with a 20px gap and places
// one signature at the center of page 1.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	c := canvas.New([]canvas.Size{{Width: 600, Height: 800}, {Width: 600, Height: 800}})
	c.LayoutStacked(600, 20)

	s := fields.NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
	f, err := fields.New(fields.KindSignature, fields.Placement{
		PageNumber: 1,
		X:          50,
		Y:          50,
		Width:      20,
	}, fields.Mark{Image: "data:image/png;base64,AAAA"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(f); err != nil {
		t.Fatal(err)
	}

	g := &gesture.Gate{}
	return &fixture{
		canvas: c,
		store:  s,
		gate:   g,
		drag:   gesture.NewDrag(g, c, s),
		resize: gesture.NewResize(g, c, s),
		id:     f.Base().ID,
	}
}

func (fx *fixture) field(t *testing.T) *fields.Placement {
	t.Helper()
	f, err := fx.store.Get(fx.id)
	if err != nil {
		t.Fatal(err)
	}
	return f.Base()
}

func TestDragKeepsPointerOffset(t *testing.T) {
	fx := newFixture(t)

	// grab 30px right of center
	if err := fx.drag.Start(fx.id, geometry.Point{X: 330, Y: 400}); err != nil {
		t.Fatal(err)
	}
	if err := fx.drag.Move(geometry.Point{X: 390, Y: 480}); err != nil {
		t.Fatal(err)
	}
	fx.drag.End()

	b := fx.field(t)
	if math.Abs(b.X-60) > 1e-9 || math.Abs(b.Y-60) > 1e-9 {
		t.Errorf("position = (%v, %v), want (60, 60)", b.X, b.Y)
	}
}

func TestDragBound(t *testing.T) {
	points := []geometry.Point{
		{X: 0, Y: 0},
		{X: 599, Y: 799},
		{X: 1, Y: 400},
		{X: 598, Y: 2},
		{X: 300, Y: 1619},
	}

	for _, pt := range points {
		fx := newFixture(t)
		if err := fx.drag.Start(fx.id, geometry.Point{X: 300, Y: 400}); err != nil {
			t.Fatal(err)
		}
		if err := fx.drag.Move(pt); err != nil {
			t.Fatal(err)
		}
		fx.drag.End()

		b := fx.field(t)
		if b.X < geometry.MinCoord || b.X > geometry.MaxCoord || b.Y < geometry.MinCoord || b.Y > geometry.MaxCoord {
			t.Errorf("pointer %+v left field at (%v, %v)", pt, b.X, b.Y)
		}
	}
}

func TestDragAcrossPages(t *testing.T) {
	fx := newFixture(t)

	if err := fx.drag.Start(fx.id, geometry.Point{X: 300, Y: 400}); err != nil {
		t.Fatal(err)
	}

	// the gap between pages belongs to no page
	if err := fx.drag.Move(geometry.Point{X: 300, Y: 810}); err != nil {
		t.Fatal(err)
	}
	if b := fx.field(t); b.PageNumber != 1 || b.Y != 50 {
		t.Errorf("move over gap changed field: page %d y %v", b.PageNumber, b.Y)
	}

	if err := fx.drag.Move(geometry.Point{X: 300, Y: 820 + 200}); err != nil {
		t.Fatal(err)
	}
	fx.drag.End()

	b := fx.field(t)
	if b.PageNumber != 2 {
		t.Errorf("page = %d, want 2", b.PageNumber)
	}
	if math.Abs(b.Y-25) > 1e-9 {
		t.Errorf("y = %v, want 25", b.Y)
	}
}

func TestDragViaDispatchDetaches(t *testing.T) {
	fx := newFixture(t)

	for range 10 {
		if err := fx.drag.Start(fx.id, geometry.Point{X: 300, Y: 400}); err != nil {
			t.Fatal(err)
		}
		if fx.canvas.Listeners() != 1 {
			t.Fatalf("Listeners() during drag = %d, want 1", fx.canvas.Listeners())
		}
		fx.canvas.Dispatch(canvas.PointerEvent{Type: canvas.PointerMove, Point: geometry.Point{X: 310, Y: 400}})
		fx.canvas.Dispatch(canvas.PointerEvent{Type: canvas.PointerUp, Point: geometry.Point{X: 300, Y: 400}})
	}

	if fx.canvas.Listeners() != 0 {
		t.Errorf("Listeners() after gestures = %d, want 0", fx.canvas.Listeners())
	}
	if fx.gate.Busy() || fx.drag.Active() {
		t.Error("drag still active after pointer up")
	}
}

func TestResizeSymmetric(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"right of center", 390, 30},
		{"left of center", 210, 30},
		{"clamped wide", 600, geometry.MaxWidth},
		{"clamped narrow", 300, geometry.MinWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			if err := fx.resize.Start(fx.id, geometry.Point{X: 360, Y: 400}); err != nil {
				t.Fatal(err)
			}
			if err := fx.resize.Move(geometry.Point{X: tt.x, Y: 100}); err != nil {
				t.Fatal(err)
			}
			fx.resize.End()

			if got := fx.field(t).Width; math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("width = %v, want %v", got, tt.want)
			}
			if fx.canvas.Listeners() != 0 {
				t.Errorf("Listeners() = %d, want 0", fx.canvas.Listeners())
			}
		})
	}
}

func TestMutualExclusion(t *testing.T) {
	fx := newFixture(t)

	other, err := fields.New(fields.KindInitials, fields.Placement{PageNumber: 1, X: 20, Y: 20}, fields.Mark{Text: "AB"})
	if err != nil {
		t.Fatal(err)
	}
	if err := fx.store.Add(other); err != nil {
		t.Fatal(err)
	}

	if err := fx.drag.Start(fx.id, geometry.Point{X: 300, Y: 400}); err != nil {
		t.Fatal(err)
	}
	if err := fx.resize.Start(other.Base().ID, geometry.Point{X: 120, Y: 160}); !errors.Is(err, gesture.ErrGestureActive) {
		t.Fatalf("resize during drag error = %v, want ErrGestureActive", err)
	}
	if fx.resize.Active() {
		t.Error("resize entered active state during drag")
	}
	if err := fx.drag.Start(other.Base().ID, geometry.Point{X: 120, Y: 160}); !errors.Is(err, gesture.ErrGestureActive) {
		t.Errorf("second drag error = %v, want ErrGestureActive", err)
	}
	if fx.canvas.Listeners() != 1 {
		t.Errorf("Listeners() = %d, want 1", fx.canvas.Listeners())
	}

	fx.resize.End()
	if !fx.drag.Active() || !fx.gate.Busy() {
		t.Error("ending an idle resize released the drag")
	}

	fx.drag.End()
	if err := fx.resize.Start(other.Base().ID, geometry.Point{X: 120, Y: 160}); err != nil {
		t.Errorf("resize after drag end error = %v", err)
	}
	fx.resize.End()
}

func TestMoveWhenIdle(t *testing.T) {
	fx := newFixture(t)

	if err := fx.drag.Move(geometry.Point{}); !errors.Is(err, gesture.ErrNotActive) {
		t.Errorf("drag error = %v", err)
	}
	if err := fx.resize.Move(geometry.Point{}); !errors.Is(err, gesture.ErrNotActive) {
		t.Errorf("resize error = %v", err)
	}
}

func TestStartUnknownField(t *testing.T) {
	fx := newFixture(t)

	if err := fx.drag.Start("missing", geometry.Point{}); !errors.Is(err, fields.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if fx.gate.Busy() {
		t.Error("failed start left the gate busy")
	}
}
