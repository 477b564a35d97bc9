// Package canvas models the rendered document pages a session places fields on.
// It tracks each page's on-screen rectangle, converts pointer positions to
// normalized anchors, hit-tests pointers against pages, dispatches pointer
// events to gesture listeners, and describes field overlays in pixel space.
//
// A Canvas is not safe for concurrent use; its owner serializes access.
package canvas

import (
	"errors"
	"slices"

	"github.com/JaimeStill/quill/internal/geometry"
)

// Errors returned by canvas operations.
var (
	ErrPageNotFound = errors.New("page not found")
	ErrInvalidRect  = errors.New("page rect must have positive width and height")
	ErrOffPage      = errors.New("pointer is not over a page")
)

// Size is a page's intrinsic size in PDF points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page is one rendered page.
type Page struct {
	Number int           `json:"number"`
	Size   Size          `json:"size"`
	Rect   geometry.Rect `json:"rect"`
}

// Anchor is a pending placement location produced by a click.
type Anchor struct {
	Page     int               `json:"page"`
	Position geometry.Position `json:"position"`
}

// Canvas holds the session's pages and pointer listeners.
type Canvas struct {
	pages     map[int]*Page
	order     []int
	listeners map[int]Listener
	nextID    int
}

// New creates a canvas for pages of the given intrinsic sizes, numbered from 1
// and laid out with LayoutStacked at their natural width.
func New(sizes []Size) *Canvas {
	c := &Canvas{
		pages:     make(map[int]*Page, len(sizes)),
		listeners: make(map[int]Listener),
	}
	for i, s := range sizes {
		n := i + 1
		c.pages[n] = &Page{Number: n, Size: s}
		c.order = append(c.order, n)
	}
	c.LayoutStacked(0, defaultGap)
	return c
}

const defaultGap = 16

// LayoutStacked lays pages out top to bottom separated by gap pixels. Each page
// is scaled to width pixels; a width of zero keeps each page's intrinsic width.
func (c *Canvas) LayoutStacked(width, gap float64) {
	top := 0.0
	for _, n := range c.order {
		p := c.pages[n]
		w, h := p.Size.Width, p.Size.Height
		if width > 0 && w > 0 {
			h = h * width / w
			w = width
		}
		p.Rect = geometry.Rect{Left: 0, Top: top, Width: w, Height: h}
		top += h + gap
	}
}

// Layout records the on-screen rectangle for a page.
func (c *Canvas) Layout(number int, rect geometry.Rect) error {
	p, ok := c.pages[number]
	if !ok {
		return ErrPageNotFound
	}
	if !rect.Valid() {
		return ErrInvalidRect
	}
	p.Rect = rect
	return nil
}

// Page returns the page with the given number.
func (c *Canvas) Page(number int) (Page, bool) {
	p, ok := c.pages[number]
	if !ok {
		return Page{}, false
	}
	return *p, true
}

// Pages returns every page in order.
func (c *Canvas) Pages() []Page {
	out := make([]Page, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, *c.pages[n])
	}
	return out
}

// PageCount returns the number of pages.
func (c *Canvas) PageCount() int {
	return len(c.order)
}

// PageAt returns the page whose rect contains pt.
func (c *Canvas) PageAt(pt geometry.Point) (Page, bool) {
	for _, n := range c.order {
		p := c.pages[n]
		if p.Rect.Valid() && p.Rect.Contains(pt) {
			return *p, true
		}
	}
	return Page{}, false
}

// Anchor converts a click at pt into a normalized anchor on the page under it.
// A page number of zero means hit-test every page.
func (c *Canvas) Anchor(page int, pt geometry.Point) (Anchor, error) {
	var (
		p  Page
		ok bool
	)
	if page == 0 {
		p, ok = c.PageAt(pt)
		if !ok {
			return Anchor{}, ErrOffPage
		}
	} else {
		p, ok = c.Page(page)
		if !ok {
			return Anchor{}, ErrPageNotFound
		}
		if !p.Rect.Contains(pt) {
			return Anchor{}, ErrOffPage
		}
	}

	return Anchor{
		Page:     p.Number,
		Position: p.Rect.Normalize(pt),
	}, nil
}

// HasPage reports whether number is a page of this canvas.
func (c *Canvas) HasPage(number int) bool {
	return slices.Contains(c.order, number)
}
