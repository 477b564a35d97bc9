package sessions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/canvas"
	"github.com/JaimeStill/quill/internal/capture"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/gesture"
	"github.com/JaimeStill/quill/internal/reconcile"
)

// Snapshot is the client-facing view of a session.
type Snapshot struct {
	ID         uuid.UUID        `json:"id"`
	DocumentID uuid.UUID        `json:"document_id"`
	ContentURL string           `json:"content_url"`
	Mode       reconcile.Mode   `json:"mode"`
	State      State            `json:"state"`
	Operator   Operator         `json:"operator"`
	Privileged bool             `json:"privileged"`
	Error      string           `json:"error,omitempty"`
	Pages      []PageView       `json:"pages"`
	Fields     []fields.View    `json:"fields"`
	Overlays   []canvas.Overlay `json:"overlays"`
	Anchor     *canvas.Anchor   `json:"anchor,omitempty"`
	Capture    *CaptureView     `json:"capture,omitempty"`
	Gesture    *GestureView     `json:"gesture,omitempty"`
	Hydration  *HydrationView   `json:"hydration,omitempty"`
}

// PageView is a canvas page with the address of its rendered image.
type PageView struct {
	canvas.Page
	ImageURL string `json:"image_url"`
}

// CaptureView describes the open capture. Ready mirrors the place control
// for each field kind.
type CaptureView struct {
	Mode    capture.Mode         `json:"mode"`
	Strokes int                  `json:"strokes"`
	Ready   map[fields.Kind]bool `json:"ready"`
}

// GestureView names the active gesture.
type GestureView struct {
	Kind    gesture.Kind `json:"kind"`
	FieldID string       `json:"field_id"`
}

// HydrationView reports progress of remote image resolution.
type HydrationView struct {
	Added    int  `json:"added"`
	Skipped  int  `json:"skipped"`
	Invalid  int  `json:"invalid"`
	Resolved int  `json:"resolved"`
	Failed   int  `json:"failed"`
	Pending  bool `json:"pending"`
}

// Snapshot captures the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEditing {
		s.touched = s.clock()
	}

	fs := s.store.List()
	snap := Snapshot{
		ID:         s.ID,
		DocumentID: s.DocumentID,
		ContentURL: fmt.Sprintf("%s/documents/%s/content", s.basePath, s.DocumentID),
		Mode:       s.Mode,
		State:      s.state,
		Operator:   s.Operator,
		Privileged: s.Privileged,
		Error:      s.lastError,
		Pages:      []PageView{},
		Fields:     fields.ToViews(fs),
		Overlays:   []canvas.Overlay{},
		Anchor:     s.anchor,
	}

	if s.canvas != nil {
		for _, p := range s.canvas.Pages() {
			snap.Pages = append(snap.Pages, PageView{
				Page:     p,
				ImageURL: fmt.Sprintf("%s/documents/%s/pages/%d/image", s.basePath, s.DocumentID, p.Number),
			})
		}
		snap.Overlays = s.canvas.Overlays(fs)
	}

	if c := s.capture; c != nil {
		cv := &CaptureView{Mode: c.Mode(), Ready: make(map[fields.Kind]bool)}
		if pad := c.Pad(); pad != nil {
			cv.Strokes = pad.Strokes()
		}
		for _, k := range fields.Kinds() {
			cv.Ready[k] = c.Ready(k)
		}
		snap.Capture = cv
	}

	if s.gate != nil {
		if kind, id, ok := s.gate.Active(); ok {
			snap.Gesture = &GestureView{Kind: kind, FieldID: id}
		}
	}

	if h := s.hydration; h != nil {
		hv := &HydrationView{
			Added:    h.Added + h.Refreshed,
			Skipped:  h.Skipped,
			Invalid:  h.Invalid,
			Resolved: h.Resolved(),
			Failed:   h.Failed(),
		}
		select {
		case <-h.Done():
		default:
			hv.Pending = true
		}
		snap.Hydration = hv
	}

	return snap
}
