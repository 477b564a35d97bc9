// Package sessions composes the editing surface for one document into a
// server-side session. A client forwards pointer and keyboard events to its
// session; the session owns the page canvas, the field set, the gesture
// controllers, the open capture and the save hand-off.
//
// Every operation on a Session is serialized behind its mutex.
package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/assign"
	"github.com/JaimeStill/quill/internal/canvas"
	"github.com/JaimeStill/quill/internal/capture"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/geometry"
	"github.com/JaimeStill/quill/internal/gesture"
	"github.com/JaimeStill/quill/internal/reconcile"
	"github.com/JaimeStill/quill/internal/signers"
)

// State is a session's lifecycle state.
type State string

// Session states.
const (
	StateLoading State = "loading"
	StateEditing State = "editing"
	StateSaving  State = "saving"
	StateFailed  State = "failed"
	StateClosed  State = "closed"
)

// Operator is the person driving a session.
type Operator struct {
	ID    string   `json:"id,omitempty"`
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Roles []string `json:"roles,omitempty"`
}

func (o Operator) signer() fields.Signer {
	return fields.Signer{
		Name:  strings.TrimSpace(o.Name),
		Title: strings.TrimSpace(o.Title),
	}
}

// PlaceCommand places a field at the pending anchor. An empty SignerID places
// a self-authored field from the open capture. Otherwise the field is assigned
// to that directory entry and UseCapture pre-signs it on their behalf.
type PlaceCommand struct {
	Kind       fields.Kind `json:"kind"`
	SignerID   string      `json:"signer_id,omitempty"`
	UseCapture bool        `json:"use_capture,omitempty"`
	Width      float64     `json:"width,omitempty"`
}

// Session is one operator's editing session over one document.
type Session struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	ContractID string
	Mode       reconcile.Mode
	Operator   Operator
	Privileged bool
	CreatedAt  time.Time

	mu        sync.Mutex
	state     State
	lastError string
	touched   time.Time

	ctx    context.Context
	cancel context.CancelFunc

	canvas  *canvas.Canvas
	store   *fields.Store
	gate    *gesture.Gate
	drag    *gesture.Drag
	resize  *gesture.Resize
	capture *capture.Session
	anchor  *canvas.Anchor

	captureOpts capture.Options
	directory   signers.Directory
	assigner    *assign.Assigner
	reconciler  *reconcile.Reconciler
	resolver    fields.ImageResolver

	hydrated        bool
	directoryLoaded bool
	hydration       *fields.Hydration

	basePath string
	clock    func() time.Time
	logger   *slog.Logger
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the message of the last failed load or save.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Fields returns the session's current field set.
func (s *Session) Fields() []fields.Field {
	return s.store.List()
}

// Hydration returns the session's hydration, or nil before it has run.
func (s *Session) Hydration() *fields.Hydration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydration
}

// start moves a loaded session into editing, hydrates it and begins the
// directory fetch. Both steps run at most once per session.
func (s *Session) start(sizes []canvas.Size, persisted []fields.Persisted) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.canvas = canvas.New(sizes)
	s.gate = &gesture.Gate{}
	s.drag = gesture.NewDrag(s.gate, s.canvas, s.store)
	s.resize = gesture.NewResize(s.gate, s.canvas, s.store)
	s.state = StateEditing

	s.hydrate(persisted)
	s.loadDirectory()
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
	s.lastError = err.Error()
	s.logger.Error("session load failed", "document_id", s.DocumentID, "error", err)
}

func (s *Session) hydrate(persisted []fields.Persisted) {
	if s.hydrated {
		return
	}
	s.hydrated = true
	s.hydration = s.store.Hydrate(s.ctx, persisted, s.resolver)

	s.logger.Info("session hydrated",
		"added", s.hydration.Added,
		"invalid", s.hydration.Invalid,
	)
}

func (s *Session) loadDirectory() {
	if s.directoryLoaded || s.directory == nil {
		return
	}
	s.directoryLoaded = true

	dir, q := s.directory, signers.Query{ContractID: s.ContractID}
	go func() {
		if _, err := dir.List(s.ctx, q); err != nil {
			s.logger.Warn("signer directory prefetch failed", "error", err)
		}
	}()
}

// editable reports why the session cannot be mutated, if it cannot. Callers
// hold s.mu.
func (s *Session) editable() error {
	switch s.state {
	case StateEditing:
		s.touched = s.clock()
		return nil
	case StateSaving:
		return ErrSaving
	case StateFailed:
		return ErrFailed
	case StateClosed:
		return ErrClosed
	}
	return fmt.Errorf("%w: session is %s", ErrFailed, s.state)
}

// Layout records a page's on-screen rectangle.
func (s *Session) Layout(page int, rect geometry.Rect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	return s.canvas.Layout(page, rect)
}

// Click turns a raw click into the pending anchor. A click during an active
// gesture is part of that gesture and never anchors. Page zero hit-tests
// every page.
func (s *Session) Click(page int, pt geometry.Point) (canvas.Anchor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return canvas.Anchor{}, err
	}
	if s.gate.Busy() {
		return canvas.Anchor{}, gesture.ErrGestureActive
	}

	a, err := s.canvas.Anchor(page, pt)
	if err != nil {
		return canvas.Anchor{}, err
	}
	s.anchor = &a
	return a, nil
}

// CancelAnchor discards the pending anchor and any open capture.
func (s *Session) CancelAnchor() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.anchor = nil
	s.closeCapture()
	return nil
}

// Signers lists the directory entries the operator may assign fields to.
func (s *Session) Signers(ctx context.Context) ([]signers.Option, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	privileged, dir := s.Privileged, s.directory
	s.mu.Unlock()

	if !privileged {
		return nil, signers.ErrForbidden
	}
	if dir == nil {
		return []signers.Option{}, nil
	}
	return dir.List(ctx, signers.Query{ContractID: s.ContractID})
}

// OpenCapture opens a capture in mode, replacing any capture already open.
func (s *Session) OpenCapture(mode capture.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}

	c, err := capture.Open(mode, s.captureOpts)
	if err != nil {
		return err
	}
	s.closeCapture()
	s.capture = c
	return nil
}

// SetCaptureMode switches the open capture's input mode.
func (s *Session) SetCaptureMode(mode capture.Mode) error {
	return s.withCapture(func(c *capture.Session) error {
		return c.SetMode(mode)
	})
}

// Stroke adds an ink stroke to the open capture.
func (s *Session) Stroke(points []geometry.Point) error {
	return s.withCapture(func(c *capture.Session) error {
		return c.Stroke(points)
	})
}

// ClearStrokes empties the open capture's ink pad.
func (s *Session) ClearStrokes() error {
	return s.withCapture(func(c *capture.Session) error {
		return c.ClearStrokes()
	})
}

// SetText records typed text on the open capture.
func (s *Session) SetText(text, font string) error {
	return s.withCapture(func(c *capture.Session) error {
		return c.SetText(text, font)
	})
}

// Upload attaches an uploaded image to the open capture.
func (s *Session) Upload(data []byte) error {
	return s.withCapture(func(c *capture.Session) error {
		return c.Upload(data)
	})
}

// CloseCapture tears down the open capture. Closing with none open is a no-op.
func (s *Session) CloseCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.closeCapture()
	return nil
}

func (s *Session) withCapture(fn func(*capture.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if s.capture == nil {
		return ErrNoCapture
	}
	return fn(s.capture)
}

func (s *Session) closeCapture() {
	if s.capture != nil {
		s.capture.Close()
		s.capture = nil
	}
}

// complete produces a mark of kind k from the open capture. Dates need no
// open capture; they come from the capture clock.
func (s *Session) complete(k fields.Kind) (fields.Mark, error) {
	if s.capture != nil {
		return s.capture.Complete(k)
	}
	if k != fields.KindDate {
		return fields.Mark{}, ErrNoCapture
	}

	c, err := capture.Open(capture.ModeType, s.captureOpts)
	if err != nil {
		return fields.Mark{}, err
	}
	defer c.Close()
	return c.Complete(k)
}

// Place creates a field at the pending anchor. On success the anchor is
// consumed and the capture closed; on failure both are left as they were.
func (s *Session) Place(ctx context.Context, cmd PlaceCommand) (fields.Field, error) {
	kind, err := fields.ParseKind(string(cmd.Kind))
	if err != nil {
		return nil, err
	}

	var signer *signers.Option
	if cmd.SignerID != "" {
		opts, err := s.Signers(ctx)
		if err != nil {
			return nil, err
		}
		opt, err := signers.Find(opts, cmd.SignerID)
		if err != nil {
			return nil, err
		}
		signer = &opt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return nil, err
	}
	if s.anchor == nil {
		return nil, ErrNoAnchor
	}

	var f fields.Field
	if signer == nil {
		f, err = s.placeSelf(kind, cmd.Width)
	} else {
		f, err = s.placeFor(ctx, *signer, kind, cmd)
	}
	if err != nil {
		return nil, err
	}

	s.anchor = nil
	s.closeCapture()
	return f, nil
}

func (s *Session) placeSelf(kind fields.Kind, width float64) (fields.Field, error) {
	m, err := s.complete(kind)
	if err != nil {
		return nil, err
	}

	f, err := fields.New(kind, fields.Placement{
		PageNumber: s.anchor.Page,
		X:          s.anchor.Position.X,
		Y:          s.anchor.Position.Y,
		Width:      width,
		Signer:     s.Operator.signer(),
	}, m)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(f); err != nil {
		return nil, err
	}

	s.logger.Info("field placed", "field_id", f.Base().ID, "kind", kind, "page", s.anchor.Page)
	return f, nil
}

func (s *Session) placeFor(ctx context.Context, signer signers.Option, kind fields.Kind, cmd PlaceCommand) (fields.Field, error) {
	req := assign.Request{
		Signer: signer,
		Kind:   kind,
		Anchor: *s.anchor,
		Width:  cmd.Width,
	}
	if cmd.UseCapture {
		m, err := s.complete(kind)
		if err != nil {
			return nil, err
		}
		req.Mark = &m
	}
	return s.assigner.Place(ctx, req)
}

// Fill signs an unsigned placeholder as the operator, using the open capture.
// The field becomes self-authored and keeps its persisted id.
func (s *Session) Fill(fieldID string) (fields.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return nil, err
	}

	f, err := s.store.Get(fieldID)
	if err != nil {
		return nil, err
	}
	b := f.Base()
	if !b.Placeholder || b.Signed {
		return nil, ErrNotPlaceholder
	}
	if a := b.Assignment; a != nil && a.IdentityID != "" && s.Operator.ID != "" && a.IdentityID != s.Operator.ID {
		return nil, ErrNotAssignee
	}

	m, err := s.complete(f.Kind())
	if err != nil {
		return nil, err
	}

	signer := s.Operator.signer()
	self := false
	f, err = s.store.Update(fieldID, fields.Patch{
		Mark:      &m,
		Signer:    &signer,
		Delegated: &self,
	})
	if err != nil {
		return nil, err
	}

	s.closeCapture()
	s.logger.Info("placeholder filled", "field_id", fieldID, "persisted_id", b.PersistedID)
	return f, nil
}

// RemoveField deletes a field. A field under an active gesture cannot be removed.
func (s *Session) RemoveField(fieldID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if _, active, ok := s.gate.Active(); ok && active == fieldID {
		return gesture.ErrGestureActive
	}
	return s.store.Remove(fieldID)
}

// StartGesture begins a drag or resize of fieldID with the pointer at pt.
func (s *Session) StartGesture(kind gesture.Kind, fieldID string, pt geometry.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}

	switch kind {
	case gesture.KindDrag:
		return s.drag.Start(fieldID, pt)
	case gesture.KindResize:
		return s.resize.Start(fieldID, pt)
	}
	return gesture.ErrInvalidKind
}

// PointerMove forwards a pointer move to the active gesture.
func (s *Session) PointerMove(pt geometry.Point) error {
	return s.dispatch(canvas.PointerEvent{Type: canvas.PointerMove, Point: pt})
}

// PointerUp forwards a pointer release, which ends the active gesture.
func (s *Session) PointerUp(pt geometry.Point) error {
	return s.dispatch(canvas.PointerEvent{Type: canvas.PointerUp, Point: pt})
}

func (s *Session) dispatch(ev canvas.PointerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if s.canvas.Dispatch(ev) == 0 {
		return gesture.ErrNotActive
	}
	return nil
}

// Save submits the field set. The session is in the saving state, which
// rejects mutation, until the collaborator answers. A rejection returns the
// session to editing with every field intact; success closes it.
func (s *Session) Save(ctx context.Context) (reconcile.Submission, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return reconcile.Submission{}, err
	}
	if s.gate.Busy() {
		s.mu.Unlock()
		return reconcile.Submission{}, gesture.ErrGestureActive
	}

	s.state = StateSaving
	req := reconcile.Request{
		DocumentID: s.DocumentID.String(),
		Mode:       s.Mode,
		Operator:   reconcile.Operator{Name: s.Operator.Name, Title: s.Operator.Title},
		Fields:     s.store.List(),
	}
	s.mu.Unlock()

	sub, err := s.reconciler.Submit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.clock()

	if err != nil {
		if s.state == StateSaving {
			s.state = StateEditing
			s.lastError = err.Error()
		}
		return reconcile.Submission{}, err
	}

	s.lastError = ""
	s.teardown()
	return sub, nil
}

// Close tears the session down. It is safe to call more than once. A session
// with a save in flight is left alone and ErrSaving is returned.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSaving {
		return ErrSaving
	}
	s.teardown()
	return nil
}

// shutdown tears the session down regardless of state.
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

func (s *Session) teardown() {
	if s.state == StateClosed {
		return
	}
	if s.drag != nil {
		s.drag.End()
		s.resize.End()
	}
	s.closeCapture()
	s.anchor = nil
	s.cancel()
	s.state = StateClosed
}

// idleSince returns when the session was last used.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Listeners reports the pointer listeners currently attached to the canvas.
func (s *Session) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		return 0
	}
	return s.canvas.Listeners()
}

func privileged(roles, allowed []string) bool {
	return slices.ContainsFunc(roles, func(r string) bool {
		return slices.Contains(allowed, r)
	})
}
