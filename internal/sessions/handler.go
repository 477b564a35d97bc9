package sessions

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/capture"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/geometry"
	"github.com/JaimeStill/quill/internal/gesture"
	"github.com/JaimeStill/quill/pkg/formatting"
	"github.com/JaimeStill/quill/pkg/handlers"
	"github.com/JaimeStill/quill/pkg/routes"
)

// multipart framing allowance on top of the image limit
const uploadOverhead = 64 << 10

// Handler provides HTTP endpoints for editor sessions.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxImageBytes int64
}

// NewHandler creates a Handler. maxImageBytes bounds capture uploads.
func NewHandler(sys System, logger *slog.Logger, maxImageBytes int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "sessions"),
		maxImageBytes: maxImageBytes,
	}
}

// Routes returns the route group definition for session endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/sessions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Create, Summary: "Open an editing session"},
			{Method: "GET", Pattern: "/{id}", Handler: h.Get, Summary: "Get the session snapshot"},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Close, Summary: "Discard the session"},
			{Method: "PUT", Pattern: "/{id}/pages/{page}/layout", Handler: h.Layout, Summary: "Record a page's on-screen rectangle"},
			{Method: "POST", Pattern: "/{id}/click", Handler: h.Click, Summary: "Anchor a pending placement"},
			{Method: "DELETE", Pattern: "/{id}/anchor", Handler: h.CancelAnchor, Summary: "Cancel the pending placement"},
			{Method: "GET", Pattern: "/{id}/signers", Handler: h.Signers, Summary: "List assignable signers"},
			{Method: "POST", Pattern: "/{id}/capture", Handler: h.OpenCapture, Summary: "Open a signature capture"},
			{Method: "PUT", Pattern: "/{id}/capture/mode", Handler: h.CaptureMode},
			{Method: "POST", Pattern: "/{id}/capture/strokes", Handler: h.Stroke},
			{Method: "DELETE", Pattern: "/{id}/capture/strokes", Handler: h.ClearStrokes},
			{Method: "PUT", Pattern: "/{id}/capture/text", Handler: h.CaptureText},
			{Method: "POST", Pattern: "/{id}/capture/upload", Handler: h.CaptureUpload},
			{Method: "DELETE", Pattern: "/{id}/capture", Handler: h.CloseCapture},
			{Method: "POST", Pattern: "/{id}/fields", Handler: h.Place, Summary: "Place a field at the anchor"},
			{Method: "DELETE", Pattern: "/{id}/fields/{field}", Handler: h.RemoveField},
			{Method: "POST", Pattern: "/{id}/fields/{field}/fill", Handler: h.Fill, Summary: "Sign an assigned placeholder"},
			{Method: "POST", Pattern: "/{id}/gestures/{kind}", Handler: h.StartGesture},
			{Method: "POST", Pattern: "/{id}/pointer/move", Handler: h.PointerMove},
			{Method: "POST", Pattern: "/{id}/pointer/up", Handler: h.PointerUp},
			{Method: "POST", Pattern: "/{id}/save", Handler: h.Save, Summary: "Submit the session's fields"},
		},
	}
}

// ClickRequest is a raw click. Page zero hit-tests every page.
type ClickRequest struct {
	Page  int            `json:"page"`
	Point geometry.Point `json:"point"`
}

// ModeRequest selects a capture mode.
type ModeRequest struct {
	Mode capture.Mode `json:"mode"`
}

// StrokeRequest is one ink stroke in pad pixels.
type StrokeRequest struct {
	Points []geometry.Point `json:"points"`
}

// TextRequest is typed capture input. An empty Font keeps the current font.
type TextRequest struct {
	Text string `json:"text"`
	Font string `json:"font,omitempty"`
}

// GestureRequest starts a gesture on a field.
type GestureRequest struct {
	FieldID string         `json:"field_id"`
	Point   geometry.Point `json:"point"`
}

// SaveResponse summarizes an accepted submission.
type SaveResponse struct {
	DocumentID   string `json:"document_id"`
	Self         int    `json:"self"`
	Placeholders int    `json:"placeholders"`
}

// Create opens a session.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}
	if cmd.DocumentID == uuid.Nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	s, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, s.Snapshot())
}

// Get returns the session snapshot.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, s.Snapshot())
}

// Close discards the session without saving.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	if err := h.sys.Close(id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Layout records a page's on-screen rectangle.
func (h *Handler) Layout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	var rect geometry.Rect
	if !h.decode(w, r, &rect) {
		return
	}

	h.apply(w, s, s.Layout(page, rect))
}

// Click anchors a pending placement.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ClickRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, err := s.Click(req.Page, req.Point)
	h.apply(w, s, err)
}

// CancelAnchor drops the pending anchor and closes any open capture.
func (h *Handler) CancelAnchor(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.apply(w, s, s.CancelAnchor())
}

// Signers lists the signer directory for privileged operators.
func (h *Handler) Signers(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	opts, err := s.Signers(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, opts)
}

// OpenCapture opens a capture dialog.
func (h *Handler) OpenCapture(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ModeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, s, s.OpenCapture(req.Mode))
}

// CaptureMode switches the capture input mode.
func (h *Handler) CaptureMode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ModeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, s, s.SetCaptureMode(req.Mode))
}

// Stroke adds an ink stroke.
func (h *Handler) Stroke(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req StrokeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, s, s.Stroke(req.Points))
}

// ClearStrokes empties the ink pad.
func (h *Handler) ClearStrokes(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.apply(w, s, s.ClearStrokes())
}

// CaptureText records typed text.
func (h *Handler) CaptureText(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req TextRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, s, s.SetText(req.Text, req.Font))
}

// CaptureUpload attaches an uploaded image from the multipart "file" part.
func (h *Handler) CaptureUpload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+uploadOverhead)
	if err := r.ParseMultipartForm(h.maxImageBytes + uploadOverhead); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: limit is %s", capture.ErrImageTooLarge, formatting.FormatBytes(h.maxImageBytes, 0)))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, capture.ErrNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, capture.ErrInvalidImage)
		return
	}

	h.apply(w, s, s.Upload(data))
}

// CloseCapture tears down the capture dialog.
func (h *Handler) CloseCapture(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.apply(w, s, s.CloseCapture())
}

// Place creates a field at the pending anchor.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var cmd PlaceCommand
	if !h.decode(w, r, &cmd) {
		return
	}

	f, err := s.Place(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, fields.ToView(f))
}

// RemoveField deletes a field.
func (h *Handler) RemoveField(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.apply(w, s, s.RemoveField(r.PathValue("field")))
}

// Fill signs an assigned placeholder as the operator.
func (h *Handler) Fill(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	f, err := s.Fill(r.PathValue("field"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, fields.ToView(f))
}

// StartGesture begins a drag or resize.
func (h *Handler) StartGesture(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	kind, err := gesture.ParseKind(r.PathValue("kind"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	var req GestureRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, s, s.StartGesture(kind, req.FieldID, req.Point))
}

// PointerMove forwards a pointer move to the active gesture.
func (h *Handler) PointerMove(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var pt geometry.Point
	if !h.decode(w, r, &pt) {
		return
	}
	h.apply(w, s, s.PointerMove(pt))
}

// PointerUp ends the active gesture.
func (h *Handler) PointerUp(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var pt geometry.Point
	if !h.decode(w, r, &pt) {
		return
	}
	h.apply(w, s, s.PointerUp(pt))
}

// Save submits the session. A rejected save leaves the session editable.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	sub, err := h.sys.Save(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, SaveResponse{
		DocumentID:   sub.DocumentID,
		Self:         len(sub.Self),
		Placeholders: len(sub.Placeholders),
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return nil, false
	}

	s, err := h.sys.Find(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, false
	}
	return s, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := handlers.DecodeJSON(r, v); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return false
	}
	return true
}

// apply responds with the session snapshot, or with err when it is non-nil.
func (h *Handler) apply(w http.ResponseWriter, s *Session, err error) {
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, s.Snapshot())
}
