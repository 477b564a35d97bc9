package records

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/pkg/handlers"
	"github.com/JaimeStill/quill/pkg/routes"
)

var errDocumentIDRequired = errors.New("document_id query parameter required")

// Handler provides HTTP endpoints for persisted field records.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler for sys.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "records"),
	}
}

// Routes returns the route group definition for record endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/records",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, Summary: "List a document's field records", Query: []string{"document_id"}},
			{Method: "GET", Pattern: "/export", Handler: h.Export, Summary: "Export a document's field records", Query: []string{"document_id"}},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, Summary: "Get a field record"},
			{Method: "GET", Pattern: "/{id}/image", Handler: h.Image, Summary: "Download a signed field's image"},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, Summary: "Delete a field record"},
		},
	}
}

// List returns every record of the document named by the document_id query parameter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}

	recs, err := h.sys.List(r.Context(), documentID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	if recs == nil {
		recs = []Record{}
	}

	handlers.RespondJSON(w, http.StatusOK, recs)
}

// Find returns a single record.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Image proxies the stored signature image of a record.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	blob, err := h.sys.Image(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if blob.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("image stream interrupted", "id", id, "error", err)
	}
}

// Export returns the document's records as an xlsx workbook.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.sys.Export(r.Context(), documentID, &buf); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	name := "fields-" + documentID.String() + ".xlsx"
	w.Header().Set("Content-Type", ExportContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Delete removes a record and its stored image.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRecord)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get("document_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errDocumentIDRequired)
		return uuid.Nil, false
	}
	return id, true
}
