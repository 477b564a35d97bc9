package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/documents"
	"github.com/JaimeStill/quill/pkg/pagination"
	"github.com/JaimeStill/quill/pkg/storage"
)

type mockSystem struct {
	listFn     func(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error)
	findFn     func(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	createFn   func(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) error
	contentFn  func(ctx context.Context, id uuid.UUID) (*documents.Document, *storage.Blob, error)
	geometryFn func(ctx context.Context, id uuid.UUID) ([]documents.Page, error)
	renderFn   func(ctx context.Context, id uuid.UUID, page int) ([]byte, error)
}

func (m *mockSystem) Handler(maxUploadSize int64) *documents.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Content(ctx context.Context, id uuid.UUID) (*documents.Document, *storage.Blob, error) {
	return m.contentFn(ctx, id)
}

func (m *mockSystem) Geometry(ctx context.Context, id uuid.UUID) ([]documents.Page, error) {
	return m.geometryFn(ctx, id)
}

func (m *mockSystem) RenderPage(ctx context.Context, id uuid.UUID, page int) ([]byte, error) {
	return m.renderFn(ctx, id, page)
}

func newTestHandler(sys documents.System) *documents.Handler {
	return documents.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		50*1024*1024,
	)
}

func setupMux(h *documents.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleDoc() documents.Document {
	return documents.Document{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		ContractID:  ptr("k-42"),
		Filename:    "lease.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		PageCount:   ptr(2),
		StorageKey:  "documents/550e8400-e29b-41d4-a716-446655440000/lease.pdf",
		Status:      documents.StatusDraft,
		UploadedAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func serve(mux *http.ServeMux, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerList(t *testing.T) {
	doc := sampleDoc()
	var captured documents.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f documents.Filters) (*pagination.PageResult[documents.Document], error) {
			captured = f
			result := pagination.NewPageResult([]documents.Document{doc}, 1, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := serve(mux, "GET", "/documents?status=draft&contract_id=k-42", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[documents.Document]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Data[0].ID != doc.ID {
		t.Errorf("result = %+v", result)
	}
	if captured.Status == nil || *captured.Status != "draft" || captured.ContractID == nil {
		t.Errorf("filters = %+v", captured)
	}
}

func TestHandlerFind(t *testing.T) {
	doc := sampleDoc()
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*documents.Document, error) {
			if id != doc.ID {
				return nil, documents.ErrNotFound
			}
			return &doc, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"found", "/documents/" + doc.ID.String(), http.StatusOK},
		{"invalid uuid", "/documents/not-a-uuid", http.StatusBadRequest},
		{"not found", "/documents/" + uuid.New().String(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(mux, "GET", tt.target, nil, ""); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerSearchNormalizesPagination(t *testing.T) {
	var captured pagination.PageRequest
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, _ documents.Filters) (*pagination.PageResult[documents.Document], error) {
			captured = page
			result := pagination.NewPageResult([]documents.Document{}, 0, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	body, _ := json.Marshal(documents.SearchRequest{})
	if rec := serve(mux, "POST", "/documents/search", bytes.NewReader(body), "application/json"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.Page != 1 || captured.PageSize != 20 {
		t.Errorf("page = %+v, want normalized", captured)
	}

	if rec := serve(mux, "POST", "/documents/search", strings.NewReader("not json"), "application/json"); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid json status = %d, want 400", rec.Code)
	}
}

func uploadForm(t *testing.T, filename, contentType string, content []byte, contractID string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(content)
	}
	if contractID != "" {
		writer.WriteField("contract_id", contractID)
	}

	writer.Close()
	return &buf, writer.FormDataContentType()
}

func TestHandlerUpload(t *testing.T) {
	doc := sampleDoc()

	t.Run("creates document from pdf", func(t *testing.T) {
		var captured documents.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
				captured = cmd
				return &doc, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, ct := uploadForm(t, "lease.pdf", "application/octet-stream", minimalPDF([2]int{612, 792}, [2]int{612, 792}), "k-42")
		rec := serve(mux, "POST", "/documents", body, ct)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if captured.Filename != "lease.pdf" || captured.ContentType != "application/pdf" {
			t.Errorf("cmd = %+v", captured)
		}
		if captured.PageCount == nil || *captured.PageCount != 2 {
			t.Errorf("page count = %v, want 2", captured.PageCount)
		}
		if captured.ContractID == nil || *captured.ContractID != "k-42" {
			t.Errorf("contract id = %v", captured.ContractID)
		}
	})

	tests := []struct {
		name    string
		ct      string
		content []byte
		status  int
	}{
		{"non pdf rejected", "image/png", []byte("\x89PNG\r\n\x1a\n"), http.StatusUnsupportedMediaType},
		{"unreadable pdf rejected", "application/pdf", []byte("%PDF-1.4 truncated"), http.StatusBadRequest},
		{"missing file", "", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createFn: func(context.Context, documents.CreateCommand) (*documents.Document, error) {
					t.Error("Create should not be called")
					return nil, nil
				},
			}
			mux := setupMux(newTestHandler(sys))

			body, ct := uploadForm(t, "upload.bin", tt.ct, tt.content, "")
			if rec := serve(mux, "POST", "/documents", body, ct); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerContent(t *testing.T) {
	doc := sampleDoc()
	sys := &mockSystem{
		contentFn: func(_ context.Context, id uuid.UUID) (*documents.Document, *storage.Blob, error) {
			if id != doc.ID {
				return nil, nil, documents.ErrNotFound
			}
			return &doc, &storage.Blob{
				Body:          io.NopCloser(strings.NewReader("%PDF-bytes")),
				ContentType:   "application/pdf",
				ContentLength: 10,
			}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := serve(mux, "GET", "/documents/"+doc.ID.String()+"/content", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "lease.pdf") {
		t.Errorf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "%PDF-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}

	if rec := serve(mux, "GET", "/documents/"+uuid.New().String()+"/content", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", rec.Code)
	}
}

func TestHandlerPages(t *testing.T) {
	doc := sampleDoc()
	sys := &mockSystem{
		geometryFn: func(context.Context, uuid.UUID) ([]documents.Page, error) {
			return []documents.Page{{Number: 1, Width: 612, Height: 792}}, nil
		},
		renderFn: func(_ context.Context, _ uuid.UUID, page int) ([]byte, error) {
			if page != 1 {
				return nil, documents.ErrPageNotFound
			}
			return []byte("\x89PNG"), nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := serve(mux, "GET", "/documents/"+doc.ID.String()+"/pages", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pages status = %d", rec.Code)
	}
	var pages []documents.Page
	if err := json.NewDecoder(rec.Body).Decode(&pages); err != nil || len(pages) != 1 || pages[0].Width != 612 {
		t.Errorf("pages = %+v, %v", pages, err)
	}

	tests := []struct {
		page   string
		status int
	}{
		{"1", http.StatusOK},
		{"7", http.StatusNotFound},
		{"first", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run("page "+tt.page, func(t *testing.T) {
			rec := serve(mux, "GET", "/documents/"+doc.ID.String()+"/pages/"+tt.page+"/image", nil, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && rec.Header().Get("Content-Type") != "image/png" {
				t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestHandlerDelete(t *testing.T) {
	docID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	var captured uuid.UUID
	sys := &mockSystem{
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			if id != docID {
				return documents.ErrNotFound
			}
			captured = id
			return nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	if rec := serve(mux, "DELETE", "/documents/"+docID.String(), nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if captured != docID {
		t.Errorf("id = %v, want %v", captured, docID)
	}
	if rec := serve(mux, "DELETE", "/documents/"+uuid.New().String(), nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerRoutes(t *testing.T) {
	group := newTestHandler(&mockSystem{}).Routes()

	if group.Prefix != "/documents" {
		t.Errorf("prefix = %q, want /documents", group.Prefix)
	}

	want := []struct {
		method  string
		pattern string
	}{
		{"GET", ""},
		{"GET", "/{id}"},
		{"POST", ""},
		{"POST", "/search"},
		{"GET", "/{id}/content"},
		{"GET", "/{id}/pages"},
		{"GET", "/{id}/pages/{page}/image"},
		{"DELETE", "/{id}"},
	}

	if len(group.Routes) != len(want) {
		t.Fatalf("route count = %d, want %d", len(group.Routes), len(want))
	}
	for i, w := range want {
		r := group.Routes[i]
		if r.Method != w.method || r.Pattern != w.pattern {
			t.Errorf("route[%d] = %s %s, want %s %s", i, r.Method, r.Pattern, w.method, w.pattern)
		}
	}
}
