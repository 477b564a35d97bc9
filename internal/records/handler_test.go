package records_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/reconcile"
	"github.com/JaimeStill/quill/internal/records"
	"github.com/JaimeStill/quill/pkg/storage"
)

type mockSystem struct {
	listFn   func(ctx context.Context, documentID uuid.UUID) ([]records.Record, error)
	findFn   func(ctx context.Context, id uuid.UUID) (*records.Record, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
	imageFn  func(ctx context.Context, id uuid.UUID) (*storage.Blob, error)
	saveFn   func(ctx context.Context, sub reconcile.Submission) error
	exportFn func(ctx context.Context, documentID uuid.UUID, w io.Writer) error
}

func (m *mockSystem) Handler() *records.Handler {
	return records.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) List(ctx context.Context, documentID uuid.UUID) ([]records.Record, error) {
	return m.listFn(ctx, documentID)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*records.Record, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Image(ctx context.Context, id uuid.UUID) (*storage.Blob, error) {
	return m.imageFn(ctx, id)
}

func (m *mockSystem) Save(ctx context.Context, sub reconcile.Submission) error {
	return m.saveFn(ctx, sub)
}

func (m *mockSystem) Export(ctx context.Context, documentID uuid.UUID, w io.Writer) error {
	return m.exportFn(ctx, documentID, w)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	group := sys.Handler().Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandlerList(t *testing.T) {
	docID := uuid.New()
	sys := &mockSystem{
		listFn: func(_ context.Context, id uuid.UUID) ([]records.Record, error) {
			if id != docID {
				return nil, nil
			}
			return []records.Record{{DocumentID: docID, Persisted: fields.Persisted{ID: "r1", Type: fields.KindSignature}}}, nil
		},
	}
	mux := setupMux(sys)

	rec := serve(mux, "GET", "/records?document_id="+docID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []records.Record
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Errorf("records = %+v", got)
	}

	rec = serve(mux, "GET", "/records?document_id="+uuid.NewString())
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %q", rec.Body.String())
	}

	if rec := serve(mux, "GET", "/records"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing document_id status = %d, want 400", rec.Code)
	}
}

func TestHandlerFind(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{
		findFn: func(_ context.Context, got uuid.UUID) (*records.Record, error) {
			if got != id {
				return nil, records.ErrNotFound
			}
			return &records.Record{Persisted: fields.Persisted{ID: id.String()}}, nil
		},
	}
	mux := setupMux(sys)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"found", "/records/" + id.String(), http.StatusOK},
		{"invalid uuid", "/records/nope", http.StatusBadRequest},
		{"not found", "/records/" + uuid.NewString(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(mux, "GET", tt.target); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerImage(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{
		imageFn: func(_ context.Context, got uuid.UUID) (*storage.Blob, error) {
			if got != id {
				return nil, records.ErrNoImage
			}
			return &storage.Blob{
				Body:          io.NopCloser(strings.NewReader("PNGDATA")),
				ContentType:   "image/png",
				ContentLength: 7,
			}, nil
		},
	}
	mux := setupMux(sys)

	rec := serve(mux, "GET", "/records/"+id.String()+"/image")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/png" || rec.Body.String() != "PNGDATA" {
		t.Errorf("response = %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}

	if rec := serve(mux, "GET", "/records/"+uuid.NewString()+"/image"); rec.Code != http.StatusNotFound {
		t.Errorf("missing image status = %d, want 404", rec.Code)
	}
}

func TestHandlerExport(t *testing.T) {
	docID := uuid.New()
	sys := &mockSystem{
		exportFn: func(_ context.Context, id uuid.UUID, w io.Writer) error {
			if id != docID {
				return records.ErrDocumentNotFound
			}
			_, err := w.Write([]byte("xlsx"))
			return err
		},
	}
	mux := setupMux(sys)

	rec := serve(mux, "GET", "/records/export?document_id="+docID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Content-Type") != records.ExportContentType {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, docID.String()) {
		t.Errorf("content disposition = %q", cd)
	}

	if rec := serve(mux, "GET", "/records/export?document_id="+uuid.NewString()); rec.Code != http.StatusNotFound {
		t.Errorf("unknown document status = %d, want 404", rec.Code)
	}
}

func TestHandlerDelete(t *testing.T) {
	var deleted uuid.UUID
	sys := &mockSystem{
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	mux := setupMux(sys)

	id := uuid.New()
	if rec := serve(mux, "DELETE", "/records/"+id.String()); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if deleted != id {
		t.Errorf("deleted = %s, want %s", deleted, id)
	}
}
