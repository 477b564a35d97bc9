package openapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/quill/pkg/openapi"
	"github.com/JaimeStill/quill/pkg/routes"
)

func noop(w http.ResponseWriter, r *http.Request) {}

func sessionGroups() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/sessions",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "", Handler: noop, Summary: "Open an editing session"},
				{Method: "GET", Pattern: "/{id}", Handler: noop, Summary: "Get the session snapshot"},
				{Method: "DELETE", Pattern: "/{id}", Handler: noop},
			},
			Children: []routes.Group{
				{
					Prefix: "/{id}/fields",
					Routes: []routes.Route{
						{Method: "PUT", Pattern: "/{field_id}/value", Handler: noop},
					},
				},
			},
		},
		{
			Prefix: "/documents",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: noop, Query: []string{"page", "document_id", "contract_id"}},
				{Method: "POST", Pattern: "/search", Handler: noop, Body: "PageRequest"},
				{Method: "GET", Pattern: "/{id}/pages/{page}/image", Handler: noop},
			},
		},
	}
}

func TestAddGroups(t *testing.T) {
	spec := openapi.NewSpec("Quill API", "1.2.0")
	spec.AddGroups(sessionGroups()...)

	if len(spec.Paths) != 6 {
		t.Fatalf("paths: got %d, want 6", len(spec.Paths))
	}

	session := spec.Paths["/sessions/{id}"]
	if session == nil || session.Get == nil || session.Delete == nil {
		t.Fatalf("/sessions/{id}: %+v", session)
	}
	if session.Get.Summary != "Get the session snapshot" {
		t.Errorf("summary: got %q", session.Get.Summary)
	}
	if len(session.Get.Tags) != 1 || session.Get.Tags[0] != "sessions" {
		t.Errorf("tags: got %v", session.Get.Tags)
	}
	if _, ok := session.Delete.Responses[http.StatusNoContent]; !ok {
		t.Error("DELETE should document 204")
	}

	nested := spec.Paths["/sessions/{id}/fields/{field_id}/value"]
	if nested == nil || nested.Put == nil {
		t.Fatal("nested group path missing")
	}
	if nested.Put.Tags[0] != "sessions" {
		t.Errorf("nested tag: got %v", nested.Put.Tags)
	}
	if len(nested.Put.Parameters) != 2 {
		t.Fatalf("nested params: got %d, want 2", len(nested.Put.Parameters))
	}
	for _, p := range nested.Put.Parameters {
		if p.In != "path" || p.Schema.Format != "uuid" {
			t.Errorf("param %s: in %s format %s", p.Name, p.In, p.Schema.Format)
		}
	}

	image := spec.Paths["/documents/{id}/pages/{page}/image"].Get
	if image.Parameters[1].Schema.Type != "integer" {
		t.Errorf("page param type: got %s", image.Parameters[1].Schema.Type)
	}

	if body := spec.Paths["/documents/search"].Post.RequestBody; body == nil || !body.Required {
		t.Error("search should declare a required request body")
	}
}

func TestQueryParams(t *testing.T) {
	spec := openapi.NewSpec("Quill API", "1.2.0")
	spec.AddGroups(sessionGroups()...)

	params := spec.Paths["/documents"].Get.Parameters
	if len(params) != 3 {
		t.Fatalf("params: got %d, want 3", len(params))
	}

	tests := []struct {
		name     string
		typ      string
		format   string
		required bool
	}{
		{"page", "integer", "", false},
		{"document_id", "string", "uuid", true},
		{"contract_id", "string", "", false},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params[i]
			if p.Name != tt.name || p.In != "query" {
				t.Fatalf("param %d: %s in %s", i, p.Name, p.In)
			}
			if p.Schema.Type != tt.typ || p.Schema.Format != tt.format || p.Required != tt.required {
				t.Errorf("got type %s format %s required %v", p.Schema.Type, p.Schema.Format, p.Required)
			}
		})
	}
}

func TestServeSpec(t *testing.T) {
	spec := openapi.NewSpec("Quill API", "1.2.0")
	spec.SetDescription("signing")
	spec.AddServer("/api")
	spec.AddGroups(sessionGroups()...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type: got %s", ct)
	}

	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"info"`
		Servers    []struct{ URL string } `json:"servers"`
		Paths      map[string]json.RawMessage
		Components struct {
			Responses map[string]json.RawMessage `json:"responses"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if doc.OpenAPI != "3.1.0" || doc.Info.Title != "Quill API" || doc.Info.Description != "signing" {
		t.Errorf("header fields: %+v", doc)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "/api" {
		t.Errorf("servers: %+v", doc.Servers)
	}
	if _, ok := doc.Paths["/sessions"]; !ok {
		t.Error("missing /sessions path")
	}
	for _, name := range []string{"BadRequest", "Unauthorized", "Forbidden", "NotFound", "Conflict", "UnprocessableEntity", "BadGateway"} {
		if _, ok := doc.Components.Responses[name]; !ok {
			t.Errorf("missing %s response", name)
		}
	}
}

func TestConfig(t *testing.T) {
	t.Setenv("TEST_OPENAPI_TITLE", "Quill (staging)")

	var cfg openapi.Config
	if err := cfg.Finalize(&openapi.ConfigEnv{Title: "TEST_OPENAPI_TITLE"}); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.Title != "Quill (staging)" {
		t.Errorf("title: got %s", cfg.Title)
	}
	if cfg.Description == "" {
		t.Error("description default not applied")
	}

	cfg.Merge(&openapi.Config{Description: "overlay"})
	if cfg.Title != "Quill (staging)" || cfg.Description != "overlay" {
		t.Errorf("merge: %+v", cfg)
	}
}

func TestServeSpecNotModified(t *testing.T) {
	handler := openapi.ServeSpec([]byte(`{"openapi":"3.1.0"}`))

	first := httptest.NewRecorder()
	handler(first, httptest.NewRequest("GET", "/openapi.json", nil))
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing etag")
	}

	tests := []struct {
		name        string
		ifNoneMatch string
		want        int
	}{
		{"matching etag", etag, http.StatusNotModified},
		{"stale etag", `"0000"`, http.StatusOK},
		{"no etag", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/openapi.json", nil)
			if tt.ifNoneMatch != "" {
				req.Header.Set("If-None-Match", tt.ifNoneMatch)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNotModified && rec.Body.Len() != 0 {
				t.Errorf("304 carried a body: %s", rec.Body.String())
			}
		})
	}
}

func TestSpecTagsAndBearerAuth(t *testing.T) {
	spec := openapi.NewSpec("Quill API", "1.2.0")
	spec.AddGroups(sessionGroups()...)
	spec.AddGroups(sessionGroups()...)

	if len(spec.Tags) != 2 || spec.Tags[0].Name != "sessions" || spec.Tags[1].Name != "documents" {
		t.Fatalf("tags: got %+v", spec.Tags)
	}
	if spec.Security != nil || spec.Components.SecuritySchemes != nil {
		t.Fatal("security declared before SetBearerAuth")
	}

	spec.SetBearerAuth()

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc struct {
		Security   []map[string][]string `json:"security"`
		Components struct {
			SecuritySchemes map[string]struct {
				Type   string `json:"type"`
				Scheme string `json:"scheme"`
			} `json:"securitySchemes"`
		} `json:"components"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	scheme, ok := doc.Components.SecuritySchemes["bearer"]
	if !ok || scheme.Type != "http" || scheme.Scheme != "bearer" {
		t.Errorf("security scheme: got %+v", doc.Components.SecuritySchemes)
	}
	if len(doc.Security) != 1 {
		t.Fatalf("security: got %v", doc.Security)
	}
	if _, ok := doc.Security[0]["bearer"]; !ok {
		t.Errorf("security requirement: got %v", doc.Security[0])
	}
}
