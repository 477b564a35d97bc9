package fields_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/geometry"
)

func newStore() *fields.Store {
	return fields.NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ptr[T any](v T) *T {
	return &v
}

func mustField(t *testing.T, kind fields.Kind, p fields.Placement, m fields.Mark) fields.Field {
	t.Helper()
	f, err := fields.New(kind, p, m)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestNew(t *testing.T) {
	t.Run("self-authored initials from typed text", func(t *testing.T) {
		f := mustField(t, fields.KindInitials,
			fields.Placement{PageNumber: 1, X: 50, Y: 8.33},
			fields.Mark{Text: "AB", Image: "data:image/png;base64,AAAA"},
		)

		b := f.Base()
		if f.Kind() != fields.KindInitials {
			t.Errorf("kind = %s, want initials", f.Kind())
		}
		if b.Placeholder {
			t.Error("placeholder = true, want false")
		}
		if !b.Signed {
			t.Error("signed = false, want true")
		}
		if f.Mark().Text != "AB" {
			t.Errorf("text = %q, want AB", f.Mark().Text)
		}
		if b.ID == "" {
			t.Error("expected generated id")
		}
		if b.Width != fields.DefaultWidth(fields.KindInitials) {
			t.Errorf("width = %v, want default", b.Width)
		}
	})

	t.Run("placeholder without payload", func(t *testing.T) {
		f := mustField(t, fields.KindSignature,
			fields.Placement{
				PageNumber:  2,
				X:           40,
				Y:           60,
				Placeholder: true,
				Assignment:  &fields.Assignment{Role: fields.RoleCounterparty, Label: "Jane Doe"},
			},
			fields.Mark{},
		)

		b := f.Base()
		if !b.Placeholder || b.Signed {
			t.Errorf("placeholder=%v signed=%v, want true/false", b.Placeholder, b.Signed)
		}
		if b.Height != fields.DefaultHeight(fields.KindSignature) {
			t.Errorf("height = %v, want default", b.Height)
		}
		if !fields.AwaitingSignature(f) {
			t.Error("expected awaiting signature")
		}
	})

	t.Run("clamps position and width", func(t *testing.T) {
		f := mustField(t, fields.KindSignature,
			fields.Placement{PageNumber: 1, X: -10, Y: 120, Width: 90},
			fields.Mark{Image: "data:image/png;base64,AAAA"},
		)
		b := f.Base()
		if b.X != geometry.MinCoord || b.Y != geometry.MaxCoord || b.Width != geometry.MaxWidth {
			t.Errorf("got x=%v y=%v width=%v", b.X, b.Y, b.Width)
		}
	})

	errorTests := []struct {
		name string
		kind fields.Kind
		p    fields.Placement
		m    fields.Mark
		want error
	}{
		{
			name: "non-placeholder without payload",
			kind: fields.KindSignature,
			p:    fields.Placement{PageNumber: 1, X: 50, Y: 50},
			want: fields.ErrEmptyPayload,
		},
		{
			name: "placeholder without role",
			kind: fields.KindSignature,
			p:    fields.Placement{PageNumber: 1, Placeholder: true},
			want: fields.ErrMissingRole,
		},
		{
			name: "invalid page",
			kind: fields.KindSignature,
			p:    fields.Placement{PageNumber: 0},
			m:    fields.Mark{Text: "x"},
			want: fields.ErrInvalidPage,
		},
		{
			name: "date with image",
			kind: fields.KindDate,
			p:    fields.Placement{PageNumber: 1},
			m:    fields.Mark{Image: "data:image/png;base64,AAAA"},
			want: fields.ErrPayloadKind,
		},
		{
			name: "unknown kind",
			kind: fields.Kind("stamp"),
			p:    fields.Placement{PageNumber: 1},
			m:    fields.Mark{Text: "x"},
			want: fields.ErrInvalidKind,
		},
		{
			name: "unknown role",
			kind: fields.KindSignature,
			p: fields.Placement{
				PageNumber:  1,
				Placeholder: true,
				Assignment:  &fields.Assignment{Role: "witness"},
			},
			want: fields.ErrInvalidRole,
		},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fields.New(tt.kind, tt.p, tt.m)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStoreAddRemove(t *testing.T) {
	s := newStore()
	a := mustField(t, fields.KindDate, fields.Placement{PageNumber: 1, X: 20, Y: 20}, fields.Mark{Text: "01/02/2026"})
	b := mustField(t, fields.KindDate, fields.Placement{PageNumber: 2, X: 30, Y: 30}, fields.Mark{Text: "01/02/2026"})

	if err := s.Add(a); err != nil {
		t.Fatalf("Add(a) error = %v", err)
	}
	if err := s.Add(b); err != nil {
		t.Fatalf("Add(b) error = %v", err)
	}
	if err := s.Add(a); !errors.Is(err, fields.ErrDuplicate) {
		t.Errorf("Add(a) again error = %v, want ErrDuplicate", err)
	}

	list := s.List()
	if len(list) != 2 || list[0].Base().ID != a.Base().ID || list[1].Base().ID != b.Base().ID {
		t.Fatalf("List() order wrong: %v", fields.ToViews(list))
	}

	if got := s.Page(2); len(got) != 1 || got[0].Base().ID != b.Base().ID {
		t.Errorf("Page(2) = %v", fields.ToViews(got))
	}

	if err := s.Remove(a.Base().ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := s.Remove(a.Base().ID); !errors.Is(err, fields.ErrNotFound) {
		t.Errorf("Remove() again error = %v, want ErrNotFound", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreReturnsClones(t *testing.T) {
	s := newStore()
	f := mustField(t, fields.KindSignature, fields.Placement{PageNumber: 1, X: 50, Y: 50}, fields.Mark{Text: "Jo"})
	if err := s.Add(f); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Get(f.Base().ID)
	got.Base().X = 90
	got.Base().Signed = false

	again, _ := s.Get(f.Base().ID)
	if again.Base().X != 50 || !again.Base().Signed {
		t.Errorf("stored field was mutated through a returned clone: %+v", fields.ToView(again))
	}
}

func TestStoreUpdate(t *testing.T) {
	s := newStore()
	placeholder := mustField(t, fields.KindSignature,
		fields.Placement{
			PageNumber:  1,
			X:           50,
			Y:           50,
			Placeholder: true,
			Assignment:  &fields.Assignment{Role: fields.RoleThirdParty},
		},
		fields.Mark{},
	)
	if err := s.Add(placeholder); err != nil {
		t.Fatal(err)
	}
	id := placeholder.Base().ID

	t.Run("moves and clamps", func(t *testing.T) {
		got, err := s.Update(id, fields.Patch{
			PageNumber: ptr(3),
			Position:   &geometry.Position{X: 99, Y: 1},
			Width:      ptr(80.0),
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		b := got.Base()
		if b.PageNumber != 3 || b.X != 95 || b.Y != 5 || b.Width != 50 {
			t.Errorf("got %+v", fields.ToView(got))
		}
	})

	t.Run("empty mark is rejected and leaves field unsigned", func(t *testing.T) {
		_, err := s.Update(id, fields.Patch{Mark: &fields.Mark{}, Width: ptr(10.0)})
		if !errors.Is(err, fields.ErrEmptyPayload) {
			t.Fatalf("error = %v, want ErrEmptyPayload", err)
		}
		got, _ := s.Get(id)
		if got.Base().Signed || got.Base().Width != 50 {
			t.Errorf("rejected update leaked: %+v", fields.ToView(got))
		}
	})

	t.Run("signing is monotonic", func(t *testing.T) {
		got, err := s.Update(id, fields.Patch{Mark: &fields.Mark{Image: "data:image/png;base64,AAAA"}})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if !got.Base().Signed || got.Base().Placeholder {
			t.Errorf("signed=%v placeholder=%v", got.Base().Signed, got.Base().Placeholder)
		}

		_, err = s.Update(id, fields.Patch{Mark: &fields.Mark{Text: "again"}})
		if !errors.Is(err, fields.ErrAlreadySigned) {
			t.Errorf("second sign error = %v, want ErrAlreadySigned", err)
		}

		for range 3 {
			got, err = s.Update(id, fields.Patch{Position: &geometry.Position{X: 30, Y: 30}})
			if err != nil {
				t.Fatal(err)
			}
			if !got.Base().Signed {
				t.Fatal("signed reverted to false")
			}
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := s.Update("missing", fields.Patch{}); !errors.Is(err, fields.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestRoleJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    fields.Role
		wantErr bool
	}{
		{"known role", `"counterparty"`, fields.RoleCounterparty, false},
		{"empty role", `""`, "", false},
		{"unknown role", `"notary"`, "", true},
		{"not a string", `7`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r fields.Role
			err := json.Unmarshal([]byte(tt.data), &r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if r != tt.want {
				t.Errorf("role = %q, want %q", r, tt.want)
			}
		})
	}

	var zero fields.Role
	data, err := json.Marshal(zero)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &zero); err != nil {
		t.Errorf("zero role does not round-trip: %v", err)
	}
}
