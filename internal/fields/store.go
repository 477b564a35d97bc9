package fields

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/JaimeStill/quill/internal/geometry"
)

// Patch carries a partial update. Nil members are left unchanged.
// Mark is the only way to sign a field and is applied at most once.
type Patch struct {
	PageNumber *int
	Position   *geometry.Position
	Width      *float64
	Mark       *Mark
	Signer     *Signer
	Delegated  *bool
}

// Store is the ordered collection of a session's placed fields.
// Reads return clones, so callers never alias stored state.
type Store struct {
	mu     sync.RWMutex
	order  []string
	fields map[string]Field
	dirty  map[string]bool
	logger *slog.Logger
}

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		fields: make(map[string]Field),
		dirty:  make(map[string]bool),
		logger: logger.With("system", "fields"),
	}
}

// Add appends f to the store.
func (s *Store) Add(f Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := f.Base().ID
	if _, ok := s.fields[id]; ok {
		return ErrDuplicate
	}

	s.fields[id] = f.Clone()
	s.order = append(s.order, id)
	s.dirty[id] = true
	return nil
}

// Remove deletes the field with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fields[id]; !ok {
		return ErrNotFound
	}

	delete(s.fields, id)
	delete(s.dirty, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// Update applies p to the field with the given id and returns the result.
// The update is all-or-nothing: a rejected payload leaves the field untouched.
func (s *Store) Update(id string, p Patch) (Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.fields[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := current.Clone()
	base := next.Base()

	if p.PageNumber != nil {
		if *p.PageNumber < 1 {
			return nil, ErrInvalidPage
		}
		base.PageNumber = *p.PageNumber
	}
	if p.Position != nil {
		base.X = geometry.ClampCoord(p.Position.X)
		base.Y = geometry.ClampCoord(p.Position.Y)
	}
	if p.Width != nil {
		base.Width = geometry.ClampWidth(*p.Width)
	}
	if p.Signer != nil {
		base.Signer = *p.Signer
	}
	if p.Delegated != nil {
		base.Delegated = *p.Delegated
	}
	if p.Mark != nil {
		if !p.Mark.Visible() {
			return nil, ErrEmptyPayload
		}
		if err := sign(next, *p.Mark); err != nil {
			return nil, err
		}
	}

	s.fields[id] = next
	s.dirty[id] = true
	return next.Clone(), nil
}

// Get returns a clone of the field with the given id.
func (s *Store) Get(id string) (Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fields[id]
	if !ok {
		return nil, ErrNotFound
	}
	return f.Clone(), nil
}

// List returns clones of every field in insertion order.
func (s *Store) List() []Field {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Field, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.fields[id].Clone())
	}
	return out
}

// Page returns clones of the fields placed on the given page.
func (s *Store) Page(number int) []Field {
	return slices.DeleteFunc(s.List(), func(f Field) bool {
		return f.Base().PageNumber != number
	})
}

// Len returns the number of fields.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) findPersisted(persistedID string) (string, bool) {
	for _, id := range s.order {
		if s.fields[id].Base().PersistedID == persistedID {
			return id, true
		}
	}
	return "", false
}

// resolveImage installs a resolved remote image. It is not an operator
// mutation, so the field stays eligible for refresh by later hydrations.
func (s *Store) resolveImage(id, url, image string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.fields[id]
	if !ok {
		return false
	}

	m := f.Mark()
	if m.ImageURL != url || m.Image != "" {
		return false
	}

	m.Image = image
	switch v := f.(type) {
	case *SignatureField:
		v.Payload = m
	case *InitialsField:
		v.Payload = m
	default:
		return false
	}
	return true
}
