package fields

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const resolveWorkers = 4

// Persisted is a previously saved field record as delivered by the persistence
// collaborator.
type Persisted struct {
	ID                 string     `json:"id"`
	Type               Kind       `json:"type"`
	PageNumber         int        `json:"page_number"`
	XPercent           float64    `json:"x_percent"`
	YPercent           float64    `json:"y_percent"`
	WidthPercent       float64    `json:"width_percent"`
	HeightPercent      *float64   `json:"height_percent,omitempty"`
	AssignedRole       Role       `json:"assigned_role"`
	AssignedIdentityID *string    `json:"assigned_identity_id,omitempty"`
	Label              *string    `json:"label,omitempty"`
	IsSigned           bool       `json:"is_signed"`
	SignatureURL       *string    `json:"signature_url,omitempty"`
	SignedValue        *string    `json:"signed_value,omitempty"`
	SignedByName       *string    `json:"signed_by_name,omitempty"`
	SignedByTitle      *string    `json:"signed_by_title,omitempty"`
	SignedAt           *time.Time `json:"signed_at,omitempty"`
}

// ImageResolver fetches a remotely stored image and returns it as an inline
// data URI.
type ImageResolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// Hydration tracks one Hydrate call. Fields are in the store as soon as Hydrate
// returns; remote images arrive independently.
type Hydration struct {
	Added     int
	Refreshed int
	Skipped   int
	Invalid   int

	resolved atomic.Int32
	failed   atomic.Int32
	done     chan struct{}
}

// Done is closed once every remote image resolution has finished.
func (h *Hydration) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until every remote image resolution has finished.
func (h *Hydration) Wait() {
	<-h.done
}

// Resolved returns the number of remote images installed so far.
func (h *Hydration) Resolved() int {
	return int(h.resolved.Load())
}

// Failed returns the number of remote images that could not be fetched.
func (h *Hydration) Failed() int {
	return int(h.failed.Load())
}

type resolveJob struct {
	id  string
	url string
}

// FromPersisted converts a persisted record into a field. Unsigned records
// become placeholders assigned to the record's role; signed records become
// delegated marks authored by another party.
func FromPersisted(rec Persisted) (Field, error) {
	p := Placement{
		PersistedID: rec.ID,
		PageNumber:  rec.PageNumber,
		X:           rec.XPercent,
		Y:           rec.YPercent,
		Width:       rec.WidthPercent,
		Assignment: &Assignment{
			Role:       rec.AssignedRole,
			IdentityID: deref(rec.AssignedIdentityID),
			Label:      deref(rec.Label),
		},
		Signer: Signer{
			Name:  deref(rec.SignedByName),
			Title: deref(rec.SignedByTitle),
		},
		Delegated: true,
	}
	if rec.HeightPercent != nil {
		p.Height = *rec.HeightPercent
	}

	var m Mark
	if rec.IsSigned {
		if url := deref(rec.SignatureURL); url != "" {
			if isInline(url) {
				m.Image = url
			} else {
				m.ImageURL = url
			}
		}
		m.Text = deref(rec.SignedValue)
		if rec.Type == KindDate {
			m.Image, m.ImageURL = "", ""
		}
	}

	p.Placeholder = m.Empty()
	return New(rec.Type, p, m)
}

// Hydrate loads persisted records into the store. Records already present
// (matched by persisted id) are refreshed unless the operator has mutated them
// locally, so repeated calls are idempotent. Remote images are resolved in the
// background, each independently; ctx bounds that background work.
func (s *Store) Hydrate(ctx context.Context, records []Persisted, resolver ImageResolver) *Hydration {
	h := &Hydration{done: make(chan struct{})}
	var jobs []resolveJob

	s.mu.Lock()
	for _, rec := range records {
		f, err := FromPersisted(rec)
		if err != nil {
			h.Invalid++
			s.logger.Warn("skipping invalid persisted record", "persisted_id", rec.ID, "error", err)
			continue
		}

		if id, ok := s.findPersisted(rec.ID); ok {
			if s.dirty[id] {
				h.Skipped++
				continue
			}
			f.Base().ID = id
			s.fields[id] = f
			h.Refreshed++
		} else {
			id := f.Base().ID
			s.fields[id] = f
			s.order = append(s.order, id)
			h.Added++
		}

		if m := f.Mark(); m.ImageURL != "" && m.Image == "" {
			jobs = append(jobs, resolveJob{id: f.Base().ID, url: m.ImageURL})
		}
	}
	s.mu.Unlock()

	if resolver == nil || len(jobs) == 0 {
		close(h.done)
		return h
	}

	go s.resolve(ctx, h, jobs, resolver)
	return h
}

func (s *Store) resolve(ctx context.Context, h *Hydration, jobs []resolveJob, resolver ImageResolver) {
	defer close(h.done)

	var g errgroup.Group
	g.SetLimit(resolveWorkers)

	for _, job := range jobs {
		g.Go(func() error {
			if ctx.Err() != nil {
				h.failed.Add(1)
				return nil
			}

			image, err := resolver.Resolve(ctx, job.url)
			if err != nil {
				h.failed.Add(1)
				s.logger.Warn(
					"signature image resolution failed",
					"field_id", job.id,
					"url", job.url,
					"error", err,
				)
				return nil
			}

			if s.resolveImage(job.id, job.url, image) {
				h.resolved.Add(1)
			}
			return nil
		})
	}

	g.Wait()
}

func isInline(url string) bool {
	return strings.HasPrefix(url, "data:")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
