// Package records is the persistence collaborator for placed fields. It
// stores field records and their signature images, serves those images back
// through a proxy endpoint, and exports a document's field set.
package records

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/documents"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/reconcile"
)

// Record is a persisted field as stored for one document.
type Record struct {
	fields.Persisted
	DocumentID       uuid.UUID `json:"document_id"`
	DocumentFilename string    `json:"document_filename"`
	StorageKey       *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Draft is a record about to be written, with the decoded image that will be
// uploaded for it.
type Draft struct {
	Record
	Image     []byte
	ImageType string
}

// FromSubmission converts a reconciled submission into drafts: self-authored
// fields first, then the delegated set. Fields without a persisted id get a
// fresh one. Signed fields are stamped with now.
func FromSubmission(documentID uuid.UUID, sub reconcile.Submission, now time.Time) ([]Draft, error) {
	all := make([]fields.Field, 0, len(sub.Self)+len(sub.Placeholders))
	all = append(all, sub.Self...)
	all = append(all, sub.Placeholders...)

	drafts := make([]Draft, 0, len(all))
	for _, f := range all {
		d, err := draft(documentID, f, now)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// DocumentStatus reports the document status implied by a field set.
func DocumentStatus(drafts []Draft) string {
	if len(drafts) == 0 {
		return documents.StatusDraft
	}
	for _, d := range drafts {
		if !d.IsSigned {
			return documents.StatusAwaiting
		}
	}
	return documents.StatusSigned
}

func draft(documentID uuid.UUID, f fields.Field, now time.Time) (Draft, error) {
	b := f.Base()
	m := f.Mark()

	id := b.PersistedID
	if id == "" {
		id = uuid.NewString()
	}

	d := Draft{Record: Record{
		DocumentID: documentID,
		Persisted: fields.Persisted{
			ID:           id,
			Type:         f.Kind(),
			PageNumber:   b.PageNumber,
			XPercent:     b.X,
			YPercent:     b.Y,
			WidthPercent: b.Width,
			AssignedRole: fields.RoleFirstParty,
			IsSigned:     b.Signed,
		},
	}}

	if b.Height > 0 {
		h := b.Height
		d.HeightPercent = &h
	}
	if a := b.Assignment; a != nil {
		d.AssignedRole = a.Role
		d.AssignedIdentityID = optional(a.IdentityID)
		d.Label = optional(a.Label)
	}

	if !b.Signed {
		return d, nil
	}

	signedAt := now
	d.SignedAt = &signedAt
	d.SignedByName = optional(b.Signer.Name)
	d.SignedByTitle = optional(b.Signer.Title)
	d.SignedValue = optional(m.Text)

	if f.Kind() != fields.KindDate && m.ImageURL == "" && m.Image != "" {
		data, ct, err := decodeDataURI(m.Image)
		if err != nil {
			return Draft{}, fmt.Errorf("field %s: %w", b.ID, err)
		}
		d.Image, d.ImageType = data, ct
	}
	return d, nil
}

// decodeDataURI splits a base64 data URI into its bytes and media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrInvalidImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidImage
	}
	ct, ok := strings.CutSuffix(meta, ";base64")
	if !ok || !strings.HasPrefix(ct, "image/") {
		return nil, "", ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, "", ErrInvalidImage
	}
	return data, ct, nil
}

func imageExtension(ct string) string {
	switch ct {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
