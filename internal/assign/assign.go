// Package assign places fields on behalf of signers from the directory. A
// field placed without a captured mark becomes a placeholder awaiting that
// signer; one placed with a mark is pre-signed for them.
package assign

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/quill/internal/canvas"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/signers"
)

// ProfileSaver stores a captured image on a signer's profile.
type ProfileSaver interface {
	SaveProfileImage(ctx context.Context, identityID string, kind fields.Kind, image string) error
}

// Request describes one placement for another signer. A nil Mark means no
// capture was performed.
type Request struct {
	Signer signers.Option
	Kind   fields.Kind
	Anchor canvas.Anchor
	Width  float64
	Mark   *fields.Mark
}

// Assigner creates assigned fields in a store.
type Assigner struct {
	store  *fields.Store
	saver  ProfileSaver
	logger *slog.Logger
}

// New creates an Assigner. saver may be nil, which disables profile saves.
func New(store *fields.Store, saver ProfileSaver, logger *slog.Logger) *Assigner {
	return &Assigner{
		store:  store,
		saver:  saver,
		logger: logger.With("system", "assign"),
	}
}

// Place creates the field described by req and adds it to the store.
func (a *Assigner) Place(ctx context.Context, req Request) (fields.Field, error) {
	role, err := fields.ParseRole(string(req.Signer.Role))
	if err != nil {
		return nil, err
	}

	p := fields.Placement{
		PageNumber: req.Anchor.Page,
		X:          req.Anchor.Position.X,
		Y:          req.Anchor.Position.Y,
		Width:      req.Width,
		Signer: fields.Signer{
			Name:  req.Signer.DisplayName,
			Title: req.Signer.Title,
		},
		Assignment: &fields.Assignment{
			Role:       role,
			IdentityID: req.Signer.ID,
			Label:      req.Signer.Label(),
		},
	}

	var m fields.Mark
	if req.Mark == nil {
		p.Placeholder = true
	} else {
		m = *req.Mark
		p.Delegated = true
	}

	f, err := fields.New(req.Kind, p, m)
	if err != nil {
		return nil, err
	}
	if err := a.store.Add(f); err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "field assigned",
		"field_id", f.Base().ID,
		"kind", f.Kind(),
		"role", role,
		"placeholder", f.Base().Placeholder,
	)

	if req.Mark != nil {
		a.saveProfile(ctx, req.Signer.ID, f.Kind(), m.Image)
	}

	return f, nil
}

// saveProfile never fails placement; errors are logged and dropped.
func (a *Assigner) saveProfile(ctx context.Context, identityID string, kind fields.Kind, image string) {
	if a.saver == nil || identityID == "" || image == "" || kind == fields.KindDate {
		return
	}

	if err := a.saver.SaveProfileImage(ctx, identityID, kind, image); err != nil {
		a.logger.WarnContext(ctx, "profile image save failed",
			"identity_id", identityID,
			"kind", kind,
			"error", err,
		)
	}
}
