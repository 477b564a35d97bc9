// Package signers provides the signer directory offered when an operator
// places a field for someone else.
package signers

import (
	"context"
	"slices"

	"github.com/JaimeStill/quill/internal/fields"
)

// Option is a read-only directory entry.
type Option struct {
	ID                string      `json:"id"`
	Role              fields.Role `json:"role"`
	DisplayName       string      `json:"display_name"`
	Title             string      `json:"title"`
	HasSavedSignature bool        `json:"has_saved_signature"`
	HasSavedInitials  bool        `json:"has_saved_initials"`
}

// Label returns the text shown on a placeholder assigned to o.
func (o Option) Label() string {
	if o.Title == "" {
		return o.DisplayName
	}
	return o.DisplayName + " (" + o.Title + ")"
}

// Query scopes a directory listing.
type Query struct {
	ContractID string
}

// Key identifies the listing a query produces.
func (q Query) Key() string {
	return q.ContractID
}

// Directory lists the signers available to a session.
type Directory interface {
	List(ctx context.Context, q Query) ([]Option, error)
}

// Static is a directory supplied directly by the caller.
type Static []Option

// List returns a copy of the static options.
func (s Static) List(ctx context.Context, q Query) ([]Option, error) {
	return slices.Clone(s), nil
}

// Find returns the option with the given id.
func Find(opts []Option, id string) (Option, error) {
	i := slices.IndexFunc(opts, func(o Option) bool { return o.ID == id })
	if i < 0 {
		return Option{}, ErrNotFound
	}
	return opts[i], nil
}
