package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/assign"
	"github.com/JaimeStill/quill/internal/capture"
	"github.com/JaimeStill/quill/internal/documents"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/reconcile"
	"github.com/JaimeStill/quill/internal/records"
	"github.com/JaimeStill/quill/internal/signers"
	"github.com/JaimeStill/quill/pkg/lifecycle"
)

// System defines the public contract for the session registry.
type System interface {
	Handler() *Handler

	// Create loads the document and its persisted fields into a new session.
	// A document that cannot be read yields a session in the failed state.
	Create(ctx context.Context, cmd CreateCommand) (*Session, error)
	Find(id uuid.UUID) (*Session, error)
	// Save submits the session's fields and drops the session on success.
	Save(ctx context.Context, id uuid.UUID) (reconcile.Submission, error)
	Close(id uuid.UUID) error
	// Sweep closes sessions idle since before now minus the idle TTL.
	Sweep(now time.Time) int
	Len() int

	// Start registers the idle sweeper with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// CreateCommand opens a session. Records, when present, replaces the
// persisted field set loaded from the records system and must satisfy the
// record schema. Signers, when present, replaces the remote directory.
type CreateCommand struct {
	DocumentID uuid.UUID        `json:"document_id"`
	Mode       reconcile.Mode   `json:"mode"`
	Operator   Operator         `json:"operator"`
	ContractID string           `json:"contract_id,omitempty"`
	Records    json.RawMessage  `json:"records,omitempty"`
	Signers    []signers.Option `json:"signers,omitempty"`
}

// Documents is the document access a session needs.
type Documents interface {
	Find(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	Geometry(ctx context.Context, id uuid.UUID) ([]documents.Page, error)
}

// Records loads and saves a document's persisted field set.
type Records interface {
	reconcile.Saver
	List(ctx context.Context, documentID uuid.UUID) ([]records.Record, error)
}

// Deps are the collaborators shared by every session. Directory, Profiles and
// Resolver are optional.
type Deps struct {
	Documents Documents
	Records   Records
	Directory signers.Directory
	Profiles  assign.ProfileSaver
	Resolver  fields.ImageResolver
}

// Config holds registry settings.
type Config struct {
	IdleTTL         time.Duration
	SweepInterval   time.Duration
	PrivilegedRoles []string
	Capture         capture.Options
}
