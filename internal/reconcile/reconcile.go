// Package reconcile partitions a session's final field set, validates it for
// the session's operating mode, and hands the result to the persistence
// collaborator.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/quill/internal/fields"
)

// Mode is the operating mode a session saves under.
type Mode string

// Operating modes.
const (
	ModeSign     Mode = "sign"
	ModeSetup    Mode = "setup"
	ModeCombined Mode = "combined"
)

// ParseMode validates s as an operating mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeSign, ModeSetup, ModeCombined:
		return m, nil
	}
	return "", ErrInvalidMode
}

// Operator is the person saving the session.
type Operator struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (o Operator) complete() bool {
	return strings.TrimSpace(o.Name) != "" && strings.TrimSpace(o.Title) != ""
}

// Partition is a field set split by authorship.
type Partition struct {
	Self         []fields.Field
	Placeholders []fields.Field
	PreSigned    []fields.Field
}

// Delegated returns the unsigned placeholders followed by the pre-signed fields.
func (p Partition) Delegated() []fields.Field {
	out := make([]fields.Field, 0, len(p.Placeholders)+len(p.PreSigned))
	out = append(out, p.Placeholders...)
	return append(out, p.PreSigned...)
}

// Split partitions fs. Fields that fit no group carry no payload and are
// not placeholders; they are dropped.
func Split(fs []fields.Field) Partition {
	var p Partition
	for _, f := range fs {
		b := f.Base()
		switch {
		case b.Placeholder && !b.Signed:
			p.Placeholders = append(p.Placeholders, f)
		case b.Delegated && b.Signed:
			p.PreSigned = append(p.PreSigned, f)
		case !b.Placeholder && !b.Delegated && !f.Mark().Empty():
			p.Self = append(p.Self, f)
		}
	}
	return p
}

// Validate checks p against the requirements of mode.
func Validate(mode Mode, p Partition, op Operator) error {
	self := len(p.Self) > 0
	delegated := len(p.Placeholders)+len(p.PreSigned) > 0

	switch mode {
	case ModeSign:
		if !self {
			return ErrNoSelfFields
		}
	case ModeSetup:
		if !delegated {
			return ErrNoPlaceholders
		}
	case ModeCombined:
		if !self && !delegated {
			return ErrNothingToSave
		}
	default:
		return ErrInvalidMode
	}

	if self && !op.complete() {
		return ErrOperatorIdentity
	}
	return nil
}

// Submission is the single hand-off to the persistence collaborator.
type Submission struct {
	DocumentID     string
	OperatorName   string
	OperatorTitle  string
	SignatureImage string
	InitialsImage  string
	Self           []fields.Field
	Placeholders   []fields.Field
}

// Saver persists a submission. A returned error rejects the whole save.
type Saver interface {
	Save(ctx context.Context, s Submission) error
}

// Request is one save attempt.
type Request struct {
	DocumentID string
	Mode       Mode
	Operator   Operator
	Fields     []fields.Field
}

// Reconciler validates requests and invokes the saver.
type Reconciler struct {
	saver  Saver
	logger *slog.Logger
}

// New creates a Reconciler.
func New(saver Saver, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		saver:  saver,
		logger: logger.With("system", "reconcile"),
	}
}

// Build validates req and assembles its submission without saving it.
func Build(req Request) (Submission, error) {
	p := Split(req.Fields)
	if err := Validate(req.Mode, p, req.Operator); err != nil {
		return Submission{}, err
	}

	s := Submission{
		DocumentID:    req.DocumentID,
		OperatorName:  strings.TrimSpace(req.Operator.Name),
		OperatorTitle: strings.TrimSpace(req.Operator.Title),
		Placeholders:  p.Delegated(),
	}

	for _, f := range p.Self {
		f = f.Clone()
		b := f.Base()
		if b.Signer.Name == "" {
			b.Signer = fields.Signer{Name: s.OperatorName, Title: s.OperatorTitle}
		}
		s.Self = append(s.Self, f)

		img := f.Mark().Image
		switch f.Kind() {
		case fields.KindSignature:
			if s.SignatureImage == "" {
				s.SignatureImage = img
			}
		case fields.KindInitials:
			if s.InitialsImage == "" {
				s.InitialsImage = img
			}
		}
	}

	return s, nil
}

// Submit validates req and, only when it is valid, invokes the saver.
func (r *Reconciler) Submit(ctx context.Context, req Request) (Submission, error) {
	s, err := Build(req)
	if err != nil {
		r.logger.InfoContext(ctx, "save blocked by validation",
			"document_id", req.DocumentID,
			"mode", req.Mode,
			"error", err,
		)
		return Submission{}, err
	}

	if err := r.saver.Save(ctx, s); err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrSaveRejected, err)
	}

	r.logger.InfoContext(ctx, "submission saved",
		"document_id", req.DocumentID,
		"self", len(s.Self),
		"placeholders", len(s.Placeholders),
	)
	return s, nil
}
