package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/assign"
	"github.com/JaimeStill/quill/internal/canvas"
	"github.com/JaimeStill/quill/internal/fields"
	"github.com/JaimeStill/quill/internal/reconcile"
	"github.com/JaimeStill/quill/internal/records"
	"github.com/JaimeStill/quill/internal/signers"
	"github.com/JaimeStill/quill/pkg/auth"
	"github.com/JaimeStill/quill/pkg/lifecycle"
)

type registry struct {
	deps     Deps
	cfg      Config
	basePath string
	logger   *slog.Logger
	clock    func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// New creates the session registry.
func New(deps Deps, cfg Config, logger *slog.Logger, basePath string) System {
	return &registry{
		deps:     deps,
		cfg:      cfg,
		basePath: basePath,
		logger:   logger.With("system", "sessions"),
		clock:    time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (r *registry) Handler() *Handler {
	return NewHandler(r, r.logger, r.cfg.Capture.MaxImageBytes)
}

func (r *registry) Create(ctx context.Context, cmd CreateCommand) (*Session, error) {
	mode, err := reconcile.ParseMode(string(cmd.Mode))
	if err != nil {
		return nil, err
	}

	var supplied []fields.Persisted
	useSupplied := hasRecords(cmd.Records)
	if useSupplied {
		if supplied, err = records.ValidateJSON(cmd.Records); err != nil {
			return nil, err
		}
	}

	doc, err := r.deps.Documents.Find(ctx, cmd.DocumentID)
	if err != nil {
		return nil, err
	}

	op := operatorFrom(ctx, cmd.Operator)
	contractID := cmd.ContractID
	if contractID == "" && doc.ContractID != nil {
		contractID = *doc.ContractID
	}

	s := r.newSession(ctx, cmd, mode, op, contractID)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.load(ctx, s, supplied, useSupplied)

	r.logger.Info("session created",
		"session_id", s.ID,
		"document_id", s.DocumentID,
		"mode", mode,
		"privileged", s.Privileged,
		"state", s.State(),
	)
	return s, nil
}

func (r *registry) newSession(ctx context.Context, cmd CreateCommand, mode reconcile.Mode, op Operator, contractID string) *Session {
	id := uuid.New()
	logger := r.logger.With("session_id", id)
	store := fields.NewStore(logger)
	now := r.clock()

	// Background work outlives the request but keeps its values, so image
	// resolution still acts as the caller.
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s := &Session{
		ID:          id,
		DocumentID:  cmd.DocumentID,
		ContractID:  contractID,
		Mode:        mode,
		Operator:    op,
		Privileged:  privileged(op.Roles, r.cfg.PrivilegedRoles),
		CreatedAt:   now,
		state:       StateLoading,
		touched:     now,
		ctx:         sctx,
		cancel:      cancel,
		store:       store,
		captureOpts: r.cfg.Capture,
		assigner:    assign.New(store, r.deps.Profiles, logger),
		reconciler:  reconcile.New(r.deps.Records, logger),
		resolver:    r.deps.Resolver,
		basePath:    r.basePath,
		clock:       r.clock,
		logger:      logger,
	}

	if s.Privileged {
		switch {
		case cmd.Signers != nil:
			s.directory = signers.NewCache(signers.Static(cmd.Signers))
		case r.deps.Directory != nil:
			s.directory = signers.NewCache(r.deps.Directory)
		}
	}
	return s
}

func (r *registry) load(ctx context.Context, s *Session, supplied []fields.Persisted, useSupplied bool) {
	pages, err := r.deps.Documents.Geometry(ctx, s.DocumentID)
	if err != nil {
		s.fail(fmt.Errorf("load document: %w", err))
		return
	}

	persisted := supplied
	if !useSupplied {
		recs, err := r.deps.Records.List(ctx, s.DocumentID)
		if err != nil {
			s.fail(fmt.Errorf("load records: %w", err))
			return
		}
		persisted = make([]fields.Persisted, len(recs))
		for i, rec := range recs {
			persisted[i] = rec.Persisted
		}
	}

	sizes := make([]canvas.Size, len(pages))
	for i, p := range pages {
		sizes[i] = canvas.Size{Width: p.Width, Height: p.Height}
	}
	s.start(sizes, persisted)
}

func hasRecords(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// operatorFrom prefers the verified caller identity over the request body.
func operatorFrom(ctx context.Context, body Operator) Operator {
	c, ok := auth.FromContext(ctx)
	if !ok {
		return body
	}

	op := Operator{ID: c.Subject, Name: c.Name, Title: c.Title, Roles: c.Roles}
	if op.Name == "" {
		op.Name = body.Name
	}
	if op.Title == "" {
		op.Title = body.Title
	}
	return op
}

func (r *registry) Find(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *registry) Save(ctx context.Context, id uuid.UUID) (reconcile.Submission, error) {
	s, err := r.Find(id)
	if err != nil {
		return reconcile.Submission{}, err
	}

	sub, err := s.Save(ctx)
	if err != nil {
		return reconcile.Submission{}, err
	}

	r.drop(id)
	r.logger.Info("session saved", "session_id", id, "document_id", s.DocumentID)
	return sub, nil
}

func (r *registry) Close(id uuid.UUID) error {
	s, err := r.Find(id)
	if err != nil {
		return err
	}
	if err := s.Close(); err != nil {
		return err
	}
	r.drop(id)
	r.logger.Info("session closed", "session_id", id)
	return nil
}

func (r *registry) drop(id uuid.UUID) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.cfg.IdleTTL)

	r.mu.RLock()
	var idle []*Session
	for _, s := range r.sessions {
		if s.idleSince().Before(cutoff) && s.State() != StateSaving {
			idle = append(idle, s)
		}
	}
	r.mu.RUnlock()

	swept := 0
	for _, s := range idle {
		if err := s.Close(); err != nil {
			continue
		}
		r.drop(s.ID)
		swept++
	}
	if swept > 0 {
		r.logger.Info("idle sessions swept", "count", swept)
	}
	return swept
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *registry) Start(lc *lifecycle.Coordinator) error {
	if r.cfg.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}

	r.logger.Info("starting session sweeper", "interval", r.cfg.SweepInterval, "idle_ttl", r.cfg.IdleTTL)

	lc.Run(func(ctx context.Context) {
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.closeAll()
				return
			case now := <-ticker.C:
				r.Sweep(now)
			}
		}
	})
	return nil
}

func (r *registry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.shutdown()
	}
	r.logger.Info("sessions closed", "count", len(all))
}
