package api

import (
	"fmt"

	"github.com/JaimeStill/quill/internal/config"
	"github.com/JaimeStill/quill/internal/documents"
	"github.com/JaimeStill/quill/internal/records"
	"github.com/JaimeStill/quill/internal/sessions"
	"github.com/JaimeStill/quill/internal/signers"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Records   records.System
	Sessions  sessions.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	docsSystem := documents.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	recordsSystem := records.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.BasePath,
	)

	resolver, err := records.NewHTTPResolver(
		cfg.Records.ImageBaseURL,
		cfg.Records.ResolveTimeoutDuration(),
	)
	if err != nil {
		return nil, fmt.Errorf("records resolver: %w", err)
	}

	deps := sessions.Deps{
		Documents: docsSystem,
		Records:   recordsSystem,
		Resolver:  resolver,
	}
	if cfg.Signers.Enabled() {
		client := signers.NewClient(cfg.Signers.BaseURL, cfg.Signers.TimeoutDuration(), runtime.Logger)
		deps.Directory = client
		deps.Profiles = client
	}

	sessionsSystem := sessions.New(
		deps,
		sessions.Config{
			IdleTTL:         cfg.Sessions.IdleTTLDuration(),
			SweepInterval:   cfg.Sessions.SweepIntervalDuration(),
			PrivilegedRoles: cfg.Sessions.PrivilegedRoles,
			Capture:         cfg.Capture.Options(),
		},
		runtime.Logger,
		runtime.BasePath,
	)

	return &Domain{
		Documents: docsSystem,
		Records:   recordsSystem,
		Sessions:  sessionsSystem,
	}, nil
}
