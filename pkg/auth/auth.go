// Package auth verifies OIDC bearer tokens and carries the verified identity
// on the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/quill/pkg/handlers"
)

// Authentication errors.
var (
	ErrMissingToken = errors.New("bearer token required")
	ErrInvalidToken = errors.New("bearer token invalid")
)

// Claims is the verified identity of a caller.
type Claims struct {
	Subject string   `json:"subject"`
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Roles   []string `json:"roles"`

	// Token is the raw bearer token the claims were verified from. It lets
	// server-side calls back into the API act as the same caller.
	Token string `json:"-"`
}

// HasAnyRole reports whether the caller holds at least one of roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(c.Roles, func(r string) bool {
		return slices.Contains(roles, r)
	})
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

type verifier struct {
	token *oidc.IDTokenVerifier
	cfg   Config
}

// New discovers the issuer's provider metadata and returns a Verifier for it.
// It returns nil when verification is disabled.
func New(ctx context.Context, cfg *Config) (Verifier, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	return &verifier{
		token: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		cfg:   *cfg,
	}, nil
}

// NewWithKeySet returns a Verifier that checks signatures against keys
// without provider discovery.
func NewWithKeySet(cfg *Config, keys oidc.KeySet) Verifier {
	return &verifier{
		token: oidc.NewVerifier(cfg.Issuer, keys, &oidc.Config{ClientID: cfg.ClientID}),
		cfg:   *cfg,
	}
}

func (v *verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	tok, err := v.token.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var all map[string]any
	if err := tok.Claims(&all); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return &Claims{
		Subject: tok.Subject,
		Name:    stringClaim(all, v.cfg.NameClaim),
		Title:   stringClaim(all, v.cfg.TitleClaim),
		Roles:   listClaim(all, v.cfg.RoleClaim),
	}, nil
}

func stringClaim(all map[string]any, name string) string {
	s, _ := all[name].(string)
	return s
}

func listClaim(all map[string]any, name string) []string {
	switch v := all[name].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

type claimsKey struct{}

// WithClaims returns a context carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// FromContext returns the verified claims on ctx, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// Middleware rejects requests without a valid bearer token and stores the
// verified claims on the request context. A nil verifier passes every
// request through unchanged.
func Middleware(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("system", "auth")

	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			claims, err := v.Verify(r.Context(), raw)
			if err != nil {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			claims.Token = raw
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
