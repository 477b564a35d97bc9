package signers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/quill/internal/fields"
)

// Client assembles the directory from the remote signer endpoints and saves
// captured images to signer profiles.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a directory client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("system", "signers"),
	}
}

// List fetches administrative signers, the counterparty of q.ContractID, and
// third-party signers concurrently, and merges them in that order. Entries
// repeated across endpoints are kept once.
func (c *Client) List(ctx context.Context, q Query) ([]Option, error) {
	var admin, counterparty, third []Option

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var raw []json.RawMessage
		if err := c.get(gctx, "/signers/admin", &raw); err != nil {
			return err
		}
		admin = c.options(gctx, "/signers/admin", raw, fields.RoleFirstParty)
		return nil
	})

	if q.ContractID != "" {
		g.Go(func() error {
			path := "/contracts/" + url.PathEscape(q.ContractID) + "/counterparty"
			var raw json.RawMessage
			found, err := c.getOptional(gctx, path, &raw)
			if err != nil || !found {
				return err
			}
			counterparty = c.options(gctx, path, []json.RawMessage{raw}, fields.RoleCounterparty)
			return nil
		})
	}

	g.Go(func() error {
		var raw []json.RawMessage
		if err := c.get(gctx, "/signers/third-party", &raw); err != nil {
			return err
		}
		third = c.options(gctx, "/signers/third-party", raw, fields.RoleThirdParty)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	merged := merge(admin, counterparty, third)

	c.logger.DebugContext(ctx, "directory loaded",
		"contract_id", q.ContractID,
		"count", len(merged),
	)

	return merged, nil
}

// SaveProfileImage stores a captured image on the signer's profile so later
// sessions can reuse it.
func (c *Client) SaveProfileImage(ctx context.Context, identityID string, kind fields.Kind, image string) error {
	body, err := json.Marshal(map[string]string{"image": image})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/signers/%s/profile/%s", c.baseURL, url.PathEscape(identityID), kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("profile save returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	found, err := c.getOptional(ctx, path, out)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s returned 404", path)
	}
	return nil
}

func (c *Client) getOptional(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// options decodes directory entries one at a time. An entry that does not
// decode is logged and skipped so it cannot hide the rest of the listing;
// entries without a role take the endpoint's role.
func (c *Client) options(ctx context.Context, path string, raw []json.RawMessage, role fields.Role) []Option {
	out := make([]Option, 0, len(raw))
	for i, entry := range raw {
		var o Option
		if err := json.Unmarshal(entry, &o); err != nil {
			c.logger.WarnContext(ctx, "skipping directory entry",
				"endpoint", path,
				"index", i,
				"error", err,
			)
			continue
		}
		if o.Role == "" {
			o.Role = role
		}
		out = append(out, o)
	}
	return out
}

func merge(groups ...[]Option) []Option {
	seen := make(map[string]bool)
	var out []Option
	for _, g := range groups {
		for _, o := range g {
			if o.ID == "" || seen[o.ID] {
				continue
			}
			seen[o.ID] = true
			out = append(out, o)
		}
	}
	return out
}
