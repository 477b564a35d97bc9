package records

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"

	"github.com/JaimeStill/quill/pkg/auth"
)

const maxResolvedImage = 8 << 20

// HTTPResolver fetches stored signature images through the image proxy and
// returns them as inline data URIs. Relative URLs, such as the proxy path,
// resolve against the configured base URL; absolute URLs must share its
// origin. When the context carries verified claims the caller's bearer token
// is forwarded to the proxy.
type HTTPResolver struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPResolver creates a resolver for images served under baseURL.
func NewHTTPResolver(baseURL string, timeout time.Duration) (*HTTPResolver, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse image base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("image base url %q must be absolute", baseURL)
	}

	r := &HTTPResolver{base: base}
	r.client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !r.sameOrigin(req.URL) {
				return fmt.Errorf("redirect to %s leaves the image proxy", req.URL.Redacted())
			}
			if len(via) >= 5 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			return nil
		},
	}
	return r, nil
}

func (r *HTTPResolver) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, r.base.Scheme) && strings.EqualFold(u.Host, r.base.Host)
}

// Resolve implements fields.ImageResolver.
func (r *HTTPResolver) Resolve(ctx context.Context, raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolveFailed, err)
	}
	target := r.base.ResolveReference(ref)
	if !r.sameOrigin(target) {
		return "", fmt.Errorf("%w: %w: %s", ErrResolveFailed, ErrForeignImage, target.Redacted())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolveFailed, err)
	}
	if c, ok := auth.FromContext(ctx); ok && c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolveFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %d", ErrResolveFailed, target, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResolvedImage+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolveFailed, err)
	}
	if len(data) > maxResolvedImage {
		return "", fmt.Errorf("%w: image exceeds %d bytes", ErrResolveFailed, maxResolvedImage)
	}

	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: %s is not an image", ErrResolveFailed, ct)
	}

	if ct == "image/png" {
		return encoding.EncodeImageDataURI(data, document.PNG)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
