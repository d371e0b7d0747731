package github

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// refreshMargin renews installation tokens before GitHub expires them.
const refreshMargin = 2 * time.Minute

// tokenTransport injects a bearer token, re-minting it when it nears expiry.
type tokenTransport struct {
	auth AuthProvider
	repo string
	base http.RoundTripper
	now  func() time.Time

	mu      sync.Mutex
	current *InstallationToken
}

func newTokenTransport(auth AuthProvider, repo string, base http.RoundTripper) *tokenTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &tokenTransport{auth: auth, repo: repo, base: base, now: time.Now}
}

func (t *tokenTransport) token(req *http.Request) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && (t.current.ExpiresAt.IsZero() || t.now().Add(refreshMargin).Before(t.current.ExpiresAt)) {
		return t.current.Token, nil
	}

	tok, err := t.auth.GetInstallationToken(req.Context(), t.repo)
	if err != nil {
		return "", fmt.Errorf("failed to get installation token: %w", err)
	}
	t.current = tok
	return tok.Token, nil
}

// RoundTrip implements http.RoundTripper
func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.token(req)
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+tok)
	return t.base.RoundTrip(clone)
}
