package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
)

// ClientConfig describes how to reach the GitHub API
type ClientConfig struct {
	Auth AuthProvider
	// Repo is "owner/repo"; installation tokens are scoped to it.
	Repo string
	// APIURL overrides the public API base URL.
	APIURL  string
	Timeout time.Duration
}

// NewClient builds a go-github client whose requests carry a fresh token.
func NewClient(cfg ClientConfig) (*gh.Client, error) {
	if cfg.Auth == nil {
		return nil, fmt.Errorf("github auth provider is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Transport: newTokenTransport(cfg.Auth, cfg.Repo, nil),
		Timeout:   timeout,
	}
	client := gh.NewClient(httpClient)

	if cfg.APIURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", cfg.APIURL, err)
		}
		client.BaseURL = base
		client.UploadURL = base
	}
	return client, nil
}

// ResolveLogin returns the login of the authenticated user.
// Installation tokens cannot call this endpoint; configure the bot login instead.
func ResolveLogin(ctx context.Context, client *gh.Client) (string, error) {
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to resolve bot login: %w", err)
	}
	login := user.GetLogin()
	if login == "" {
		return "", fmt.Errorf("authenticated user has no login")
	}
	return login, nil
}
