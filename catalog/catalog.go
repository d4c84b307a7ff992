// Package catalog supplies the repository records the sync engine operates
// on. It models the remote catalog entry and implements the paged GitHub
// API client that produces it.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

// maxCatalogPages bounds pagination so a huge account cannot stall a run.
const maxCatalogPages = 10

// Repository is a catalog entry for one remote repository plus the two
// mutable local flags maintained by the sync orchestrator.
type Repository struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	Description   string     `json:"description,omitempty"`
	HTMLURL       string     `json:"html_url"`
	SSHURL        string     `json:"ssh_url,omitempty"`
	CloneURL      string     `json:"clone_url,omitempty"`
	DefaultBranch string     `json:"default_branch"`
	Language      string     `json:"language,omitempty"`
	Size          int64      `json:"size"`
	Private       bool       `json:"private"`
	Fork          bool       `json:"fork"`
	Archived      bool       `json:"archived"`
	PushedAt      *time.Time `json:"pushed_at,omitempty"`

	// LocalExists and NeedsUpdate reflect the state of the local mirror.
	// They are written only by the orchestrator after a successful
	// operation.
	LocalExists bool `json:"local_exists"`
	NeedsUpdate bool `json:"need_update"`
}

// RemoteAddress returns the address used for clone and fetch operations,
// preferring SSH. An empty string means the repository cannot be acquired.
func (r Repository) RemoteAddress() string {
	if r.SSHURL != "" {
		return r.SSHURL
	}
	return r.CloneURL
}

// Account identifies the token owner as reported by the API.
type Account struct {
	Login  string   `json:"login"`
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Scopes []string `json:"-"`
}

// RateLimit reports the core API quota for the current token.
type RateLimit struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
	Reset     int `json:"reset"`
}

// Client is a minimal GitHub REST client scoped to catalog needs:
// listing the token owner's repositories and inspecting the token itself.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint (used by tests and GHE setups).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a catalog client for the given access token.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("catalog: access token is required")
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Repositories fetches every repository visible to the token, following
// pagination up to maxCatalogPages and de-duplicating by ID.
func (c *Client) Repositories(ctx context.Context) ([]Repository, error) {
	var all []Repository
	seen := make(map[int64]bool)

	page := 1
	for {
		params := url.Values{
			"page":        {strconv.Itoa(page)},
			"per_page":    {"100"},
			"sort":        {"updated"},
			"affiliation": {"owner,collaborator,organization_member"},
			"visibility":  {"all"},
		}

		var repos []Repository
		header, err := c.get(ctx, "/user/repos?"+params.Encode(), &repos)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories (page %d): %w", page, err)
		}
		if len(repos) == 0 {
			break
		}

		for _, repo := range repos {
			if seen[repo.ID] {
				continue
			}
			seen[repo.ID] = true
			all = append(all, repo)
		}

		if !strings.Contains(header.Get("Link"), `rel="next"`) {
			break
		}
		page++
		if page > maxCatalogPages {
			break
		}
	}

	return all, nil
}

// Viewer validates the token and returns the account it belongs to.
func (c *Client) Viewer(ctx context.Context) (*Account, error) {
	var account Account
	header, err := c.get(ctx, "/user", &account)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if scopes := header.Get("X-OAuth-Scopes"); scopes != "" {
		account.Scopes = strings.Split(scopes, ", ")
	}
	return &account, nil
}

// RateLimits returns the core API quota for the token.
func (c *Client) RateLimits(ctx context.Context) (*RateLimit, error) {
	var payload struct {
		Resources struct {
			Core RateLimit `json:"core"`
		} `json:"resources"`
	}
	if _, err := c.get(ctx, "/rate_limit", &payload); err != nil {
		return nil, fmt.Errorf("failed to query rate limits: %w", err)
	}
	return &payload.Resources.Core, nil
}

func (c *Client) get(ctx context.Context, path string, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.Header, nil
}
