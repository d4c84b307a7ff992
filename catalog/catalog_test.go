package catalog_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartlegionlab/smart-repository-manager-core/catalog"
)

func TestNewClientRequiresToken(t *testing.T) {
	_, err := catalog.NewClient("  ")
	require.Error(t, err)
}

func TestRemoteAddressPrefersSSH(t *testing.T) {
	repo := catalog.Repository{SSHURL: "git@host:org/a.git", CloneURL: "https://host/org/a.git"}
	assert.Equal(t, "git@host:org/a.git", repo.RemoteAddress())

	repo.SSHURL = ""
	assert.Equal(t, "https://host/org/a.git", repo.RemoteAddress())

	repo.CloneURL = ""
	assert.Empty(t, repo.RemoteAddress())
}

func TestRepositoriesPaginatesAndDeduplicates(t *testing.T) {
	pushed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/repos", r.URL.Path)
		require.Equal(t, "token test-token", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("page") {
		case "1":
			w.Header().Set("Link", `<next>; rel="next"`)
			fmt.Fprintf(w, `[
				{"id": 1, "name": "alpha", "ssh_url": "git@host:o/alpha.git", "pushed_at": %q},
				{"id": 2, "name": "beta", "ssh_url": "git@host:o/beta.git"}
			]`, pushed.Format(time.RFC3339))
		case "2":
			// ID 2 appears twice; the duplicate must be dropped.
			fmt.Fprint(w, `[
				{"id": 2, "name": "beta", "ssh_url": "git@host:o/beta.git"},
				{"id": 3, "name": "gamma", "clone_url": "https://host/o/gamma.git"}
			]`)
		default:
			t.Fatalf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	client, err := catalog.NewClient("test-token", catalog.WithBaseURL(srv.URL))
	require.NoError(t, err)

	repos, err := client.Repositories(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 3)

	assert.Equal(t, "alpha", repos[0].Name)
	require.NotNil(t, repos[0].PushedAt)
	assert.True(t, repos[0].PushedAt.Equal(pushed))
	assert.Nil(t, repos[1].PushedAt)
	assert.Equal(t, "https://host/o/gamma.git", repos[2].RemoteAddress())
}

func TestRepositoriesStopsWithoutNextLink(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `[{"id": 1, "name": "solo"}]`)
	}))
	defer srv.Close()

	client, err := catalog.NewClient("tok", catalog.WithBaseURL(srv.URL))
	require.NoError(t, err)

	repos, err := client.Repositories(context.Background())
	require.NoError(t, err)
	assert.Len(t, repos, 1)
	assert.Equal(t, 1, calls)
}

func TestRepositoriesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := catalog.NewClient("bad", catalog.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Repositories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestViewerReturnsAccountAndScopes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		w.Header().Set("X-OAuth-Scopes", "repo, read:org")
		fmt.Fprint(w, `{"login": "octocat", "name": "The Octocat"}`)
	}))
	defer srv.Close()

	client, err := catalog.NewClient("tok", catalog.WithBaseURL(srv.URL))
	require.NoError(t, err)

	account, err := client.Viewer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", account.Login)
	assert.Equal(t, []string{"repo", "read:org"}, account.Scopes)
}

func TestRateLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rate_limit", r.URL.Path)
		fmt.Fprint(w, `{"resources": {"core": {"limit": 5000, "remaining": 4321, "reset": 1700000000}}}`)
	}))
	defer srv.Close()

	client, err := catalog.NewClient("tok", catalog.WithBaseURL(srv.URL))
	require.NoError(t, err)

	rl, err := client.RateLimits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5000, rl.Limit)
	assert.Equal(t, 4321, rl.Remaining)
}
