package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport records calls and delegates to per-method hooks. Unset
// hooks succeed.
type fakeTransport struct {
	acquire   func(ctx context.Context, remoteURL, targetPath string) CommandResult
	refresh   func(ctx context.Context, targetPath string) CommandResult
	fetchAll  func(ctx context.Context, targetPath string) CommandResult
	resetHard func(ctx context.Context, targetPath, ref string) CommandResult

	calls []string
}

func (t *fakeTransport) Acquire(ctx context.Context, remoteURL, targetPath string) CommandResult {
	t.calls = append(t.calls, "acquire")
	if t.acquire != nil {
		return t.acquire(ctx, remoteURL, targetPath)
	}
	return CommandResult{Success: true}
}

func (t *fakeTransport) Refresh(ctx context.Context, targetPath string) CommandResult {
	t.calls = append(t.calls, "refresh")
	if t.refresh != nil {
		return t.refresh(ctx, targetPath)
	}
	return CommandResult{Success: true}
}

func (t *fakeTransport) FetchAll(ctx context.Context, targetPath string) CommandResult {
	t.calls = append(t.calls, "fetch")
	if t.fetchAll != nil {
		return t.fetchAll(ctx, targetPath)
	}
	return CommandResult{Success: true}
}

func (t *fakeTransport) ResetHard(ctx context.Context, targetPath, ref string) CommandResult {
	t.calls = append(t.calls, "reset")
	if t.resetHard != nil {
		return t.resetHard(ctx, targetPath, ref)
	}
	return CommandResult{Success: true}
}

func (t *fakeTransport) callCount(name string) int {
	n := 0
	for _, c := range t.calls {
		if c == name {
			n++
		}
	}
	return n
}

// fakeProber delegates to per-probe hooks. Unset hooks pass.
type fakeProber struct {
	gitDir  func(ctx context.Context, path string) error
	history func(ctx context.Context, path string) error
	remote  func(ctx context.Context, path string) error
	status  func(ctx context.Context, path string) error
}

func runHook(hook func(ctx context.Context, path string) error, ctx context.Context, path string) error {
	if hook == nil {
		return nil
	}
	return hook(ctx, path)
}

func (p *fakeProber) ProbeGitDir(ctx context.Context, path string) error {
	return runHook(p.gitDir, ctx, path)
}

func (p *fakeProber) ProbeHistory(ctx context.Context, path string) error {
	return runHook(p.history, ctx, path)
}

func (p *fakeProber) ProbeRemote(ctx context.Context, path string) error {
	return runHook(p.remote, ctx, path)
}

func (p *fakeProber) ProbeStatus(ctx context.Context, path string) error {
	return runHook(p.status, ctx, path)
}

// fakeInspector returns canned local and remote head facts.
type fakeInspector struct {
	headTime    time.Time
	headTimeErr error

	headHash    string
	headHashErr error

	remoteHead    string
	remoteHeadErr error
}

func (i *fakeInspector) HeadCommitTime(string) (time.Time, error) {
	return i.headTime, i.headTimeErr
}

func (i *fakeInspector) HeadHash(string) (string, error) {
	return i.headHash, i.headHashErr
}

func (i *fakeInspector) RemoteHead(context.Context, string) (string, error) {
	return i.remoteHead, i.remoteHeadErr
}

// fakeProvisioner returns a fixed layout mapping.
type fakeProvisioner struct {
	paths map[string]string
	err   error
}

func (p *fakeProvisioner) EnsureLayout(string) (map[string]string, error) {
	return p.paths, p.err
}

// makeRepoDir creates root/name/.git and returns root/name.
func makeRepoDir(t *testing.T, root, name string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Join(path, ".git"), 0o755))
	return path
}
