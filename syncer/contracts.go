package syncer

import (
	"context"
	"strings"
	"time"
)

// CommandResult is the outcome of one git command invocation as reported
// by the transport. On failure the transport guarantees that a partially
// written target path has been removed; on timeout it guarantees the
// underlying process tree has been terminated.
type CommandResult struct {
	Success   bool
	Output    string
	ErrorText string
	TimedOut  bool
	Cancelled bool
}

// Err maps a failed CommandResult onto the engine's error taxonomy.
// Returns nil for successful results. Failure text that matches no
// known marker is presumed transient and classified ErrCommandFailed;
// a cancelled invocation maps to context.Canceled, not the timeout
// sentinel.
func (r CommandResult) Err() error {
	if r.Success {
		return nil
	}
	text := strings.TrimSpace(r.ErrorText)
	if text == "" {
		text = "command failed"
	}
	if r.Cancelled {
		return WrapError(context.Canceled, text)
	}
	if r.TimedOut {
		return WrapError(ErrOperationTimeout, text)
	}
	lower := strings.ToLower(text)
	for _, marker := range []string{
		"could not resolve host",
		"connection refused",
		"connection timed out",
		"permission denied",
		"could not read from remote",
		"network is unreachable",
	} {
		if strings.Contains(lower, marker) {
			return WrapError(ErrRemoteUnreachable, text)
		}
	}
	return WrapError(ErrCommandFailed, text)
}

// Transport performs the corrective git operations. Implementations
// invoke the version-control tool as an opaque command and surface only
// exit status and short text.
type Transport interface {
	// Acquire clones remoteURL into targetPath, replacing whatever was
	// there. A clone that completes but fails verification must be
	// removed and reported as failure.
	Acquire(ctx context.Context, remoteURL, targetPath string) CommandResult

	// Refresh pulls the current branch of the repository at targetPath
	// from its origin.
	Refresh(ctx context.Context, targetPath string) CommandResult

	// FetchAll fetches all remote refs for the repository at targetPath.
	FetchAll(ctx context.Context, targetPath string) CommandResult

	// ResetHard hard-resets the working copy at targetPath to ref.
	ResetHard(ctx context.Context, targetPath, ref string) CommandResult
}

// Prober runs the individual local diagnostic probes. Each returns nil
// when the probe passes. Probes are independent: one failing must not
// affect the others.
type Prober interface {
	ProbeGitDir(ctx context.Context, path string) error
	ProbeHistory(ctx context.Context, path string) error
	ProbeRemote(ctx context.Context, path string) error
	ProbeStatus(ctx context.Context, path string) error
}

// RepoInspector reads repository state without invoking external
// commands. It backs the staleness decision.
type RepoInspector interface {
	// HeadCommitTime returns the committer timestamp of the local HEAD
	// commit in UTC.
	HeadCommitTime(path string) (time.Time, error)

	// HeadHash returns the hash of the local HEAD commit.
	HeadHash(path string) (string, error)

	// RemoteHead returns the hash of the remote's current head reference.
	RemoteHead(ctx context.Context, remoteURL string) (string, error)
}

// Provisioner bootstraps the on-disk directory structure for an owner.
// The returned mapping must include LayoutRepositories.
type Provisioner interface {
	EnsureLayout(ownerID string) (map[string]string, error)
}

// LayoutRepositories is the key of the repositories root in the mapping
// returned by a Provisioner.
const LayoutRepositories = "repositories"
