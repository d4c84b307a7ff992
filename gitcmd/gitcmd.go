// Package gitcmd is the command-execution facade for the sync engine.
// It drives the git tool as an opaque command, inspecting it only through
// exit codes and short text probes, and implements the engine's Transport
// and Prober contracts.
package gitcmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smartlegionlab/smart-repository-manager-core/executor"
	"github.com/smartlegionlab/smart-repository-manager-core/syncer"
)

const (
	// DefaultTimeout bounds clone and pull invocations.
	DefaultTimeout = 30 * time.Second

	// DefaultProbeTimeout bounds the short diagnostic probes.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultRepairTimeout bounds the fetch and reset used by repair.
	DefaultRepairTimeout = 10 * time.Second
)

// fallbackBranch is pulled when the current branch cannot be detected.
const fallbackBranch = "master"

// Options configures the git facade.
type Options struct {
	// Timeout is the wall-clock deadline for clone and pull.
	Timeout time.Duration

	// ProbeTimeout is the deadline for each diagnostic probe.
	ProbeTimeout time.Duration

	// RepairTimeout is the deadline for fetch and reset operations.
	RepairTimeout time.Duration
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithTimeout sets the clone/pull deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithProbeTimeout sets the per-probe deadline.
func WithProbeTimeout(d time.Duration) Option {
	return func(o *Options) { o.ProbeTimeout = d }
}

// WithRepairTimeout sets the fetch/reset deadline.
func WithRepairTimeout(d time.Duration) Option {
	return func(o *Options) { o.RepairTimeout = d }
}

// Git invokes the git tool for the corrective operations and the local
// diagnostic probes.
type Git struct {
	runner  *executor.Runner
	options Options
}

// New creates a git facade.
func New(opts ...Option) *Git {
	options := Options{
		Timeout:       DefaultTimeout,
		ProbeTimeout:  DefaultProbeTimeout,
		RepairTimeout: DefaultRepairTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Git{
		runner:  executor.New("git", executor.WithTimeout(options.Timeout)),
		options: options,
	}
}

// Acquire clones remoteURL into targetPath. Whatever occupied the path
// before is discarded, and any failure — command error, timeout, or a
// clone that fails verification — leaves the path removed.
func (g *Git) Acquire(ctx context.Context, remoteURL, targetPath string) syncer.CommandResult {
	if err := os.RemoveAll(targetPath); err != nil {
		return syncer.CommandResult{ErrorText: fmt.Sprintf("failed to clear target path: %v", err)}
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return syncer.CommandResult{ErrorText: fmt.Sprintf("failed to create parent directory: %v", err)}
	}

	res, err := g.runner.Run(ctx, []string{"clone", remoteURL, targetPath})
	if err != nil {
		_ = os.RemoveAll(targetPath)
		return mapResult(res, err)
	}

	if verifyErr := g.verify(ctx, targetPath); verifyErr != nil {
		_ = os.RemoveAll(targetPath)
		return syncer.CommandResult{ErrorText: "clone succeeded but repository is unhealthy"}
	}
	return mapResult(res, nil)
}

// Refresh pulls the current branch of the repository at targetPath from
// origin, detecting the branch first and falling back to master.
func (g *Git) Refresh(ctx context.Context, targetPath string) syncer.CommandResult {
	if _, err := os.Stat(filepath.Join(targetPath, ".git")); err != nil {
		return syncer.CommandResult{ErrorText: "not a git repository"}
	}

	branch := g.currentBranch(ctx, targetPath)

	res, err := g.runner.Run(ctx, []string{"-C", targetPath, "pull", "origin", branch})
	if err != nil {
		return mapResult(res, err)
	}
	if verifyErr := g.verify(ctx, targetPath); verifyErr != nil {
		return syncer.CommandResult{ErrorText: "pull succeeded but repository is unhealthy"}
	}
	return mapResult(res, nil)
}

// FetchAll fetches all remote refs for the repository at targetPath.
func (g *Git) FetchAll(ctx context.Context, targetPath string) syncer.CommandResult {
	res, err := g.runner.Run(ctx, []string{"-C", targetPath, "fetch", "--all"},
		executor.WithTimeout(g.options.RepairTimeout))
	return mapResult(res, err)
}

// ResetHard hard-resets the working copy at targetPath to ref.
func (g *Git) ResetHard(ctx context.Context, targetPath, ref string) syncer.CommandResult {
	res, err := g.runner.Run(ctx, []string{"-C", targetPath, "reset", "--hard", ref},
		executor.WithTimeout(g.options.RepairTimeout))
	return mapResult(res, err)
}

// ProbeGitDir checks that the metadata directory is readable.
func (g *Git) ProbeGitDir(ctx context.Context, path string) error {
	return g.probe(ctx, path, "rev-parse", "--git-dir")
}

// ProbeHistory checks that at least one history entry is readable.
func (g *Git) ProbeHistory(ctx context.Context, path string) error {
	return g.probe(ctx, path, "log", "--oneline", "-1")
}

// ProbeRemote checks that a remote is configured. git exits zero even
// with no remotes, so empty output counts as a failure.
func (g *Git) ProbeRemote(ctx context.Context, path string) error {
	res, err := g.runner.Run(ctx, []string{"-C", path, "remote", "-v"},
		executor.WithTimeout(g.options.ProbeTimeout))
	if err != nil {
		return probeError(res, err)
	}
	if strings.TrimSpace(res.Stdout) == "" {
		return fmt.Errorf("no remote configured")
	}
	return nil
}

// ProbeStatus checks that the working-tree status is queryable.
func (g *Git) ProbeStatus(ctx context.Context, path string) error {
	return g.probe(ctx, path, "status", "--porcelain")
}

func (g *Git) probe(ctx context.Context, path string, args ...string) error {
	res, err := g.runner.Run(ctx, append([]string{"-C", path}, args...),
		executor.WithTimeout(g.options.ProbeTimeout))
	if err != nil {
		return probeError(res, err)
	}
	return nil
}

// verify is the post-operation sanity check: metadata readable and at
// least one history entry present.
func (g *Git) verify(ctx context.Context, path string) error {
	if err := g.ProbeGitDir(ctx, path); err != nil {
		return err
	}
	return g.ProbeHistory(ctx, path)
}

func (g *Git) currentBranch(ctx context.Context, path string) string {
	res, err := g.runner.Run(ctx, []string{"-C", path, "rev-parse", "--abbrev-ref", "HEAD"},
		executor.WithTimeout(g.options.ProbeTimeout))
	if err != nil {
		return fallbackBranch
	}
	branch := strings.TrimSpace(res.Stdout)
	if branch == "" {
		return fallbackBranch
	}
	return branch
}

func mapResult(res *executor.Result, err error) syncer.CommandResult {
	out := syncer.CommandResult{Success: err == nil}
	if res == nil {
		if err != nil {
			out.ErrorText = err.Error()
		}
		return out
	}
	out.Output = res.Stdout
	out.TimedOut = res.TimedOut
	out.Cancelled = res.Cancelled
	if err != nil {
		out.ErrorText = strings.TrimSpace(res.Stderr)
		if out.ErrorText == "" {
			out.ErrorText = err.Error()
		}
	}
	return out
}

func probeError(res *executor.Result, err error) error {
	if res != nil && strings.TrimSpace(res.Stderr) != "" {
		return fmt.Errorf("%s", strings.TrimSpace(res.Stderr))
	}
	return err
}
