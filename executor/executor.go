// Package executor runs external commands with output capture, a hard
// wall-clock deadline, and whole-process-group termination on timeout.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	// DefaultTimeout bounds a single command invocation.
	DefaultTimeout = 30 * time.Second

	// DefaultGraceWindow is how long a process group is given to exit
	// after SIGTERM before it is killed.
	DefaultGraceWindow = 5 * time.Second
)

// Result holds the output and status of one command invocation. TimedOut
// reports that the command's own deadline expired; Cancelled reports that
// the caller's context ended first. The two are never both set.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	TimedOut  bool
	Cancelled bool
}

// Options configures command execution behavior.
type Options struct {
	// Timeout is the wall-clock deadline for the command. On expiry the
	// entire process group is terminated. Zero means DefaultTimeout.
	Timeout time.Duration

	// GraceWindow is the delay between SIGTERM and SIGKILL when the
	// deadline expires. Zero means DefaultGraceWindow.
	GraceWindow time.Duration

	// WorkingDir is the directory the command runs in.
	WorkingDir string

	// Env holds environment variables appended to the current env.
	Env map[string]string
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithTimeout sets the wall-clock deadline for the command.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithGraceWindow sets the SIGTERM-to-SIGKILL grace window.
func WithGraceWindow(d time.Duration) Option {
	return func(o *Options) {
		o.GraceWindow = d
	}
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// Runner executes a single program with per-call arguments. It is the
// command-execution facade consumed by the git transport.
type Runner struct {
	program string
	options Options
}

// New creates a Runner bound to the given program.
func New(program string, opts ...Option) *Runner {
	r := &Runner{program: program}
	for _, opt := range opts {
		opt(&r.options)
	}
	if r.options.Timeout == 0 {
		r.options.Timeout = DefaultTimeout
	}
	if r.options.GraceWindow == 0 {
		r.options.GraceWindow = DefaultGraceWindow
	}
	return r
}

// Run executes the program with the given arguments. Per-call options
// override the Runner's defaults. The returned Result is non-nil even on
// failure; err reports a non-zero exit, a timeout, or a start failure.
func (r *Runner) Run(ctx context.Context, args []string, opts ...Option) (*Result, error) {
	options := r.options
	for _, opt := range opts {
		opt(&options)
	}

	cmd := exec.Command(r.program, args...)
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}
	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	// Place the child in its own process group so a timeout can reap the
	// whole tree, including anything git spawns (ssh, hooks, pagers).
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return &Result{ExitCode: -1, Stderr: err.Error()}, fmt.Errorf("failed to start %s: %w", r.program, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(options.Timeout)
	defer timer.Stop()

	var waitErr error
	timedOut := false
	cancelled := false

	select {
	case waitErr = <-done:
	case <-ctx.Done():
		terminateGroup(cmd.Process.Pid, options.GraceWindow, done)
		cancelled = true
		waitErr = ctx.Err()
	case <-timer.C:
		terminateGroup(cmd.Process.Pid, options.GraceWindow, done)
		timedOut = true
		waitErr = fmt.Errorf("timeout after %s", options.Timeout)
	}

	result := &Result{
		Stdout:    stdoutBuf.String(),
		Stderr:    stderrBuf.String(),
		TimedOut:  timedOut,
		Cancelled: cancelled,
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		result.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}

	if waitErr != nil {
		return result, fmt.Errorf("%s execution failed: %w", r.program, waitErr)
	}
	return result, nil
}

// terminateGroup sends SIGTERM to the process group and escalates to
// SIGKILL if it has not exited within the grace window.
func terminateGroup(pid int, grace time.Duration, done <-chan error) {
	_ = syscall.Kill(-pid, syscall.SIGTERM)

	graceTimer := time.NewTimer(grace)
	defer graceTimer.Stop()

	select {
	case <-done:
	case <-graceTimer.C:
		_ = syscall.Kill(-pid, syscall.SIGKILL)
		<-done
	}
}
