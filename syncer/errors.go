// Package syncer implements the repository synchronization engine: the
// local-health diagnostic, the staleness decision, the operation planner,
// the retry/repair escalation loop, and the orchestrator tying them
// together. All errors can be checked with errors.Is().
package syncer

import (
	"errors"
	"fmt"
)

// ErrNotARepository is returned when a path exists but carries no valid
// version-control metadata.
var ErrNotARepository = errors.New("not a git repository")

// ErrCorruptedRepository is returned when metadata is present but the
// diagnostic probes fail.
var ErrCorruptedRepository = errors.New("repository is corrupted")

// ErrOperationTimeout is returned when a git command exceeded its
// wall-clock deadline and its process group was terminated.
var ErrOperationTimeout = errors.New("operation timed out")

// ErrRemoteUnreachable is returned when the remote cannot be reached
// (network, DNS, or authentication failure surfaced by the transport).
var ErrRemoteUnreachable = errors.New("remote unreachable")

// ErrCommandFailed is returned for command failures that match no more
// specific classification. Truncated transfers and transient server
// errors land here, so it is always retried.
var ErrCommandFailed = errors.New("command failed")

// ErrNoRemoteAddress is returned when a repository record lacks a clone
// address. It is never retried.
var ErrNoRemoteAddress = errors.New("no remote address")

// ErrExhaustedRetries is returned after all attempts and the one-shot
// repair escalation have failed.
var ErrExhaustedRetries = errors.New("exhausted retries")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while
// preserving the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
