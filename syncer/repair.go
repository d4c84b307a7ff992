package syncer

import (
	"context"
	"os"
)

// remoteDefaultRef is the reference the in-place fix resets to.
const remoteDefaultRef = "origin/HEAD"

// repairState drives the repair state machine. The flow is
// Diagnosing -> Fixing -> Verifying -> (done | Reacquiring ->
// VerifyingClone -> done).
type repairState int

const (
	repairDiagnosing repairState = iota
	repairFixing
	repairVerifying
	repairReacquiring
	repairVerifyingClone
)

// RepairStrategy restores a broken local copy: an in-place fix first
// (fetch all refs, hard-reset to the remote default branch head), then a
// full discard-and-reacquire fallback. Every failure path removes the
// target so a partial fragment is never left on disk.
type RepairStrategy struct {
	transport Transport
	health    *HealthInspector
	cleanup   func(string) error
}

// NewRepairStrategy creates a repair strategy over the given transport
// and health inspector.
func NewRepairStrategy(t Transport, h *HealthInspector) *RepairStrategy {
	return &RepairStrategy{
		transport: t,
		health:    h,
		cleanup:   os.RemoveAll,
	}
}

// Repair attempts to bring the copy at path back to health. The returned
// message indicates which phase succeeded ("fixed with fetch and reset"
// or "Re-cloned successfully") or why repair failed.
func (s *RepairStrategy) Repair(ctx context.Context, remoteURL, path string) (bool, string) {
	state := repairDiagnosing

	for {
		switch state {
		case repairDiagnosing:
			// No usable metadata means the in-place fix is inapplicable.
			if _, err := os.Stat(path); err != nil || !hasGitMetadata(path) {
				state = repairReacquiring
				continue
			}
			state = repairFixing

		case repairFixing:
			// Fetch failures are tolerated here; the hard reset against
			// whatever refs exist decides the outcome in verification.
			s.transport.FetchAll(ctx, path)
			s.transport.ResetHard(ctx, path, remoteDefaultRef)
			state = repairVerifying

		case repairVerifying:
			if s.verify(ctx, path) {
				return true, "Fixed: fixed with fetch and reset"
			}
			state = repairReacquiring

		case repairReacquiring:
			_ = s.cleanup(path)
			res := s.transport.Acquire(ctx, remoteURL, path)
			if !res.Success {
				_ = s.cleanup(path)
				return false, "Re-clone failed: " + res.Err().Error()
			}
			state = repairVerifyingClone

		case repairVerifyingClone:
			if s.verify(ctx, path) {
				return true, "Re-cloned successfully"
			}
			_ = s.cleanup(path)
			return false, "Re-cloned but repository is still unhealthy"
		}
	}
}

func (s *RepairStrategy) verify(ctx context.Context, path string) bool {
	return s.health.Inspect(ctx, "", path).State == HealthHealthy
}
