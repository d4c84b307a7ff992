package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// DefaultMaxRetries is the default number of base attempts per operation.
const DefaultMaxRetries = 3

// backoffCap bounds the exponential delay between attempts.
const backoffCap = 10 * time.Second

// Outcome is the transient result of executing one planned operation,
// including the escalation if it fired.
type Outcome struct {
	Success  bool
	Message  string
	Attempts int
}

// RetryExecutor executes a planned operation with bounded retries,
// exponential backoff, and a one-shot auto-repair escalation.
type RetryExecutor struct {
	maxRetries int
	transport  Transport
	prober     Prober
	repair     *RepairStrategy
	bus        *Bus
	sleep      func(time.Duration)
	cleanup    func(string) error
}

// NewRetryExecutor creates an executor with the given attempt budget.
func NewRetryExecutor(maxRetries int, t Transport, p Prober, r *RepairStrategy, bus *Bus) *RetryExecutor {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryExecutor{
		maxRetries: maxRetries,
		transport:  t,
		prober:     p,
		repair:     r,
		bus:        bus,
		sleep:      time.Sleep,
		cleanup:    os.RemoveAll,
	}
}

// Execute runs op for the named repository. Total attempts reported
// never exceed maxRetries base attempts plus one repair escalation.
func (e *RetryExecutor) Execute(ctx context.Context, op OperationType, name, remoteURL, path string, autoRepair bool) Outcome {
	var lastErr error

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		e.bus.Publish(OperationAttempt{Name: name, Operation: op, Attempt: attempt})

		message, err := e.runOperation(ctx, op, remoteURL, path)
		if err == nil {
			return Outcome{Success: true, Message: message, Attempts: attempt}
		}
		lastErr = err

		if errors.Is(err, context.Canceled) {
			// The run was interrupted; neither the escalation nor another
			// attempt may proceed.
			break
		}

		if autoRepair && op != OperationRepair {
			e.bus.Publish(AutoRepairTriggered{Name: name})
			if ok, repairMessage := e.repair.Repair(ctx, remoteURL, path); ok {
				return Outcome{Success: true, Message: "Auto-repaired: " + repairMessage, Attempts: attempt + 1}
			} else {
				lastErr = errors.New(repairMessage)
			}
		} else if isStructural(err) {
			// Without the escalation, retrying the same operation against
			// broken metadata cannot help.
			break
		}

		if attempt < e.maxRetries {
			e.sleep(backoff(attempt))
		}
	}

	final := WrapErrorf(ErrExhaustedRetries, "failed after %d attempts: %s", e.maxRetries, lastErr)
	return Outcome{Success: false, Message: final.Error(), Attempts: e.maxRetries}
}

// runOperation performs one attempt of the planned operation, returning
// a success message or an error from the engine taxonomy.
func (e *RetryExecutor) runOperation(ctx context.Context, op OperationType, remoteURL, path string) (string, error) {
	switch op {
	case OperationClone:
		return e.executeClone(ctx, remoteURL, path)
	case OperationPull:
		return e.executePull(ctx, path)
	case OperationRepair:
		ok, message := e.repair.Repair(ctx, remoteURL, path)
		if !ok {
			return "", errors.New(message)
		}
		return message, nil
	default:
		return "", fmt.Errorf("unknown operation: %s", op)
	}
}

func (e *RetryExecutor) executeClone(ctx context.Context, remoteURL, path string) (string, error) {
	res := e.transport.Acquire(ctx, remoteURL, path)
	if !res.Success {
		return "", res.Err()
	}
	if !e.quickVerify(ctx, path) {
		_ = e.cleanup(path)
		return "", WrapError(ErrCorruptedRepository, "clone succeeded but repository is unhealthy")
	}
	return "Cloned successfully", nil
}

func (e *RetryExecutor) executePull(ctx context.Context, path string) (string, error) {
	if !e.quickVerify(ctx, path) {
		return "", WrapError(ErrCorruptedRepository, "repository is unhealthy, cannot pull")
	}
	res := e.transport.Refresh(ctx, path)
	if !res.Success {
		return "", res.Err()
	}
	if !e.quickVerify(ctx, path) {
		return "", WrapError(ErrCorruptedRepository, "pull succeeded but repository became unhealthy")
	}
	return "Updated successfully", nil
}

// quickVerify is the cheap two-probe check used around operations, as
// opposed to the full four-probe health classification.
func (e *RetryExecutor) quickVerify(ctx context.Context, path string) bool {
	if e.prober.ProbeGitDir(ctx, path) != nil {
		return false
	}
	return e.prober.ProbeHistory(ctx, path) == nil
}

// isStructural reports whether retrying the same operation is pointless.
func isStructural(err error) bool {
	return errors.Is(err, ErrNotARepository) || errors.Is(err, ErrCorruptedRepository)
}

// backoff returns min(2^attempt, 10) seconds.
func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > backoffCap {
		return backoffCap
	}
	return d
}
