package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/smartlegionlab/smart-repository-manager-core/catalog"
)

// Options configures an Orchestrator.
type Options struct {
	// Transport performs the corrective git operations. Required.
	Transport Transport

	// Prober runs the local diagnostic probes. Required.
	Prober Prober

	// Inspector backs the staleness decision. Required.
	Inspector RepoInspector

	// Provisioner bootstraps the on-disk layout. Required.
	Provisioner Provisioner

	// Bus receives lifecycle events. Defaults to a fresh bus.
	Bus *Bus

	// MaxRetries bounds base attempts per operation.
	// Defaults to DefaultMaxRetries.
	MaxRetries int

	// Log receives engine diagnostics. Defaults to the standard logger.
	Log logrus.FieldLogger
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.Transport == nil {
		return fmt.Errorf("Transport is required")
	}
	if o.Prober == nil {
		return fmt.Errorf("Prober is required")
	}
	if o.Inspector == nil {
		return fmt.Errorf("Inspector is required")
	}
	if o.Provisioner == nil {
		return fmt.Errorf("Provisioner is required")
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.Bus == nil {
		o.Bus = NewBus()
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
}

// RunOptions selects the behavior of one orchestration pass.
type RunOptions struct {
	// Intent is the requested operation. IntentAuto lets the planner
	// decide per repository.
	Intent Intent

	// AutoRepair enables the one-shot repair escalation on failure.
	AutoRepair bool

	// HealthCheck classifies every repository up front and emits the
	// per-repository and aggregate health events.
	HealthCheck bool
}

// Orchestrator iterates the repository set sequentially, planning and
// executing one corrective operation per repository and folding outcomes
// into an aggregate Result.
type Orchestrator struct {
	opts   Options
	health *HealthInspector
	oracle *StalenessOracle
	retry  *RetryExecutor
}

// New creates an Orchestrator from the given options.
func New(opts Options) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(fmt.Errorf("invalid options: %w", err), "failed to create orchestrator")
	}
	opts.applyDefaults()

	health := NewHealthInspector(opts.Prober)
	repair := NewRepairStrategy(opts.Transport, health)

	return &Orchestrator{
		opts:   opts,
		health: health,
		oracle: NewStalenessOracle(opts.Inspector),
		retry:  NewRetryExecutor(opts.MaxRetries, opts.Transport, opts.Prober, repair, opts.Bus),
	}, nil
}

// Bus returns the event bus observers register on.
func (o *Orchestrator) Bus() *Bus {
	return o.opts.Bus
}

// Run executes one orchestration pass over the repositories owned by
// ownerID. Repositories are processed strictly one at a time in input
// order; cancellation is honored between repositories. Run returns the
// aggregate result together with an updated copy of the repository set —
// the caller's slice is never mutated.
func (o *Orchestrator) Run(ctx context.Context, ownerID string, repos []catalog.Repository, run RunOptions) (*Result, []catalog.Repository) {
	if run.Intent == "" {
		run.Intent = IntentAuto
	}

	result := newResult(len(repos))
	updated := make([]catalog.Repository, len(repos))
	copy(updated, repos)

	bus := o.opts.Bus
	log := o.opts.Log

	bus.Publish(SyncStarted{Owner: ownerID, Total: result.Total, Intent: run.Intent})

	paths, err := o.opts.Provisioner.EnsureLayout(ownerID)
	reposRoot := ""
	if err == nil {
		reposRoot = paths[LayoutRepositories]
	}
	if err != nil || reposRoot == "" {
		// No per-repository work is meaningful without the layout.
		log.WithField("owner", ownerID).WithError(err).Error("directory layout bootstrap failed")
		result.Failed = result.Total
		for _, repo := range repos {
			result.FailedRepos[repo.Name] = "Directory layout bootstrap failed"
		}
		result.finish()
		bus.Publish(SyncFinished{Result: result})
		return result, updated
	}

	healthReports := make(map[string]HealthReport)
	if run.HealthCheck {
		for _, repo := range repos {
			report := o.health.Inspect(ctx, repo.Name, filepath.Join(reposRoot, repo.Name))
			healthReports[repo.Name] = report
			result.HealthStats[report.State]++
			bus.Publish(HealthChecked{Name: repo.Name, State: report.State})
		}
		bus.Publish(HealthCheckCompleted{Histogram: histogramCopy(result.HealthStats)})
	}

	cancelled := false
	for i := range updated {
		repo := updated[i]

		if cancelled || ctx.Err() != nil {
			cancelled = true
			result.Skipped++
			result.SkippedRepos[repo.Name] = "Cancelled"
			bus.Publish(RepoSkipped{Name: repo.Name, Reason: "Cancelled"})
			continue
		}

		if repo.RemoteAddress() == "" {
			result.Failed++
			result.FailedRepos[repo.Name] = "No remote address"
			bus.Publish(RepoFailed{Name: repo.Name, Reason: "No remote address"})
			continue
		}

		bus.Publish(RepoStarted{Name: repo.Name, Index: i, Total: result.Total})

		path := filepath.Join(reposRoot, repo.Name)

		report, ok := healthReports[repo.Name]
		if !ok {
			report = o.health.Inspect(ctx, repo.Name, path)
		}

		metadataPresent := hasGitMetadata(path)
		stale := false
		if run.Intent == IntentAuto && report.State == HealthHealthy && metadataPresent && repo.PushedAt != nil {
			stale = o.oracle.NeedsUpdate(ctx, path, repo.RemoteAddress(), *repo.PushedAt)
		}

		op := PlanOperation(run.Intent, report.State, metadataPresent, stale)
		log.WithFields(logrus.Fields{
			"repo":      repo.Name,
			"health":    report.State,
			"operation": op,
		}).Debug("planned operation")

		if op == OperationSkip {
			result.Skipped++
			result.SkippedRepos[repo.Name] = "Already up to date"
			bus.Publish(RepoSkipped{Name: repo.Name, Reason: "Already up to date"})
			continue
		}

		outcome := o.retry.Execute(ctx, op, repo.Name, repo.RemoteAddress(), path, run.AutoRepair)

		if outcome.Success {
			updated[i].NeedsUpdate = false
			updated[i].LocalExists = true

			detail := fmt.Sprintf("%s (attempts: %d)", outcome.Message, outcome.Attempts)
			if isRepairedMessage(outcome.Message) {
				result.Repaired++
				result.RepairedRepos[repo.Name] = detail
				bus.Publish(RepoRepaired{Name: repo.Name, Message: outcome.Message, Attempts: outcome.Attempts})
			} else {
				result.Successful++
				bus.Publish(RepoCompleted{Name: repo.Name, Message: outcome.Message, Attempts: outcome.Attempts})
			}
			continue
		}

		result.Failed++
		result.FailedRepos[repo.Name] = fmt.Sprintf("%s (attempts: %d)", outcome.Message, outcome.Attempts)
		bus.Publish(RepoFailed{Name: repo.Name, Reason: outcome.Message, Attempts: outcome.Attempts})
	}

	result.finish()
	bus.Publish(SyncFinished{Result: result})
	return result, updated
}

// RunOne synchronizes a single repository and returns its outcome along
// with the updated record.
func (o *Orchestrator) RunOne(ctx context.Context, ownerID string, repo catalog.Repository, run RunOptions) (Outcome, catalog.Repository) {
	if run.Intent == "" {
		run.Intent = IntentAuto
	}

	if repo.RemoteAddress() == "" {
		return Outcome{Message: ErrNoRemoteAddress.Error()}, repo
	}

	paths, err := o.opts.Provisioner.EnsureLayout(ownerID)
	if err != nil || paths[LayoutRepositories] == "" {
		return Outcome{Message: "Directory layout bootstrap failed"}, repo
	}

	path := filepath.Join(paths[LayoutRepositories], repo.Name)
	report := o.health.Inspect(ctx, repo.Name, path)

	metadataPresent := hasGitMetadata(path)
	stale := false
	if run.Intent == IntentAuto && report.State == HealthHealthy && metadataPresent && repo.PushedAt != nil {
		stale = o.oracle.NeedsUpdate(ctx, path, repo.RemoteAddress(), *repo.PushedAt)
	}

	op := PlanOperation(run.Intent, report.State, metadataPresent, stale)
	if op == OperationSkip {
		return Outcome{Success: true, Message: "Already up to date"}, repo
	}

	outcome := o.retry.Execute(ctx, op, repo.Name, repo.RemoteAddress(), path, run.AutoRepair)
	if outcome.Success {
		repo.NeedsUpdate = false
		repo.LocalExists = true
	}
	return outcome, repo
}

// isRepairedMessage reports whether a success message indicates that a
// repair or re-clone occurred rather than a plain clone or pull.
func isRepairedMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "repaired") ||
		strings.Contains(lower, "re-cloned") ||
		strings.Contains(lower, "fixed")
}

func histogramCopy(stats map[HealthState]int) map[HealthState]int {
	out := make(map[HealthState]int, len(stats))
	for k, v := range stats {
		out[k] = v
	}
	return out
}
