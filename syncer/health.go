package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// HealthState classifies the condition of a local repository copy. It is
// derived fresh on every pass and never persisted.
type HealthState string

const (
	// HealthNotExists means the local path is absent.
	HealthNotExists HealthState = "not_exists"

	// HealthBroken means the path exists but is not a valid working copy,
	// or fewer than healthPassFraction of the probes passed.
	HealthBroken HealthState = "broken"

	// HealthPartiallyBroken means most probes passed but not all.
	HealthPartiallyBroken HealthState = "partially_broken"

	// HealthHealthy means every probe passed.
	HealthHealthy HealthState = "healthy"
)

// String returns the string representation of the HealthState.
func (s HealthState) String() string {
	return string(s)
}

// healthPassFraction is the probe pass rate at or above which a copy is
// classified PartiallyBroken instead of Broken. Tuning constant carried
// over from the original system.
const healthPassFraction = 0.7

// HealthReport is the outcome of one diagnostic pass over a local copy.
type HealthReport struct {
	Name            string
	Path            string
	Exists          bool
	IsGitRepo       bool
	State           HealthState
	Passed          int
	Total           int
	Recommendations []string
}

// NeedsRepair reports whether the copy requires corrective action.
func (r HealthReport) NeedsRepair() bool {
	return r.State != HealthHealthy
}

// HealthInspector runs the fixed battery of local diagnostic probes and
// classifies the repository's condition.
type HealthInspector struct {
	prober Prober
}

// NewHealthInspector creates an inspector backed by the given prober.
func NewHealthInspector(p Prober) *HealthInspector {
	return &HealthInspector{prober: p}
}

// Inspect classifies the local copy at path. Probes run independently so
// the state reflects the count of defects, not just the first one found.
func (h *HealthInspector) Inspect(ctx context.Context, name, path string) HealthReport {
	report := HealthReport{
		Name:  name,
		Path:  path,
		State: HealthNotExists,
	}

	if _, err := os.Stat(path); err != nil {
		report.Recommendations = append(report.Recommendations, "Repository does not exist - needs cloning")
		return report
	}
	report.Exists = true

	if !hasGitMetadata(path) {
		report.State = HealthBroken
		report.Recommendations = append(report.Recommendations, "Not a git repository - needs re-cloning")
		return report
	}
	report.IsGitRepo = true

	probes := []struct {
		name           string
		run            func(context.Context, string) error
		recommendation string
	}{
		{"git_dir", h.prober.ProbeGitDir, "Git directory corrupted"},
		{"git_log", h.prober.ProbeHistory, "Cannot read git history"},
		{"git_remote", h.prober.ProbeRemote, "Remote configuration missing"},
		{"git_status", h.prober.ProbeStatus, "Working tree status not queryable"},
	}

	report.Total = len(probes)
	for _, probe := range probes {
		if err := h.runProbe(ctx, probe.run, path); err != nil {
			report.Recommendations = append(report.Recommendations, probe.recommendation)
			continue
		}
		report.Passed++
	}

	switch {
	case report.Passed == report.Total:
		report.State = HealthHealthy
	case float64(report.Passed)/float64(report.Total) >= healthPassFraction:
		report.State = HealthPartiallyBroken
		report.Recommendations = append(report.Recommendations, "Partially broken - may need repair")
	default:
		report.State = HealthBroken
		report.Recommendations = append(report.Recommendations, "Broken - needs re-cloning")
	}

	return report
}

// runProbe shields the inspection from a misbehaving probe: a panic
// counts as a failed probe rather than aborting the battery.
func (h *HealthInspector) runProbe(ctx context.Context, probe func(context.Context, string) error, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return probe(ctx, path)
}

// hasGitMetadata reports whether path contains a .git entry.
func hasGitMetadata(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}
