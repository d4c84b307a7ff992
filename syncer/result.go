package syncer

import (
	"fmt"
	"time"
)

// Result is the aggregate outcome of one orchestration pass. It is built
// incrementally during the pass and immutable once the run ends.
type Result struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	Repaired   int `json:"repaired"`
	Total      int `json:"total"`

	// Per-repository outcome reasons keyed by repository name.
	FailedRepos   map[string]string `json:"failed_repos"`
	RepairedRepos map[string]string `json:"repaired_repos"`
	SkippedRepos  map[string]string `json:"skipped_repos"`

	HealthStats map[HealthState]int `json:"health_stats"`

	StartedAt  time.Time     `json:"start_time"`
	FinishedAt time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}

// newResult creates a Result for a pass over total repositories, with
// every bucket initialized so callers never see a nil map.
func newResult(total int) *Result {
	return &Result{
		Total:         total,
		FailedRepos:   make(map[string]string),
		RepairedRepos: make(map[string]string),
		SkippedRepos:  make(map[string]string),
		HealthStats: map[HealthState]int{
			HealthHealthy:         0,
			HealthPartiallyBroken: 0,
			HealthBroken:          0,
			HealthNotExists:       0,
		},
		StartedAt: time.Now(),
	}
}

// finish stamps the end of the pass.
func (r *Result) finish() {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
}

// String returns a one-line summary of the pass.
func (r *Result) String() string {
	return fmt.Sprintf("SyncResult(success=%d, failed=%d, repaired=%d, skipped=%d, duration=%s)",
		r.Successful, r.Failed, r.Repaired, r.Skipped, r.Duration.Round(time.Millisecond))
}
