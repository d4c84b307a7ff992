package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartlegionlab/smart-repository-manager-core/catalog"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestOrchestrator(t *testing.T, root string, transport *fakeTransport, prober *fakeProber, inspector *fakeInspector) *Orchestrator {
	t.Helper()

	orch, err := New(Options{
		Transport:   transport,
		Prober:      prober,
		Inspector:   inspector,
		Provisioner: &fakeProvisioner{paths: map[string]string{LayoutRepositories: root}},
		Log:         quietLogger(),
	})
	require.NoError(t, err)
	orch.retry.sleep = func(time.Duration) {}
	return orch
}

func sshRepo(name string) catalog.Repository {
	return catalog.Repository{
		Name:   name,
		SSHURL: "git@host:owner/" + name + ".git",
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestRunMixedFleet(t *testing.T) {
	root := t.TempDir()
	makeRepoDir(t, root, "bar")

	// foo is absent and its remote flakes twice before the clone lands.
	// bar has a broken remote config that fetch-and-reset fixes in place.
	// baz carries no clone address at all.
	fooCalls := 0
	barFixed := false
	transport := &fakeTransport{
		acquire: func(context.Context, string, string) CommandResult {
			fooCalls++
			if fooCalls < 3 {
				return CommandResult{ErrorText: "connection refused"}
			}
			return CommandResult{Success: true}
		},
		resetHard: func(context.Context, string, string) CommandResult {
			barFixed = true
			return CommandResult{Success: true}
		},
	}
	prober := &fakeProber{
		remote: func(_ context.Context, path string) error {
			if barFixed {
				return nil
			}
			return errors.New("remote configuration missing")
		},
	}

	orch := newTestOrchestrator(t, root, transport, prober, &fakeInspector{})

	var kinds []EventKind
	for _, kind := range []EventKind{
		EventSyncStarted, EventHealthCheckCompleted, EventRepoRepaired,
		EventRepoCompleted, EventRepoFailed, EventSyncFinished,
	} {
		k := kind
		orch.Bus().Subscribe(k, func(Event) { kinds = append(kinds, k) })
	}

	repos := []catalog.Repository{sshRepo("foo"), sshRepo("bar"), {Name: "baz"}}
	result, updated := orch.Run(context.Background(), "owner", repos, RunOptions{
		Intent:      IntentAuto,
		HealthCheck: true,
	})

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Repaired)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Skipped)

	assert.Contains(t, result.RepairedRepos["bar"], "Fixed: fixed with fetch and reset")
	assert.Equal(t, "No remote address", result.FailedRepos["baz"])

	assert.Equal(t, 2, result.HealthStats[HealthNotExists])
	assert.Equal(t, 1, result.HealthStats[HealthPartiallyBroken])

	assert.True(t, updated[0].LocalExists)
	assert.False(t, updated[0].NeedsUpdate)
	assert.True(t, updated[1].LocalExists)
	assert.False(t, updated[2].LocalExists)

	assert.Equal(t, []EventKind{
		EventSyncStarted, EventHealthCheckCompleted, EventRepoCompleted,
		EventRepoRepaired, EventRepoFailed, EventSyncFinished,
	}, kinds)

	assert.False(t, result.FinishedAt.IsZero())
	assert.GreaterOrEqual(t, result.Duration, time.Duration(0))
}

func TestRunSecondPassSkipsEverything(t *testing.T) {
	root := t.TempDir()
	makeRepoDir(t, root, "foo")
	makeRepoDir(t, root, "bar")

	transport := &fakeTransport{}
	orch := newTestOrchestrator(t, root, transport, &fakeProber{}, &fakeInspector{})

	repos := []catalog.Repository{sshRepo("foo"), sshRepo("bar")}
	result, _ := orch.Run(context.Background(), "owner", repos, RunOptions{Intent: IntentAuto})

	assert.Equal(t, 2, result.Skipped)
	assert.Zero(t, result.Successful)
	assert.Equal(t, "Already up to date", result.SkippedRepos["foo"])
	assert.Empty(t, transport.calls)
}

func TestRunStaleRepositoryIsPulled(t *testing.T) {
	root := t.TempDir()
	makeRepoDir(t, root, "foo")

	headTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inspector := &fakeInspector{headTime: headTime, headHash: "abc", remoteHead: "def"}
	transport := &fakeTransport{}

	orch := newTestOrchestrator(t, root, transport, &fakeProber{}, inspector)

	repo := sshRepo("foo")
	pushedAt := headTime.Add(time.Hour)
	repo.PushedAt = &pushedAt
	repo.NeedsUpdate = true

	result, updated := orch.Run(context.Background(), "owner", []catalog.Repository{repo}, RunOptions{Intent: IntentAuto})

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, []string{"refresh"}, transport.calls)
	assert.False(t, updated[0].NeedsUpdate)
}

func TestRunExplicitUpdateIntent(t *testing.T) {
	root := t.TempDir()
	makeRepoDir(t, root, "foo")

	transport := &fakeTransport{}
	orch := newTestOrchestrator(t, root, transport, &fakeProber{}, &fakeInspector{})

	result, _ := orch.Run(context.Background(), "owner", []catalog.Repository{sshRepo("foo")}, RunOptions{Intent: IntentUpdate})

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, []string{"refresh"}, transport.calls)
}

func TestRunBootstrapFailureFailsEveryRepository(t *testing.T) {
	orch, err := New(Options{
		Transport:   &fakeTransport{},
		Prober:      &fakeProber{},
		Inspector:   &fakeInspector{},
		Provisioner: &fakeProvisioner{err: errors.New("disk full")},
		Log:         quietLogger(),
	})
	require.NoError(t, err)

	repos := []catalog.Repository{sshRepo("foo"), sshRepo("bar")}
	result, _ := orch.Run(context.Background(), "owner", repos, RunOptions{})

	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, "Directory layout bootstrap failed", result.FailedRepos["foo"])
	assert.Equal(t, "Directory layout bootstrap failed", result.FailedRepos["bar"])
}

func TestRunHonorsCancellation(t *testing.T) {
	orch := newTestOrchestrator(t, t.TempDir(), &fakeTransport{}, &fakeProber{}, &fakeInspector{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repos := []catalog.Repository{sshRepo("foo"), sshRepo("bar")}
	result, _ := orch.Run(ctx, "owner", repos, RunOptions{})

	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, "Cancelled", result.SkippedRepos["foo"])
	assert.Equal(t, "Cancelled", result.SkippedRepos["bar"])
}

func TestRunDoesNotMutateInput(t *testing.T) {
	root := t.TempDir()
	orch := newTestOrchestrator(t, root, &fakeTransport{}, &fakeProber{}, &fakeInspector{})

	repos := []catalog.Repository{sshRepo("foo")}
	_, updated := orch.Run(context.Background(), "owner", repos, RunOptions{Intent: IntentClone})

	assert.False(t, repos[0].LocalExists)
	assert.True(t, updated[0].LocalExists)
}

func TestRunOne(t *testing.T) {
	root := t.TempDir()
	orch := newTestOrchestrator(t, root, &fakeTransport{}, &fakeProber{}, &fakeInspector{})

	outcome, updated := orch.RunOne(context.Background(), "owner", sshRepo("foo"), RunOptions{})

	assert.True(t, outcome.Success)
	assert.Equal(t, "Cloned successfully", outcome.Message)
	assert.True(t, updated.LocalExists)
}

func TestRunOneWithoutRemoteAddress(t *testing.T) {
	orch := newTestOrchestrator(t, t.TempDir(), &fakeTransport{}, &fakeProber{}, &fakeInspector{})

	outcome, _ := orch.RunOne(context.Background(), "owner", catalog.Repository{Name: "foo"}, RunOptions{})

	assert.False(t, outcome.Success)
	assert.Equal(t, ErrNoRemoteAddress.Error(), outcome.Message)
}
