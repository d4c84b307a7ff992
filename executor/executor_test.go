package executor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartlegionlab/smart-repository-manager-core/executor"
)

func TestRunCapturesOutput(t *testing.T) {
	r := executor.New("echo")
	result, err := r.Run(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "hello world")
	assert.False(t, result.TimedOut)
}

func TestRunNonZeroExit(t *testing.T) {
	r := executor.New("sh")
	result, err := r.Run(context.Background(), []string{"-c", "echo oops >&2; exit 3"})
	require.Error(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Stderr, "oops")
	assert.False(t, result.TimedOut)
}

func TestRunMissingProgram(t *testing.T) {
	r := executor.New("definitely-not-a-real-program-xyz")
	result, err := r.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, -1, result.ExitCode)
}

func TestRunTimeoutTerminatesProcessGroup(t *testing.T) {
	r := executor.New("sh", executor.WithTimeout(200*time.Millisecond), executor.WithGraceWindow(time.Second))

	start := time.Now()
	result, err := r.Run(context.Background(), []string{"-c", "sleep 30"})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, result.TimedOut)
	assert.False(t, result.Cancelled)
	assert.Less(t, elapsed, 10*time.Second, "process group should be reaped well before the sleep finishes")
}

func TestRunCancellationIsNotTimeout(t *testing.T) {
	r := executor.New("sh", executor.WithTimeout(30*time.Second), executor.WithGraceWindow(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	result, err := r.Run(ctx, []string{"-c", "sleep 30"})

	require.Error(t, err)
	assert.True(t, result.Cancelled)
	assert.False(t, result.TimedOut)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWorkingDir(t *testing.T) {
	dir := t.TempDir()
	r := executor.New("pwd", executor.WithWorkingDir(dir))
	result, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(result.Stdout))
}

func TestRunEnvVar(t *testing.T) {
	r := executor.New("sh", executor.WithEnvVar("SRM_PROBE", "42"))
	result, err := r.Run(context.Background(), []string{"-c", "echo $SRM_PROBE"})
	require.NoError(t, err)
	assert.Equal(t, "42", strings.TrimSpace(result.Stdout))
}

func TestPerCallOptionOverridesDefault(t *testing.T) {
	r := executor.New("sh", executor.WithTimeout(50*time.Millisecond))
	result, err := r.Run(context.Background(), []string{"-c", "sleep 0.2; echo done"},
		executor.WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.False(t, result.TimedOut)
	assert.Contains(t, result.Stdout, "done")
}
