package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDirectExecutor_Success(t *testing.T) {
	e := NewDirectExecutor()
	result, err := e.Execute(context.Background(), Command{
		Binary:    "echo",
		Arguments: []string{"hello"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 0, result.ExitCode)
	require.Contains(t, result.Stdout, "hello")
}

func TestDirectExecutor_NonZeroExit(t *testing.T) {
	e := NewDirectExecutor()
	result, err := e.Execute(context.Background(), Command{
		Binary:    "sh",
		Arguments: []string{"-c", "exit 7"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 7, result.ExitCode)
}

func TestDirectExecutor_Timeout(t *testing.T) {
	e := NewDirectExecutor()
	result, err := e.Execute(context.Background(), Command{
		Binary:    "sleep",
		Arguments: []string{"5"},
		Limits:    &ResourceLimits{Timeout: 50 * time.Millisecond},
	})
	require.NoError(t, err)
	require.True(t, result.Killed)
}

func TestDirectExecutor_MissingBinaryErrors(t *testing.T) {
	e := NewDirectExecutor()
	_, err := e.Execute(context.Background(), Command{})
	require.Error(t, err)
}

func TestParseCounts_Pytest(t *testing.T) {
	c := ParseCounts("===== 8 passed, 2 failed in 1.23s =====")
	require.Equal(t, 10, c.Total)
	require.Equal(t, 8, c.Passed)
	require.Equal(t, 2, c.Failed)
}

func TestParseCounts_GoTest(t *testing.T) {
	c := ParseCounts("--- PASS: TestA\n--- PASS: TestB\n--- FAIL: TestC\n")
	require.Equal(t, 3, c.Total)
	require.Equal(t, 2, c.Passed)
	require.Equal(t, 1, c.Failed)
}

func TestParseCounts_Unrecognized(t *testing.T) {
	c := ParseCounts("no recognizable summary here")
	require.Equal(t, 0, c.Total)
}

func TestCompositeExecutor_FallsBackWhenDockerUnavailable(t *testing.T) {
	c := NewCompositeExecutor(true, "")
	result, err := c.Execute(context.Background(), Command{Binary: "echo", Arguments: []string{"ok"}})
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestRunner_RunTestsWithoutInstall(t *testing.T) {
	r := NewRunner(RunConfig{
		SingleTestTimeout: 5 * time.Second,
		TestCommand:       []string{"sh", "-c", "echo '1 passed, 0 failed'"},
	})
	result, err := r.RunTests(context.Background(), t.TempDir(), ScopeSingleFile)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Equal(t, 1, result.Counts.Passed)
}
