package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetLoggingState() {
	loggers.Clear()
	logsDir = ""
	workspace = ""
	current.Store(&settings{level: LevelInfo})
}

func TestInitializeDisabledByDefault(t *testing.T) {
	tempDir := t.TempDir()
	resetLoggingState()
	require.NoError(t, Initialize(tempDir))
	require.False(t, IsDebugMode())

	logPath := filepath.Join(tempDir, ".zerorepo", "logs")
	_, err := os.Stat(logPath)
	require.True(t, os.IsNotExist(err), "logs directory must not be created in production mode")
}

func TestInitializeDebugModeWritesCategoryFiles(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".zerorepo")
	require.NoError(t, os.MkdirAll(configDir, 0755))

	configContent := `{
		"logging": {
			"level": "debug",
			"debug_mode": true,
			"categories": {"proposal": true, "codegen": false}
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"), []byte(configContent), 0644))

	resetLoggingState()
	require.NoError(t, Initialize(tempDir))
	require.True(t, IsDebugMode())
	require.True(t, IsCategoryEnabled(CategoryProposal))
	require.False(t, IsCategoryEnabled(CategoryCodegen))

	Get(CategoryProposal).Info("hello %s", "world")

	entries, err := os.ReadDir(filepath.Join(tempDir, ".zerorepo", "logs"))
	require.NoError(t, err)

	found := false
	for _, e := range entries {
		if strings.Contains(e.Name(), "proposal") {
			found = true
		}
	}
	require.True(t, found, "expected a proposal category log file")
}

func TestTimerStop(t *testing.T) {
	resetLoggingState()
	timer := StartTimer(CategoryCodegen, "unit-test-op")
	elapsed := timer.Stop()
	require.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))
}
