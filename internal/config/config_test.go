package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "zerorepo", cfg.Name)
	require.Equal(t, "zai", cfg.LLM.Provider)
	require.Equal(t, 8, cfg.Execution.MaxWorkers)
	require.Equal(t, 4, cfg.Limits.MaxConcurrentJobs)
	require.True(t, cfg.Sandbox.NetworkDisabled)
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("DATASTORE_URL", "")
	t.Setenv("DOMAIN_ONTOLOGY_PATH", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.APIKey = "sk-test"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "anthropic", loaded.LLM.Provider)
	require.Equal(t, "sk-test", loaded.LLM.APIKey)
}

func TestConfig_LoadMissingFileUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, err := Load(filepath.Join(tmpDir, "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, "zerorepo", cfg.Name)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "env-llm-key")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("DATASTORE_URL", "postgres://example/db")
	t.Setenv("GENAI_API_KEY", "env-genai-key")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	require.Equal(t, "env-llm-key", cfg.LLM.APIKey)
	require.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
	require.Equal(t, "postgres://example/db", cfg.Server.DatastoreURL)
	require.Equal(t, "env-genai-key", cfg.Embedding.GenAIAPIKey)
	require.Equal(t, "genai", cfg.Embedding.Provider)
}

func TestConfig_EnvOverrides_OntologyPath(t *testing.T) {
	tmpDir := t.TempDir()
	ontologyPath := filepath.Join(tmpDir, "ontology.json")
	require.NoError(t, os.WriteFile(ontologyPath, []byte("{}"), 0644))
	t.Setenv("DOMAIN_ONTOLOGY_PATH", ontologyPath)

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	require.Equal(t, ontologyPath, cfg.Embedding.OntologyPath)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate(), "expected validation error for missing API key")

	cfg.LLM.APIKey = "test-key"
	require.NoError(t, cfg.Validate())

	cfg.Embedding.OntologyPath = "/does/not/exist.json"
	require.Error(t, cfg.Validate())
}

func TestConfig_TimeoutHelpers(t *testing.T) {
	cfg := DefaultConfig()
	require.Greater(t, cfg.GetLLMTimeout().Seconds(), 0.0)
	require.Greater(t, cfg.GetSingleTestTimeout().Seconds(), 0.0)
	require.Greater(t, cfg.GetFullSuiteTimeout().Seconds(), 0.0)

	cfg.LLM.Timeout = "not-a-duration"
	require.Equal(t, 60.0, cfg.GetLLMTimeout().Seconds())
}

func TestSplitCSV(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, splitCSV("a, b,c"))
	require.Nil(t, splitCSV(""))
}
