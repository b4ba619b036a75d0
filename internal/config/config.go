// Package config loads zerorepo's YAML configuration: LLM gateway, embedding
// store, sandbox runner, execution limits, the job-facade server, and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zerorepo/zerorepo/internal/logging"
)

// Config holds all zerorepo configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Execution ExecutionConfig `yaml:"execution"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Limits    PipelineLimits  `yaml:"limits"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "zerorepo",
		Version: "0.1.0",

		LLM: LLMConfig{
			Provider:    "zai",
			Model:       "glm-4.7",
			BaseURL:     "https://api.z.ai/api/coding/paas/v4",
			Timeout:     "60s",
			MaxTokens:   4096,
			Temperature: 0.3,
		},

		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "SEMANTIC_SIMILARITY",
		},

		Sandbox: SandboxConfig{
			PreferDocker:        true,
			SingleTestTimeout:   "30s",
			FullSuiteTimeout:    "120s",
			SingleFileMemoryMB:  512,
			FullSuiteMemoryMB:   1024,
			NetworkDisabled:     true,
			PinnedTestFramework: "pytest==8.3.3",
		},

		Execution: ExecutionConfig{
			MaxWorkers:        8,
			ProposalMaxIter:   10,
			CodegenMaxRetries: 8,
		},

		Server: ServerConfig{
			Addr:        ":8099",
			CORSOrigins: []string{"http://localhost:3000"},
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			DebugMode: false,
		},

		Limits: PipelineLimits{
			MaxConcurrentJobs: 4,
			LLMCallTimeout:    "60s",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.BootDebug("loading config from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	logging.Boot("config loaded: llm_provider=%s embedding_provider=%s", cfg.LLM.Provider, cfg.Embedding.Provider)
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies the environment variables named in spec.md §6.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if path := os.Getenv("DOMAIN_ONTOLOGY_PATH"); path != "" {
		c.Embedding.OntologyPath = path
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitCSV(origins)
	}
	if url := os.Getenv("DATASTORE_URL"); url != "" {
		c.Server.DatastoreURL = url
	}
	if key := os.Getenv("GENAI_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
		if c.Embedding.Provider == "" || c.Embedding.Provider == "ollama" {
			c.Embedding.Provider = "genai"
		}
	}
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, trimSpace(s[start:i]))
			}
			start = i + 1
		}
	}
	return out
}

func trimSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

// GetLLMTimeout returns the per-call LLM timeout, defaulting to 60s per §5.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetSingleTestTimeout returns the sandbox's single-file timeout, default 30s per §4.4.
func (c *Config) GetSingleTestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sandbox.SingleTestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetFullSuiteTimeout returns the sandbox's full-suite timeout, default 120s per §4.4.
func (c *Config) GetFullSuiteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sandbox.FullSuiteTimeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// Validate checks required configuration per §7's Configuration error class.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return &ConfigError{Msg: "LLM_API_KEY is required"}
	}
	if c.Embedding.OntologyPath != "" {
		if _, err := os.Stat(c.Embedding.OntologyPath); err != nil {
			return &ConfigError{Msg: fmt.Sprintf("DOMAIN_ONTOLOGY_PATH unreadable: %v", err)}
		}
	}
	return nil
}

// ConfigError is a fatal configuration error raised at orchestrator construction.
type ConfigError struct{ Msg string }

func (e *ConfigError) Error() string { return "configuration error: " + e.Msg }
