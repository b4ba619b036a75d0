package config

// ExecutionConfig holds the pipeline's worker-count, iteration, and retry
// settings across the proposal, implementation, and codegen stages.
type ExecutionConfig struct {
	// MaxWorkers is loaded and saved with the config; no stage reads it.
	// Stage worker pools are sized by the min(8, nodes/4) rule alone
	// (codegen.WorkerCount, and interfaceWorkerCount in implementation).
	MaxWorkers int `yaml:"max_workers" json:"max_workers,omitempty"`

	// ProposalMaxIter bounds the exploit/explore/missing-feature loop.
	ProposalMaxIter int `yaml:"proposal_max_iter" json:"proposal_max_iter,omitempty"`

	// CodegenMaxRetries bounds the per-node TDD repair loop.
	CodegenMaxRetries int `yaml:"codegen_max_retries" json:"codegen_max_retries,omitempty"`
}

// SandboxConfig configures the sandboxed test-execution backend.
type SandboxConfig struct {
	// PreferDocker selects the Docker executor when available, falling
	// back to the direct subprocess executor otherwise.
	PreferDocker bool `yaml:"prefer_docker" json:"prefer_docker,omitempty"`

	SingleTestTimeout string `yaml:"single_test_timeout" json:"single_test_timeout,omitempty"`
	FullSuiteTimeout  string `yaml:"full_suite_timeout" json:"full_suite_timeout,omitempty"`

	SingleFileMemoryMB int `yaml:"single_file_memory_mb" json:"single_file_memory_mb,omitempty"`
	FullSuiteMemoryMB  int `yaml:"full_suite_memory_mb" json:"full_suite_memory_mb,omitempty"`

	// NetworkDisabled isolates sandboxed runs from the network.
	NetworkDisabled bool `yaml:"network_disabled" json:"network_disabled,omitempty"`

	// PinnedTestFramework is the exact package@version installed into the
	// sandbox image/environment before tests run, e.g. "pytest==8.3.3".
	PinnedTestFramework string `yaml:"pinned_test_framework" json:"pinned_test_framework,omitempty"`
}

// ServerConfig configures the job-facade HTTP API.
type ServerConfig struct {
	Addr         string   `yaml:"addr" json:"addr,omitempty"`
	CORSOrigins  []string `yaml:"cors_origins" json:"cors_origins,omitempty"`
	DatastoreURL string   `yaml:"datastore_url" json:"datastore_url,omitempty"`
}
