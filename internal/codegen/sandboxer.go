package codegen

import (
	"context"

	"github.com/zerorepo/zerorepo/internal/sandbox"
)

// Sandboxer runs a generated repository's tests. The repair loop needs a
// single test file's result; final reporting needs the whole suite's.
// Expressed as an interface per spec.md §9's design note so the repair
// loop's tests can substitute a deterministic double instead of a real
// pytest subprocess.
type Sandboxer interface {
	RunSingleTest(ctx context.Context, workingDir, testFile string) (sandbox.RunResult, error)
	RunFullSuite(ctx context.Context, workingDir string) (sandbox.RunResult, error)
}

// runnerSandboxer adapts a sandbox.RunConfig to Sandboxer. sandbox.Runner
// runs one fixed TestCommand against a whole working directory, so a
// fresh Runner is built per call with the command scoped to the file (or
// suite) this call needs.
type runnerSandboxer struct {
	cfg sandbox.RunConfig
}

// NewRunnerSandboxer builds a Sandboxer backed by the real sandbox package.
func NewRunnerSandboxer(cfg sandbox.RunConfig) Sandboxer {
	return &runnerSandboxer{cfg: cfg}
}

func (s *runnerSandboxer) RunSingleTest(ctx context.Context, workingDir, testFile string) (sandbox.RunResult, error) {
	cfg := s.cfg
	cfg.TestCommand = []string{"pytest", "-q", testFile}
	return sandbox.NewRunner(cfg).RunTests(ctx, workingDir, sandbox.ScopeSingleFile)
}

func (s *runnerSandboxer) RunFullSuite(ctx context.Context, workingDir string) (sandbox.RunResult, error) {
	cfg := s.cfg
	if len(cfg.TestCommand) == 0 {
		cfg.TestCommand = []string{"pytest", "-q"}
	}
	return sandbox.NewRunner(cfg).RunTests(ctx, workingDir, sandbox.ScopeFullSuite)
}
