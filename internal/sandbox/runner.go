package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/zerorepo/zerorepo/internal/logging"
)

// Scope distinguishes a single-file test run from a full-suite run, which
// get different timeout/memory defaults.
type Scope string

const (
	ScopeSingleFile Scope = "single_file"
	ScopeFullSuite  Scope = "full_suite"
)

// RunConfig configures a Runner, normally built from config.SandboxConfig.
type RunConfig struct {
	PreferDocker        bool
	DockerImage         string
	SingleTestTimeout   time.Duration
	FullSuiteTimeout    time.Duration
	SingleFileMemoryMB  int
	FullSuiteMemoryMB   int
	NetworkDisabled     bool
	PinnedTestFramework string // e.g. "pytest==8.3.3"
	InstallCommand      []string
	TestCommand         []string // e.g. ["pytest", "-q"]
	ProjectDependencies []string
}

// RunResult is the sandbox's observable contract: whether the run passed,
// its combined output, exit code, and parsed pass/fail counts.
type RunResult struct {
	OK       bool
	Output   string
	ExitCode int
	Counts   Counts
}

// Runner executes project test suites inside an Executor, installing the
// pinned test framework plus project dependencies first.
type Runner struct {
	executor Executor
	cfg      RunConfig
}

// NewRunner builds a Runner. When cfg.PreferDocker is true, Docker is used
// when available; otherwise the direct subprocess executor serves every
// call with equivalent observable semantics.
func NewRunner(cfg RunConfig) *Runner {
	return &Runner{
		executor: NewCompositeExecutor(cfg.PreferDocker, cfg.DockerImage),
		cfg:      cfg,
	}
}

// RunTests installs the pinned test-framework dependency plus
// project-declared dependencies, then runs the test command, in a
// workingDir holding the files under test.
func (r *Runner) RunTests(ctx context.Context, workingDir string, scope Scope) (RunResult, error) {
	timer := logging.StartTimer(logging.CategorySandbox, "Runner.RunTests")
	defer timer.Stop()

	timeout := r.cfg.SingleTestTimeout
	memoryMB := r.cfg.SingleFileMemoryMB
	if scope == ScopeFullSuite {
		timeout = r.cfg.FullSuiteTimeout
		memoryMB = r.cfg.FullSuiteMemoryMB
	}

	if err := r.installDependencies(ctx, workingDir, timeout); err != nil {
		return RunResult{}, fmt.Errorf("sandbox: dependency install failed: %w", err)
	}

	testCmd := r.cfg.TestCommand
	if len(testCmd) == 0 {
		testCmd = []string{"pytest", "-q"}
	}

	limits := &ResourceLimits{
		Timeout:         timeout,
		MaxMemoryBytes:  int64(memoryMB) * 1024 * 1024,
		NetworkDisabled: r.cfg.NetworkDisabled,
	}

	result, err := r.executor.Execute(ctx, Command{
		Binary:           testCmd[0],
		Arguments:        testCmd[1:],
		WorkingDirectory: workingDir,
		Limits:           limits,
	})
	if err != nil {
		return RunResult{}, fmt.Errorf("sandbox: test run failed: %w", err)
	}

	output := result.Output()
	counts := ParseCounts(output)

	logging.Sandbox("run tests: scope=%s exit=%d total=%d passed=%d failed=%d mode=%s",
		scope, result.ExitCode, counts.Total, counts.Passed, counts.Failed, result.ModeUsed)

	return RunResult{
		OK:       result.Success && result.ExitCode == 0,
		Output:   output,
		ExitCode: result.ExitCode,
		Counts:   counts,
	}, nil
}

func (r *Runner) installDependencies(ctx context.Context, workingDir string, timeout time.Duration) error {
	installCmd := r.cfg.InstallCommand
	if len(installCmd) == 0 {
		if r.cfg.PinnedTestFramework == "" {
			return nil
		}
		installCmd = []string{"pip", "install", "--quiet", r.cfg.PinnedTestFramework}
	}

	deps := append(append([]string{}, installCmd...), r.cfg.ProjectDependencies...)

	result, err := r.executor.Execute(ctx, Command{
		Binary:           deps[0],
		Arguments:        deps[1:],
		WorkingDirectory: workingDir,
		Limits:           &ResourceLimits{Timeout: timeout, NetworkDisabled: false},
	})
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("install infrastructure error: %s", result.Error)
	}
	return nil
}
