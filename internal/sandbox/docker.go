package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/zerorepo/zerorepo/internal/logging"
)

// DockerExecutor runs commands inside a container via the docker CLI,
// giving network isolation and a memory cap that the direct executor
// cannot provide on its own.
type DockerExecutor struct {
	DefaultImage   string
	DefaultTimeout time.Duration

	availOnce sync.Once
	available bool
}

// NewDockerExecutor builds a DockerExecutor using the pinned test-image
// default; config overrides it per project language.
func NewDockerExecutor(defaultImage string) *DockerExecutor {
	if defaultImage == "" {
		defaultImage = "python:3.12-slim"
	}
	return &DockerExecutor{DefaultImage: defaultImage, DefaultTimeout: 30 * time.Second}
}

// Available reports whether a working docker binary is on PATH. The
// result is cached after the first check.
func (e *DockerExecutor) Available() bool {
	e.availOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		cmd := exec.CommandContext(ctx, "docker", "info")
		e.available = cmd.Run() == nil
	})
	return e.available
}

func (e *DockerExecutor) Capabilities() Capabilities {
	return Capabilities{Name: "docker", SupportsNetwork: false, DefaultTimeout: e.DefaultTimeout}
}

// Execute runs cmd inside a disposable container: --rm, --network=none
// (unless explicitly allowed), a memory cap, and a single CPU.
func (e *DockerExecutor) Execute(ctx context.Context, cmd Command) (*Result, error) {
	timer := logging.StartTimer(logging.CategorySandbox, "DockerExecutor.Execute")
	defer timer.Stop()

	if cmd.Binary == "" {
		return nil, fmt.Errorf("sandbox: command binary is required")
	}

	image := cmd.DockerImage
	if image == "" {
		image = e.DefaultImage
	}

	timeout := e.DefaultTimeout
	networkDisabled := true
	var memoryBytes int64
	if cmd.Limits != nil {
		if cmd.Limits.Timeout > 0 {
			timeout = cmd.Limits.Timeout
		}
		networkDisabled = cmd.Limits.NetworkDisabled
		memoryBytes = cmd.Limits.MaxMemoryBytes
	}

	args := []string{"run", "--rm", "--cpus=1"}
	if networkDisabled {
		args = append(args, "--network=none")
	}
	if memoryBytes > 0 {
		args = append(args, "--memory="+strconv.FormatInt(memoryBytes, 10))
	}
	if cmd.WorkingDirectory != "" {
		args = append(args, "-v", cmd.WorkingDirectory+":/workspace", "-w", "/workspace")
	}
	for _, envVar := range cmd.Environment {
		args = append(args, "-e", envVar)
	}
	args = append(args, image, cmd.Binary)
	args = append(args, cmd.Arguments...)

	direct := &DirectExecutor{DefaultTimeout: timeout, MaxOutputBytes: 10 * 1024 * 1024}
	result, err := direct.Execute(ctx, Command{
		Binary:    "docker",
		Arguments: args,
		Stdin:     cmd.Stdin,
		Limits:    &ResourceLimits{Timeout: timeout},
	})
	if result != nil {
		result.ModeUsed = ModeDocker
	}
	return result, err
}
