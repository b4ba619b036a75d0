package sandbox

import (
	"context"

	"github.com/zerorepo/zerorepo/internal/logging"
)

// CompositeExecutor prefers Docker when available and falls back to the
// direct subprocess executor otherwise; callers must not depend on which
// backend served a given call.
type CompositeExecutor struct {
	preferDocker bool
	docker       *DockerExecutor
	direct       *DirectExecutor
}

// NewCompositeExecutor builds a composite executor. When preferDocker is
// true and Docker is available, Execute routes there; otherwise it uses
// the direct executor.
func NewCompositeExecutor(preferDocker bool, dockerImage string) *CompositeExecutor {
	return &CompositeExecutor{
		preferDocker: preferDocker,
		docker:       NewDockerExecutor(dockerImage),
		direct:       NewDirectExecutor(),
	}
}

func (c *CompositeExecutor) Available() bool { return true }

func (c *CompositeExecutor) Capabilities() Capabilities {
	if c.preferDocker && c.docker.Available() {
		return c.docker.Capabilities()
	}
	return c.direct.Capabilities()
}

// Execute routes to Docker when preferred and available, else direct.
func (c *CompositeExecutor) Execute(ctx context.Context, cmd Command) (*Result, error) {
	if c.preferDocker && c.docker.Available() {
		logging.SandboxDebug("composite: routing to docker")
		return c.docker.Execute(ctx, cmd)
	}
	logging.SandboxDebug("composite: routing to direct (docker unavailable or not preferred)")
	return c.direct.Execute(ctx, cmd)
}
