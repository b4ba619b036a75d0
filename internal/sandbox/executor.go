package sandbox

import "context"

// Executor runs a single Command and returns a Result. Implementations
// must not retry internally; the codegen repair loop owns retry policy.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (*Result, error)
	Capabilities() Capabilities
	Available() bool
}
