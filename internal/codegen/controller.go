package codegen

import (
	"context"
	"fmt"

	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// Config configures a codegen Controller.
type Config struct {
	// RepoRoot is the directory the generated repository is materialized
	// into. Must already exist.
	RepoRoot string

	// MaxRetries is the repair loop's attempt cap, per spec.md §4.7.
	// Zero means "attempt once, no retries" (the documented boundary
	// behavior), not "use the default" — callers needing the spec
	// default of 8 must set it explicitly.
	MaxRetries int
}

// Controller drives Stage C: per-node test-then-implementation synthesis
// with a graph-guided repair loop, per spec.md §4.7.
type Controller struct {
	cfg       Config
	gateway   llmgw.Gateway
	sandboxer Sandboxer
}

// NewController builds a codegen controller.
func NewController(cfg Config, gateway llmgw.Gateway, sandboxer Sandboxer) *Controller {
	return &Controller{cfg: cfg, gateway: gateway, sandboxer: sandboxer}
}

func (c *Controller) attempts() int {
	if c.cfg.MaxRetries < 1 {
		return 1
	}
	return c.cfg.MaxRetries
}

// Run materializes the repository's folder layout, then generates source
// for every class/function node in topological order, grouping
// declarations by owning file so a shared file accumulates one source
// module; independent files are processed concurrently with a bounded
// worker pool.
func (c *Controller) Run(ctx context.Context, g *rpg.Graph) (*Result, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	if err := c.materializeDirectories(g); err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	order, err := g.TopoSort()
	if err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	groups, fileOrder := groupByFile(order)

	rb := newResultBuilder()
	workers := WorkerCount(len(order))
	runBounded(ctx, len(fileOrder), workers, func(gctx context.Context, i int) {
		filePath := fileOrder[i]
		c.processFile(gctx, g, filePath, groups[filePath], rb)
	})

	if ctx.Err() != nil {
		return nil, fmt.Errorf("codegen: cancelled")
	}

	return c.report(ctx, rb)
}

// groupByFile partitions topo-ordered class/function nodes by their
// owning file's path_hint, preserving the topological order within each
// group.
func groupByFile(order []*rpg.Node) (map[string][]*rpg.Node, []string) {
	groups := make(map[string][]*rpg.Node)
	var fileOrder []string
	for _, n := range order {
		if _, ok := groups[n.PathHint]; !ok {
			fileOrder = append(fileOrder, n.PathHint)
		}
		groups[n.PathHint] = append(groups[n.PathHint], n)
	}
	return groups, fileOrder
}

// processFile runs the per-node algorithm for every declaration sharing
// filePath, sequentially (since each node's committed source appends to
// the same accumulated module), recording each node's outcome in rb.
func (c *Controller) processFile(ctx context.Context, g *rpg.Graph, filePath string, nodes []*rpg.Node, rb *resultBuilder) {
	testPath := testFilePath(filePath)

	var implAccum, testAccum string

	for _, node := range nodes {
		testResp, err := c.gateway.Generate(ctx, buildTestPrompt(node))
		if err != nil {
			logging.Codegen("codegen: test synthesis failed for %s: %v", node.Name, err)
			rb.recordFailure(filePath)
			continue
		}
		testCode := testResp.Content

		implResp, err := c.gateway.Generate(ctx, buildImplPrompt(node, dependencyNames(g, node)))
		if err != nil {
			logging.Codegen("codegen: implementation synthesis failed for %s: %v", node.Name, err)
			rb.recordFailure(filePath)
			continue
		}
		currentImpl := implResp.Content

		ok, finalImpl := c.repairLoop(ctx, g, node, filePath, testPath, implAccum, testAccum, currentImpl, testCode)
		if ok {
			implAccum = implAccum + "\n" + finalImpl
			testAccum = testAccum + "\n" + testCode
			rb.recordSuccess(filePath, finalImpl)
		} else {
			rb.recordFailure(filePath)
		}
	}
}

// repairLoop writes candidate implementation+test files and runs the
// sandbox on the single test file, up to attempts() times, requesting a
// graph-guided repair between attempts, per spec.md §4.7 step 3.
func (c *Controller) repairLoop(ctx context.Context, g *rpg.Graph, node *rpg.Node, filePath, testPath string, implAccum, testAccum, impl, testCode string) (bool, string) {
	attempts := c.attempts()
	var lastOutput string

	for attempt := 1; attempt <= attempts; attempt++ {
		candidateImpl := implAccum + "\n" + impl
		candidateTest := testAccum + "\n" + testCode

		if err := c.writeRepoFile(filePath, candidateImpl); err != nil {
			logging.Codegen("codegen: write failed for %s: %v", filePath, err)
			return false, impl
		}
		if err := c.writeRepoFile(testPath, candidateTest); err != nil {
			logging.Codegen("codegen: write failed for %s: %v", testPath, err)
			return false, impl
		}

		result, err := c.sandboxer.RunSingleTest(ctx, c.cfg.RepoRoot, testPath)
		if err != nil {
			logging.Codegen("codegen: sandbox run failed for %s: %v", node.Name, err)
			lastOutput = err.Error()
		} else if result.OK {
			return true, impl
		} else {
			lastOutput = result.Output
		}

		if attempt == attempts {
			break
		}

		repairResp, err := c.gateway.Generate(ctx, buildRepairPrompt(g, node, impl, testCode, lastOutput))
		if err != nil {
			logging.Codegen("codegen: repair request failed for %s: %v", node.Name, err)
			break
		}
		impl = repairResp.Content
	}

	return false, impl
}
