package orchestrator

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zerorepo/zerorepo/internal/codegen"
	"github.com/zerorepo/zerorepo/internal/embedding"
	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/sandbox"
)

// TestMain guards against goroutines leaked across a cancelled stage
// boundary (the pipeline's only cancellation propagation points, per
// spec.md §5) outliving the test that triggered cancellation.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// hashEngine is a deterministic bag-of-words EmbeddingEngine test double,
// mirroring proposal's own fixture: words hash into a fixed number of
// dimensions so related texts score positively on cosine similarity.
type hashEngine struct{ dim int }

func newHashEngine() *hashEngine { return &hashEngine{dim: 64} }

func (h *hashEngine) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, h.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		sum := fnv.New32a()
		sum.Write([]byte(word))
		v[int(sum.Sum32())%h.dim] += 1
	}
	return v, nil
}

func (h *hashEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (h *hashEngine) Dimensions() int { return h.dim }
func (h *hashEngine) Name() string    { return "hash" }

func seedStore(t *testing.T, paths ...string) *embedding.Store {
	t.Helper()
	store := embedding.NewStore(newHashEngine())
	var features []embedding.FeaturePath
	for _, p := range paths {
		features = append(features, embedding.FeaturePath{Path: p, Score: 0.9, Source: embedding.SourceOntology})
	}
	require.NoError(t, store.Add(context.Background(), features))
	return store
}

func keyBySystem(req llmgw.Request) string { return req.System }

// alwaysOKSandboxer is a trivial codegen.Sandboxer stub for an
// orchestrator-level smoke test that isn't exercising the repair loop
// itself (that's covered by internal/codegen's own tests).
type alwaysOKSandboxer struct{}

func (alwaysOKSandboxer) RunSingleTest(context.Context, string, string) (sandbox.RunResult, error) {
	return sandbox.RunResult{OK: true, Output: "1 passed"}, nil
}

func (alwaysOKSandboxer) RunFullSuite(context.Context, string) (sandbox.RunResult, error) {
	return sandbox.RunResult{OK: true, Counts: sandbox.Counts{Total: 2, Passed: 2}}, nil
}

const calcInterfaceSource = `def add(a, b):
    """Adds two numbers."""
    pass


def subtract(a, b):
    """Subtracts two numbers."""
    pass
`

// TestOrchestrator_Run_HappyPath drives the full proposal -> implementation
// -> codegen pipeline for a minimal two-feature calculator goal, asserting
// the job-result shape and that every stage reported progress.
func TestOrchestrator_Run_HappyPath(t *testing.T) {
	store := seedStore(t, "math/basic/add", "math/basic/subtract")

	gw := llmgw.NewScriptedGateway(keyBySystem)
	gw.ScriptJSON("proposal.exploit", `{"selected": ["math/basic/add", "math/basic/subtract"]}`)
	gw.ScriptJSON("proposal.explore", `{"selected": []}`)
	gw.ScriptJSON("proposal.missing", `{"missing": {}}`)
	gw.ScriptJSON("implementation.folders", `{"folders": [{"name": "src/math", "maps": ["basic"]}], "files": []}`)
	gw.ScriptJSON("implementation.files", `{"src/math/calc.py": ["math/basic/add", "math/basic/subtract"]}`)
	gw.Script("implementation.interfaces", llmgw.Response{Content: calcInterfaceSource, OK: true})
	gw.Script("codegen.test", llmgw.Response{Content: "def test_add():\n    assert add(1, 2) == 3\n", OK: true})
	gw.Script("codegen.test", llmgw.Response{Content: "def test_subtract():\n    assert subtract(3, 1) == 2\n", OK: true})
	gw.Script("codegen.implementation", llmgw.Response{Content: "def add(a, b):\n    return a + b\n", OK: true})
	gw.Script("codegen.implementation", llmgw.Response{Content: "def subtract(a, b):\n    return a - b\n", OK: true})

	orch := New(store, gw, alwaysOKSandboxer{}, 8)

	var stages []string
	result, err := orch.Run(context.Background(), Request{
		ProjectGoal:   "Generate a basic calculator with add and subtract",
		MaxIterations: 1,
		RepoRoot:      t.TempDir(),
	}, func(stage string, progress int) {
		stages = append(stages, stage)
	})

	require.NoError(t, err)
	require.Equal(t, true, result["success"])
	require.Contains(t, stages, "proposal")
	require.Contains(t, stages, "implementation")
	require.Contains(t, stages, "codegen")
}

// TestOrchestrator_Run_ProposalRejectsAll mirrors S2: every candidate the
// exploit stage surfaces is generic infrastructure, so the acceptance
// filter rejects everything and the pipeline stops before implementation.
func TestOrchestrator_Run_ProposalRejectsAll(t *testing.T) {
	store := seedStore(t, "utils/logging", "utils/config")

	gw := llmgw.NewScriptedGateway(keyBySystem)
	gw.ScriptJSON("proposal.exploit", `{"selected": ["utils/logging", "utils/config"]}`)
	gw.ScriptJSON("proposal.explore", `{"selected": []}`)
	gw.ScriptJSON("proposal.missing", `{"missing": {}}`)

	orch := New(store, gw, alwaysOKSandboxer{}, 8)

	result, err := orch.Run(context.Background(), Request{
		ProjectGoal:   "Generate shared logging and config utilities",
		MaxIterations: 1,
		RepoRoot:      t.TempDir(),
	}, nil)

	require.NoError(t, err)
	require.Equal(t, false, result["success"])
	require.Equal(t, "no features accepted", result["error"])
}

var _ codegen.Sandboxer = alwaysOKSandboxer{}
