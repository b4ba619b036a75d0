package codegen

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/rpg"
	"github.com/zerorepo/zerorepo/internal/sandbox"
)

// TestMain asserts the worker pool's errgroup-backed goroutines (see
// workerpool.go) always join before a test completes, including on the
// cancellation paths controller_test.go exercises.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func keyBySystem(req llmgw.Request) string { return req.System }

// scriptedSandboxer is a deterministic Sandboxer test double, keyed by
// test file path, so the repair loop's tests can assert an exact call
// count without a real pytest subprocess.
type scriptedSandboxer struct {
	mu        sync.Mutex
	queue     map[string][]sandbox.RunResult
	calls     []string
	fullSuite sandbox.RunResult
}

func newScriptedSandboxer() *scriptedSandboxer {
	return &scriptedSandboxer{queue: make(map[string][]sandbox.RunResult)}
}

func (s *scriptedSandboxer) script(testFile string, r sandbox.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue[testFile] = append(s.queue[testFile], r)
}

func (s *scriptedSandboxer) RunSingleTest(_ context.Context, _ string, testFile string) (sandbox.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, testFile)
	q := s.queue[testFile]
	if len(q) == 0 {
		return sandbox.RunResult{OK: false, Output: "no scripted result"}, nil
	}
	r := q[0]
	s.queue[testFile] = q[1:]
	return r, nil
}

func (s *scriptedSandboxer) RunFullSuite(_ context.Context, _ string) (sandbox.RunResult, error) {
	return s.fullSuite, nil
}

func (s *scriptedSandboxer) callCount(testFile string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == testFile {
			n++
		}
	}
	return n
}

// singleFunctionGraph builds a minimal valid graph: one file node and one
// function node declared in it, satisfying the completeness invariant.
func singleFunctionGraph(filePath, name, signature, doc string) *rpg.Graph {
	g := rpg.New()
	file := rpg.NewNode(rpg.NewID("file"), rpg.KindFile, filePath)
	file.PathHint = filePath
	_ = g.AddNode(file)

	fn := rpg.NewNode(rpg.NewID("function"), rpg.KindFunction, name)
	fn.PathHint = filePath
	fn.Signature = signature
	fn.Doc = doc
	_ = g.AddNode(fn)
	file.AppendChild(fn.ID)
	g.AddEdge(rpg.Edge{From: file.ID, To: fn.ID, Type: rpg.EdgeDependsOn, Note: "file declares"})
	return g
}

func TestController_S5_RepairSucceedsOnThirdAttempt(t *testing.T) {
	g := singleFunctionGraph("src/core/calc.py", "add", "def add(a, b):", "Adds two numbers.")
	testPath := testFilePath("src/core/calc.py")

	gw := llmgw.NewScriptedGateway(keyBySystem)
	gw.Script("codegen.test", llmgw.Response{Content: "def test_add():\n    assert add(1, 2) == 3\n", OK: true})
	gw.Script("codegen.implementation", llmgw.Response{Content: "def add(a, b):\n    return None\n", OK: true})
	gw.Script("codegen.repair", llmgw.Response{Content: "def add(a, b):\n    return None\n", OK: true})
	gw.Script("codegen.repair", llmgw.Response{Content: "def add(a, b):\n    return a + b\n", OK: true})

	sb := newScriptedSandboxer()
	sb.script(testPath, sandbox.RunResult{OK: false, Output: "assert None == 3"})
	sb.script(testPath, sandbox.RunResult{OK: false, Output: "assert None == 3"})
	sb.script(testPath, sandbox.RunResult{OK: true, Output: "1 passed"})

	ctrl := NewController(Config{RepoRoot: t.TempDir(), MaxRetries: 8}, gw, sb)
	result, err := ctrl.Run(context.Background(), g)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Contains(t, result.GeneratedFiles, "src/core/calc.py")
	require.Equal(t, 3, sb.callCount(testPath))
}

func TestController_S6_PartialFailure(t *testing.T) {
	g := rpg.New()
	specs := []struct{ file, name, sig, doc string }{
		{"src/a.py", "a", "def a():", "Does a."},
		{"src/b.py", "b", "def b():", "Does b."},
		{"src/c.py", "c", "def c():", "Does c."},
	}
	for _, s := range specs {
		file := rpg.NewNode(rpg.NewID("file"), rpg.KindFile, s.file)
		file.PathHint = s.file
		require.NoError(t, g.AddNode(file))
		fn := rpg.NewNode(rpg.NewID("function"), rpg.KindFunction, s.name)
		fn.PathHint = s.file
		fn.Signature = s.sig
		fn.Doc = s.doc
		require.NoError(t, g.AddNode(fn))
		file.AppendChild(fn.ID)
		g.AddEdge(rpg.Edge{From: file.ID, To: fn.ID, Type: rpg.EdgeDependsOn, Note: "file declares"})
	}

	gw := llmgw.NewScriptedGateway(keyBySystem)
	gw.Script("codegen.test", llmgw.Response{Content: "def test_a(): assert a() is None\n", OK: true})
	gw.Script("codegen.test", llmgw.Response{Content: "def test_b(): assert b() is None\n", OK: true})
	gw.Script("codegen.test", llmgw.Response{Content: "def test_c(): assert c() == 1\n", OK: true})
	gw.Script("codegen.implementation", llmgw.Response{Content: "def a():\n    return None\n", OK: true})
	gw.Script("codegen.implementation", llmgw.Response{Content: "def b():\n    return None\n", OK: true})
	gw.Script("codegen.implementation", llmgw.Response{Content: "def c():\n    return None\n", OK: true})
	gw.Script("codegen.repair", llmgw.Response{Content: "def c():\n    return None\n", OK: true})

	sb := newScriptedSandboxer()
	sb.script(testFilePath("src/a.py"), sandbox.RunResult{OK: true})
	sb.script(testFilePath("src/b.py"), sandbox.RunResult{OK: true})
	sb.script(testFilePath("src/c.py"), sandbox.RunResult{OK: false, Output: "assert None == 1"})
	sb.script(testFilePath("src/c.py"), sandbox.RunResult{OK: false, Output: "assert None == 1"})

	ctrl := NewController(Config{RepoRoot: t.TempDir(), MaxRetries: 2}, gw, sb)
	result, err := ctrl.Run(context.Background(), g)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.ElementsMatch(t, []string{"src/a.py", "src/b.py"}, result.GeneratedFiles)
	require.ElementsMatch(t, []string{"src/c.py"}, result.FailedFiles)
	require.Equal(t, 2, result.Metrics.GeneratedNodes)
	require.Equal(t, 1, result.Metrics.FailedNodes)
	require.Equal(t, 2, sb.callCount(testFilePath("src/c.py")))
}

func TestController_Run_S4_DAGViolationReturnsValidationError(t *testing.T) {
	g := rpg.New()
	file := rpg.NewNode(rpg.NewID("file"), rpg.KindFile, "src/cycle.py")
	file.PathHint = "src/cycle.py"
	require.NoError(t, g.AddNode(file))

	fnA := rpg.NewNode(rpg.NewID("function"), rpg.KindFunction, "a")
	fnA.PathHint = "src/cycle.py"
	fnA.Signature = "def a():"
	fnA.Doc = "A."
	require.NoError(t, g.AddNode(fnA))

	fnB := rpg.NewNode(rpg.NewID("function"), rpg.KindFunction, "b")
	fnB.PathHint = "src/cycle.py"
	fnB.Signature = "def b():"
	fnB.Doc = "B."
	require.NoError(t, g.AddNode(fnB))

	file.AppendChild(fnA.ID)
	file.AppendChild(fnB.ID)
	g.AddEdge(rpg.Edge{From: file.ID, To: fnA.ID, Type: rpg.EdgeDependsOn})
	g.AddEdge(rpg.Edge{From: file.ID, To: fnB.ID, Type: rpg.EdgeDependsOn})
	g.AddEdge(rpg.Edge{From: fnA.ID, To: fnB.ID, Type: rpg.EdgeDataFlow})
	g.AddEdge(rpg.Edge{From: fnB.ID, To: fnA.ID, Type: rpg.EdgeDataFlow})

	gw := llmgw.NewScriptedGateway(keyBySystem)
	sb := newScriptedSandboxer()
	ctrl := NewController(Config{RepoRoot: t.TempDir(), MaxRetries: 8}, gw, sb)

	_, err := ctrl.Run(context.Background(), g)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle in")
}

func TestController_MaxRetriesZero_AttemptsOnceNoRetry(t *testing.T) {
	g := singleFunctionGraph("src/once.py", "once", "def once():", "Does once.")
	testPath := testFilePath("src/once.py")

	gw := llmgw.NewScriptedGateway(keyBySystem)
	gw.Script("codegen.test", llmgw.Response{Content: "def test_once(): assert once() == 1\n", OK: true})
	gw.Script("codegen.implementation", llmgw.Response{Content: "def once():\n    return None\n", OK: true})

	sb := newScriptedSandboxer()
	sb.script(testPath, sandbox.RunResult{OK: false, Output: "assert None == 1"})

	ctrl := NewController(Config{RepoRoot: t.TempDir(), MaxRetries: 0}, gw, sb)
	result, err := ctrl.Run(context.Background(), g)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, 1, sb.callCount(testPath))
	require.Equal(t, 2, gw.CallCount()) // test + implementation calls only, no repair
}

func TestTestFilePath_MirrorsSourceUnderTestsRoot(t *testing.T) {
	require.Equal(t, "tests/a/b/test_x.py", testFilePath("src/a/b/x.py"))
	require.Equal(t, "tests/test_calc.py", testFilePath("src/calc.py"))
}

func TestCountNonCommentLines_SkipsBlankAndCommentLines(t *testing.T) {
	src := "import os\n\n# a comment\ndef f():\n    return 1\n"
	require.Equal(t, 3, countNonCommentLines(src))
}

func TestWorkerCount_BoundedByEightAndFlooredAtOne(t *testing.T) {
	require.Equal(t, 1, WorkerCount(0))
	require.Equal(t, 1, WorkerCount(3))
	require.Equal(t, 2, WorkerCount(8))
	require.Equal(t, 8, WorkerCount(1000))
}
