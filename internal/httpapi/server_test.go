package httpapi

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zerorepo/zerorepo/internal/embedding"
	"github.com/zerorepo/zerorepo/internal/jobstore"
	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/orchestrator"
	"github.com/zerorepo/zerorepo/internal/sandbox"
)

// hashEngine is the same deterministic bag-of-words EmbeddingEngine test
// double used throughout proposal/orchestrator's own tests.
type hashEngine struct{ dim int }

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

func keyBySystem(req llmgw.Request) string { return req.System }

type alwaysOKSandboxer struct{}

func (alwaysOKSandboxer) RunSingleTest(context.Context, string, string) (sandbox.RunResult, error) {
	return sandbox.RunResult{OK: true}, nil
}

func (alwaysOKSandboxer) RunFullSuite(context.Context, string) (sandbox.RunResult, error) {
	return sandbox.RunResult{OK: true, Counts: sandbox.Counts{Total: 1, Passed: 1}}, nil
}

const testInterfaceSource = `def add(a, b):
    """Adds two numbers."""
    pass
`

func newTestServer(t *testing.T) (*Server, *httptest.Server, jobstore.Collection) {
	t.Helper()

	store := embedding.NewStore(&hashEngine{dim: 64})
	require.NoError(t, store.Add(context.Background(), []embedding.FeaturePath{
		{Path: "math/basic/add", Score: 0.9, Source: embedding.SourceOntology},
	}))

	gw := llmgw.NewScriptedGateway(keyBySystem)
	gw.ScriptJSON("proposal.exploit", `{"selected": ["math/basic/add"]}`)
	gw.ScriptJSON("proposal.explore", `{"selected": []}`)
	gw.ScriptJSON("proposal.missing", `{"missing": {}}`)
	gw.ScriptJSON("implementation.folders", `{"folders": [{"name": "src/math", "maps": ["basic"]}], "files": []}`)
	gw.ScriptJSON("implementation.files", `{"src/math/calc.py": ["math/basic/add"]}`)
	gw.Script("implementation.interfaces", llmgw.Response{Content: testInterfaceSource, OK: true})
	gw.Script("codegen.test", llmgw.Response{Content: "def test_add():\n    assert add(1, 2) == 3\n", OK: true})
	gw.Script("codegen.implementation", llmgw.Response{Content: "def add(a, b):\n    return a + b\n", OK: true})

	orch := orchestrator.New(store, gw, alwaysOKSandboxer{}, 8)

	jobs := jobstore.NewMemoryCollection()
	srv := New(Config{Addr: ":0", Jobs: jobs, ReposDir: t.TempDir(), Models: []string{"glm-4.7"}}, orch)
	ts := httptest.NewServer(srv.httpSrv.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown()
	})
	return srv, ts, jobs
}

func TestHandleHealth(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
}

func TestHandleModels(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/models")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body ModelsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, []string{"glm-4.7"}, body.Models)
}

func TestHandleGetJob_NotFound(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/zerorepo/jobs/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleListJobs_Empty(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/zerorepo/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body JobsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Empty(t, body.Jobs)
}

func TestHandlePlan_MinimalCalculator(t *testing.T) {
	_, ts, _ := newTestServer(t)

	reqBody := strings.NewReader(`{"project_goal": "Generate a basic calculator with add", "max_iterations": 1}`)
	resp, err := http.Post(ts.URL+"/api/zerorepo/plan", "application/json", reqBody)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body PlanResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, []string{"math/basic/add"}, body.FeaturePaths)
	require.Equal(t, 1, body.Metrics.Accepted)
}

func TestHandlePlan_MissingGoal(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/zerorepo/plan", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestHandleGenerate_EnqueuesAndCompletes posts a generate request, which
// enqueues the job and drives it to completion on the handler's own
// background goroutine; the test polls the job document until that
// goroutine finishes (the scripted gateway and sandboxer do no real I/O,
// so this settles in well under the poll's bound).
func TestHandleGenerate_EnqueuesAndCompletes(t *testing.T) {
	_, ts, jobs := newTestServer(t)

	reqBody := strings.NewReader(`{"project_goal": "Generate a basic calculator with add", "max_iterations": 1}`)
	resp, err := http.Post(ts.URL+"/api/zerorepo/generate", "application/json", reqBody)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body GenerateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.JobID)
	require.Equal(t, jobstore.StatusPending, body.Status)

	job, err := jobs.FindOne(context.Background(), body.JobID)
	require.NoError(t, err)
	require.Equal(t, "Generate a basic calculator with add", job.ProjectGoal)

	var done *jobstore.Job
	require.Eventually(t, func() bool {
		d, err := jobs.FindOne(context.Background(), body.JobID)
		if err != nil || d.Status == jobstore.StatusPending || d.Status == jobstore.StatusRunning {
			return false
		}
		done = d
		return true
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, jobstore.StatusCompleted, done.Status)
	require.Equal(t, true, done.Result["success"])
}
