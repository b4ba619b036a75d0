package httpapi

import "github.com/zerorepo/zerorepo/internal/jobstore"

// GenerateRequest is the POST /api/zerorepo/generate request body.
type GenerateRequest struct {
	ProjectGoal    string `json:"project_goal"`
	Domain         string `json:"domain,omitempty"`
	LLMModel       string `json:"llm_model,omitempty"`
	MaxIterations  int    `json:"max_iterations,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// GenerateResponse is the immediate, synchronous reply to a generate
// request: the job has been enqueued, not run.
type GenerateResponse struct {
	JobID  string          `json:"job_id"`
	Status jobstore.Status `json:"status"`
}

// PlanRequest is the POST /api/zerorepo/plan request body: the same
// shape as GenerateRequest minus the fields only Stage C needs.
type PlanRequest struct {
	ProjectGoal   string `json:"project_goal"`
	Domain        string `json:"domain,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`
}

// PlanResponse is the synchronous Stage A result.
type PlanResponse struct {
	CapabilityGraph interface{} `json:"capability_graph"`
	FeaturePaths    []string    `json:"feature_paths"`
	Metrics         PlanMetrics `json:"metrics"`
}

// PlanMetrics summarizes a plan response.
type PlanMetrics struct {
	Accepted   int `json:"accepted"`
	Rejected   int `json:"rejected"`
	Iterations int `json:"iterations"`
}

// ErrorResponse is the standard error envelope for every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the GET /api/health reply.
type HealthResponse struct {
	Status string `json:"status"`
	Jobs   int    `json:"jobs"`
}

// ModelsResponse is the GET /api/models reply.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// LogsResponse is the GET /api/logs reply.
type LogsResponse struct {
	Lines []string `json:"lines"`
}

// JobsResponse is the GET /api/zerorepo/jobs reply.
type JobsResponse struct {
	Jobs []*jobstore.Job `json:"jobs"`
}
