// Package jobstore is the job-facade's document persistence layer: a
// key-value collection keyed by job id, backed by a mutex-guarded
// *sql.DB with JSON-marshaled payload columns, or an in-process fallback
// for ephemeral runs.
package jobstore

import "context"

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is the boundary-only record the job facade exposes to callers.
type Job struct {
	ID            string                 `json:"id"`
	Status        Status                 `json:"status"`
	Progress      int                    `json:"progress"`
	CurrentStage  string                 `json:"current_stage"`
	Result        map[string]interface{} `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ProjectGoal   string                 `json:"project_goal"`
	Domain        string                 `json:"domain,omitempty"`
	LLMModel      string                 `json:"llm_model,omitempty"`
	MaxIterations int                    `json:"max_iterations,omitempty"`
	TargetLang    string                 `json:"target_language,omitempty"`
	CreatedAt     int64                  `json:"created_at"`
	UpdatedAt     int64                  `json:"updated_at"`
}

// Update is a partial field patch applied by UpdateOne.
type Update map[string]interface{}

// Collection is the document-store contract shared by both the
// sqlite-backed store and its in-process fallback.
type Collection interface {
	InsertOne(ctx context.Context, job *Job) error
	FindOne(ctx context.Context, id string) (*Job, error)
	UpdateOne(ctx context.Context, id string, update Update) error
	Find(ctx context.Context) Query
}

// Query builds a sort/skip/limit chain lazily, mirroring the spec's
// find().sort().skip().limit() call style.
type Query interface {
	Sort(field string, descending bool) Query
	Skip(n int) Query
	Limit(n int) Query
	All(ctx context.Context) ([]*Job, error)
}

// ErrNotFound is returned by FindOne/UpdateOne when no job matches.
type ErrNotFound struct{ ID string }

func (e *ErrNotFound) Error() string { return "jobstore: job not found: " + e.ID }
