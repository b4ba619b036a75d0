package orchestrator

import (
	"context"

	"github.com/zerorepo/zerorepo/internal/jobstore"
	"github.com/zerorepo/zerorepo/internal/logging"
)

// ProgressReporter patches a job's progress/current_stage fields into a
// jobstore.Collection as the pipeline advances, matching the job row
// shape spec.md §7 names (status, progress, current_stage, error).
type ProgressReporter struct {
	ctx   context.Context
	store jobstore.Collection
	jobID string
}

// NewProgressReporter builds a reporter bound to one job.
func NewProgressReporter(ctx context.Context, store jobstore.Collection, jobID string) *ProgressReporter {
	return &ProgressReporter{ctx: ctx, store: store, jobID: jobID}
}

// Report updates progress and current_stage for the job. A store error is
// logged, not propagated: progress reporting must never abort the
// pipeline it is merely observing.
func (r *ProgressReporter) Report(stage string, progress int) {
	err := r.store.UpdateOne(r.ctx, r.jobID, jobstore.Update{
		"current_stage": stage,
		"progress":      progress,
		"status":        string(jobstore.StatusRunning),
	})
	if err != nil {
		logging.Orchestrator("orchestrator: progress update failed for job %s: %v", r.jobID, err)
	}
}
