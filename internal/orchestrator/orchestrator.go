// Package orchestrator wires the three stage controllers
// (proposal → implementation → codegen) into the single pipeline run the
// job façade executes, per spec.md §5's stage-sequential scheduling model.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/zerorepo/zerorepo/internal/codegen"
	"github.com/zerorepo/zerorepo/internal/embedding"
	"github.com/zerorepo/zerorepo/internal/implementation"
	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/proposal"
)

// Request is a single pipeline run's input, mirroring the generate
// endpoint's body per spec.md §6.
type Request struct {
	ProjectGoal   string
	Domain        string
	MaxIterations int
	RepoRoot      string
}

// ProgressFunc reports a stage transition; typically backed by a
// ProgressReporter writing into the job document.
type ProgressFunc func(stage string, progress int)

// Orchestrator wires stages A (proposal) → B (implementation) → C
// (codegen) stage-sequentially: a stage never starts until the previous
// one has returned.
type Orchestrator struct {
	store      *embedding.Store
	gateway    llmgw.Gateway
	sandboxer  codegen.Sandboxer
	maxRetries int
}

// New builds an Orchestrator. maxRetries is Stage C's repair-loop cap
// (spec.md §4.7's default is 8).
func New(store *embedding.Store, gateway llmgw.Gateway, sandboxer codegen.Sandboxer, maxRetries int) *Orchestrator {
	return &Orchestrator{store: store, gateway: gateway, sandboxer: sandboxer, maxRetries: maxRetries}
}

// Run executes the full pipeline for req, invoking report after each
// stage, and returns a job-result document matching spec.md §7's
// user-visible shape: success, generated_files, failed_files,
// test_results, metrics.success_rate.
func (o *Orchestrator) Run(ctx context.Context, req Request, report ProgressFunc) (map[string]interface{}, error) {
	if report == nil {
		report = func(string, int) {}
	}

	report("proposal", 0)
	proposalResult, err := o.Plan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: stage A failed: %w", err)
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	if !proposalResult.Success {
		return map[string]interface{}{
			"success": false,
			"error":   proposalResult.Error,
		}, nil
	}
	report("proposal", 100)

	report("implementation", 0)
	implCtrl := implementation.NewController(o.gateway)
	implGraph, implResult, err := implCtrl.Run(ctx, proposalResult.Graph)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: stage B failed: %w", err)
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	report("implementation", 100)

	report("codegen", 0)
	codegenCtrl := codegen.NewController(codegen.Config{RepoRoot: req.RepoRoot, MaxRetries: o.maxRetries}, o.gateway, o.sandboxer)
	codegenResult, err := codegenCtrl.Run(ctx, implGraph)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: stage C failed: %w", err)
	}
	report("codegen", 100)

	logging.Orchestrator("orchestrator: pipeline complete for goal %q: success=%v", req.ProjectGoal, codegenResult.Success)

	return map[string]interface{}{
		"success":         codegenResult.Success,
		"generated_files": codegenResult.GeneratedFiles,
		"failed_files":    codegenResult.FailedFiles,
		"test_results":    codegenResult.TestStats,
		"metrics":         codegenResult.Metrics,
		"interfaces":      len(implResult.Interfaces),
		"base_classes":    len(implResult.BaseClasses),
	}, nil
}

// Plan executes only Stage A, for the synchronous /plan endpoint.
func (o *Orchestrator) Plan(ctx context.Context, req Request) (*proposal.Result, error) {
	cfg := proposal.Config{MaxIterations: req.MaxIterations, DomainFilter: req.Domain}
	ctrl := proposal.NewController(cfg, o.store, o.gateway)
	return ctrl.Run(ctx, req.ProjectGoal)
}

// checkCancelled turns a cancelled context into the fixed "cancelled"
// error spec.md §5's cancellation clause names, so a job that's aborted
// mid-pipeline always reports the same error string regardless of which
// stage boundary it was caught at.
func checkCancelled(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cancelled")
	}
	return nil
}
