package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/zerorepo/zerorepo/internal/jobstore"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/orchestrator"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.cfg.Jobs.Find(r.Context()).All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Jobs: len(jobs)})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ModelsResponse{Models: s.cfg.Models})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	lines, err := logging.TailRecent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, LogsResponse{Lines: lines})
}

// handlePlan runs Stage A synchronously and returns the capability graph.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ProjectGoal == "" {
		writeError(w, http.StatusBadRequest, "project_goal is required")
		return
	}

	result, err := s.orch.Plan(r.Context(), orchestrator.Request{
		ProjectGoal:   req.ProjectGoal,
		Domain:        req.Domain,
		MaxIterations: req.MaxIterations,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !result.Success {
		writeError(w, http.StatusUnprocessableEntity, result.Error)
		return
	}

	paths := make([]string, 0, len(result.Selected))
	for _, f := range result.Selected {
		paths = append(paths, f.Path)
	}

	writeJSON(w, http.StatusOK, PlanResponse{
		CapabilityGraph: result.Graph,
		FeaturePaths:    paths,
		Metrics: PlanMetrics{
			Accepted:   len(result.Selected),
			Rejected:   len(result.Rejected),
			Iterations: result.Iterations,
		},
	})
}

// handleGenerate enqueues a full pipeline job and runs it in the
// background, returning immediately.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ProjectGoal == "" {
		writeError(w, http.StatusBadRequest, "project_goal is required")
		return
	}

	now := time.Now().Unix()
	job := &jobstore.Job{
		ID:            uuid.NewString(),
		Status:        jobstore.StatusPending,
		ProjectGoal:   req.ProjectGoal,
		Domain:        req.Domain,
		LLMModel:      req.LLMModel,
		MaxIterations: req.MaxIterations,
		TargetLang:    req.TargetLanguage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.cfg.Jobs.InsertOne(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	repoRoot, err := s.repoRoot(job.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.metrics.jobsEnqueued.Inc()
	go s.runJob(job.ID, orchestrator.Request{
		ProjectGoal:   req.ProjectGoal,
		Domain:        req.Domain,
		MaxIterations: req.MaxIterations,
		RepoRoot:      repoRoot,
	})

	writeJSON(w, http.StatusAccepted, GenerateResponse{JobID: job.ID, Status: jobstore.StatusPending})
}

// runJob drives one pipeline run to completion against the job store,
// decoupled from the request's context so a client disconnect doesn't
// abort the job.
func (s *Server) runJob(jobID string, req orchestrator.Request) {
	ctx := s.baseCtx
	reporter := orchestrator.NewProgressReporter(ctx, s.cfg.Jobs, jobID)

	s.metrics.jobsRunning.Inc()
	defer s.metrics.jobsRunning.Dec()

	result, err := s.orch.Run(ctx, req, reporter.Report)
	if err != nil {
		s.metrics.jobsFailed.Inc()
		logging.API("httpapi: job %s failed: %v", jobID, err)
		_ = s.cfg.Jobs.UpdateOne(ctx, jobID, jobstore.Update{
			"status":     string(jobstore.StatusFailed),
			"error":      err.Error(),
			"updated_at": time.Now().Unix(),
		})
		return
	}

	if success, _ := result["success"].(bool); success {
		s.metrics.jobsCompleted.Inc()
	} else {
		s.metrics.jobsFailed.Inc()
	}

	_ = s.cfg.Jobs.UpdateOne(ctx, jobID, jobstore.Update{
		"status":     string(jobstore.StatusCompleted),
		"progress":   100,
		"result":     result,
		"updated_at": time.Now().Unix(),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.cfg.Jobs.FindOne(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := s.cfg.Jobs.Find(r.Context()).Sort("created_at", true)
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q = q.Skip(n)
		}
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	q = q.Limit(limit)

	jobs, err := q.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, JobsResponse{Jobs: jobs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
