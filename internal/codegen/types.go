package codegen

// TestStats aggregates pass/fail counts across the full suite run, per
// spec.md §4.7's reporting step.
type TestStats struct {
	Total  int
	Passed int
	Failed int
}

// Metrics is the summary numbers the job result exposes alongside the
// file lists.
type Metrics struct {
	SuccessRate     float64
	GeneratedNodes  int
	FailedNodes     int
	NonCommentLines int
}

// Result is Stage C's output: generated/failed file lists, aggregate test
// stats, and summary metrics, per spec.md §4.7 and §7's job-result shape.
type Result struct {
	Success        bool
	GeneratedFiles []string
	FailedFiles    []string
	TestStats      TestStats
	Metrics        Metrics
}
