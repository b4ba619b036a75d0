package codegen

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/zerorepo/zerorepo/internal/logging"
)

// resultBuilder accumulates Stage C outcomes across the file groups the
// worker pool processes concurrently.
type resultBuilder struct {
	mu              sync.Mutex
	generatedFiles  map[string]bool
	failedFiles     map[string]bool
	generatedNodes  int
	failedNodes     int
	nonCommentLines int
}

func newResultBuilder() *resultBuilder {
	return &resultBuilder{
		generatedFiles: make(map[string]bool),
		failedFiles:    make(map[string]bool),
	}
}

func (rb *resultBuilder) recordSuccess(filePath, implCode string) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.generatedFiles[filePath] = true
	rb.generatedNodes++
	rb.nonCommentLines += countNonCommentLines(implCode)
}

func (rb *resultBuilder) recordFailure(filePath string) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.failedFiles[filePath] = true
	rb.failedNodes++
}

// countNonCommentLines counts non-empty, non-comment lines, per spec.md
// §4.7's reporting step. Generated sources are Python, so only "#"
// comments are recognized.
func countNonCommentLines(source string) int {
	count := 0
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		count++
	}
	return count
}

// report runs the full suite and composes the final Result: success =
// (failures == 0), generated/failed file lists, aggregate test stats, and
// summary metrics, per spec.md §4.7.
func (c *Controller) report(ctx context.Context, rb *resultBuilder) (*Result, error) {
	rb.mu.Lock()
	generated := setToSortedSlice(rb.generatedFiles)
	failed := setToSortedSlice(rb.failedFiles)
	generatedNodes := rb.generatedNodes
	failedNodes := rb.failedNodes
	nonCommentLines := rb.nonCommentLines
	rb.mu.Unlock()

	suite, err := c.sandboxer.RunFullSuite(ctx, c.cfg.RepoRoot)
	if err != nil {
		logging.Codegen("codegen: full suite run failed: %v", err)
	}

	stats := TestStats{Total: suite.Counts.Total, Passed: suite.Counts.Passed, Failed: suite.Counts.Failed}

	total := generatedNodes + failedNodes
	successRate := 0.0
	if total > 0 {
		successRate = float64(generatedNodes) / float64(total)
	}

	result := &Result{
		Success:        failedNodes == 0,
		GeneratedFiles: generated,
		FailedFiles:    failed,
		TestStats:      stats,
		Metrics: Metrics{
			SuccessRate:     successRate,
			GeneratedNodes:  generatedNodes,
			FailedNodes:     failedNodes,
			NonCommentLines: nonCommentLines,
		},
	}
	logging.Codegen("codegen: generated=%d failed=%d success_rate=%.2f", generatedNodes, failedNodes, successRate)
	return result, nil
}

func setToSortedSlice(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
