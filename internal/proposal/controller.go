// Package proposal implements stage A of the pipeline: Algorithm 1's
// exploit/explore/missing feature accumulation loop, the acceptance
// filter, and capability-graph construction, per spec.md §4.5.
package proposal

import (
	"context"

	"github.com/zerorepo/zerorepo/internal/embedding"
	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// Config tunes a single controller run.
type Config struct {
	MaxIterations  int
	DomainFilter   string
	CrossLinksPath string // override path for the cross-link table; empty uses the embedded default
}

// Result is what a run returns: the capability graph (nil on failure) and
// bookkeeping useful to callers and tests.
type Result struct {
	Graph      *rpg.Graph
	Selected   []embedding.FeaturePath
	Rejected   []string
	Iterations int
	Success    bool
	Error      string
}

// Controller runs Algorithm 1 against a shared embedding store and LLM
// gateway. The gateway is an interface and the store wraps any
// EmbeddingEngine, so tests substitute deterministic doubles.
type Controller struct {
	cfg     Config
	store   *embedding.Store
	gateway llmgw.Gateway
}

// NewController builds a proposal controller.
func NewController(cfg Config, store *embedding.Store, gateway llmgw.Gateway) *Controller {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 1
	}
	return &Controller{cfg: cfg, store: store, gateway: gateway}
}

// Run executes Algorithm 1 for goal, returning the built capability graph
// on success or Result.Success=false with Result.Error="no features
// accepted" if every candidate across every iteration was rejected.
func (c *Controller) Run(ctx context.Context, goal string) (*Result, error) {
	selected := make(map[string]embedding.FeaturePath)
	var selectedOrder []string
	rejected := make(map[string]bool)
	iterations := 0

	for i := 0; i < c.cfg.MaxIterations; i++ {
		iterations = i + 1

		exclude := make(map[string]bool, len(selected)+len(rejected))
		for p := range selected {
			exclude[p] = true
		}
		for p := range rejected {
			exclude[p] = true
		}

		exploitCandidates, err := c.exploit(ctx, goal, tail(selectedOrder, 10), i)
		if err != nil {
			return nil, err
		}
		exploreCandidates, err := c.explore(ctx, exclude)
		if err != nil {
			return nil, err
		}
		missingCandidates, err := c.missing(ctx, selected)
		if err != nil {
			return nil, err
		}

		all := make([]embedding.FeaturePath, 0, len(exploitCandidates)+len(exploreCandidates)+len(missingCandidates))
		all = append(all, exploitCandidates...)
		all = append(all, exploreCandidates...)
		all = append(all, missingCandidates...)

		acceptedThisRound := 0
		for _, cand := range all {
			if c.reject(cand, selected, rejected) {
				rejected[cand.Path] = true
				continue
			}
			selected[cand.Path] = cand
			selectedOrder = append(selectedOrder, cand.Path)
			acceptedThisRound++
		}

		logging.ProposalDebug("proposal: iteration %d considered %d candidates, accepted %d", i, len(all), acceptedThisRound)
		if acceptedThisRound == 0 {
			break
		}
	}

	rejectedList := make([]string, 0, len(rejected))
	for p := range rejected {
		rejectedList = append(rejectedList, p)
	}

	if len(selected) == 0 {
		return &Result{
			Success:    false,
			Error:      "no features accepted",
			Iterations: iterations,
			Rejected:   rejectedList,
		}, nil
	}

	acceptedList := make([]embedding.FeaturePath, 0, len(selectedOrder))
	for _, p := range selectedOrder {
		acceptedList = append(acceptedList, selected[p])
	}

	if err := c.store.Add(ctx, acceptedList); err != nil {
		logging.Proposal("proposal: failed to persist accepted features to embedding store: %v", err)
	}

	links, err := LoadCrossLinks(c.cfg.CrossLinksPath)
	if err != nil {
		return nil, err
	}
	graph := BuildCapabilityGraph(acceptedList, links)

	logging.Proposal("proposal: accepted %d features over %d iterations", len(acceptedList), iterations)
	return &Result{
		Graph:      graph,
		Selected:   acceptedList,
		Rejected:   rejectedList,
		Iterations: iterations,
		Success:    true,
	}, nil
}

// reject applies the acceptance filter (Algorithm 1's gate) to a single
// candidate against the current selected/rejected state.
func (c *Controller) reject(cand embedding.FeaturePath, selected map[string]embedding.FeaturePath, rejected map[string]bool) bool {
	if _, ok := selected[cand.Path]; ok {
		return true
	}
	if rejected[cand.Path] {
		return true
	}
	if cand.Score < 0.2 {
		return true
	}
	if matchesGenericInfrastructure(cand.Path) {
		return true
	}
	candSegments := segmentSet(cand.Path)
	for _, acc := range selected {
		if jaccard(candSegments, segmentSet(acc.Path)) > 0.8 {
			return true
		}
	}
	return false
}

func tail(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
