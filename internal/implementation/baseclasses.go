package implementation

import (
	"context"
	"fmt"
	"strings"

	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// patternCandidate is one recurring-pattern shape to look for across leaf
// capability names, e.g. "fit/predict" (estimator-style) or
// "transform/process" (transformer-style), per spec.md §4.6.
type patternCandidate struct {
	Name     string
	Keywords []string
}

var patternCandidates = []patternCandidate{
	{Name: "Estimator", Keywords: []string{"fit", "predict"}},
	{Name: "Transformer", Keywords: []string{"transform", "process"}},
	{Name: "Loader", Keywords: []string{"load", "read"}},
	{Name: "Validator", Keywords: []string{"validate", "check"}},
}

// matches reports whether a capability name matches any keyword
// of the pattern, case-insensitively.
func (p patternCandidate) matches(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range p.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// detectRecurringPatterns returns every pattern (keyed by name) with at
// least 2 matching leaf capabilities, the recurrence threshold spec.md
// §4.6 names.
func detectRecurringPatterns(leaves []*rpg.Node) map[string][]*rpg.Node {
	hits := make(map[string][]*rpg.Node)
	for _, pattern := range patternCandidates {
		for _, leaf := range leaves {
			if pattern.matches(leaf.Name) {
				hits[pattern.Name] = append(hits[pattern.Name], leaf)
			}
		}
	}
	for name, matched := range hits {
		if len(matched) < 2 {
			delete(hits, name)
		}
	}
	return hits
}

// buildBaseClasses asks the LLM for a minimal abstract base definition per
// recurring pattern, skipping entirely when fewer than two patterns
// recur (spec.md §4.6's "if fewer than two, skip").
func buildBaseClasses(ctx context.Context, gw llmgw.Gateway, leaves []*rpg.Node) map[string]string {
	patterns := detectRecurringPatterns(leaves)
	if len(patterns) < 2 {
		return nil
	}

	keywordsByName := make(map[string][]string, len(patternCandidates))
	for _, p := range patternCandidates {
		keywordsByName[p.Name] = p.Keywords
	}

	out := make(map[string]string, len(patterns))
	for name, matched := range patterns {
		memberNames := make([]string, 0, len(matched))
		for _, n := range matched {
			memberNames = append(memberNames, n.Name)
		}

		prompt := fmt.Sprintf(
			"Capabilities following the %s pattern (methods like %s): %s\n\n"+
				"Write a minimal abstract base class with only the shared method signatures, bodies omitted (pass/raise NotImplementedError), and a one-line docstring per method.",
			name, strings.Join(keywordsByName[name], "/"), strings.Join(memberNames, ", "),
		)

		resp, err := gw.Generate(ctx, llmgw.Request{
			Prompt:      prompt,
			System:      "implementation.baseclasses",
			Temperature: 0.2,
			MaxTokens:   512,
		})
		if err != nil {
			logging.Implementation("implementation: base class generation failed for pattern %q: %v", name, err)
			continue
		}
		out[name] = resp.Content
	}
	return out
}
