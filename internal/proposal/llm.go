package proposal

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zerorepo/zerorepo/internal/embedding"
	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/logging"
)

// selectionResponse is the JSON shape both the exploit and explore prompts
// ask the model to return: a subset of the candidates shown, chosen by
// feature path.
type selectionResponse struct {
	Selected []string `json:"selected"`
}

// missingResponse is the JSON shape the missing-feature prompt returns: a
// 2-3 level nested map of categories to feature names.
type missingResponse struct {
	Missing map[string]interface{} `json:"missing"`
}

// selectionSchema and missingSchema constrain the exploit/explore and
// missing-feature "Dynamic JSON from the LLM" shapes spec.md §9 calls out,
// per github.com/santhosh-tekuri/jsonschema/v5.
var (
	selectionSchema = llmgw.MustCompileSchema("proposal.selection", `{
		"type": "object",
		"required": ["selected"],
		"properties": {
			"selected": {"type": "array", "items": {"type": "string"}}
		}
	}`)

	missingSchema = llmgw.MustCompileSchema("proposal.missing", `{
		"type": "object",
		"required": ["missing"],
		"properties": {
			"missing": {"type": "object"}
		}
	}`)
)

// exploit queries the embedding store for the top-k features matching
// goal, then asks the LLM to pick 3-5 essential to the goal.
func (c *Controller) exploit(ctx context.Context, goal string, selectedTail []string, iteration int) ([]embedding.FeaturePath, error) {
	k := 20 + 5*iteration
	results, err := c.store.Search(ctx, goal, k, c.cfg.DomainFilter, 0)
	if err != nil {
		logging.Proposal("proposal: exploit search failed, skipping this round: %v", err)
		return nil, nil
	}
	if len(results) == 0 {
		return nil, nil
	}

	byPath := make(map[string]embedding.SearchResult, len(results))
	candidates := make([]string, 0, len(results))
	for _, r := range results {
		byPath[r.Path] = r
		candidates = append(candidates, r.Path)
	}

	prompt := fmt.Sprintf(
		"Project goal: %s\n\nCandidate features (ranked by relevance):\n%s\n\nRecently accepted features:\n%s\n\nSelect 3-5 of the candidate features essential to the goal. "+
			`Respond as {"selected": ["feature/path", ...]} using only paths from the candidate list.`,
		goal, bulletList(candidates), bulletList(selectedTail),
	)

	var resp selectionResponse
	if _, err := llmgw.GenerateJSONSchema(ctx, c.gateway, llmgw.Request{
		Prompt:      prompt,
		System:      "proposal.exploit",
		Temperature: 0.1,
		MaxTokens:   512,
	}, selectionSchema, &resp); err != nil {
		logging.Proposal("proposal: exploit LLM call failed, no picks this round: %v", err)
		return nil, nil
	}

	out := make([]embedding.FeaturePath, 0, len(resp.Selected))
	for _, path := range resp.Selected {
		r, ok := byPath[path]
		if !ok {
			continue
		}
		out = append(out, embedding.FeaturePath{Path: path, Score: r.CosineScore, Source: embedding.SourceExploit})
	}
	return out, nil
}

// explore samples diverse features excluding the current selected/rejected
// set, then asks the LLM to pick 1-2 additions that diversify coverage
// without drifting from the goal.
func (c *Controller) explore(ctx context.Context, exclude map[string]bool) ([]embedding.FeaturePath, error) {
	diverse := c.store.SampleDiverse(exclude, 10, c.cfg.DomainFilter)
	if len(diverse) == 0 {
		return nil, nil
	}

	byPath := make(map[string]embedding.FeaturePath, len(diverse))
	candidates := make([]string, 0, len(diverse))
	for _, f := range diverse {
		byPath[f.Path] = f
		candidates = append(candidates, f.Path)
	}

	prompt := fmt.Sprintf(
		"Diverse candidate features not yet selected:\n%s\n\nPick 1-2 additions that diversify coverage without drifting from the project's goal. "+
			`Respond as {"selected": ["feature/path", ...]} using only paths from the candidate list.`,
		bulletList(candidates),
	)

	var resp selectionResponse
	if _, err := llmgw.GenerateJSONSchema(ctx, c.gateway, llmgw.Request{
		Prompt:      prompt,
		System:      "proposal.explore",
		Temperature: 0.3,
		MaxTokens:   256,
	}, selectionSchema, &resp); err != nil {
		logging.Proposal("proposal: explore LLM call failed, no picks this round: %v", err)
		return nil, nil
	}

	out := make([]embedding.FeaturePath, 0, len(resp.Selected))
	for _, path := range resp.Selected {
		if f, ok := byPath[path]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// missing summarizes selected features grouped by top segment and asks
// the LLM for a nested hierarchy of missing categories/features, which is
// then flattened into feature paths tagged source=missing.
func (c *Controller) missing(ctx context.Context, selected map[string]embedding.FeaturePath) ([]embedding.FeaturePath, error) {
	groups := groupByTopSegment(selected)

	prompt := fmt.Sprintf(
		"Currently selected features, grouped by top-level category:\n%s\n\n"+
			"Identify 2-3 levels of missing categories or features not yet covered. "+
			`Respond as {"missing": {"category": {"subcategory": ["feature_name", ...]}}}.`,
		groups,
	)

	var resp missingResponse
	if _, err := llmgw.GenerateJSONSchema(ctx, c.gateway, llmgw.Request{
		Prompt:      prompt,
		System:      "proposal.missing",
		Temperature: 0.4,
		MaxTokens:   512,
	}, missingSchema, &resp); err != nil {
		logging.Proposal("proposal: missing LLM call failed, no picks this round: %v", err)
		return nil, nil
	}

	var out []embedding.FeaturePath
	flattenMissing(resp.Missing, nil, &out)
	return out, nil
}

func flattenMissing(node map[string]interface{}, prefix []string, out *[]embedding.FeaturePath) {
	for key, val := range node {
		path := append(append([]string{}, prefix...), key)
		switch v := val.(type) {
		case map[string]interface{}:
			flattenMissing(v, path, out)
		case []interface{}:
			for _, leaf := range v {
				if s, ok := leaf.(string); ok {
					*out = append(*out, embedding.FeaturePath{
						Path:   strings.Join(append(append([]string{}, path...), s), "/"),
						Score:  0.5,
						Source: embedding.SourceMissing,
					})
				}
			}
		case []string:
			for _, s := range v {
				*out = append(*out, embedding.FeaturePath{
					Path:   strings.Join(append(append([]string{}, path...), s), "/"),
					Score:  0.5,
					Source: embedding.SourceMissing,
				})
			}
		}
	}
}

func groupByTopSegment(selected map[string]embedding.FeaturePath) string {
	groups := make(map[string][]string)
	for path := range selected {
		top := path
		if idx := strings.IndexByte(path, '/'); idx != -1 {
			top = path[:idx]
		}
		groups[top] = append(groups[top], path)
	}

	tops := make([]string, 0, len(groups))
	for top := range groups {
		tops = append(tops, top)
	}
	sort.Strings(tops)

	var b strings.Builder
	for _, top := range tops {
		members := groups[top]
		sort.Strings(members)
		fmt.Fprintf(&b, "%s: %s\n", top, strings.Join(members, ", "))
	}
	return b.String()
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return b.String()
}
