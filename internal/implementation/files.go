package implementation

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// leafCapabilities returns every capability node with no containment
// children, i.e. the terminal feature paths of the proposal stage.
func leafCapabilities(g *rpg.Graph) []*rpg.Node {
	var leaves []*rpg.Node
	for _, n := range g.NodesByKind(rpg.KindCapability) {
		if len(n.Children) == 0 {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// groupByFirstTwoSegments groups leaf capabilities' feature paths by their
// first two path segments, per spec.md §4.6's file-assignment grouping.
func groupByFirstTwoSegments(leaves []*rpg.Node) map[string][]string {
	groups := make(map[string][]string)
	for _, leaf := range leaves {
		featurePath, ok := leaf.Meta.FeaturePath()
		if !ok {
			continue
		}
		segments := strings.Split(featurePath, "/")
		key := segments[0]
		if len(segments) > 1 {
			key = segments[0] + "/" + segments[1]
		}
		groups[key] = append(groups[key], featurePath)
	}
	return groups
}

// buildFileAssignments asks the LLM to assign each capability group to a
// file, falling back to one file per leaf under src/core on parse
// failure.
func buildFileAssignments(ctx context.Context, gw llmgw.Gateway, leaves []*rpg.Node) fileAssignmentResponse {
	groups := groupByFirstTwoSegments(leaves)
	if len(groups) == 0 {
		return fileAssignmentResponse{}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, strings.Join(groups[k], ", "))
	}

	prompt := fmt.Sprintf(
		"Feature groups to place into source files:\n%s\n\n"+
			`Assign each group to a single .py-style file path under an appropriate folder. `+
			`Respond as {"src/folder/file.py": ["feature/path", ...], ...} covering every feature path shown above.`,
		b.String(),
	)

	var resp fileAssignmentResponse
	if _, err := llmgw.GenerateJSONSchema(ctx, gw, llmgw.Request{
		Prompt:      prompt,
		System:      "implementation.files",
		Temperature: 0.2,
		MaxTokens:   1024,
	}, fileAssignmentSchema, &resp); err != nil || len(resp) == 0 {
		logging.Implementation("implementation: file assignment parse/validation failed, using fallback: %v", err)
		return fallbackFileAssignments(leaves)
	}
	return resp
}

// fallbackFileAssignments places one file per leaf capability under
// src/core/module_<i>.py, the deterministic skeleton spec.md §4.6 names.
func fallbackFileAssignments(leaves []*rpg.Node) fileAssignmentResponse {
	out := make(fileAssignmentResponse, len(leaves))
	for i, leaf := range leaves {
		featurePath, ok := leaf.Meta.FeaturePath()
		if !ok {
			continue
		}
		filePath := fmt.Sprintf("src/core/module_%d.py", i+1)
		out[filePath] = append(out[filePath], featurePath)
	}
	return out
}

// materializeFiles adds one file node per assignment, parents it under
// the folder whose path_hint is its longest matching directory prefix,
// and links depends_on edges from every capability whose feature_path is
// assigned to that file.
func materializeFiles(g *rpg.Graph, assignments fileAssignmentResponse, folders map[string]*rpg.Node) map[string]*rpg.Node {
	byFeaturePath := make(map[string]*rpg.Node)
	for _, n := range g.NodesByKind(rpg.KindCapability) {
		if fp, ok := n.Meta.FeaturePath(); ok {
			byFeaturePath[fp] = n
		}
	}

	filePaths := make([]string, 0, len(assignments))
	for filePath := range assignments {
		filePaths = append(filePaths, filePath)
	}
	sort.Strings(filePaths)

	files := make(map[string]*rpg.Node, len(filePaths))
	for _, filePath := range filePaths {
		features := assignments[filePath]
		file := rpg.NewNode(rpg.NewID("file"), rpg.KindFile, path.Base(filePath))
		file.PathHint = filePath
		file.Meta.SetFeatures(features)
		if err := g.AddNode(file); err != nil {
			logging.Implementation("implementation: skipping duplicate file %q: %v", filePath, err)
			continue
		}
		files[filePath] = file

		if folder := containingFolder(filePath, folders); folder != nil {
			folder.AppendChild(file.ID)
		}

		for _, featurePath := range features {
			capNode, ok := byFeaturePath[featurePath]
			if !ok {
				continue
			}
			g.AddEdge(rpg.Edge{From: capNode.ID, To: file.ID, Type: rpg.EdgeDependsOn, Note: "capability implemented by file"})
		}
	}
	return files
}

// containingFolder returns the folder whose path_hint is the longest
// directory-prefix match of filePath, or nil if none match.
func containingFolder(filePath string, folders map[string]*rpg.Node) *rpg.Node {
	dir := path.Dir(filePath)
	var best *rpg.Node
	bestLen := -1
	for folderPath, folder := range folders {
		if dir == folderPath || strings.HasPrefix(dir, folderPath+"/") {
			if len(folderPath) > bestLen {
				best = folder
				bestLen = len(folderPath)
			}
		}
	}
	return best
}
