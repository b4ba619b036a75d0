package implementation

import (
	"context"
	"fmt"
	"strings"

	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// rootCapabilities returns every capability node with no containment
// parent in g (a root of the capability forest), for the folder-skeleton
// prompt; callers look up each root's direct children themselves.
func rootCapabilities(g *rpg.Graph) []*rpg.Node {
	hasParent := make(map[string]bool)
	for _, n := range g.NodesByKind(rpg.KindCapability) {
		for _, childID := range n.Children {
			hasParent[childID] = true
		}
	}
	var roots []*rpg.Node
	for _, n := range g.NodesByKind(rpg.KindCapability) {
		if !hasParent[n.ID] {
			roots = append(roots, n)
		}
	}
	return roots
}

// buildFolderSkeleton asks the LLM for a folder layout covering the root
// capabilities and their direct children, falling back to a deterministic
// skeleton on any parse failure.
func buildFolderSkeleton(ctx context.Context, gw llmgw.Gateway, g *rpg.Graph) folderSkeletonResponse {
	roots := rootCapabilities(g)
	if len(roots) == 0 {
		return fallbackFolderSkeleton()
	}

	var b strings.Builder
	for _, root := range roots {
		children := g.Children(root.ID)
		names := make([]string, 0, len(children))
		for _, c := range children {
			names = append(names, c.Name)
		}
		fmt.Fprintf(&b, "- %s: %s\n", root.Name, strings.Join(names, ", "))
	}

	prompt := fmt.Sprintf(
		"Root capabilities and their direct children:\n%s\n\n"+
			`Propose a folder layout under src/ (plus auxiliary folders like tests/) that groups these capabilities sensibly. `+
			`Respond as {"folders": [{"name": "src/...", "maps": ["capability name", ...]}], "files": []}.`,
		b.String(),
	)

	var resp folderSkeletonResponse
	if _, err := llmgw.GenerateJSONSchema(ctx, gw, llmgw.Request{
		Prompt:      prompt,
		System:      "implementation.folders",
		Temperature: 0.2,
		MaxTokens:   512,
	}, folderSkeletonSchema, &resp); err != nil {
		logging.Implementation("implementation: folder skeleton parse/validation failed, using fallback: %v", err)
		return fallbackFolderSkeleton()
	}
	if len(resp.Folders) == 0 {
		return fallbackFolderSkeleton()
	}
	return resp
}

// materializeFolders adds one folder node per spec, plus a depends_on edge
// from any capability whose name case-insensitively matches a maps entry.
func materializeFolders(g *rpg.Graph, skeleton folderSkeletonResponse) map[string]*rpg.Node {
	byLowerName := make(map[string]*rpg.Node)
	for _, n := range g.NodesByKind(rpg.KindCapability) {
		byLowerName[strings.ToLower(n.Name)] = n
	}

	folders := make(map[string]*rpg.Node, len(skeleton.Folders))
	for _, spec := range skeleton.Folders {
		folder := rpg.NewNode(rpg.NewID("folder"), rpg.KindFolder, spec.Name)
		folder.PathHint = spec.Name
		if err := g.AddNode(folder); err != nil {
			logging.Implementation("implementation: skipping duplicate folder %q: %v", spec.Name, err)
			continue
		}
		folders[spec.Name] = folder

		for _, mapped := range spec.Maps {
			capNode, ok := byLowerName[strings.ToLower(mapped)]
			if !ok {
				continue
			}
			g.AddEdge(rpg.Edge{From: capNode.ID, To: folder.ID, Type: rpg.EdgeDependsOn, Note: "capability mapped to folder"})
		}
	}
	return folders
}
