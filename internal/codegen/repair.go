package codegen

import (
	"fmt"
	"strings"

	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// buildRepairPrompt assembles the graph-guided repair prompt spec.md §4.7
// names: node signature, current implementation, test code, test output,
// neighborhood nodes (radius 2) and their docs, and transitive dependency
// ids up to depth 2. Requests a fixed implementation only.
func buildRepairPrompt(g *rpg.Graph, node *rpg.Node, impl, test, output string) llmgw.Request {
	neighbors := g.Neighborhood(node.ID, 2)
	var neighborLines strings.Builder
	for _, n := range neighbors {
		fmt.Fprintf(&neighborLines, "- %s (%s): %s\n", n.Name, n.Kind, n.Doc)
	}
	if neighborLines.Len() == 0 {
		neighborLines.WriteString("none\n")
	}

	depIDs := g.Dependencies(node.ID, 2)
	depLine := "none"
	if len(depIDs) > 0 {
		depLine = strings.Join(depIDs, ", ")
	}

	prompt := fmt.Sprintf(
		"The implementation below fails its test. Fix it.\n\n"+
			"Signature: %s\n\n"+
			"Current implementation:\n%s\n\n"+
			"Test:\n%s\n\n"+
			"Test output:\n%s\n\n"+
			"Neighborhood nodes (radius 2):\n%s"+
			"Transitive dependency ids (depth 2): %s\n\n"+
			"Respond with the corrected implementation only, no explanation.",
		node.Signature, impl, test, output, neighborLines.String(), depLine,
	)
	return llmgw.Request{Prompt: prompt, System: "codegen.repair", Temperature: 0.3, MaxTokens: 1024}
}
