package codegen

import (
	"fmt"
	"strings"

	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// dependencyNames returns the distinct names of nodes this node declares a
// dependency on, per incoming data_flow/depends_on edges.
func dependencyNames(g *rpg.Graph, node *rpg.Node) []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range g.Incoming(node.ID, rpg.EdgeDataFlow, rpg.EdgeDependsOn) {
		dep, ok := g.Node(e.From)
		if !ok || seen[dep.Name] {
			continue
		}
		seen[dep.Name] = true
		names = append(names, dep.Name)
	}
	return names
}

// buildTestPrompt is step 1 of the per-node algorithm: synthesize a
// deterministic test at low temperature from the stub, signature, and doc.
func buildTestPrompt(node *rpg.Node) llmgw.Request {
	prompt := fmt.Sprintf(
		"Declaration under test:\n%s\n\nDoc: %s\n\n"+
			"Write a deterministic pytest test module exercising this declaration. "+
			"No randomness, no network or filesystem access unless the doc requires it. "+
			"Import the implementation from its module under test.",
		node.Signature, node.Doc,
	)
	return llmgw.Request{Prompt: prompt, System: "codegen.test", Temperature: 0.1, MaxTokens: 768}
}

// buildImplPrompt is step 2: synthesize the implementation from the stub
// plus the names of declared dependencies.
func buildImplPrompt(node *rpg.Node, deps []string) llmgw.Request {
	depLine := "none"
	if len(deps) > 0 {
		depLine = strings.Join(deps, ", ")
	}
	prompt := fmt.Sprintf(
		"Signature: %s\nDoc: %s\nDeclared dependencies: %s\n\n"+
			"Write a complete working implementation for this declaration, replacing the stub body.",
		node.Signature, node.Doc, depLine,
	)
	return llmgw.Request{Prompt: prompt, System: "codegen.implementation", Temperature: 0.3, MaxTokens: 1024}
}
