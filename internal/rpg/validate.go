package rpg

import "fmt"

// ValidationError collects every invariant violation found in a single
// Validate pass, rather than failing fast on the first one, so a caller
// can report (and a test can assert on) the full set at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "rpg: " + e.Violations[0]
	}
	return fmt.Sprintf("rpg: %d invariant violations (first: %s)", len(e.Violations), e.Violations[0])
}

// Validate checks the graph's structural invariants: referential
// integrity, acyclicity, a single containment forest, unique feature
// paths, and completeness of file/class/function coverage. It returns nil
// if the graph is valid, or a *ValidationError listing every violation
// found.
func (g *Graph) Validate() error {
	var violations []string

	violations = append(violations, g.checkEdgeReferentialIntegrity()...)
	violations = append(violations, g.checkAcyclic()...)
	violations = append(violations, g.checkContainmentForest()...)
	violations = append(violations, g.checkUniqueFeaturePaths()...)
	violations = append(violations, g.checkFileFeaturesKnown()...)
	violations = append(violations, g.checkClassFunctionCompleteness()...)

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func (g *Graph) checkEdgeReferentialIntegrity() []string {
	var out []string
	for i, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			out = append(out, fmt.Sprintf("edge[%d] %s->%s: unknown source node %q", i, e.From, e.To, e.From))
		}
		if _, ok := g.nodes[e.To]; !ok {
			out = append(out, fmt.Sprintf("edge[%d] %s->%s: unknown target node %q", i, e.From, e.To, e.To))
		}
	}
	return out
}

// checkAcyclic verifies the subgraph induced by {data_flow, order} edges
// is acyclic via iterative DFS with a recursion-stack set.
func (g *Graph) checkAcyclic() []string {
	adj := make(map[string][]string)
	for _, e := range g.edges {
		if acyclicTypes[e.Type] {
			adj[e.From] = append(adj[e.From], e.To)
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var violations []string

	var visit func(id string, path []string)
	visit = func(id string, path []string) {
		if color[id] == black {
			return
		}
		color[id] = gray
		path = append(path, id)
		for _, next := range adj[id] {
			switch color[next] {
			case gray:
				violations = append(violations, fmt.Sprintf("cycle in data_flow/order edges: %v -> %s", path, next))
			case white:
				visit(next, path)
			}
		}
		color[id] = black
	}

	for _, id := range g.order {
		if color[id] == white {
			visit(id, nil)
		}
	}
	return violations
}

func (g *Graph) checkContainmentForest() []string {
	parent := make(map[string]string)
	var violations []string
	for _, id := range g.order {
		n := g.nodes[id]
		for _, childID := range n.Children {
			if prev, seen := parent[childID]; seen && prev != id {
				violations = append(violations, fmt.Sprintf("node %q has multiple containment parents: %q and %q", childID, prev, id))
				continue
			}
			parent[childID] = id
		}
	}
	return violations
}

func (g *Graph) checkUniqueFeaturePaths() []string {
	seen := make(map[string]string)
	var violations []string
	for _, n := range g.NodesByKind(KindCapability) {
		path, ok := n.Meta.FeaturePath()
		if !ok || path == "" {
			continue
		}
		if prev, exists := seen[path]; exists {
			violations = append(violations, fmt.Sprintf("duplicate feature_path %q on capabilities %q and %q", path, prev, n.ID))
			continue
		}
		seen[path] = n.ID
	}
	return violations
}

func (g *Graph) checkFileFeaturesKnown() []string {
	known := make(map[string]bool)
	for _, n := range g.NodesByKind(KindCapability) {
		if path, ok := n.Meta.FeaturePath(); ok && path != "" {
			known[path] = true
		}
	}
	var violations []string
	for _, n := range g.NodesByKind(KindFile) {
		for _, path := range n.Meta.Features() {
			if !known[path] {
				violations = append(violations, fmt.Sprintf("file %q references unknown feature_path %q", n.ID, path))
			}
		}
	}
	return violations
}

func (g *Graph) checkClassFunctionCompleteness() []string {
	filePathHints := make(map[string]bool)
	for _, n := range g.NodesByKind(KindFile) {
		filePathHints[n.PathHint] = true
	}

	var violations []string
	for _, kind := range []Kind{KindClass, KindFunction} {
		for _, n := range g.NodesByKind(kind) {
			if n.Signature == "" {
				violations = append(violations, fmt.Sprintf("%s %q has empty signature", kind, n.ID))
			}
			if n.Doc == "" {
				violations = append(violations, fmt.Sprintf("%s %q has empty doc", kind, n.ID))
			}
			if n.PathHint == "" || !filePathHints[n.PathHint] {
				violations = append(violations, fmt.Sprintf("%s %q has path_hint %q matching no file node", kind, n.ID, n.PathHint))
			}
		}
	}
	return violations
}
