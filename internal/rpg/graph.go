package rpg

import "fmt"

// Graph is a directed graph of Nodes and Edges with the containment
// forest threaded through Node.Children. Nodes and edges are append-only
// within a pipeline run: each stage is expected to call Extend (or
// AddNode/AddEdge directly) on a graph it received rather than mutate
// nodes in place, aside from the two permitted mutations (appending to
// children, stage metadata).
type Graph struct {
	nodes map[string]*Node
	edges []Edge

	out map[string][]int // node id -> indices into edges, outgoing
	in  map[string][]int // node id -> indices into edges, incoming

	order []string // node insertion order, for deterministic iteration
}

// New builds an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		out:   make(map[string][]int),
		in:    make(map[string][]int),
	}
}

// AddNode inserts a node. Returns an error if the id is already present,
// since ids must be unique within a graph.
func (g *Graph) AddNode(n *Node) error {
	if n.ID == "" {
		return fmt.Errorf("rpg: node has empty id")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("rpg: duplicate node id %q", n.ID)
	}
	if n.Meta == nil {
		n.Meta = Meta{}
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge inserts an edge. Endpoints are not required to already exist in
// the graph (construction order may add edges before their targets are
// materialized within a single builder pass); referential integrity is
// checked by Validate once the graph is complete.
func (g *Graph) AddEdge(e Edge) {
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.out[e.From] = append(g.out[e.From], idx)
	g.in[e.To] = append(g.in[e.To], idx)
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// MustNode looks up a node by id, panicking if absent. Intended for
// internal call sites that already validated the graph.
func (g *Graph) MustNode(id string) *Node {
	n, ok := g.nodes[id]
	if !ok {
		panic(fmt.Sprintf("rpg: node %q not found", id))
	}
	return n
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesByKind returns all nodes of the given kind, in insertion order.
func (g *Graph) NodesByKind(kind Kind) []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Children returns the node's containment children, resolved to *Node.
// Unresolvable ids (a validation failure waiting to happen) are skipped.
func (g *Graph) Children(id string) []*Node {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, childID := range n.Children {
		if child, ok := g.nodes[childID]; ok {
			out = append(out, child)
		}
	}
	return out
}

// Outgoing returns edges leaving id, optionally filtered to the given
// types (all types if none given).
func (g *Graph) Outgoing(id string, types ...EdgeType) []Edge {
	return g.filterEdges(g.out[id], types)
}

// Incoming returns edges entering id, optionally filtered to the given
// types (all types if none given).
func (g *Graph) Incoming(id string, types ...EdgeType) []Edge {
	return g.filterEdges(g.in[id], types)
}

func (g *Graph) filterEdges(indices []int, types []EdgeType) []Edge {
	if len(types) == 0 {
		out := make([]Edge, len(indices))
		for i, idx := range indices {
			out[i] = g.edges[idx]
		}
		return out
	}
	want := make(map[EdgeType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []Edge
	for _, idx := range indices {
		if e := g.edges[idx]; want[e.Type] {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Extend returns a shallow copy of the graph for a downstream stage to
// enrich, per the "each stage returns a new RPG extending the previous"
// lifecycle rule. Node and edge slices/maps are copied so the caller's
// additions never retroactively mutate the producer's view.
func (g *Graph) Extend() *Graph {
	next := New()
	for _, id := range g.order {
		n := g.nodes[id]
		cp := *n
		cp.Children = append([]string(nil), n.Children...)
		cp.Meta = make(Meta, len(n.Meta))
		for k, v := range n.Meta {
			cp.Meta[k] = v
		}
		_ = next.AddNode(&cp)
	}
	for _, e := range g.edges {
		next.AddEdge(e)
	}
	return next
}
