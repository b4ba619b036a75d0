package rpg

import "encoding/json"

// wireGraph is the JSON wire shape: a flat node list plus a flat edge
// list, a `(V, E)` pair rather than a nested tree (containment is still
// recoverable via Node.Children).
type wireGraph struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
}

// MarshalJSON serializes the graph as a flat {nodes, edges} document.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireGraph{Nodes: g.Nodes(), Edges: g.Edges()})
}

// UnmarshalJSON rebuilds a graph from a {nodes, edges} document produced
// by MarshalJSON. Node insertion order is preserved from the JSON array
// order; edges are replayed in array order too.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var wire wireGraph
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*g = *New()
	for _, n := range wire.Nodes {
		if err := g.AddNode(n); err != nil {
			return err
		}
	}
	for _, e := range wire.Edges {
		g.AddEdge(e)
	}
	return nil
}
