package rpg

// neighborhoodTypes is the undirected projection the neighborhood query
// runs over: every edge type except pure containment (which is already
// covered separately via Children/parent walks).
var neighborhoodTypes = map[EdgeType]bool{
	EdgeDataFlow:  true,
	EdgeDependsOn: true,
	EdgeOrder:     true,
}

// Neighborhood returns every node reachable from id within r hops over
// the undirected projection of {data_flow, depends_on, order} edges,
// excluding id itself. Used by the codegen controller to assemble
// graph-guided repair prompts.
func (g *Graph) Neighborhood(id string, r int) []*Node {
	if r <= 0 {
		return nil
	}
	if _, ok := g.nodes[id]; !ok {
		return nil
	}

	undirected := make(map[string][]string)
	for _, e := range g.edges {
		if !neighborhoodTypes[e.Type] {
			continue
		}
		undirected[e.From] = append(undirected[e.From], e.To)
		undirected[e.To] = append(undirected[e.To], e.From)
	}

	visited := map[string]int{id: 0}
	frontier := []string{id}
	for hop := 1; hop <= r; hop++ {
		var next []string
		for _, cur := range frontier {
			for _, neigh := range undirected[cur] {
				if _, seen := visited[neigh]; seen {
					continue
				}
				visited[neigh] = hop
				next = append(next, neigh)
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}

	out := make([]*Node, 0, len(visited))
	for nodeID := range visited {
		if nodeID == id {
			continue
		}
		if n, ok := g.nodes[nodeID]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Dependencies returns the transitive set of node ids reachable by
// following depends_on edges outward from id up to depth levels, used by
// the codegen repair prompt to include nearby transitive dependency ids.
func (g *Graph) Dependencies(id string, depth int) []string {
	if depth <= 0 {
		return nil
	}
	visited := map[string]bool{id: true}
	frontier := []string{id}
	var out []string
	for d := 0; d < depth; d++ {
		var next []string
		for _, cur := range frontier {
			for _, e := range g.Outgoing(cur, EdgeDependsOn) {
				if visited[e.To] {
					continue
				}
				visited[e.To] = true
				out = append(out, e.To)
				next = append(next, e.To)
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}
	return out
}
