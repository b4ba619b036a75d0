package rpg

import "sort"

// TopoSort returns every class/function node in an order consistent with
// their data_flow/order predecessors. Ties (nodes with no ordering
// constraint between them) are broken deterministically by path_hint then
// name, so repeated runs over the same graph always produce the same
// order.
func (g *Graph) TopoSort() ([]*Node, error) {
	targets := make(map[string]*Node)
	for _, n := range g.NodesByKind(KindClass) {
		targets[n.ID] = n
	}
	for _, n := range g.NodesByKind(KindFunction) {
		targets[n.ID] = n
	}

	// indegree and adjacency restricted to data_flow/order edges between
	// two target (class/function) nodes; edges touching other kinds
	// don't constrain this ordering.
	indegree := make(map[string]int, len(targets))
	adj := make(map[string][]string)
	for id := range targets {
		indegree[id] = 0
	}
	for _, e := range g.edges {
		if !acyclicTypes[e.Type] {
			continue
		}
		if _, fromOK := targets[e.From]; !fromOK {
			continue
		}
		if _, toOK := targets[e.To]; !toOK {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		indegree[e.To]++
	}

	ready := make([]string, 0)
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sortByKey(ready, targets)

	var result []*Node
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		result = append(result, targets[id])

		var newlyReady []string
		for _, next := range adj[id] {
			indegree[next]--
			if indegree[next] == 0 {
				newlyReady = append(newlyReady, next)
			}
		}
		sortByKey(newlyReady, targets)
		ready = mergeSorted(ready, newlyReady, targets)
	}

	if len(result) != len(targets) {
		return nil, &ValidationError{Violations: []string{"topo sort: cycle detected among class/function nodes"}}
	}
	return result, nil
}

func sortKey(n *Node) (string, string) {
	return n.PathHint, n.Name
}

func sortByKey(ids []string, targets map[string]*Node) {
	sort.Slice(ids, func(i, j int) bool {
		ph1, name1 := sortKey(targets[ids[i]])
		ph2, name2 := sortKey(targets[ids[j]])
		if ph1 != ph2 {
			return ph1 < ph2
		}
		return name1 < name2
	})
}

// mergeSorted merges two id slices, each already sorted by (path_hint,
// name), into one sorted slice, keeping the overall ready queue ordered
// without a full re-sort on every iteration.
func mergeSorted(a, b []string, targets map[string]*Node) []string {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ph1, name1 := sortKey(targets[a[i]])
		ph2, name2 := sortKey(targets[b[j]])
		if ph1 < ph2 || (ph1 == ph2 && name1 <= name2) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
