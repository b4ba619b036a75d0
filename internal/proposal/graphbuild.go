package proposal

import (
	"strings"

	"github.com/zerorepo/zerorepo/internal/embedding"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// BuildCapabilityGraph materializes one capability node per accepted
// feature path prefix, per spec.md §4.5. Existing nodes are reused by
// feature_path so shared prefixes across multiple accepted paths collapse
// onto a single node; containment edges link parent prefixes to child
// prefixes, then the cross-link table is applied.
func BuildCapabilityGraph(accepted []embedding.FeaturePath, links []CrossLink) *rpg.Graph {
	g := rpg.New()
	byPrefix := make(map[string]*rpg.Node)
	linkedEdges := make(map[string]bool)

	edgeKey := func(from, to string) string { return from + "->" + to }

	ensure := func(prefix string) *rpg.Node {
		if n, ok := byPrefix[prefix]; ok {
			return n
		}
		segments := strings.Split(prefix, "/")
		n := rpg.NewNode(rpg.NewID("capability"), rpg.KindCapability, segments[len(segments)-1])
		n.Meta.SetFeaturePath(prefix)
		_ = g.AddNode(n)
		byPrefix[prefix] = n
		return n
	}

	for _, fp := range accepted {
		segments := strings.Split(fp.Path, "/")
		var parent *rpg.Node
		for i := range segments {
			prefix := strings.Join(segments[:i+1], "/")
			node := ensure(prefix)
			if prefix == fp.Path {
				node.Meta.SetScore(fp.Score)
				node.Meta.SetSource(rpg.Source(fp.Source))
			}
			if parent != nil {
				key := edgeKey(parent.ID, node.ID)
				if !linkedEdges[key] {
					linkedEdges[key] = true
					parent.AppendChild(node.ID)
					g.AddEdge(rpg.Edge{From: parent.ID, To: node.ID, Type: rpg.EdgeDependsOn, Note: "hierarchical containment"})
				}
			}
			parent = node
		}
	}

	for _, link := range links {
		from, fromOK := byPrefix[link.From]
		to, toOK := byPrefix[link.To]
		if !fromOK || !toOK {
			continue
		}
		key := edgeKey(from.ID, to.ID)
		if linkedEdges[key] {
			continue
		}
		linkedEdges[key] = true
		g.AddEdge(rpg.Edge{From: from.ID, To: to.ID, Type: rpg.EdgeDependsOn, Note: "logical cross-link"})
	}

	return g
}
