package rpg

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func capability(id, name, featurePath string) *Node {
	n := NewNode(id, KindCapability, name)
	if featurePath != "" {
		n.Meta.SetFeaturePath(featurePath)
	}
	return n
}

func file(id, name, pathHint string, features ...string) *Node {
	n := NewNode(id, KindFile, name)
	n.PathHint = pathHint
	n.Meta.SetFeatures(features)
	return n
}

func fn(id, name, pathHint, signature, doc string) *Node {
	n := NewNode(id, KindFunction, name)
	n.PathHint = pathHint
	n.Signature = signature
	n.Doc = doc
	return n
}

func TestNewID_UniqueAndPrefixed(t *testing.T) {
	a := NewID("capability")
	b := NewID("capability")
	require.NotEqual(t, a, b)
	require.Contains(t, a, "capability_")
}

func TestGraph_AddNodeRejectsDuplicateID(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(capability("cap-1", "regression", "ml/algorithms/regression")))
	require.Error(t, g.AddNode(capability("cap-1", "other", "ml/other")))
}

func TestGraph_ChildrenAndEdgeLookups(t *testing.T) {
	g := New()
	parent := capability("cap-1", "ml", "ml")
	child := capability("cap-2", "algorithms", "ml/algorithms")
	parent.AppendChild(child.ID)
	require.NoError(t, g.AddNode(parent))
	require.NoError(t, g.AddNode(child))
	g.AddEdge(Edge{From: parent.ID, To: child.ID, Type: EdgeDependsOn, Note: "hierarchical containment"})

	require.Len(t, g.Children(parent.ID), 1)
	require.Equal(t, child.ID, g.Children(parent.ID)[0].ID)

	out := g.Outgoing(parent.ID, EdgeDependsOn)
	require.Len(t, out, 1)
	in := g.Incoming(child.ID)
	require.Len(t, in, 1)
}

func TestGraph_Validate_CleanGraphPasses(t *testing.T) {
	g := New()
	cap1 := capability("cap-1", "regression", "ml/algorithms/regression")
	require.NoError(t, g.AddNode(cap1))

	f := file("file-1", "linear.py", "src/ml/linear.py", "ml/algorithms/regression")
	require.NoError(t, g.AddNode(f))
	g.AddEdge(Edge{From: cap1.ID, To: f.ID, Type: EdgeDependsOn})

	fn1 := fn("fn-1", "fit", "src/ml/linear.py", "def fit(x: list[float]) -> None", "Fits the model.")
	f.AppendChild(fn1.ID)
	require.NoError(t, g.AddNode(fn1))

	require.NoError(t, g.Validate())
}

func TestGraph_Validate_DanglingEdgeReference(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(capability("cap-1", "regression", "ml/algorithms/regression")))
	g.AddEdge(Edge{From: "cap-1", To: "does-not-exist", Type: EdgeDependsOn})

	err := g.Validate()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Violations[0], "unknown target node")
}

func TestGraph_Validate_CycleInDataFlow(t *testing.T) {
	g := New()
	a := fn("fn-a", "a", "src/a.py", "def a() -> None", "a")
	b := fn("fn-b", "b", "src/a.py", "def b() -> None", "b")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	f := file("file-1", "a.py", "src/a.py")
	require.NoError(t, g.AddNode(f))

	g.AddEdge(Edge{From: a.ID, To: b.ID, Type: EdgeDataFlow})
	g.AddEdge(Edge{From: b.ID, To: a.ID, Type: EdgeDataFlow})

	err := g.Validate()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	found := false
	for _, v := range ve.Violations {
		if strings.Contains(v, "cycle in") {
			found = true
		}
	}
	require.True(t, found, "expected a cycle violation, got %v", ve.Violations)
}

func TestGraph_Validate_ContainmentMultipleParents(t *testing.T) {
	g := New()
	parentA := capability("cap-a", "a", "a")
	parentB := capability("cap-b", "b", "b")
	child := capability("cap-c", "c", "a/c")
	parentA.AppendChild(child.ID)
	parentB.AppendChild(child.ID)
	require.NoError(t, g.AddNode(parentA))
	require.NoError(t, g.AddNode(parentB))
	require.NoError(t, g.AddNode(child))

	err := g.Validate()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestGraph_Validate_DuplicateFeaturePath(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(capability("cap-1", "regression", "ml/algorithms/regression")))
	require.NoError(t, g.AddNode(capability("cap-2", "regression-dup", "ml/algorithms/regression")))

	err := g.Validate()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestGraph_Validate_FileReferencesUnknownFeature(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(file("file-1", "linear.py", "src/linear.py", "ml/does/not/exist")))

	err := g.Validate()
	require.Error(t, err)
}

func TestGraph_Validate_FunctionMissingSignatureOrDoc(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(file("file-1", "linear.py", "src/linear.py")))
	bad := NewNode("fn-1", KindFunction, "fit")
	bad.PathHint = "src/linear.py"
	require.NoError(t, g.AddNode(bad))

	err := g.Validate()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.GreaterOrEqual(t, len(ve.Violations), 2) // empty signature AND empty doc
}

func TestGraph_Validate_FunctionPathHintMustMatchFile(t *testing.T) {
	g := New()
	bad := fn("fn-1", "fit", "src/nowhere.py", "def fit() -> None", "doc")
	require.NoError(t, g.AddNode(bad))

	err := g.Validate()
	require.Error(t, err)
}

func TestGraph_TopoSort_RespectsOrderEdgesAndIsDeterministic(t *testing.T) {
	g := New()
	f := file("file-1", "m.py", "src/m.py")
	require.NoError(t, g.AddNode(f))

	zFn := fn("fn-z", "z_last", "src/m.py", "def z_last() -> None", "last")
	aFn := fn("fn-a", "a_first", "src/m.py", "def a_first() -> None", "first")
	require.NoError(t, g.AddNode(zFn))
	require.NoError(t, g.AddNode(aFn))
	g.AddEdge(Edge{From: aFn.ID, To: zFn.ID, Type: EdgeOrder})

	order, err := g.TopoSort()
	require.NoError(t, err)
	require.Len(t, order, 2)
	require.Equal(t, aFn.ID, order[0].ID)
	require.Equal(t, zFn.ID, order[1].ID)
}

func TestGraph_TopoSort_TiesBrokenByPathHintThenName(t *testing.T) {
	g := New()
	f := file("file-1", "m.py", "src/m.py")
	require.NoError(t, g.AddNode(f))

	b := fn("fn-b", "beta", "src/m.py", "def beta() -> None", "b")
	a := fn("fn-a", "alpha", "src/m.py", "def alpha() -> None", "a")
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddNode(a))

	order, err := g.TopoSort()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta"}, []string{order[0].Name, order[1].Name})
}

func TestGraph_TopoSort_DetectsCycle(t *testing.T) {
	g := New()
	f := file("file-1", "m.py", "src/m.py")
	require.NoError(t, g.AddNode(f))
	a := fn("fn-a", "a", "src/m.py", "def a() -> None", "a")
	b := fn("fn-b", "b", "src/m.py", "def b() -> None", "b")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	g.AddEdge(Edge{From: a.ID, To: b.ID, Type: EdgeOrder})
	g.AddEdge(Edge{From: b.ID, To: a.ID, Type: EdgeOrder})

	_, err := g.TopoSort()
	require.Error(t, err)
}

func TestGraph_Neighborhood_RadiusLimitsReach(t *testing.T) {
	g := New()
	nodes := make([]*Node, 5)
	for i := range nodes {
		nodes[i] = capability(string(rune('a'+i)), string(rune('a'+i)), "")
		require.NoError(t, g.AddNode(nodes[i]))
	}
	// chain a -> b -> c -> d -> e
	for i := 0; i < 4; i++ {
		g.AddEdge(Edge{From: nodes[i].ID, To: nodes[i+1].ID, Type: EdgeDependsOn})
	}

	within1 := g.Neighborhood("a", 1)
	require.Len(t, within1, 1)
	require.Equal(t, "b", within1[0].ID)

	within2 := g.Neighborhood("a", 2)
	require.Len(t, within2, 2)

	all := g.Neighborhood("a", 10)
	require.Len(t, all, 4)
}

func TestGraph_Dependencies_TransitiveDependsOn(t *testing.T) {
	g := New()
	a := capability("a", "a", "")
	b := capability("b", "b", "")
	c := capability("c", "c", "")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddNode(c))
	g.AddEdge(Edge{From: a.ID, To: b.ID, Type: EdgeDependsOn})
	g.AddEdge(Edge{From: b.ID, To: c.ID, Type: EdgeDependsOn})

	deps := g.Dependencies("a", 2)
	require.ElementsMatch(t, []string{"b", "c"}, deps)

	depsShallow := g.Dependencies("a", 1)
	require.ElementsMatch(t, []string{"b"}, depsShallow)
}

func TestGraph_JSONRoundTrip(t *testing.T) {
	g := New()
	cap1 := capability("cap-1", "regression", "ml/algorithms/regression")
	require.NoError(t, g.AddNode(cap1))
	f := file("file-1", "linear.py", "src/linear.py", "ml/algorithms/regression")
	cap1.AppendChild(f.ID)
	require.NoError(t, g.AddNode(f))
	g.AddEdge(Edge{From: cap1.ID, To: f.ID, Type: EdgeDependsOn, Note: "hierarchical containment"})

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var restored Graph
	require.NoError(t, json.Unmarshal(data, &restored))

	require.Equal(t, g.Len(), restored.Len())
	restoredCap, ok := restored.Node("cap-1")
	require.True(t, ok)
	path, ok := restoredCap.Meta.FeaturePath()
	require.True(t, ok)
	require.Equal(t, "ml/algorithms/regression", path)
	require.NoError(t, restored.Validate())
}

func TestGraph_Extend_CopiesRatherThanAliases(t *testing.T) {
	g := New()
	cap1 := capability("cap-1", "regression", "ml/algorithms/regression")
	require.NoError(t, g.AddNode(cap1))

	next := g.Extend()
	nextCap := next.MustNode("cap-1")
	nextCap.Meta.SetScore(0.9)

	origCap := g.MustNode("cap-1")
	_, scored := origCap.Meta.Score()
	require.False(t, scored, "mutating the extended graph's node must not affect the producer's graph")
}
