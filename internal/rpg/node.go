// Package rpg implements the Repository Planning Graph: the typed,
// append-only node/edge model shared by the proposal, implementation, and
// codegen controllers (plain structs, explicit constructors, no
// reflection-heavy generics).
package rpg

import "fmt"

// Kind enumerates the five node kinds the graph recognizes.
type Kind string

const (
	KindCapability Kind = "capability"
	KindFolder     Kind = "folder"
	KindFile       Kind = "file"
	KindClass      Kind = "class"
	KindFunction   Kind = "function"
)

// Source enumerates where a capability or feature path originated.
type Source string

const (
	SourceExploit  Source = "exploit"
	SourceExplore  Source = "explore"
	SourceMissing  Source = "missing"
	SourceOntology Source = "ontology"
)

// Meta is the node's free-form metadata bag. The recognized keys are
// accessed through typed helpers below rather than raw map indexing, so
// callers don't have to remember the string keys or do their own type
// assertions.
type Meta map[string]interface{}

const (
	metaKeyFeaturePath   = "feature_path"
	metaKeyFeatures      = "features"
	metaKeySource        = "source"
	metaKeyScore         = "score"
	metaKeyInterfaceSpec = "interface_spec"
)

// FeaturePath returns the capability's feature_path, if set.
func (m Meta) FeaturePath() (string, bool) {
	v, ok := m[metaKeyFeaturePath].(string)
	return v, ok
}

// SetFeaturePath records a capability's feature_path.
func (m Meta) SetFeaturePath(path string) { m[metaKeyFeaturePath] = path }

// Features returns the feature paths a file node implements.
func (m Meta) Features() []string {
	v, _ := m[metaKeyFeatures].([]string)
	return v
}

// SetFeatures records the feature paths a file node implements.
func (m Meta) SetFeatures(paths []string) { m[metaKeyFeatures] = paths }

// AppendFeature appends a single feature path to a file node's feature list.
func (m Meta) AppendFeature(path string) {
	m[metaKeyFeatures] = append(m.Features(), path)
}

// Source returns the node's provenance, if set.
func (m Meta) Source() (Source, bool) {
	v, ok := m[metaKeySource].(Source)
	if ok {
		return v, true
	}
	if s, ok := m[metaKeySource].(string); ok {
		return Source(s), true
	}
	return "", false
}

// SetSource records the node's provenance.
func (m Meta) SetSource(s Source) { m[metaKeySource] = s }

// Score returns the node's acceptance score, if set.
func (m Meta) Score() (float64, bool) {
	v, ok := m[metaKeyScore].(float64)
	return v, ok
}

// SetScore records the node's acceptance score.
func (m Meta) SetScore(score float64) { m[metaKeyScore] = score }

// InterfaceSpec reports whether the node is an interface-only stub.
func (m Meta) InterfaceSpec() bool {
	v, _ := m[metaKeyInterfaceSpec].(bool)
	return v
}

// SetInterfaceSpec marks the node as an interface-only stub.
func (m Meta) SetInterfaceSpec(v bool) { m[metaKeyInterfaceSpec] = v }

// Node is a single vertex in the graph: id, kind, name, path hint,
// signature, doc, children, and a free-form meta bag.
type Node struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	Name      string   `json:"name"`
	PathHint  string   `json:"path_hint,omitempty"`
	Signature string   `json:"signature,omitempty"`
	Doc       string   `json:"doc,omitempty"`
	Children  []string `json:"children,omitempty"`
	Meta      Meta     `json:"meta,omitempty"`
}

// NewNode builds a node with an initialized Meta map so callers can set
// metadata immediately without a nil check.
func NewNode(id string, kind Kind, name string) *Node {
	return &Node{ID: id, Kind: kind, Name: name, Meta: Meta{}}
}

// AppendChild appends a child id to the node's containment list.
func (n *Node) AppendChild(id string) {
	n.Children = append(n.Children, id)
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s %q)", n.ID, n.Kind, n.Name)
}
