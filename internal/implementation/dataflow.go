package implementation

import "github.com/zerorepo/zerorepo/internal/rpg"

// detectDataFlowEdges would add data_flow edges between files whose
// interface signatures show a matching produced/consumed type name.
// Baseline implementation always returns none, which the rest of the
// pipeline must tolerate per spec.md §4.6.
//
// TODO: match `-> SomeType` return annotations against parameter type
// annotations of other files' stubs once the interface stub signatures
// carry structured type info (currently only raw source text).
func detectDataFlowEdges(_ map[string]*rpg.Node, _ map[string]string) []rpg.Edge {
	return nil
}
