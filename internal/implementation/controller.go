package implementation

import (
	"context"

	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// Controller runs the B1 (file structure) and B2 (interfaces/data-flow)
// sub-stages over a capability graph, per spec.md §4.6.
type Controller struct {
	gateway llmgw.Gateway
}

// NewController builds an implementation controller.
func NewController(gateway llmgw.Gateway) *Controller {
	return &Controller{gateway: gateway}
}

// Run extends g with folder, file, and interface-declaration nodes,
// returning the enriched graph and the generated source bookkeeping
// (interfaces and any base classes) downstream codegen needs.
func (c *Controller) Run(ctx context.Context, g *rpg.Graph) (*rpg.Graph, *Result, error) {
	next := g.Extend()

	// B1 — file structure.
	skeleton := buildFolderSkeleton(ctx, c.gateway, next)
	folders := materializeFolders(next, skeleton)

	leaves := leafCapabilities(next)
	assignments := buildFileAssignments(ctx, c.gateway, leaves)
	files := materializeFiles(next, assignments, folders)

	// B2 — interfaces and data flow.
	baseClasses := buildBaseClasses(ctx, c.gateway, leaves)
	interfaces := buildInterfaces(ctx, c.gateway, files)

	for _, edge := range detectDataFlowEdges(files, interfaces) {
		next.AddEdge(edge)
	}

	materializeDeclarations(next, files, interfaces)

	if err := next.Validate(); err != nil {
		logging.Implementation("implementation: graph validation failed after stage B: %v", err)
		return nil, nil, err
	}

	logging.Implementation("implementation: materialized %d folders, %d files, %d interface sources",
		len(folders), len(files), len(interfaces))
	return next, &Result{Interfaces: interfaces, BaseClasses: baseClasses}, nil
}

// materializeDeclarations parses each file's generated interface source
// and adds one class/function node per top-level declaration, per
// spec.md §4.6's B2d.
func materializeDeclarations(g *rpg.Graph, files map[string]*rpg.Node, interfaces map[string]string) {
	for filePath, file := range files {
		source, ok := interfaces[filePath]
		if !ok {
			continue
		}
		for _, decl := range scanDeclarations(source) {
			node := rpg.NewNode(rpg.NewID(string(decl.Kind)), decl.Kind, decl.Name)
			node.PathHint = filePath
			node.Signature = decl.Signature
			node.Doc = decl.Doc
			if err := g.AddNode(node); err != nil {
				logging.Implementation("implementation: skipping duplicate declaration node: %v", err)
				continue
			}
			file.AppendChild(node.ID)
			g.AddEdge(rpg.Edge{From: file.ID, To: node.ID, Type: rpg.EdgeDependsOn, Note: "file declares"})
		}
	}
}
