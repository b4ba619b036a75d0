package implementation

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/zerorepo/zerorepo/internal/rpg"
)

// declaration is one top-level class or function found in a generated
// interface source file.
type declaration struct {
	Kind      rpg.Kind
	Name      string
	Signature string
	Doc       string
}

// scanDeclarations parses source with the Python grammar and returns one
// declaration per top-level class_definition/function_definition, the
// "tiny top-level declaration scanner" spec.md §9 calls for rather than a
// full dependency-aware syntax tree.
func scanDeclarations(source string) []declaration {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	content := []byte(source)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil
	}
	defer tree.Close()

	lines := strings.Split(source, "\n")
	root := tree.RootNode()

	var out []declaration
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		node := child
		if child.Type() == "decorated_definition" {
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if inner := child.NamedChild(j); inner.Type() == "class_definition" || inner.Type() == "function_definition" {
					node = inner
					break
				}
			}
		}

		switch node.Type() {
		case "class_definition":
			if d := declarationFromNode(node, content, lines, rpg.KindClass); d != nil {
				out = append(out, *d)
			}
		case "function_definition":
			if d := declarationFromNode(node, content, lines, rpg.KindFunction); d != nil {
				out = append(out, *d)
			}
		}
	}
	return out
}

func declarationFromNode(node *sitter.Node, content []byte, lines []string, kind rpg.Kind) *declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	startLine := int(node.StartPoint().Row)
	signature := ""
	if startLine >= 0 && startLine < len(lines) {
		signature = strings.TrimSpace(lines[startLine])
	}

	return &declaration{
		Kind:      kind,
		Name:      name,
		Signature: signature,
		Doc:       firstDocstring(node, content),
	}
}

// firstDocstring returns the declaration body's leading string-literal
// statement, if any, stripped of quote characters. Declarations with no
// docstring get a generated one-line placeholder, since the graph's
// non-empty-doc invariant must hold for every class/function node.
func firstDocstring(node *sitter.Node, content []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return "Generated interface stub."
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return "Generated interface stub."
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return "Generated interface stub."
	}
	text := string(content[str.StartByte():str.EndByte()])
	text = strings.Trim(text, "\"'")
	text = strings.TrimSpace(text)
	if text == "" {
		return "Generated interface stub."
	}
	return text
}
