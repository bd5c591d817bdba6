package parser

import (
	"fmt"
	"helter/internal/ast"
	"reflect"
	"strings"
)

// RenderASTAsText produces a human-centric, indented outline of the AST:
// one line per node, children indented below their parent.
func RenderASTAsText(node ast.Node, indent int) string {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return strings.Repeat("  ", indent) + "nil"
	}

	sp := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *ast.Identity:
		return sp + "identity"

	case *ast.Constant:
		if n.Name != "" {
			return fmt.Sprintf("%sconst %s = %s", sp, n.Name, n.Value.Inspect())
		}
		return sp + "const " + n.Value.Inspect()

	case *ast.Reference:
		return sp + "ref " + n.Key.String()

	case *ast.IndexedTerm:
		head := fmt.Sprintf("%sterm %s -> %s", sp, n.InKey, n.OutKey)
		return head + "\n" + RenderASTAsText(n.Value, indent+1)

	case *ast.Link:
		var sb strings.Builder
		// Brackets are shown as written, e.g. "link (]".
		sb.WriteString(fmt.Sprintf("%slink %s%s", sp, n.Open.Open(), n.Close.Close()))
		for _, t := range n.Terms {
			sb.WriteString("\n")
			sb.WriteString(RenderASTAsText(t, indent+1))
		}
		return sb.String()

	case *ast.Chain:
		var sb strings.Builder
		sb.WriteString(sp + "chain")
		for _, l := range n.Links {
			sb.WriteString("\n")
			sb.WriteString(RenderASTAsText(l, indent+1))
		}
		return sb.String()

	case *ast.Native:
		return sp + "native " + n.Name
	}
	return fmt.Sprintf("%s<unknown %T>", sp, node)
}
