package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"helter/internal/ast"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// WalkAST recursively traverses an AST and serializes it into a machine-centric map structure.
// The same tree backs the JSON and YAML renderings.
func WalkAST(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Identity:
		return map[string]interface{}{
			"type":     "Identity",
			"position": n.Token.Position,
		}

	case *ast.Constant:
		m := map[string]interface{}{
			"type":     "Constant",
			"position": n.Token.Position,
			"token":    n.TokenLiteral(),
			"value":    n.Value.Inspect(),
		}
		if n.Name != "" {
			m["frozen"] = n.Name
		}
		return m

	case *ast.Reference:
		return map[string]interface{}{
			"type":     "Reference",
			"position": n.Token.Position,
			"key":      n.Key.String(),
		}

	case *ast.IndexedTerm:
		m := map[string]interface{}{
			"type":  "Term",
			"in":    n.InKey.String(),
			"out":   n.OutKey.String(),
			"value": WalkAST(n.Value),
		}
		if n.HasIn {
			m["explicitIn"] = true
		}
		if n.HasOut {
			m["explicitOut"] = true
		}
		return m

	case *ast.Link:
		terms := make([]interface{}, len(n.Terms))
		for i, t := range n.Terms {
			terms[i] = WalkAST(t)
		}
		return map[string]interface{}{
			"type":     "Link",
			"position": n.Token.Position,
			"open":     n.Open.String(),
			"close":    n.Close.String(),
			"terms":    terms,
		}

	case *ast.Chain:
		links := make([]interface{}, len(n.Links))
		for i, l := range n.Links {
			links[i] = WalkAST(l)
		}
		return map[string]interface{}{
			"type":     "Chain",
			"position": n.Token.Position,
			"links":    links,
		}

	case *ast.Native:
		return map[string]interface{}{
			"type": "Native",
			"name": n.Name,
		}

	default:
		return map[string]interface{}{
			"type": "Unknown",
			"node": fmt.Sprintf("%T", n),
		}
	}
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false) // brackets and quotes stay readable

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}

func RenderASTAsYAML(node ast.Node) (string, error) {
	buf := new(bytes.Buffer)
	encoder := yaml.NewEncoder(buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(WalkAST(node)); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %v", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %v", err)
	}
	return buf.String(), nil
}

// RenderAST renders node in one of the -debug-ast formats: json, yaml or text.
func RenderAST(node ast.Node, format string) (string, error) {
	switch format {
	case "json":
		return RenderASTAsJSON(node)
	case "yaml":
		return RenderASTAsYAML(node)
	case "text", "":
		return RenderASTAsText(node, 0) + "\n", nil
	}
	return "", fmt.Errorf("unknown AST format %q", format)
}

// WriteAST renders node in format and writes it to filename.
func WriteAST(node ast.Node, filename, format string) error {
	out, err := RenderAST(node, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write AST: %v", err)
	}
	return nil
}
