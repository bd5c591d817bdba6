package evaluator

import (
	"helter/internal/ast"
	"helter/internal/object"
)

// Subst returns a copy of node in which every reference that resolves under
// view is replaced by a constant holding its current value. Links that bind
// (square close) hide their out keys from every later link of the same
// chain, so names a chain is about to bind itself stay dynamic.
func Subst(node ast.Expression, view object.Env) ast.Expression {
	switch node := node.(type) {
	case *ast.Reference:
		if v, ok := view.Get(node.Key); ok && v != nil {
			return &ast.Constant{Token: node.Token, Value: v, Name: node.Key.String()}
		}
		return node

	case *ast.IndexedTerm:
		term := *node
		term.Value = Subst(node.Value, view)
		return &term

	case *ast.Link:
		terms := make([]*ast.IndexedTerm, len(node.Terms))
		for i, t := range node.Terms {
			terms[i] = Subst(t, view).(*ast.IndexedTerm)
		}
		return &ast.Link{Token: node.Token, Open: node.Open, Close: node.Close, Terms: terms}

	case *ast.Chain:
		links := make([]ast.Expression, len(node.Links))
		current := view
		for i, l := range node.Links {
			links[i] = Subst(l, current)
			if link, ok := l.(*ast.Link); ok && link.Close == ast.Square {
				current = current.Shadow(link.OutKeys())
			}
		}
		return &ast.Chain{Token: node.Token, Links: links}
	}
	// Identity, Constant and Native have nothing to freeze.
	return node
}
