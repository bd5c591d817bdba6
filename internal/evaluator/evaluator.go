package evaluator

import (
	"context"
	"errors"
	"fmt"
	"helter/internal/ast"
	"helter/internal/object"
	"log/slog"
)

// ErrDepthExceeded is raised as a panic when evaluation nests deeper than the
// configured limit. Front ends recover it; the engine itself does not.
var ErrDepthExceeded = errors.New("maximum evaluation depth exceeded")

type Evaluator struct {
	MaxDepth int // 0 means unlimited
	depth    int
}

func New(maxDepth int) *Evaluator {
	return &Evaluator{MaxDepth: maxDepth}
}

// Evaluate runs a top-level expression. Square-closing links at the top of
// the expression write straight into env, so bindings persist across calls.
func (e *Evaluator) Evaluate(node ast.Expression, input object.Value, env object.Env) object.Value {
	return e.eval(node, input, env, true)
}

// Eval runs a nested expression: bindings it makes stay local to it.
func (e *Evaluator) Eval(node ast.Expression, input object.Value, env object.Env) object.Value {
	return e.eval(node, input, env, false)
}

// Invoke runs a suspended chain against input in the chain's own environment.
func (e *Evaluator) Invoke(s *object.Suspended, input object.Value) object.Value {
	body, ok := s.Body.(ast.Expression)
	if !ok {
		return object.NONE
	}
	return e.eval(body, input, s.Env, false)
}

func (e *Evaluator) eval(node ast.Expression, input object.Value, env object.Env, mutate bool) object.Value {
	e.depth++
	defer func() { e.depth-- }()
	if e.MaxDepth > 0 && e.depth > e.MaxDepth {
		panic(ErrDepthExceeded)
	}

	switch node := node.(type) {
	case nil:
		return object.NONE

	case *ast.Identity:
		return input

	case *ast.Constant:
		return e.call(node.Value, input)

	case *ast.Reference:
		return e.call(env.Lookup(node.Key), input)

	case *ast.IndexedTerm:
		return e.eval(node.Value, input, env, false)

	case *ast.Link:
		return e.evalLink(node, input, env, mutate)

	case *ast.Chain:
		return e.evalChain(node, input, env, mutate)

	case *ast.Native:
		return node.Fn(input)
	}
	panic(fmt.Sprintf("evaluator: unknown node %T", node))
}

// call invokes v against input when it is a suspended chain, otherwise
// returns it as is.
func (e *Evaluator) call(v object.Value, input object.Value) object.Value {
	if s, ok := v.(*object.Suspended); ok {
		return e.Invoke(s, input)
	}
	return v
}

func (e *Evaluator) evalLink(link *ast.Link, input object.Value, env object.Env, mutate bool) object.Value {
	if link.Open == ast.Square {
		return e.Suspend(&ast.Chain{Token: link.Token, Links: []ast.Expression{roundOpened(link)}}, env)
	}

	proto := braces[link.Open]
	terms := proto.unpack(link.Terms, input, env)
	results := make([]packed, 0, len(terms))
	for _, t := range terms {
		results = append(results, packed{key: t.term.OutKey, value: e.eval(t.term.Value, t.input, env, false)})
	}

	packEnv := env
	if !mutate && link.Close == ast.Square {
		packEnv = env.Protect()
	}
	return braces[link.Close].pack(input, results, packEnv)
}

func (e *Evaluator) evalChain(chain *ast.Chain, input object.Value, outer object.Env, mutate bool) object.Value {
	current := input
	working := outer
	framed := false

	for i, node := range chain.Links {
		link, isLink := node.(*ast.Link)
		if isLink && link.Open == ast.Square {
			rest := make([]ast.Expression, 0, len(chain.Links)-i)
			rest = append(rest, roundOpened(link))
			rest = append(rest, chain.Links[i+1:]...)
			return e.Suspend(&ast.Chain{Token: chain.Token, Links: rest}, working)
		}
		if !isLink {
			current = e.eval(node, current, working, mutate || framed)
			continue
		}
		// The first binding link of a chain gets a fresh frame; later ones
		// keep writing into it so they can see each other.
		if link.Close == ast.Square && !framed && !mutate {
			working = object.NewEnclosedEnvironment(working)
			framed = true
		}
		current = e.eval(link, current, working, true)
	}
	return current
}

// Suspend freezes chain against env and packages it as a value.
func (e *Evaluator) Suspend(chain *ast.Chain, env object.Env) *object.Suspended {
	body := Subst(chain, env)
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug("suspended chain", slog.String("body", body.String()))
	}
	return object.NewSuspended(body, env)
}

func roundOpened(link *ast.Link) *ast.Link {
	return &ast.Link{Token: link.Token, Open: ast.Round, Close: link.Close, Terms: link.Terms}
}
