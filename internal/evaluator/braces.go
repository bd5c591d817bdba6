package evaluator

import (
	"helter/internal/ast"
	"helter/internal/object"
)

// selected is a term together with the value it will be evaluated against.
type selected struct {
	term  *ast.IndexedTerm
	input object.Value
}

// packed is a term result waiting to be combined by a close brace.
type packed struct {
	key   object.Key
	value object.Value
}

type unpackFn func(terms []*ast.IndexedTerm, input object.Value, env object.Env) []selected
type packFn func(input object.Value, results []packed, env object.Env) object.Value

type protocol struct {
	unpack unpackFn
	pack   packFn
}

// Square has no unpack: a square opening never reaches the protocol, the
// link is suspended instead.
var braces = [...]protocol{
	ast.Round:  {unpack: unpackRound, pack: packRound},
	ast.Curly:  {unpack: unpackCurly, pack: packCurly},
	ast.Square: {pack: packSquare},
	ast.Angle:  {unpack: unpackAngle, pack: packAngle},
}

func unpackRound(terms []*ast.IndexedTerm, input object.Value, _ object.Env) []selected {
	out := make([]selected, len(terms))
	for i, t := range terms {
		out[i] = selected{term: t, input: input}
	}
	return out
}

// unpackCurly skips terms whose field is absent.
func unpackCurly(terms []*ast.IndexedTerm, input object.Value, _ object.Env) []selected {
	out := make([]selected, 0, len(terms))
	for _, t := range terms {
		if v := input.Component(t.InKey); !object.IsNone(v) {
			out = append(out, selected{term: t, input: v})
		}
	}
	return out
}

func unpackAngle(terms []*ast.IndexedTerm, input object.Value, _ object.Env) []selected {
	out := make([]selected, 0, len(terms))
	for _, t := range terms {
		if v := input.Adjunct(t.InKey); !object.IsNone(v) {
			out = append(out, selected{term: t, input: v})
		}
	}
	return out
}

// packRound keeps the last result; no results is None.
func packRound(_ object.Value, results []packed, _ object.Env) object.Value {
	if len(results) == 0 {
		return object.NONE
	}
	return results[len(results)-1].value
}

func packCurly(_ object.Value, results []packed, _ object.Env) object.Value {
	b := object.NewStructBuilder(len(results))
	for _, r := range results {
		b.Set(r.key, r.value)
	}
	return b.Build(nil)
}

func packSquare(_ object.Value, results []packed, env object.Env) object.Value {
	for _, r := range results {
		env.Set(r.key, r.value)
	}
	return object.NONE
}

func packAngle(input object.Value, results []packed, _ object.Env) object.Value {
	if len(results) == 0 {
		return input
	}
	adj := make(object.Adjuncts, len(results))
	for _, r := range results {
		adj[r.key] = r.value
	}
	return input.Adjoin(adj)
}
