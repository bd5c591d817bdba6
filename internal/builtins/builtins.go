package builtins

import (
	"errors"
	"fmt"
	"helter/internal/ast"
	"helter/internal/evaluator"
	"helter/internal/object"
)

const (
	PolicySymbols = "symbols"
	PolicyCatalog = "catalog"
)

var ErrUnknownPolicy = errors.New("unknown root policy")

var (
	TypeKey  = object.Name("type")
	WhichKey = object.Name("which")
)

// Process-wide singletons. true and false are compared by identity.
var (
	UNIT  *object.Symbol
	TRUE  *object.Struct
	FALSE *object.Struct

	UNIT_TYPE   *object.Struct
	BOOL_TYPE   *object.Struct
	INT_TYPE    *object.Struct
	FLOAT_TYPE  *object.Struct
	STRING_TYPE *object.Struct
)

var catalog = object.FixedCatalog{}

var (
	unaryOps  = []string{"!", "length"}
	binaryOps = []string{"&", "|", "+", "-", "*", "/", "%", "<", ">", "<=", ">=", "="}

	// Angle brackets cannot appear in identifiers, so the comparisons also
	// get word names.
	aliases = map[string]string{
		"lt":  "<",
		"gt":  ">",
		"le":  "<=",
		"ge":  ">=",
		"eq":  "=",
		"not": "!",
		"and": "&",
		"or":  "|",
		"len": "length",
	}
)

func init() {
	unitType := object.NewStructBuilder(1)
	UNIT = object.NewSymbol("unit", object.Adjuncts{TypeKey: unitType.Struct()})
	UNIT_TYPE = unitType.Set(WhichKey, object.Record("unit_type", UNIT)).Build(nil)

	BOOL_TYPE = typeStruct("bool", boolOps())
	TRUE = object.NewStructBuilder(1).Set(object.Name("true"), UNIT).Build(object.Adjuncts{TypeKey: BOOL_TYPE})
	FALSE = object.NewStructBuilder(1).Set(object.Name("false"), UNIT).Build(object.Adjuncts{TypeKey: BOOL_TYPE})

	INT_TYPE = typeStruct("int", intOps())
	FLOAT_TYPE = typeStruct("float", floatOps())
	STRING_TYPE = typeStruct("string", stringOps())

	catalog[object.Name("unit")] = UNIT
	catalog[object.Name("true")] = TRUE
	catalog[object.Name("false")] = FALSE
	for _, op := range unaryOps {
		catalog[object.Name(op)] = unaryDispatch(op)
	}
	for _, op := range binaryOps {
		catalog[object.Name(op)] = binaryDispatch(op)
	}
	for alias, op := range aliases {
		catalog[object.Name(alias)] = catalog[object.Name(op)]
	}
}

// typeStruct builds a type descriptor: a one-hot `which` tag plus one
// component per operator.
func typeStruct(name string, ops map[string]object.Value) *object.Struct {
	b := object.NewStructBuilder(len(ops) + 1)
	b.Set(WhichKey, object.Record(name, UNIT))
	for _, op := range sortedNames(ops) {
		b.Set(object.Name(op), ops[op])
	}
	return b.Build(nil)
}

// Catalog returns the primitive bindings visible from every root environment.
func Catalog() object.FixedCatalog {
	return catalog
}

// Resolver returns the root lookup policy named by policy.
func Resolver(policy string) (object.Resolver, error) {
	switch policy {
	case PolicySymbols, "":
		return object.NewSymbolPool(catalog), nil
	case PolicyCatalog:
		return catalog, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
}

func Int(n int64) object.Value     { return object.Box(n, object.Adjuncts{TypeKey: INT_TYPE}) }
func Float(f float64) object.Value { return object.Box(f, object.Adjuncts{TypeKey: FLOAT_TYPE}) }
func String(s string) object.Value { return object.Box(s, object.Adjuncts{TypeKey: STRING_TYPE}) }

func Bool(b bool) object.Value {
	if b {
		return TRUE
	}
	return FALSE
}

// Literals adapts the constructors to the parser's literal factory.
type Literals struct{}

func (Literals) Int(n int64) object.Value     { return Int(n) }
func (Literals) Float(f float64) object.Value { return Float(f) }
func (Literals) String(s string) object.Value { return String(s) }

// HasType reports whether v's type descriptor is tagged name.
func HasType(v object.Value, name string) bool {
	return !object.IsNone(v.Adjunct(TypeKey).Component(WhichKey).Component(object.Name(name)))
}

// unaryDispatch binds its input to x and applies x's own op to x:
//
//	(0::x] x <type:({OP::op] x op):0)
func unaryDispatch(op string) object.Value {
	x, opRef := object.Name("x"), object.Name("op")
	chain := &ast.Chain{Links: []ast.Expression{
		&ast.Link{Open: ast.Round, Close: ast.Square, Terms: []*ast.IndexedTerm{
			ast.Keyed(object.Pos(0), x, &ast.Identity{}),
		}},
		&ast.Reference{Key: x},
		&ast.Link{Open: ast.Angle, Close: ast.Round, Terms: []*ast.IndexedTerm{
			ast.Keyed(TypeKey, object.Pos(0), &ast.Chain{Links: []ast.Expression{
				&ast.Link{Open: ast.Curly, Close: ast.Square, Terms: []*ast.IndexedTerm{
					ast.Keyed(object.Name(op), opRef, &ast.Identity{}),
				}},
				&ast.Reference{Key: x},
				&ast.Reference{Key: opRef},
			}}),
		}},
	}}
	return suspend(chain)
}

// binaryDispatch destructures a pair into x and y and applies the op found on
// x's type to the rebuilt pair:
//
//	{0::x, 1::y] x <type:({OP::op] (0:x:0, 1:y:1} op):0)
func binaryDispatch(op string) object.Value {
	x, y, opRef := object.Name("x"), object.Name("y"), object.Name("op")
	chain := &ast.Chain{Links: []ast.Expression{
		&ast.Link{Open: ast.Curly, Close: ast.Square, Terms: []*ast.IndexedTerm{
			ast.Keyed(object.Pos(0), x, &ast.Identity{}),
			ast.Keyed(object.Pos(1), y, &ast.Identity{}),
		}},
		&ast.Reference{Key: x},
		&ast.Link{Open: ast.Angle, Close: ast.Round, Terms: []*ast.IndexedTerm{
			ast.Keyed(TypeKey, object.Pos(0), &ast.Chain{Links: []ast.Expression{
				&ast.Link{Open: ast.Curly, Close: ast.Square, Terms: []*ast.IndexedTerm{
					ast.Keyed(object.Name(op), opRef, &ast.Identity{}),
				}},
				&ast.Link{Open: ast.Round, Close: ast.Curly, Terms: []*ast.IndexedTerm{
					ast.Keyed(object.Pos(0), object.Pos(0), &ast.Reference{Key: x}),
					ast.Keyed(object.Pos(1), object.Pos(1), &ast.Reference{Key: y}),
				}},
				&ast.Reference{Key: opRef},
			}}),
		}},
	}}
	return suspend(chain)
}

// Dispatchers close over nothing: they run in an empty environment.
func suspend(chain *ast.Chain) object.Value {
	return evaluator.New(0).Suspend(chain, object.Env{})
}

func native(name string, fn func(object.Value) object.Value) object.Value {
	return object.NewSuspended(&ast.Native{Name: name, Fn: fn}, object.Env{})
}
