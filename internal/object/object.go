package object

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	NONE_OBJ      = "NONE"
	SYMBOL_OBJ    = "SYMBOL"
	STRUCT_OBJ    = "STRUCT"
	BOXED_OBJ     = "BOXED"
	SUSPENDED_OBJ = "SUSPENDED"
)

type ObjectType string

// Key addresses a component, an adjunct or an environment binding. A key is
// either a position (tuple field) or a name (record field, identifier).
type Key struct {
	name  string
	pos   int
	named bool
}

func Pos(i int) Key        { return Key{pos: i} }
func Name(s string) Key    { return Key{name: s, named: true} }
func (k Key) IsName() bool { return k.named }
func (k Key) Position() int {
	return k.pos
}
func (k Key) Label() string {
	return k.name
}

func (k Key) String() string {
	if k.named {
		return k.name
	}
	return strconv.Itoa(k.pos)
}

// Adjuncts maps metadata keys to values. It is never mutated after the value
// carrying it has been built.
type Adjuncts map[Key]Value

// Value is implemented by the closed set of variants in this file.
type Value interface {
	Type() ObjectType
	Inspect() string
	Component(k Key) Value
	Adjunct(k Key) Value
	Adjoin(m Adjuncts) Value
	adjuncts() Adjuncts
}

// Code is the evaluable body held by a suspended chain.
type Code interface {
	String() string
}

var NONE = &None{}

// None is absence, falsehood and void at once; there is exactly one.
type None struct{}

func (n *None) Type() ObjectType      { return NONE_OBJ }
func (n *None) Inspect() string       { return "none" }
func (n *None) Component(k Key) Value { return n }
func (n *None) Adjunct(k Key) Value   { return n }
func (n *None) adjuncts() Adjuncts    { return nil }

// Adjoin on None yields a bare value carrying only the given adjuncts.
func (n *None) Adjoin(m Adjuncts) Value {
	return &Struct{fields: emptyFields, adj: merge(nil, m)}
}

func IsNone(v Value) bool {
	return v == nil || v == Value(NONE)
}

type Symbol struct {
	atom *atom
	adj  Adjuncts
}

type atom struct {
	name string
	id   uint64
}

func (s *Symbol) Type() ObjectType      { return SYMBOL_OBJ }
func (s *Symbol) Inspect() string       { return inspectAdjuncts(s.atom.name, s.adj) }
func (s *Symbol) Component(k Key) Value { return NONE }
func (s *Symbol) Adjunct(k Key) Value   { return lookup(s.adj, k) }
func (s *Symbol) adjuncts() Adjuncts    { return s.adj }
func (s *Symbol) Name() string          { return s.atom.name }
func (s *Symbol) Adjoin(m Adjuncts) Value {
	return &Symbol{atom: s.atom, adj: merge(s.adj, m)}
}

// Struct is an ordered keyed record. Adjoin shares the field table.
type Struct struct {
	fields *fields
	adj    Adjuncts
}

type fields struct {
	keys   []Key
	values map[Key]Value
}

var emptyFields = &fields{values: map[Key]Value{}}

// StructBuilder collects fields in insertion order. A repeated key keeps its
// first position and takes the last value. Struct exposes the struct under
// construction so self-referential type descriptors can be tied together
// before Build seals it.
type StructBuilder struct {
	s *Struct
}

func NewStructBuilder(size int) *StructBuilder {
	f := &fields{keys: make([]Key, 0, size), values: make(map[Key]Value, size)}
	return &StructBuilder{s: &Struct{fields: f}}
}

func (b *StructBuilder) Set(k Key, v Value) *StructBuilder {
	f := b.s.fields
	if _, ok := f.values[k]; !ok {
		f.keys = append(f.keys, k)
	}
	f.values[k] = v
	return b
}

func (b *StructBuilder) Struct() *Struct { return b.s }

func (b *StructBuilder) Build(adj Adjuncts) *Struct {
	s := b.s
	s.adj = merge(nil, adj)
	b.s = &Struct{fields: &fields{values: map[Key]Value{}}}
	return s
}

// Tuple builds a struct with positional keys 0..n-1.
func Tuple(values ...Value) *Struct {
	b := NewStructBuilder(len(values))
	for i, v := range values {
		b.Set(Pos(i), v)
	}
	return b.Build(nil)
}

// Record builds a struct from names and values given pairwise.
func Record(pairs ...any) *Struct {
	b := NewStructBuilder(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		b.Set(Name(pairs[i].(string)), pairs[i+1].(Value))
	}
	return b.Build(nil)
}

func (s *Struct) Type() ObjectType   { return STRUCT_OBJ }
func (s *Struct) adjuncts() Adjuncts { return s.adj }
func (s *Struct) Component(k Key) Value {
	if v, ok := s.fields.values[k]; ok {
		return v
	}
	return NONE
}
func (s *Struct) Adjunct(k Key) Value { return lookup(s.adj, k) }
func (s *Struct) Adjoin(m Adjuncts) Value {
	return &Struct{fields: s.fields, adj: merge(s.adj, m)}
}

func (s *Struct) Keys() []Key { return s.fields.keys }
func (s *Struct) Len() int    { return len(s.fields.keys) }

func (s *Struct) Inspect() string {
	var out strings.Builder
	out.WriteString("{")
	for i, k := range s.fields.keys {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(k.String())
		out.WriteString(": ")
		out.WriteString(inspectValue(s.fields.values[k]))
	}
	out.WriteString("}")
	return inspectAdjuncts(out.String(), s.adj)
}

// Boxed wraps a host scalar (int64, float64 or string) so it can carry adjuncts.
type Boxed struct {
	Content any
	adj     Adjuncts
}

func Box(content any, adj Adjuncts) *Boxed {
	return &Boxed{Content: content, adj: merge(nil, adj)}
}

func (b *Boxed) Type() ObjectType      { return BOXED_OBJ }
func (b *Boxed) Component(k Key) Value { return NONE }
func (b *Boxed) Adjunct(k Key) Value   { return lookup(b.adj, k) }
func (b *Boxed) adjuncts() Adjuncts    { return b.adj }
func (b *Boxed) Adjoin(m Adjuncts) Value {
	return &Boxed{Content: b.Content, adj: merge(b.adj, m)}
}

func (b *Boxed) Inspect() string {
	var s string
	switch c := b.Content.(type) {
	case string:
		s = strconv.Quote(c)
	case float64:
		s = strconv.FormatFloat(c, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnI") {
			s += ".0"
		}
	default:
		s = fmt.Sprint(c)
	}
	return inspectAdjuncts(s, b.adj)
}

// Suspended is a chain that has not been run yet, together with the
// environment it resolves its remaining free references against.
type Suspended struct {
	Body Code
	Env  Env
	adj  Adjuncts
}

func NewSuspended(body Code, env Env) *Suspended {
	return &Suspended{Body: body, Env: env}
}

func (s *Suspended) Type() ObjectType      { return SUSPENDED_OBJ }
func (s *Suspended) Component(k Key) Value { return NONE }
func (s *Suspended) Adjunct(k Key) Value   { return lookup(s.adj, k) }
func (s *Suspended) adjuncts() Adjuncts    { return s.adj }
func (s *Suspended) Inspect() string       { return inspectAdjuncts(s.Body.String(), s.adj) }
func (s *Suspended) Adjoin(m Adjuncts) Value {
	return &Suspended{Body: s.Body, Env: s.Env, adj: merge(s.adj, m)}
}

// Same reports whether a and b are the same atom. Symbols compare by atom so
// that adjoining metadata to a symbol does not change which symbol it is.
func Same(a, b Value) bool {
	if IsNone(a) || IsNone(b) {
		return IsNone(a) && IsNone(b)
	}
	sa, okA := a.(*Symbol)
	sb, okB := b.(*Symbol)
	if okA && okB {
		return sa.atom == sb.atom
	}
	return a == b
}

// AdjunctKeys lists a value's adjunct keys, names sorted before positions.
func AdjunctKeys(v Value) []Key {
	return sortedKeys(v.adjuncts())
}

func lookup(adj Adjuncts, k Key) Value {
	if v, ok := adj[k]; ok {
		return v
	}
	return NONE
}

// merge returns a fresh map holding base overridden by m.
func merge(base, m Adjuncts) Adjuncts {
	if len(base) == 0 && len(m) == 0 {
		return nil
	}
	out := make(Adjuncts, len(base)+len(m))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range m {
		out[k] = v
	}
	return out
}

var typeKey = Name("type")

func inspectAdjuncts(s string, adj Adjuncts) string {
	keys := sortedKeys(adj)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == typeKey {
			continue
		}
		parts = append(parts, k.String()+": "+inspectValue(adj[k]))
	}
	if len(parts) == 0 {
		return s
	}
	return s + "<" + strings.Join(parts, ", ") + ">"
}

func inspectValue(v Value) string {
	if v == nil {
		return NONE.Inspect()
	}
	return v.Inspect()
}

func sortedKeys(adj Adjuncts) []Key {
	keys := make([]Key, 0, len(adj))
	for k := range adj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.named != b.named {
			return a.named
		}
		if a.named {
			return a.name < b.name
		}
		return a.pos < b.pos
	})
	return keys
}
