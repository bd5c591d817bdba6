package ast

import (
	"helter/internal/object"
	"helter/internal/token"
	"strings"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	String() string
}

type Expression interface {
	Node
	expressionNode()
}

// Brace is one of the four bracket kinds. A link's open and close brace are
// chosen independently.
type Brace int

const (
	Round Brace = iota
	Curly
	Square
	Angle
)

var (
	openings = [...]string{"(", "{", "[", "<"}
	closings = [...]string{")", "}", "]", ">"}
	names    = [...]string{"round", "curly", "square", "angle"}
)

func (b Brace) Open() string   { return openings[b] }
func (b Brace) Close() string  { return closings[b] }
func (b Brace) String() string { return names[b] }

func OpenBrace(t token.TokenType) (Brace, bool) {
	switch t {
	case token.LPAREN:
		return Round, true
	case token.LBRACE:
		return Curly, true
	case token.LBRACKET:
		return Square, true
	case token.LANGLE:
		return Angle, true
	}
	return 0, false
}

func CloseBrace(t token.TokenType) (Brace, bool) {
	switch t {
	case token.RPAREN:
		return Round, true
	case token.RBRACE:
		return Curly, true
	case token.RBRACKET:
		return Square, true
	case token.RANGLE:
		return Angle, true
	}
	return 0, false
}

// Identity evaluates to its input.
type Identity struct {
	Token token.Token
}

func (i *Identity) expressionNode()      {}
func (i *Identity) TokenLiteral() string { return i.Token.Literal }
func (i *Identity) String() string       { return "" }

// Constant evaluates to Value. Name is set when the constant was produced by
// freezing a reference.
type Constant struct {
	Token token.Token
	Value object.Value
	Name  string
}

func (c *Constant) expressionNode()      {}
func (c *Constant) TokenLiteral() string { return c.Token.Literal }
func (c *Constant) String() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Value.Inspect()
}

type Reference struct {
	Token token.Token
	Key   object.Key
}

func (r *Reference) expressionNode()      {}
func (r *Reference) TokenLiteral() string { return r.Token.Literal }
func (r *Reference) String() string       { return r.Key.String() }

// IndexedTerm is one entry of a link. InKey selects the input field for
// curly and angle openings, OutKey names the packed field or binding. Both
// default to the term's position; HasIn/HasOut record an explicit key.
type IndexedTerm struct {
	Token  token.Token
	InKey  object.Key
	OutKey object.Key
	HasIn  bool
	HasOut bool
	Value  Expression
}

// Term builds a positional term.
func Term(pos int, value Expression) *IndexedTerm {
	return &IndexedTerm{InKey: object.Pos(pos), OutKey: object.Pos(pos), Value: value}
}

// Keyed builds a term with explicit in and out keys.
func Keyed(in, out object.Key, value Expression) *IndexedTerm {
	return &IndexedTerm{InKey: in, OutKey: out, HasIn: true, HasOut: true, Value: value}
}

func (it *IndexedTerm) expressionNode()      {}
func (it *IndexedTerm) TokenLiteral() string { return it.Token.Literal }
func (it *IndexedTerm) String() string {
	value := it.Value.String()
	switch {
	case it.HasIn && it.HasOut:
		return it.InKey.String() + ":" + value + ":" + it.OutKey.String()
	case it.HasIn:
		return it.InKey.String() + ":" + value
	case it.HasOut:
		if value == "" {
			return ":" + it.OutKey.String()
		}
		return ":" + value + ":" + it.OutKey.String()
	}
	return value
}

type Link struct {
	Token token.Token // the opening bracket
	Open  Brace
	Close Brace
	Terms []*IndexedTerm
}

func (l *Link) expressionNode()      {}
func (l *Link) TokenLiteral() string { return l.Token.Literal }
func (l *Link) String() string {
	var out strings.Builder
	out.WriteString(l.Open.Open())
	for i, t := range l.Terms {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(t.String())
	}
	out.WriteString(l.Close.Close())
	return out.String()
}

// OutKeys lists the keys the link's close brace packs under.
func (l *Link) OutKeys() []object.Key {
	keys := make([]object.Key, len(l.Terms))
	for i, t := range l.Terms {
		keys[i] = t.OutKey
	}
	return keys
}

// Chain threads a current value through Links from left to right.
type Chain struct {
	Token token.Token
	Links []Expression
}

func (c *Chain) expressionNode()      {}
func (c *Chain) TokenLiteral() string { return c.Token.Literal }
func (c *Chain) String() string {
	parts := make([]string, len(c.Links))
	for i, l := range c.Links {
		parts[i] = l.String()
	}
	return strings.Join(parts, " ")
}

// Native wraps a host primitive. It never refers to the environment.
type Native struct {
	Name string
	Fn   func(input object.Value) object.Value
}

func (n *Native) expressionNode()      {}
func (n *Native) TokenLiteral() string { return n.Name }
func (n *Native) String() string       { return "?builtin:" + n.Name + "?" }
