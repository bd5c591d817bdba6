package parser

import (
	"errors"
	"fmt"
	"helter/internal/ast"
	"helter/internal/lexer"
	"helter/internal/object"
	"helter/internal/token"
	"strconv"
)

// Literals turns literal tokens into values. The primitive catalog provides
// the boxed, typed implementation.
type Literals interface {
	Int(n int64) object.Value
	Float(f float64) object.Value
	String(s string) object.Value
}

type Parser struct {
	l        *lexer.Lexer
	src      string // source code here
	literals Literals
	errors   []string
	offsets  []int
	atEOF    bool

	curToken  token.Token
	peekToken token.Token
}

func New(l *lexer.Lexer, source string, literals Literals) *Parser {
	p := &Parser{
		l:        l,
		src:      source,
		literals: literals,
		errors:   []string{},
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse parses src as a single expression.
func Parse(src string, literals Literals) (ast.Expression, error) {
	p := New(lexer.New(src), src, literals)
	expr := p.ParseProgram()
	if len(p.errors) != 0 {
		return nil, &Error{Messages: p.errors, Positions: p.offsets, AtEOF: p.atEOF}
	}
	return expr, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) addError(message string, args ...interface{}) {
	line, col := lineAndColumn(p.src, p.curToken.Position)
	m := fmt.Sprintf(message, args...)
	msg := fmt.Sprintf("[%3d:%2d] %s", line, col, m)
	p.errors = append(p.errors, msg)
	p.offsets = append(p.offsets, p.curToken.Position)
	if p.curTokenIs(token.EOF) || (p.curTokenIs(token.ILLEGAL) && p.curToken.Literal == lexer.Unterminated) {
		p.atEOF = true
	}
}

// ParseProgram parses the whole input as one expression. It returns nil and
// records an error when the input is empty or has trailing tokens.
func (p *Parser) ParseProgram() ast.Expression {
	expr := p.parseExpression()
	if len(p.errors) != 0 {
		return nil
	}
	if !p.curTokenIs(token.EOF) {
		p.unexpected()
		return nil
	}
	if expr == nil {
		p.addError("no expression found")
		return nil
	}
	return expr
}

func (p *Parser) unexpected() {
	switch p.curToken.Type {
	case token.EOF:
		p.addError("unexpected end of input")
	case token.ILLEGAL:
		p.addError("illegal token %q", p.curToken.Literal)
	default:
		p.addError("unexpected %q", p.curToken.Literal)
	}
}

func (p *Parser) startsElement() bool {
	switch p.curToken.Type {
	case token.IDENT, token.INT, token.FLOAT, token.STRING:
		return true
	}
	return token.IsOpen(p.curToken.Type)
}

// parseExpression reads adjacent elements; two or more form a chain. It
// returns nil without error when no element starts here.
func (p *Parser) parseExpression() ast.Expression {
	start := p.curToken
	var elements []ast.Expression
	for p.startsElement() {
		el := p.parseElement()
		if el == nil {
			return nil
		}
		elements = append(elements, el)
	}
	if p.curTokenIs(token.ILLEGAL) {
		p.unexpected()
		return nil
	}
	switch len(elements) {
	case 0:
		return nil
	case 1:
		return elements[0]
	}
	return &ast.Chain{Token: start, Links: elements}
}

func (p *Parser) parseElement() ast.Expression {
	tok := p.curToken
	switch tok.Type {
	case token.IDENT:
		p.nextToken()
		return &ast.Reference{Token: tok, Key: object.Name(tok.Literal)}

	case token.INT:
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			p.addError("integer %s out of range", tok.Literal)
			return nil
		}
		if err != nil {
			p.addError("could not parse %q as integer", tok.Literal)
			return nil
		}
		p.nextToken()
		return &ast.Constant{Token: tok, Value: p.literals.Int(n)}

	case token.FLOAT:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError("could not parse %q as float", tok.Literal)
			return nil
		}
		p.nextToken()
		return &ast.Constant{Token: tok, Value: p.literals.Float(f)}

	case token.STRING:
		p.nextToken()
		return &ast.Constant{Token: tok, Value: p.literals.String(tok.Literal)}
	}
	return p.parseLink()
}

func (p *Parser) parseLink() ast.Expression {
	link := &ast.Link{Token: p.curToken}
	open, ok := ast.OpenBrace(p.curToken.Type)
	if !ok {
		p.unexpected()
		return nil
	}
	link.Open = open
	p.nextToken()

	for {
		if closing, ok := ast.CloseBrace(p.curToken.Type); ok {
			link.Close = closing
			p.nextToken()
			return link
		}
		term, ok := p.parseTerm(len(link.Terms))
		if !ok {
			return nil
		}
		if term != nil {
			link.Terms = append(link.Terms, term)
		}
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !token.IsClose(p.curToken.Type) {
			if p.curTokenIs(token.EOF) {
				p.addError("expected closing bracket for %q", link.Token.Literal)
			} else {
				p.addError("expected ',' or closing bracket, got %q", p.curToken.Literal)
			}
			return nil
		}
	}
}

// parseTerm reads `[in:] [value] [:out]`. Segments are split on colons:
//
//	value          positional value
//	in:value       value fed from input key in
//	in:            identity fed from input key in
//	:out           identity stored under output key out
//	in:value:out   both keys
//
// An empty segment keeps the positional default; an empty value is Identity.
// It returns a nil term for an empty slot such as a trailing comma.
func (p *Parser) parseTerm(pos int) (*ast.IndexedTerm, bool) {
	tok := p.curToken
	segments := []ast.Expression{p.parseExpression()}
	for p.curTokenIs(token.COLON) {
		if len(segments) == 3 {
			p.addError("a term takes at most two ':' separators")
			return nil, false
		}
		p.nextToken()
		segments = append(segments, p.parseExpression())
	}
	if len(p.errors) != 0 {
		return nil, false
	}

	term := ast.Term(pos, nil)
	term.Token = tok
	var in, value, out ast.Expression
	switch len(segments) {
	case 1:
		if segments[0] == nil {
			return nil, true
		}
		value = segments[0]
	case 2:
		if segments[0] == nil && segments[1] == nil {
			p.addError("empty term")
			return nil, false
		}
		if segments[0] == nil {
			out = segments[1]
		} else {
			in, value = segments[0], segments[1]
		}
	case 3:
		in, value, out = segments[0], segments[1], segments[2]
	}

	if in != nil {
		k, ok := p.key(in)
		if !ok {
			return nil, false
		}
		term.InKey, term.HasIn = k, true
	}
	if out != nil {
		k, ok := p.key(out)
		if !ok {
			return nil, false
		}
		term.OutKey, term.HasOut = k, true
	}
	if value == nil {
		value = &ast.Identity{Token: tok}
	}
	term.Value = value
	return term, true
}

// key converts a key expression: identifiers and strings name a field,
// non-negative integers address a position.
func (p *Parser) key(expr ast.Expression) (object.Key, bool) {
	switch e := expr.(type) {
	case *ast.Reference:
		return e.Key, true
	case *ast.Constant:
		switch e.Token.Type {
		case token.STRING:
			return object.Name(e.Token.Literal), true
		case token.INT:
			n, err := strconv.Atoi(e.Token.Literal)
			if err == nil && n >= 0 {
				return object.Pos(n), true
			}
		}
	}
	p.addError("invalid key %q: expected a name, a string or a non-negative integer", expr.String())
	return object.Key{}, false
}
