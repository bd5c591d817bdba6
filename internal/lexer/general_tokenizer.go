package lexer

import (
	"helter/internal/token"
)

type GeneralTokenizer struct {
	lexer *Lexer
}

func NewGeneralTokenizer(lexer *Lexer) *GeneralTokenizer {
	return &GeneralTokenizer{lexer: lexer}
}

func (g *GeneralTokenizer) NextToken() token.Token {
	var tok token.Token

	g.lexer.skipWhitespace()

	startPosition := g.lexer.position // Record the current position as the start of the token

	if g.lexer.atEOF {
		return token.Token{Type: token.EOF, Literal: "", Position: startPosition}
	}

	switch g.lexer.ch {
	case '(':
		tok = newToken(token.LPAREN, g.lexer.ch, startPosition)
	case ')':
		tok = newToken(token.RPAREN, g.lexer.ch, startPosition)
	case '{':
		tok = newToken(token.LBRACE, g.lexer.ch, startPosition)
	case '}':
		tok = newToken(token.RBRACE, g.lexer.ch, startPosition)
	case '[':
		tok = newToken(token.LBRACKET, g.lexer.ch, startPosition)
	case ']':
		tok = newToken(token.RBRACKET, g.lexer.ch, startPosition)
	case '<':
		tok = newToken(token.LANGLE, g.lexer.ch, startPosition)
	case '>':
		tok = newToken(token.RANGLE, g.lexer.ch, startPosition)
	case ',':
		tok = newToken(token.COMMA, g.lexer.ch, startPosition)
	case ':':
		tok = newToken(token.COLON, g.lexer.ch, startPosition)
	case '"':
		g.lexer.readChar() // consume the opening "
		g.lexer.switchMode(NewSingleLineStringTokenizer(g.lexer))
		return g.lexer.currentMode.NextToken()
	case 0:
		tok = newToken(token.ILLEGAL, g.lexer.ch, startPosition)
	default:
		tok.Literal = g.lexer.readWord()
		tok.Type = classify(tok.Literal)
		tok.Position = startPosition
		return tok
	}

	g.lexer.readChar()
	return tok
}
