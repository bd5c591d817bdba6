package lexer

import (
	"helter/internal/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int       // current byte position in input (points to start of current rune)
	readPosition int       // next byte position in input (start of next rune)
	ch           rune      // current rune under examination
	atEOF        bool      // set once the input is exhausted; ch is 0 then
	currentMode  Tokenizer // Current tokenizer strategy
}

type Tokenizer interface {
	NextToken() token.Token
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.switchMode(NewGeneralTokenizer(l))
	l.readChar()
	return l
}

func (l *Lexer) switchMode(mode Tokenizer) {
	l.currentMode = mode
}

func (l *Lexer) NextToken() token.Token {
	return l.currentMode.NextToken()
}

// Tokens drains the lexer, EOF included.
func (l *Lexer) Tokens() []token.Token {
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == '#':
			l.skipToLineEnd()
		case !l.atEOF && unicode.IsSpace(l.ch):
			l.readChar()
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && !l.atEOF {
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.atEOF = true
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// readWord returns the run of identifier runes starting at the current one.
func (l *Lexer) readWord() string {
	start := l.position
	for isWordRune(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// classify decides whether a word is a number literal or an identifier.
// Only words that start with a digit, or a sign followed by a digit, can be
// numbers; anything else ("inf", "-", "+") stays an identifier. A signed run
// of digits is always INT, even when it does not fit in 64 bits; the parser
// reports the range error.
func classify(word string) token.TokenType {
	digits := word
	if strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	if digits == "" || digits[0] < '0' || digits[0] > '9' {
		return token.IDENT
	}
	if strings.Trim(digits, "0123456789") == "" {
		return token.INT
	}
	if _, err := strconv.ParseFloat(word, 64); err == nil {
		return token.FLOAT
	}
	return token.ILLEGAL
}

// isWordRune reports whether ch may appear in an identifier or number.
func isWordRune(ch rune) bool {
	if ch == 0 || unicode.IsSpace(ch) {
		return false
	}
	switch ch {
	case '(', ')', '{', '}', '[', ']', '<', '>', ',', ':', '"', '#':
		return false
	}
	return true
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
