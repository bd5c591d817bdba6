package lexer

import (
	"helter/internal/token"
	"strings"
)

// Unterminated is the literal of the ILLEGAL token produced for a string
// that runs into the end of input.
const Unterminated = "unterminated string"

type SingleLineStringTokenizer struct {
	lexer *Lexer
}

func NewSingleLineStringTokenizer(lexer *Lexer) *SingleLineStringTokenizer {
	return &SingleLineStringTokenizer{lexer: lexer}
}

func (s *SingleLineStringTokenizer) NextToken() token.Token {
	var result strings.Builder
	startPosition := s.lexer.position - 1 // include the opening `"`

	// Fall back to the general tokenizer mode after the string ends
	defer s.lexer.switchMode(NewGeneralTokenizer(s.lexer))

	// start reading the string right away, assume the opening `"` has already been read
	for {
		if s.lexer.atEOF {
			return token.Token{Type: token.ILLEGAL, Literal: Unterminated, Position: startPosition}
		}

		if s.lexer.ch == '"' {
			s.lexer.readChar() // Consume the closing `"`
			break
		}

		if s.lexer.ch == '\\' {
			// Handle escape sequences
			s.lexer.readChar() // Move to the escaped character
			if s.lexer.atEOF {
				return token.Token{Type: token.ILLEGAL, Literal: Unterminated, Position: startPosition}
			}
			switch s.lexer.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case '\\':
				result.WriteRune('\\')
			case '"':
				result.WriteRune('"')
			default:
				result.WriteRune('\\')
				result.WriteRune(s.lexer.ch)
			}
		} else {
			result.WriteRune(s.lexer.ch)
		}

		s.lexer.readChar()
	}

	return token.Token{
		Type:     token.STRING,
		Literal:  result.String(),
		Position: startPosition,
	}
}
