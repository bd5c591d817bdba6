package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // x, foo, +, lt
	INT    = "INT"    // 1343456
	FLOAT  = "FLOAT"  // 3.25
	STRING = "STRING" // "foobar"

	// Delimiters
	COMMA = ","
	COLON = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"
	LANGLE   = "<"
	RANGLE   = ">"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
}

func IsOpen(t TokenType) bool {
	switch t {
	case LPAREN, LBRACE, LBRACKET, LANGLE:
		return true
	}
	return false
}

func IsClose(t TokenType) bool {
	switch t {
	case RPAREN, RBRACE, RBRACKET, RANGLE:
		return true
	}
	return false
}
