package syntax

import "github.com/fenix-project/arx/report"

// Token represents a single lexical token.
type Token struct {
	// The kind of the token.  This must be one of the enumerated token kinds.
	Kind int

	// The string value of the token.
	Value string

	// The text span over which the token exists.
	Span *report.TextSpan
}

// Enumeration of token kinds.
const (
	TOK_FUNCTION = iota
	TOK_EXTERN

	TOK_IF
	TOK_THEN
	TOK_ELSE
	TOK_FOR
	TOK_IN
	TOK_VAR

	TOK_BINARY
	TOK_UNARY

	TOK_IDENT
	TOK_NUMBER

	TOK_LPAREN
	TOK_RPAREN
	TOK_COMMA
	TOK_COLON
	TOK_SEMI

	// Any other single ASCII symbol: built-in and user-defined operators.
	TOK_OPER

	TOK_EOF
)

// keywordPatterns maps keyword strings (patterns) to their keyword token kind.
var keywordPatterns = map[string]int{
	"function": TOK_FUNCTION,
	"extern":   TOK_EXTERN,

	"if":   TOK_IF,
	"then": TOK_THEN,
	"else": TOK_ELSE,
	"for":  TOK_FOR,
	"in":   TOK_IN,
	"var":  TOK_VAR,

	"binary": TOK_BINARY,
	"unary":  TOK_UNARY,
}

// punctPatterns maps punctuation runes to their token kind.  Every other
// printable ASCII symbol lexes as an operator.
var punctPatterns = map[rune]int{
	'(': TOK_LPAREN,
	')': TOK_RPAREN,
	',': TOK_COMMA,
	':': TOK_COLON,
	';': TOK_SEMI,
}
