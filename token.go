package lambdawg

import "fmt"

// TokenKind is the closed set of lexical categories the lexer may emit
// (spec.md §3).
type TokenKind int

const (
	TokenEOF TokenKind = iota

	// Literals
	TokenInt
	TokenFloat
	TokenString
	TokenChar

	// Identifiers, distinguished by leading-letter case.
	TokenValueIdent
	TokenTypeIdent
	TokenPlaceholder // bare `_`, not followed by an identifier character

	// Keywords
	TokenKeyword

	// Operators and punctuators (spec.md §6.3)
	TokenSymbol
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenInt:
		return "Int"
	case TokenFloat:
		return "Float"
	case TokenString:
		return "String"
	case TokenChar:
		return "Char"
	case TokenValueIdent:
		return "ValueIdent"
	case TokenTypeIdent:
		return "TypeIdent"
	case TokenPlaceholder:
		return "Placeholder"
	case TokenKeyword:
		return "Keyword"
	case TokenSymbol:
		return "Symbol"
	default:
		return "Unknown"
	}
}

// keywords is the fixed keyword table (spec.md §6.3). A value-ident whose
// text matches this table is reclassified as TokenKeyword.
var keywords = map[string]struct{}{
	"let": {}, "type": {}, "module": {}, "import": {}, "private": {},
	"if": {}, "then": {}, "else": {}, "match": {}, "with": {}, "do": {},
	"in": {}, "provide": {}, "providing": {}, "seq": {}, "true": {},
	"false": {}, "js": {}, "as": {},
}

// symbols lists every recognized operator/punctuator, ordered longest
// first so maximal-munch scanning picks the longest match.
var symbols = []string{
	// 3-char
	"...",
	// 2-char
	"==", "!=", "<=", ">=", "&&", "||", "=>", "->", "|>",
	// 1-char
	"+", "-", "*", "/", "%", "=", "<", ">", "!", "|", ":", ",", ".",
	"?", "@", "(", ")", "{", "}", "[", "]",
}

// Token is a single lexical element: a kind, the source text, its span,
// and (for literals) a decoded value.
type Token struct {
	Kind  TokenKind
	Text  string
	Span  Span
	Value any // decoded int64, float64, string, or rune
}

func (t *Token) String() string {
	return fmt.Sprintf("<%s %q @%d:%d>", t.Kind, t.Text, t.Span.Start.Line, t.Span.Start.Column)
}

func (t *Token) Is(kind TokenKind) bool {
	return t != nil && t.Kind == kind
}

func (t *Token) IsSymbol(text string) bool {
	return t != nil && t.Kind == TokenSymbol && t.Text == text
}

func (t *Token) IsKeyword(text string) bool {
	return t != nil && t.Kind == TokenKeyword && t.Text == text
}
