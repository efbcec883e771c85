package lexer

import (
	"fmt"

	"github.com/vivscript/vivc/internal/diag"
)

// TokenType represents the type of a token
type TokenType string

// Span represents the source location of a token
type Span struct {
	Filename string // optional source filename for diagnostics
	Line     int    // 1-based line number
	Column   int    // 1-based column number, counted in runes
	Start    int    // byte offset of the first byte
	End      int    // exclusive byte offset
}

// Diag converts the span into the diagnostic representation.
func (s Span) Diag() diag.Span {
	return diag.Span(s)
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return s.Diag().String()
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string // same as Value; the name most parser code reads
	Raw     string // exact source bytes
	Value   string // decoded value (escape-processed for strings, Raw otherwise)
	Span    Span
}

func (t Token) String() string {
	if t.Raw == "" {
		return string(t.Type)
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Raw)
}

// Token type constants
const (
	// Special tokens
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers and literals
	IDENT    TokenType = "IDENT"    // x, total, fib
	INT      TokenType = "INT"      // 42, 0xff, 0b1010, 1_000
	STRING   TokenType = "STRING"   // "hello\n"
	TYPENAME TokenType = "TYPENAME" // Num, Str, Bool, Unit

	// Operators
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	BANG     TokenType = "!"
	AND      TokenType = "&&"
	OR       TokenType = "||"
	ARROW    TokenType = "->"

	LT     TokenType = "<"
	GT     TokenType = ">"
	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LE     TokenType = "<="
	GE     TokenType = ">="

	// Delimiters
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	COLON     TokenType = ":"

	LPAREN TokenType = "("
	RPAREN TokenType = ")"
	LBRACE TokenType = "{"
	RBRACE TokenType = "}"

	// Keywords
	FN     TokenType = "FN"
	LET    TokenType = "LET"
	RETURN TokenType = "RETURN"
	PRINT  TokenType = "PRINT"
	IF     TokenType = "IF"
	ELSE   TokenType = "ELSE"
	WHILE  TokenType = "WHILE"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"

	// Trivia tokens (comments, whitespace, newlines)
	LINE_COMMENT  TokenType = "LINE_COMMENT"  // //
	BLOCK_COMMENT TokenType = "BLOCK_COMMENT" // /* */
	WHITESPACE    TokenType = "WHITESPACE"    // spaces, tabs
	NEWLINE       TokenType = "NEWLINE"       // \n, \r\n, \r
)

var keywords = map[string]TokenType{
	"fn":     FN,
	"let":    LET,
	"return": RETURN,
	"print":  PRINT,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"true":   TRUE,
	"false":  FALSE,

	"Num":  TYPENAME,
	"Str":  TYPENAME,
	"Bool": TYPENAME,
	"Unit": TYPENAME,
}

// LookupIdent checks if the identifier is a keyword or a builtin type name
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// TokenClass groups token types into the coarse categories tools care about.
type TokenClass int

const (
	ClassIllegal TokenClass = iota
	ClassEOF
	ClassIdentifier
	ClassNumber
	ClassString
	ClassKeyword
	ClassOperator
	ClassPunctuation
	ClassTrivia
)

var classNames = [...]string{
	ClassIllegal:     "illegal",
	ClassEOF:         "eof",
	ClassIdentifier:  "identifier",
	ClassNumber:      "number",
	ClassString:      "string",
	ClassKeyword:     "keyword",
	ClassOperator:    "operator",
	ClassPunctuation: "punctuation",
	ClassTrivia:      "trivia",
}

func (c TokenClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("TokenClass(%d)", int(c))
}

// Class reports which category the token type belongs to.
func (t TokenType) Class() TokenClass {
	switch t {
	case EOF:
		return ClassEOF
	case IDENT:
		return ClassIdentifier
	case INT:
		return ClassNumber
	case STRING:
		return ClassString
	case FN, LET, RETURN, PRINT, IF, ELSE, WHILE, TRUE, FALSE, TYPENAME:
		return ClassKeyword
	case ASSIGN, PLUS, MINUS, ASTERISK, SLASH, PERCENT, BANG, AND, OR, ARROW,
		LT, GT, EQ, NOT_EQ, LE, GE:
		return ClassOperator
	case COMMA, SEMICOLON, COLON, LPAREN, RPAREN, LBRACE, RBRACE:
		return ClassPunctuation
	case LINE_COMMENT, BLOCK_COMMENT, WHITESPACE, NEWLINE:
		return ClassTrivia
	default:
		return ClassIllegal
	}
}

// IsTrivia reports whether the token carries no syntactic meaning.
func (t TokenType) IsTrivia() bool {
	return t.Class() == ClassTrivia
}
