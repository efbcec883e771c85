package lexer

import (
	"iter"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vivscript/vivc/internal/diag"
)

type LexerErrorKind int

const (
	ErrUnterminatedString LexerErrorKind = iota
	ErrUnterminatedBlockComment
	ErrIllegalRune
)

func (k LexerErrorKind) String() string {
	switch k {
	case ErrUnterminatedString:
		return "unterminated string"
	case ErrUnterminatedBlockComment:
		return "unterminated block comment"
	case ErrIllegalRune:
		return "illegal rune"
	default:
		return "unknown lexer error"
	}
}

type LexerError struct {
	Kind    LexerErrorKind
	Message string
	Span    Span
}

func (k LexerErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUnterminatedString:
		return diag.CodeLexerUnterminatedString
	case ErrUnterminatedBlockComment:
		return diag.CodeLexerUnterminatedBlockComment
	case ErrIllegalRune:
		return diag.CodeLexerIllegalRune
	default:
		return diag.Code("LEXER_UNKNOWN_ERROR")
	}
}

// ToDiagnostic converts a lexer error into a shared diagnostic structure.
func (e LexerError) ToDiagnostic() diag.Diagnostic {
	return diag.New(diag.StageLexer, e.Kind.diagnosticCode(), e.Span.Diag(), "%s", e.Message)
}

// Lexer turns Viv source text into tokens. Offsets are byte offsets into the
// input; columns count runes.
type Lexer struct {
	input      string
	filename   string
	pos        int  // byte offset of ch
	next       int  // byte offset just past ch
	ch         rune // current rune (0 at EOF)
	line       int  // line of ch (1-based)
	column     int  // column of ch (1-based)
	emitTrivia bool // whether to emit trivia tokens (comments, whitespace)

	Errors []LexerError
}

func (l *Lexer) addError(kind LexerErrorKind, msg string, span Span) {
	l.Errors = append(l.Errors, LexerError{
		Kind:    kind,
		Message: msg,
		Span:    span,
	})
}

func newLexer(input string, emitTrivia bool) *Lexer {
	l := &Lexer{
		input:      input,
		line:       1,
		column:     1,
		emitTrivia: emitTrivia,
	}
	l.load()
	return l
}

// New creates a new lexer for the given input (trivia mode disabled)
func New(input string) *Lexer {
	return newLexer(input, false)
}

// NewWithTrivia creates a new lexer that emits trivia tokens, so that the
// concatenated Raw text of every token reproduces the input exactly.
func NewWithTrivia(input string) *Lexer {
	return newLexer(input, true)
}

// SetFilename stamps every subsequent span with filename.
func (l *Lexer) SetFilename(filename string) {
	l.filename = filename
}

// Tokens lexes src lazily, ending with the EOF token.
// Ranging over the sequence again starts from the beginning of src.
func Tokens(src string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		New(src).All()(yield)
	}
}

// All yields the remaining tokens of l up to and including EOF.
func (l *Lexer) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			tok := l.NextToken()
			if !yield(tok) || tok.Type == EOF {
				return
			}
		}
	}
}

// load decodes the rune at l.next into l.ch.
func (l *Lexer) load() {
	l.pos = l.next
	if l.next >= len(l.input) {
		l.ch = 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.next:])
	l.ch = r
	l.next += w
}

// read advances past the current rune, keeping line and column in step.
func (l *Lexer) read() {
	if l.atEOF() {
		return
	}
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.load()
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// peek returns the next character without advancing
func (l *Lexer) peek() rune {
	if l.next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.next:])
	return r
}

type mark struct {
	line, column, pos int
}

func (l *Lexer) mark() mark {
	return mark{line: l.line, column: l.column, pos: l.pos}
}

func (l *Lexer) spanFrom(m mark) Span {
	return Span{
		Filename: l.filename,
		Line:     m.line,
		Column:   m.column,
		Start:    m.pos,
		End:      l.pos,
	}
}

// emit builds a token whose Raw is the input consumed since m.
func (l *Lexer) emit(tokType TokenType, m mark) Token {
	raw := l.input[m.pos:l.pos]
	return l.emitValue(tokType, m, raw)
}

func (l *Lexer) emitValue(tokType TokenType, m mark, value string) Token {
	return Token{
		Type:    tokType,
		Literal: value,
		Raw:     l.input[m.pos:l.pos],
		Value:   value,
		Span:    l.spanFrom(m),
	}
}

// single consumes one rune and emits it as tokType.
func (l *Lexer) single(tokType TokenType) Token {
	m := l.mark()
	l.read()
	return l.emit(tokType, m)
}

// pair emits two if the rune after the current one is second, else one.
func (l *Lexer) pair(second rune, two, one TokenType) Token {
	m := l.mark()
	l.read()
	if l.ch == second {
		l.read()
		return l.emit(two, m)
	}
	return l.emit(one, m)
}

// skipTrivia consumes whitespace and comments. In trivia mode it stops after
// the first trivia run and returns it as a token.
func (l *Lexer) skipTrivia() (Token, bool) {
	for {
		m := l.mark()
		switch {
		case l.ch == '\n' || l.ch == '\r':
			if l.ch == '\r' && l.peek() == '\n' {
				l.read()
			}
			l.read()
			if l.emitTrivia {
				return l.emit(NEWLINE, m), true
			}
		case l.ch == ' ' || l.ch == '\t':
			for l.ch == ' ' || l.ch == '\t' {
				l.read()
			}
			if l.emitTrivia {
				return l.emit(WHITESPACE, m), true
			}
		case l.ch == '/' && l.peek() == '/':
			for !l.atEOF() && l.ch != '\n' && l.ch != '\r' {
				l.read()
			}
			if l.emitTrivia {
				return l.emit(LINE_COMMENT, m), true
			}
		case l.ch == '/' && l.peek() == '*':
			l.skipBlockComment(m)
			if l.emitTrivia {
				return l.emit(BLOCK_COMMENT, m), true
			}
		default:
			return Token{}, false
		}
	}
}

// skipBlockComment consumes a possibly nested /* */ comment starting at m.
func (l *Lexer) skipBlockComment(m mark) {
	l.read() // '/'
	l.read() // '*'
	depth := 1
	for depth > 0 {
		switch {
		case l.atEOF():
			l.addError(ErrUnterminatedBlockComment, "unterminated block comment", l.spanFrom(m))
			return
		case l.ch == '/' && l.peek() == '*':
			l.read()
			l.read()
			depth++
		case l.ch == '*' && l.peek() == '/':
			l.read()
			l.read()
			depth--
		default:
			l.read()
		}
	}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	if tok, ok := l.skipTrivia(); ok {
		return tok
	}

	if l.atEOF() {
		return Token{
			Type: EOF,
			Span: l.spanFrom(l.mark()),
		}
	}

	switch l.ch {
	case '=':
		return l.pair('=', EQ, ASSIGN)
	case '!':
		return l.pair('=', NOT_EQ, BANG)
	case '<':
		return l.pair('=', LE, LT)
	case '>':
		return l.pair('=', GE, GT)
	case '-':
		return l.pair('>', ARROW, MINUS)
	case '&':
		if l.peek() == '&' {
			return l.pair('&', AND, ILLEGAL)
		}
	case '|':
		if l.peek() == '|' {
			return l.pair('|', OR, ILLEGAL)
		}
	case '+':
		return l.single(PLUS)
	case '*':
		return l.single(ASTERISK)
	case '/':
		return l.single(SLASH)
	case '%':
		return l.single(PERCENT)
	case ';':
		return l.single(SEMICOLON)
	case ',':
		return l.single(COMMA)
	case ':':
		return l.single(COLON)
	case '(':
		return l.single(LPAREN)
	case ')':
		return l.single(RPAREN)
	case '{':
		return l.single(LBRACE)
	case '}':
		return l.single(RBRACE)
	case '"':
		return l.readString()
	}

	switch {
	case isLetter(l.ch):
		m := l.mark()
		for isLetter(l.ch) || isDigit(l.ch) {
			l.read()
		}
		return l.emit(LookupIdent(l.input[m.pos:l.pos]), m)
	case isDigit(l.ch):
		m := l.mark()
		l.readNumber()
		return l.emit(INT, m)
	}

	tok := l.single(ILLEGAL)
	l.addError(ErrIllegalRune, "illegal character "+strconv.QuoteRune(l.runeAt(tok.Span.Start)), tok.Span)
	return tok
}

func (l *Lexer) runeAt(offset int) rune {
	r, _ := utf8.DecodeRuneInString(l.input[offset:])
	return r
}

// readNumber consumes an integer literal: decimal, 0x hex or 0b binary, with
// optional '_' separators. Range and digit validity are checked by ParseInt.
func (l *Lexer) readNumber() {
	if l.ch == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.read()
		l.read()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.read()
		}
		return
	}
	if l.ch == '0' && (l.peek() == 'b' || l.peek() == 'B') {
		l.read()
		l.read()
		// Other digits are consumed so that 0b102 is one malformed literal.
		for isDigit(l.ch) || l.ch == '_' {
			l.read()
		}
		return
	}
	for isDigit(l.ch) || l.ch == '_' {
		l.read()
	}
}

// readString reads a double-quoted string literal. Unterminated literals
// (EOF or a line break before the closing quote) come back as ILLEGAL.
func (l *Lexer) readString() Token {
	m := l.mark()
	var value strings.Builder
	l.read() // opening quote

	for {
		switch {
		case l.atEOF():
			l.addError(ErrUnterminatedString, "unterminated string literal", l.spanFrom(m))
			return l.emit(ILLEGAL, m)
		case l.ch == '\n' || l.ch == '\r':
			l.addError(ErrUnterminatedString, "newline in string literal", l.spanFrom(m))
			return l.emit(ILLEGAL, m)
		case l.ch == '"':
			l.read()
			return l.emitValue(STRING, m, value.String())
		case l.ch == '\\':
			l.read()
			if l.atEOF() {
				continue
			}
			switch l.ch {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			case '0':
				value.WriteByte(0)
			case '\\':
				value.WriteByte('\\')
			case '"':
				value.WriteByte('"')
			default:
				// unknown escapes are kept verbatim
				value.WriteByte('\\')
				value.WriteRune(l.ch)
			}
			l.read()
		default:
			value.WriteRune(l.ch)
			l.read()
		}
	}
}

// ParseInt decodes the raw text of an INT token.
func ParseInt(raw string) (int64, error) {
	digits := strings.ReplaceAll(raw, "_", "")
	base := 10
	switch {
	case strings.HasPrefix(digits, "0x"), strings.HasPrefix(digits, "0X"):
		base, digits = 16, digits[2:]
	case strings.HasPrefix(digits, "0b"), strings.HasPrefix(digits, "0B"):
		base, digits = 2, digits[2:]
	}
	return strconv.ParseInt(digits, base, 64)
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	// Numeric literals are restricted to ASCII digits.
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') ||
		(ch >= 'a' && ch <= 'f') ||
		(ch >= 'A' && ch <= 'F')
}
