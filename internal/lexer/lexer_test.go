package lexer

import (
	"strings"
	"testing"
)

func TestNextToken_Basic(t *testing.T) {
	input := `let x = 10;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{LET, "let"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT, "10"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_Operators(t *testing.T) {
	input := `= + - * / % ! && || -> == != < > <= >= ( ) { } , ; :`

	expected := []TokenType{
		ASSIGN, PLUS, MINUS, ASTERISK, SLASH, PERCENT, BANG, AND, OR, ARROW,
		EQ, NOT_EQ, LT, GT, LE, GE,
		LPAREN, RPAREN, LBRACE, RBRACE, COMMA, SEMICOLON, COLON,
		EOF,
	}

	l := New(input)
	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, typ, tok.Type)
		}
	}
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected lexer errors: %v", l.Errors)
	}
}

func TestNextToken_KeywordsAndTypeNames(t *testing.T) {
	input := `fn let return print if else while true false Num Str Bool Unit main`

	tests := []struct {
		typ   TokenType
		class TokenClass
	}{
		{FN, ClassKeyword},
		{LET, ClassKeyword},
		{RETURN, ClassKeyword},
		{PRINT, ClassKeyword},
		{IF, ClassKeyword},
		{ELSE, ClassKeyword},
		{WHILE, ClassKeyword},
		{TRUE, ClassKeyword},
		{FALSE, ClassKeyword},
		{TYPENAME, ClassKeyword},
		{TYPENAME, ClassKeyword},
		{TYPENAME, ClassKeyword},
		{TYPENAME, ClassKeyword},
		{IDENT, ClassIdentifier},
		{EOF, ClassEOF},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.typ, tok.Type)
		}
		if got := tok.Type.Class(); got != tt.class {
			t.Fatalf("tests[%d] - class wrong. expected=%s, got=%s", i, tt.class, got)
		}
	}
}

func TestNextToken_Numbers(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"0", 0},
		{"42", 42},
		{"1_000_000", 1000000},
		{"0xff", 255},
		{"0XFF", 255},
		{"0b1010", 10},
		{"0b_1111_0000", 240},
		{"9223372036854775807", 9223372036854775807},
	}

	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != INT {
			t.Fatalf("%q: expected INT, got %q", tt.input, tok.Type)
		}
		if tok.Raw != tt.input {
			t.Fatalf("%q: expected raw %q, got %q", tt.input, tt.input, tok.Raw)
		}
		got, err := ParseInt(tok.Raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("%q: expected %d, got %d", tt.input, tt.want, got)
		}
	}
}

func TestParseInt_Invalid(t *testing.T) {
	for _, raw := range []string{"0x", "0b102", "9223372036854775808"} {
		if _, err := ParseInt(raw); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

func TestNextToken_StringEscapes(t *testing.T) {
	input := `"a\n\t\r\\\"\0b"`
	tok := New(input).NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %q", tok.Type)
	}
	if tok.Raw != input {
		t.Fatalf("expected raw %q, got %q", input, tok.Raw)
	}
	want := "a\n\t\r\\\"\x00b"
	if tok.Value != want {
		t.Fatalf("expected value %q, got %q", want, tok.Value)
	}
}

func TestNextToken_SkipsComments(t *testing.T) {
	input := "// leading\nlet /* inline /* nested */ still */ x = 1; // trailing"

	expected := []TokenType{LET, IDENT, ASSIGN, INT, SEMICOLON, EOF}
	l := New(input)
	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("step %d - expected token %q, got %q", i, typ, tok.Type)
		}
	}
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected lexer errors: %v", l.Errors)
	}
}

func TestTriviaEmitsWhitespaceAndComments(t *testing.T) {
	input := "let x = 1; // c\r\n"

	expected := []TokenType{
		LET, WHITESPACE, IDENT, WHITESPACE, ASSIGN, WHITESPACE, INT, SEMICOLON,
		WHITESPACE, LINE_COMMENT, NEWLINE, EOF,
	}

	l := NewWithTrivia(input)
	for i, typ := range expected {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("step %d - expected token %q, got %q", i, typ, tok.Type)
		}
		if typ == NEWLINE && tok.Raw != "\r\n" {
			t.Fatalf("expected CRLF newline token, got %q", tok.Raw)
		}
	}
}

func TestLossless(t *testing.T) {
	inputs := []string{
		"",
		"fn main() -> Num {\n\treturn 1 + 2 * 3;\n}\n",
		"fn main() -> Num { let s: Str = \"h\\\"i\"; print s; /* a /* b */ c */ return 0; }",
		"let π = 1; @ # $\r\n\r// end",
		"\"unterminated",
		"/* never closed",
		"x\ny\r\nz\r",
	}

	for _, input := range inputs {
		var b strings.Builder
		for tok := range NewWithTrivia(input).All() {
			b.WriteString(tok.Raw)
		}
		if got := b.String(); got != input {
			t.Fatalf("lossless lexing failed:\n input: %q\noutput: %q", input, got)
		}
	}
}

func TestSpansAreByteOffsets(t *testing.T) {
	input := "let é = \"ü\";\n  x"
	var toks []Token
	for tok := range Tokens(input) {
		toks = append(toks, tok)
	}

	for _, tok := range toks {
		if tok.Type == EOF {
			continue
		}
		if got := input[tok.Span.Start:tok.Span.End]; got != tok.Raw {
			t.Fatalf("span %d:%d of %s selects %q, want %q", tok.Span.Start, tok.Span.End, tok.Type, got, tok.Raw)
		}
	}

	// let é = "ü" ; x EOF
	if len(toks) != 7 {
		t.Fatalf("expected 7 tokens, got %d: %v", len(toks), toks)
	}
	if toks[2].Span.Column != 7 {
		t.Fatalf("expected '=' at column 7, got %d", toks[2].Span.Column)
	}
	x := toks[5]
	if x.Span.Line != 2 || x.Span.Column != 3 {
		t.Fatalf("expected x at 2:3, got %d:%d", x.Span.Line, x.Span.Column)
	}
}

func TestTokensIsRestartable(t *testing.T) {
	seq := Tokens("print 1;")
	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	first, second := count(), count()
	if first != 4 || second != 4 {
		t.Fatalf("expected 4 tokens on each pass, got %d and %d", first, second)
	}
}

func TestSetFilename(t *testing.T) {
	l := New("x")
	l.SetFilename("main.viv")
	tok := l.NextToken()
	if tok.Span.Filename != "main.viv" {
		t.Fatalf("expected filename on span, got %q", tok.Span.Filename)
	}
	if got := tok.Span.String(); got != "main.viv:1:1" {
		t.Fatalf("unexpected span string %q", got)
	}
}
