package parser

import (
	"fmt"
	"sort"

	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/lexer"
)

// ParseError captures a recoverable parsing error with location context.
type ParseError struct {
	Code     diag.Code
	Message  string
	Span     lexer.Span
	Expected string      // what the grammar wanted, empty when not applicable
	Found    lexer.Token // the offending token
	Help     string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// ToDiagnostic converts a parse error into a shared diagnostic structure.
func (e ParseError) ToDiagnostic() diag.Diagnostic {
	d := diag.New(diag.StageParser, e.Code, e.Span.Diag(), "%s", e.Message)
	if e.Expected != "" {
		d = d.WithPrimarySpan(e.Span.Diag(), "expected "+e.Expected)
	}
	if e.Help != "" {
		d = d.WithHelp(e.Help)
	}
	return d
}

// Diagnostics returns lexical and syntax diagnostics ordered by position.
func (p *Parser) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, err := range p.lx.Errors {
		out = append(out, err.ToDiagnostic())
	}
	for _, err := range p.errors {
		out = append(out, err.ToDiagnostic())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start < out[j].Span.Start
	})
	return out
}

func (p *Parser) report(err ParseError) {
	if err.Span.Filename == "" {
		err.Span.Filename = p.filename
	}
	p.errors = append(p.errors, err)
}

// reportExpected reports that the grammar wanted `expected` but saw found.
func (p *Parser) reportExpected(expected, context string, found lexer.Token) {
	msg := "expected " + expected
	if context != "" {
		msg += " " + context
	}
	msg += ", found " + describeToken(found)

	err := ParseError{
		Code:     diag.CodeSyntaxExpectedToken,
		Message:  msg,
		Span:     found.Span,
		Expected: expected,
		Found:    found,
	}
	if expected == "';'" {
		err.Help = "add ';' to end the statement"
	}
	p.report(err)
}

// reportUnexpected reports a token that cannot start the construct being parsed.
func (p *Parser) reportUnexpected(found lexer.Token, help string) {
	p.report(ParseError{
		Code:    diag.CodeSyntaxUnexpectedToken,
		Message: "unexpected " + describeToken(found),
		Span:    found.Span,
		Found:   found,
		Help:    help,
	})
}

func (p *Parser) reportError(code diag.Code, span lexer.Span, format string, args ...any) {
	p.report(ParseError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	})
}

func describeType(tt lexer.TokenType) string {
	switch tt {
	case lexer.IDENT:
		return "identifier"
	case lexer.INT:
		return "number"
	case lexer.STRING:
		return "string"
	case lexer.TYPENAME:
		return "type"
	case lexer.EOF:
		return "end of file"
	}
	if tt.Class() == lexer.ClassKeyword {
		return "'" + lowerKeyword(tt) + "'"
	}
	return "'" + string(tt) + "'"
}

func describeToken(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "end of file"
	}
	if tok.Raw == "" {
		return describeType(tok.Type)
	}
	return "`" + tok.Raw + "`"
}

func lowerKeyword(tt lexer.TokenType) string {
	b := []byte(tt)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
