package parser

import (
	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/lexer"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

type Option func(*options)

type options struct {
	filename string
}

// WithFilename configures the parser to attribute all emitted spans to the provided filename.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

const (
	precedenceLowest = iota
	precedenceAssign
	precedenceOr
	precedenceAnd
	precedenceEquality
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
	precedenceCall
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN:   precedenceAssign,
	lexer.OR:       precedenceOr,
	lexer.AND:      precedenceAnd,
	lexer.EQ:       precedenceEquality,
	lexer.NOT_EQ:   precedenceEquality,
	lexer.LT:       precedenceComparison,
	lexer.LE:       precedenceComparison,
	lexer.GT:       precedenceComparison,
	lexer.GE:       precedenceComparison,
	lexer.PLUS:     precedenceSum,
	lexer.MINUS:    precedenceSum,
	lexer.ASTERISK: precedenceProduct,
	lexer.SLASH:    precedenceProduct,
	lexer.PERCENT:  precedenceProduct,
	lexer.LPAREN:   precedenceCall,
}

// Parser implements a Pratt-style recursive descent parser for Viv.
// Invariants:
//   - Lookahead: curTok is the token under examination and peekTok the next
//     one. The pair is only mutated via nextToken, which also drops ILLEGAL
//     tokens; the lexer has already recorded an error for each of them.
//   - Positions: statement parsers start on their first token and return with
//     curTok on the token after the statement. Expression parsers return with
//     curTok on the last token of the expression.
//   - Diagnostics: errors is append-only. A failed construct returns nil and
//     the caller resynchronizes with recoverStatement or recoverDecl.
type Parser struct {
	lx      *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token

	errors []ParseError

	filename string
	size     int

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn
}

// New returns a parser initialised with the provided source input.
func New(input string, opts ...Option) *Parser {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Parser{
		lx:        lexer.New(input),
		prefixFns: make(map[lexer.TokenType]prefixParseFn),
		infixFns:  make(map[lexer.TokenType]infixParseFn),
		filename:  cfg.filename,
		size:      len(input),
	}
	p.lx.SetFilename(cfg.filename)

	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseNumberLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.MINUS, p.parseUnaryExpr)
	p.registerPrefix(lexer.BANG, p.parseUnaryExpr)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpr)

	p.registerInfix(lexer.ASSIGN, p.parseAssignExpr)
	for _, op := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT,
		lexer.AND, lexer.OR,
		lexer.EQ, lexer.NOT_EQ, lexer.LT, lexer.LE, lexer.GT, lexer.GE,
	} {
		p.registerInfix(op, p.parseBinaryExpr)
	}
	p.registerInfix(lexer.LPAREN, p.parseCallExpr)

	// Seed curTok/peekTok.
	p.nextToken()
	p.nextToken()

	return p
}

// Parse parses src and returns the best-effort program with every lexical
// and syntax diagnostic found on the way.
func Parse(src string, opts ...Option) (*ast.Program, []diag.Diagnostic) {
	p := New(src, opts...)
	prog := p.ParseProgram()
	return prog, p.Diagnostics()
}

// Errors returns all recoverable parse errors that were encountered.
func (p *Parser) Errors() []ParseError {
	return p.errors
}

// LexErrors returns the errors the lexer recorded for the tokens consumed so far.
func (p *Parser) LexErrors() []lexer.LexerError {
	return p.lx.Errors
}

// ParseProgram parses a full compilation unit. It always returns a program,
// even when errors were reported.
func (p *Parser) ParseProgram() *ast.Program {
	var decls []ast.Decl

	for p.curTok.Type != lexer.EOF {
		prevTok := p.curTok

		if p.curTok.Type == lexer.FN {
			if decl := p.parseFnDecl(); decl != nil {
				decls = append(decls, decl)
				continue
			}
		} else {
			p.reportUnexpected(p.curTok, "expected function declaration")
		}

		p.recoverDecl(prevTok)
	}

	span := lexer.Span{
		Filename: p.filename,
		Line:     1,
		Column:   1,
		Start:    0,
		End:      p.size,
	}
	return ast.NewProgram(p.filename, decls, span)
}

// nextToken advances the parser's token window.
// Contract: after calling nextToken, curTok == old(peekTok).
func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	tok := p.lx.NextToken()
	for tok.Type == lexer.ILLEGAL {
		tok = p.lx.NextToken()
	}
	p.peekTok = tok
}

// expect asserts that the peek token matches the provided type.
// On success it promotes peekTok into curTok.
func (p *Parser) expect(tt lexer.TokenType, context string) bool {
	if p.peekTok.Type == tt {
		p.nextToken()
		return true
	}

	p.reportExpected(describeType(tt), context, p.peekTok)
	return false
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixFns[tokenType] = fn
}

// parseFnDecl parses `fn name(params) -> Type { ... }`.
func (p *Parser) parseFnDecl() *ast.FnDecl {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT, "after 'fn'") {
		return nil
	}
	name := ast.NewName(p.curTok.Literal, p.curTok.Span)

	if !p.expect(lexer.LPAREN, "after function name") {
		return nil
	}

	params, ok := p.parseParams()
	if !ok {
		return nil
	}

	var ret ast.TypeExpr
	if p.peekTok.Type == lexer.ARROW {
		p.nextToken() // move to '->'
		p.nextToken() // move to return type
		ret = p.parseType()
		if ret == nil {
			return nil
		}
	}

	if !p.expect(lexer.LBRACE, "before function body") {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return ast.NewFnDecl(name, params, ret, body, mergeSpan(start, body.Span()))
}

// parseParams parses a parameter list. curTok is '(' on entry and ')' on success.
func (p *Parser) parseParams() ([]*ast.Param, bool) {
	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
		return nil, true
	}

	p.nextToken()

	res, ok := parseDelimited[*ast.Param](p, delimitedConfig{
		Closing:             lexer.RPAREN,
		Separator:           lexer.COMMA,
		MissingElementMsg:   "parameter",
		MissingSeparatorMsg: "',' or ')' in parameter list",
	}, func(int) (*ast.Param, bool) {
		param := p.parseParam()
		return param, param != nil
	})
	return res.Items, ok
}

func (p *Parser) parseParam() *ast.Param {
	if p.curTok.Type != lexer.IDENT {
		p.reportExpected("parameter name", "", p.curTok)
		return nil
	}
	name := ast.NewName(p.curTok.Literal, p.curTok.Span)

	if !p.expect(lexer.COLON, "after parameter name") {
		return nil
	}
	p.nextToken()

	typ := p.parseType()
	if typ == nil {
		return nil
	}

	return ast.NewParam(name, typ, mergeSpan(name.Span(), typ.Span()))
}

// parseType parses a type name. Unknown names are accepted here and
// rejected by the type resolver, which can suggest a builtin.
func (p *Parser) parseType() ast.TypeExpr {
	switch p.curTok.Type {
	case lexer.TYPENAME, lexer.IDENT:
		return ast.NewNamedType(p.curTok.Literal, p.curTok.Span)
	default:
		p.reportExpected("type", "", p.curTok)
		return nil
	}
}

// parseBlock parses `{ stmt* }`. curTok is '{' on entry and the token after
// '}' on return. A block cut short by a missing '}' is still returned.
func (p *Parser) parseBlock() *ast.Block {
	start := p.curTok.Span

	if p.curTok.Type != lexer.LBRACE {
		p.reportExpected("'{'", "to start block", p.curTok)
		return nil
	}

	p.nextToken()

	var stmts []ast.Stmt
	for p.curTok.Type != lexer.RBRACE && p.curTok.Type != lexer.EOF && p.curTok.Type != lexer.FN {
		prevTok := p.curTok
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
			continue
		}
		p.recoverStatement(prevTok)
	}

	if p.curTok.Type != lexer.RBRACE {
		p.reportExpected("'}'", "to close block", p.curTok)
		return ast.NewBlock(stmts, mergeSpan(start, p.curTok.Span))
	}

	block := ast.NewBlock(stmts, mergeSpan(start, p.curTok.Span))
	p.nextToken()
	return block
}
