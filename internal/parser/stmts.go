package parser

import (
	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/lexer"
)

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curTok.Type {
	case lexer.LET:
		return p.parseLetStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.PRINT:
		return p.parsePrintStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.ELSE:
		p.reportUnexpected(p.curTok, "'else' must follow the block of an 'if'")
		return nil
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT, "after 'let'") {
		return nil
	}

	name := ast.NewName(p.curTok.Literal, p.curTok.Span)

	var typ ast.TypeExpr

	if p.peekTok.Type == lexer.COLON {
		p.nextToken() // move to ':'
		p.nextToken() // move to first type token

		typ = p.parseType()
		if typ == nil {
			return nil
		}
	}

	if !p.expect(lexer.ASSIGN, "in let binding") {
		return nil
	}

	p.nextToken()

	value := p.parseExpr()
	if value == nil {
		return nil
	}

	if !p.expect(lexer.SEMICOLON, "after let binding") {
		return nil
	}

	stmt := ast.NewLetStmt(name, typ, value, mergeSpan(start, p.curTok.Span))

	p.nextToken()

	return stmt
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.curTok.Span

	if p.peekTok.Type == lexer.SEMICOLON {
		p.nextToken()

		stmt := ast.NewReturnStmt(nil, mergeSpan(start, p.curTok.Span))

		p.nextToken()

		return stmt
	}

	p.nextToken()

	value := p.parseExpr()
	if value == nil {
		return nil
	}

	if !p.expect(lexer.SEMICOLON, "after return value") {
		return nil
	}

	stmt := ast.NewReturnStmt(value, mergeSpan(start, p.curTok.Span))

	p.nextToken()

	return stmt
}

func (p *Parser) parsePrintStmt() ast.Stmt {
	start := p.curTok.Span

	p.nextToken()

	value := p.parseExpr()
	if value == nil {
		return nil
	}

	if !p.expect(lexer.SEMICOLON, "after print value") {
		return nil
	}

	stmt := ast.NewPrintStmt(value, mergeSpan(start, p.curTok.Span))

	p.nextToken()

	return stmt
}

func (p *Parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}

	if !p.expect(lexer.SEMICOLON, "after expression") {
		return nil
	}

	stmt := ast.NewExprStmt(expr, mergeSpan(expr.Span(), p.curTok.Span))

	p.nextToken()

	return stmt
}

// parseIfStmt parses `if cond { } (else if ... | else { })?`.
func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.curTok.Span

	p.nextToken()

	cond := p.parseExpr()
	if cond == nil {
		return nil
	}

	if !p.expect(lexer.LBRACE, "after if condition") {
		return nil
	}

	then := p.parseBlock()
	if then == nil {
		return nil
	}

	span := mergeSpan(start, then.Span())

	if p.curTok.Type != lexer.ELSE {
		return ast.NewIfStmt(cond, then, nil, span)
	}

	p.nextToken()

	var els ast.Stmt
	switch p.curTok.Type {
	case lexer.IF:
		elseIf := p.parseIfStmt()
		if elseIf == nil {
			return nil
		}
		els = elseIf
	case lexer.LBRACE:
		block := p.parseBlock()
		if block == nil {
			return nil
		}
		els = block
	default:
		p.reportExpected("'{' or 'if'", "after 'else'", p.curTok)
		return nil
	}

	return ast.NewIfStmt(cond, then, els, mergeSpan(span, els.Span()))
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.curTok.Span

	p.nextToken()

	cond := p.parseExpr()
	if cond == nil {
		return nil
	}

	if !p.expect(lexer.LBRACE, "after while condition") {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return ast.NewWhileStmt(cond, body, mergeSpan(start, body.Span()))
}
