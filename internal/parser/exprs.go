package parser

import (
	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/lexer"
)

func (p *Parser) parseExpr() ast.Expr {
	return p.parseExprPrecedence(precedenceLowest)
}

func (p *Parser) parseExprPrecedence(precedence int) ast.Expr {
	prefix := p.prefixFns[p.curTok.Type]
	if prefix == nil {
		p.reportExpected("expression", "", p.curTok)
		return nil
	}

	left := prefix()
	if left == nil {
		return nil
	}

	for p.peekTok.Type != lexer.SEMICOLON && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekTok.Type]
		if infix == nil {
			break
		}

		p.nextToken()

		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parseIdentifier() ast.Expr {
	return ast.NewIdent(p.curTok.Literal, p.curTok.Span)
}

func (p *Parser) parseNumberLiteral() ast.Expr {
	tok := p.curTok
	value, err := lexer.ParseInt(tok.Raw)
	if err != nil {
		p.reportError(diag.CodeSyntaxInvalidNumber, tok.Span, "invalid number literal `%s`", tok.Raw)
	}
	return ast.NewNumberLit(tok.Raw, value, tok.Span)
}

func (p *Parser) parseStringLiteral() ast.Expr {
	return ast.NewStringLit(p.curTok.Value, p.curTok.Span)
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	return ast.NewBoolLit(p.curTok.Type == lexer.TRUE, p.curTok.Span)
}

// parseUnaryExpr consumes the operator before recursing so that
// precedencePrefix controls binding: -a * b is (-a) * b.
func (p *Parser) parseUnaryExpr() ast.Expr {
	operatorTok := p.curTok

	p.nextToken()

	operand := p.parseExprPrecedence(precedencePrefix)
	if operand == nil {
		return nil
	}

	return ast.NewUnaryExpr(operatorTok.Type, operand, mergeSpan(operatorTok.Span, operand.Span()))
}

// parseGroupedExpr parses "(expr)" without introducing a node for the
// parentheses.
func (p *Parser) parseGroupedExpr() ast.Expr {
	p.nextToken()

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}

	if !p.expect(lexer.RPAREN, "to close parenthesized expression") {
		return nil
	}

	return expr
}

func (p *Parser) parseBinaryExpr(left ast.Expr) ast.Expr {
	op := p.curTok.Type
	precedence := p.curPrecedence()

	p.nextToken()

	right := p.parseExprPrecedence(precedence)
	if right == nil {
		return nil
	}

	return ast.NewBinaryExpr(op, left, right, mergeSpan(left.Span(), right.Span()))
}

// parseAssignExpr parses the right-associative `target = value`.
func (p *Parser) parseAssignExpr(left ast.Expr) ast.Expr {
	assignTok := p.curTok

	p.nextToken()

	value := p.parseExprPrecedence(precedenceAssign - 1)
	if value == nil {
		return nil
	}

	target, ok := left.(*ast.Ident)
	if !ok {
		p.report(ParseError{
			Code:    diag.CodeSyntaxInvalidTarget,
			Message: "invalid assignment target: only variables can be assigned",
			Span:    left.Span(),
			Found:   assignTok,
		})
		return nil
	}

	return ast.NewAssignExpr(target, value, mergeSpan(left.Span(), value.Span()))
}

// parseCallExpr parses an argument list. curTok is '(' on entry and ')' on return.
func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
		return ast.NewCallExpr(callee, nil, mergeSpan(callee.Span(), p.curTok.Span))
	}

	p.nextToken()

	res, ok := parseDelimited[ast.Expr](p, delimitedConfig{
		Closing:             lexer.RPAREN,
		Separator:           lexer.COMMA,
		MissingElementMsg:   "argument",
		MissingSeparatorMsg: "',' or ')' in argument list",
	}, func(int) (ast.Expr, bool) {
		arg := p.parseExpr()
		return arg, arg != nil
	})
	if !ok {
		return nil
	}

	return ast.NewCallExpr(callee, res.Items, mergeSpan(callee.Span(), p.curTok.Span))
}
