package ast

import (
	"github.com/vivscript/vivc/internal/lexer"
	"github.com/vivscript/vivc/internal/types"
)

// Node represents any AST node with an associated source span.
type Node interface {
	Span() lexer.Span
}

// Expr represents an expression node. Every expression carries the type
// assigned by the type resolver and the disposition assigned by the
// ownership resolver.
type Expr interface {
	Node
	Type() types.Type
	SetType(types.Type)
	Disposition() Disposition
	SetDisposition(Disposition)
	exprNode()
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl represents a top-level declaration.
type Decl interface {
	Node
	declNode()
}

// TypeExpr represents a type annotation expression.
type TypeExpr interface {
	Node
	typeNode()
}

// Disposition says how a value flows out of an expression.
type Disposition int

const (
	Unannotated Disposition = iota
	// Fresh values are created by the expression and owned by whoever receives them.
	Fresh
	// Move transfers ownership from an owned variable, which becomes unusable.
	Move
	// Borrow reads a value in place without taking ownership.
	Borrow
	// Copy duplicates the value; the source stays usable.
	Copy
)

var dispositionNames = [...]string{
	Unannotated: "unannotated",
	Fresh:       "fresh",
	Move:        "move",
	Borrow:      "borrow",
	Copy:        "copy",
}

func (d Disposition) String() string {
	if int(d) < len(dispositionNames) {
		return dispositionNames[d]
	}
	return "unknown"
}

// DropMode says what happens to the old value of a reassigned variable.
type DropMode int

const (
	DropNone DropMode = iota
	DropAlways
	// DropIfLive releases the old value only if it was not moved at runtime.
	DropIfLive
)

func (m DropMode) String() string {
	switch m {
	case DropAlways:
		return "drop"
	case DropIfLive:
		return "drop-if-live"
	default:
		return "none"
	}
}

// Drop releases the value owned by a variable.
type Drop struct {
	Symbol      types.SymbolID
	Name        string
	Conditional bool // value may have been moved on some path
}

// exprInfo holds the annotation slots shared by every expression.
type exprInfo struct {
	typ  types.Type
	disp Disposition
}

func (e *exprInfo) Type() types.Type             { return e.typ }
func (e *exprInfo) SetType(t types.Type)         { e.typ = t }
func (e *exprInfo) Disposition() Disposition     { return e.disp }
func (e *exprInfo) SetDisposition(d Disposition) { e.disp = d }

// Program represents a parsed compilation unit.
type Program struct {
	Filename string
	Decls    []Decl
	span     lexer.Span
}

// Span returns the span covering the entire file.
func (p *Program) Span() lexer.Span { return p.span }

// NewProgram constructs a program node with the provided span.
func NewProgram(filename string, decls []Decl, span lexer.Span) *Program {
	return &Program{
		Filename: filename,
		Decls:    decls,
		span:     span,
	}
}

// Functions returns the function declarations of the program in source order.
func (p *Program) Functions() []*FnDecl {
	var fns []*FnDecl
	for _, d := range p.Decls {
		if fn, ok := d.(*FnDecl); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Name is an identifier in binding position: the name of a function,
// parameter or variable being declared.
type Name struct {
	Value  string
	Symbol types.SymbolID
	span   lexer.Span
}

// Span returns the name span.
func (n *Name) Span() lexer.Span { return n.span }

// NewName constructs a binding name node.
func NewName(value string, span lexer.Span) *Name {
	return &Name{Value: value, span: span}
}

// FnDecl represents a function declaration.
type FnDecl struct {
	Name       *Name
	Params     []*Param
	ReturnType TypeExpr // nil means Unit
	Body       *Block
	// Signature is filled in by the type resolver before bodies are resolved.
	Signature *types.Function
	span      lexer.Span
}

// Span returns the declaration span.
func (d *FnDecl) Span() lexer.Span { return d.span }

// NewFnDecl constructs a function declaration node.
func NewFnDecl(name *Name, params []*Param, returnType TypeExpr, body *Block, span lexer.Span) *FnDecl {
	return &FnDecl{
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		span:       span,
	}
}

// declNode marks FnDecl as a declaration.
func (*FnDecl) declNode() {}

// Param represents a function parameter.
type Param struct {
	Name *Name
	Type TypeExpr
	span lexer.Span
}

// Span returns the parameter span.
func (p *Param) Span() lexer.Span { return p.span }

// NewParam constructs a parameter node.
func NewParam(name *Name, typ TypeExpr, span lexer.Span) *Param {
	return &Param{Name: name, Type: typ, span: span}
}

// Block represents a braced statement list with its own scope.
type Block struct {
	Stmts []Stmt
	// Drops lists owned values released when control reaches the closing brace.
	Drops []Drop
	span  lexer.Span
}

// Span returns the block span.
func (b *Block) Span() lexer.Span { return b.span }

// NewBlock constructs a block node.
func NewBlock(stmts []Stmt, span lexer.Span) *Block {
	return &Block{Stmts: stmts, span: span}
}

// stmtNode marks Block as a statement, so it can be an else branch.
func (*Block) stmtNode() {}

// LetStmt represents a let binding statement.
type LetStmt struct {
	Name  *Name
	Type  TypeExpr // optional annotation
	Value Expr
	span  lexer.Span
}

// Span returns the statement span.
func (s *LetStmt) Span() lexer.Span { return s.span }

// NewLetStmt constructs a let statement node.
func NewLetStmt(name *Name, typ TypeExpr, value Expr, span lexer.Span) *LetStmt {
	return &LetStmt{
		Name:  name,
		Type:  typ,
		Value: value,
		span:  span,
	}
}

// stmtNode marks LetStmt as a statement.
func (*LetStmt) stmtNode() {}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	Value Expr // nil for a bare return
	// Drops lists the owned locals released by leaving the function here.
	Drops []Drop
	span  lexer.Span
}

// Span returns the statement span.
func (s *ReturnStmt) Span() lexer.Span { return s.span }

// NewReturnStmt constructs a return statement node.
func NewReturnStmt(value Expr, span lexer.Span) *ReturnStmt {
	return &ReturnStmt{Value: value, span: span}
}

// stmtNode marks ReturnStmt as a statement.
func (*ReturnStmt) stmtNode() {}

// PrintStmt writes a value to standard output.
type PrintStmt struct {
	Value Expr
	span  lexer.Span
}

// Span returns the statement span.
func (s *PrintStmt) Span() lexer.Span { return s.span }

// NewPrintStmt constructs a print statement node.
func NewPrintStmt(value Expr, span lexer.Span) *PrintStmt {
	return &PrintStmt{Value: value, span: span}
}

// stmtNode marks PrintStmt as a statement.
func (*PrintStmt) stmtNode() {}

// ExprStmt represents an expression statement.
type ExprStmt struct {
	Expr Expr
	span lexer.Span
}

// Span returns the statement span.
func (s *ExprStmt) Span() lexer.Span { return s.span }

// NewExprStmt constructs an expression statement node.
func NewExprStmt(expr Expr, span lexer.Span) *ExprStmt {
	return &ExprStmt{Expr: expr, span: span}
}

// stmtNode marks ExprStmt as a statement.
func (*ExprStmt) stmtNode() {}

// IfStmt represents a conditional. Else is nil, a *Block, or an *IfStmt.
type IfStmt struct {
	Cond Expr
	Then *Block
	Else Stmt
	span lexer.Span
}

// Span returns the statement span.
func (s *IfStmt) Span() lexer.Span { return s.span }

// NewIfStmt constructs an if statement node.
func NewIfStmt(cond Expr, then *Block, els Stmt, span lexer.Span) *IfStmt {
	return &IfStmt{Cond: cond, Then: then, Else: els, span: span}
}

// stmtNode marks IfStmt as a statement.
func (*IfStmt) stmtNode() {}

// WhileStmt represents a pre-tested loop.
type WhileStmt struct {
	Cond Expr
	Body *Block
	span lexer.Span
}

// Span returns the statement span.
func (s *WhileStmt) Span() lexer.Span { return s.span }

// NewWhileStmt constructs a while statement node.
func NewWhileStmt(cond Expr, body *Block, span lexer.Span) *WhileStmt {
	return &WhileStmt{Cond: cond, Body: body, span: span}
}

// stmtNode marks WhileStmt as a statement.
func (*WhileStmt) stmtNode() {}

// Ident represents a use of a variable or function.
type Ident struct {
	exprInfo
	Name   string
	Symbol types.SymbolID
	span   lexer.Span
}

// Span returns the identifier span.
func (i *Ident) Span() lexer.Span { return i.span }

// exprNode marks Ident as an expression.
func (*Ident) exprNode() {}

// NewIdent constructs an identifier node.
func NewIdent(name string, span lexer.Span) *Ident {
	return &Ident{
		Name: name,
		span: span,
	}
}

// NumberLit represents an integer literal.
type NumberLit struct {
	exprInfo
	Raw   string
	Value int64
	span  lexer.Span
}

// Span returns the literal span.
func (l *NumberLit) Span() lexer.Span { return l.span }

// NewNumberLit constructs an integer literal node.
func NewNumberLit(raw string, value int64, span lexer.Span) *NumberLit {
	return &NumberLit{Raw: raw, Value: value, span: span}
}

// exprNode marks NumberLit as an expression.
func (*NumberLit) exprNode() {}

// StringLit represents a string literal with escapes already decoded.
type StringLit struct {
	exprInfo
	Value string
	span  lexer.Span
}

// Span returns the literal span.
func (l *StringLit) Span() lexer.Span { return l.span }

// NewStringLit constructs a string literal node.
func NewStringLit(value string, span lexer.Span) *StringLit {
	return &StringLit{Value: value, span: span}
}

// exprNode marks StringLit as an expression.
func (*StringLit) exprNode() {}

// BoolLit represents true or false.
type BoolLit struct {
	exprInfo
	Value bool
	span  lexer.Span
}

// Span returns the literal span.
func (l *BoolLit) Span() lexer.Span { return l.span }

// NewBoolLit constructs a boolean literal node.
func NewBoolLit(value bool, span lexer.Span) *BoolLit {
	return &BoolLit{Value: value, span: span}
}

// exprNode marks BoolLit as an expression.
func (*BoolLit) exprNode() {}

// UnaryExpr represents a prefix operator application.
type UnaryExpr struct {
	exprInfo
	Op      lexer.TokenType
	Operand Expr
	span    lexer.Span
}

// Span returns the expression span.
func (e *UnaryExpr) Span() lexer.Span { return e.span }

// NewUnaryExpr constructs a prefix expression node.
func NewUnaryExpr(op lexer.TokenType, operand Expr, span lexer.Span) *UnaryExpr {
	return &UnaryExpr{Op: op, Operand: operand, span: span}
}

// exprNode marks UnaryExpr as an expression.
func (*UnaryExpr) exprNode() {}

// BinaryExpr represents an infix binary expression.
type BinaryExpr struct {
	exprInfo
	Op    lexer.TokenType
	Left  Expr
	Right Expr
	span  lexer.Span
}

// Span returns the expression span.
func (e *BinaryExpr) Span() lexer.Span { return e.span }

// NewBinaryExpr constructs an infix expression node.
func NewBinaryExpr(op lexer.TokenType, left, right Expr, span lexer.Span) *BinaryExpr {
	return &BinaryExpr{Op: op, Left: left, Right: right, span: span}
}

// exprNode marks BinaryExpr as an expression.
func (*BinaryExpr) exprNode() {}

// CallExpr represents a function call.
type CallExpr struct {
	exprInfo
	Callee Expr
	Args   []Expr
	span   lexer.Span
}

// Span returns the expression span.
func (e *CallExpr) Span() lexer.Span { return e.span }

// NewCallExpr constructs a call expression node.
func NewCallExpr(callee Expr, args []Expr, span lexer.Span) *CallExpr {
	return &CallExpr{Callee: callee, Args: args, span: span}
}

// exprNode marks CallExpr as an expression.
func (*CallExpr) exprNode() {}

// AssignExpr represents target = value. The expression itself has type Unit.
type AssignExpr struct {
	exprInfo
	Target *Ident
	Value  Expr
	// Drop says how the value previously held by Target is released.
	Drop DropMode
	span lexer.Span
}

// Span returns the expression span.
func (e *AssignExpr) Span() lexer.Span { return e.span }

// NewAssignExpr constructs an assignment node.
func NewAssignExpr(target *Ident, value Expr, span lexer.Span) *AssignExpr {
	return &AssignExpr{Target: target, Value: value, span: span}
}

// exprNode marks AssignExpr as an expression.
func (*AssignExpr) exprNode() {}

// NamedType represents a type written by name, such as Num or Str.
type NamedType struct {
	Name string
	span lexer.Span
}

// Span returns the type span.
func (t *NamedType) Span() lexer.Span { return t.span }

// NewNamedType constructs a named type node.
func NewNamedType(name string, span lexer.Span) *NamedType {
	return &NamedType{Name: name, span: span}
}

// typeNode marks NamedType as a type expression.
func (*NamedType) typeNode() {}
