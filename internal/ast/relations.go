package ast

import (
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/lexer"
	"github.com/vivscript/vivc/internal/types"
)

// Operand is a type together with the source that demanded it.
// A zero Span means the type comes from the language itself, such as an
// operator signature or a condition that must be Bool.
type Operand struct {
	Type types.Type
	Span lexer.Span
}

// Role says what kind of binding a declaration introduces.
type Role int

const (
	RoleLocal Role = iota
	RoleParam
	RoleFunction
)

// Predicate is a property checked on a type once unification has finished.
type Predicate struct {
	Code    diag.Code
	Message string // format with one %s verb for the resolved type
	Holds   func(types.Type) bool
}

// Printable accepts the types print can write.
var Printable = Predicate{
	Code:    diag.CodeTypeNotPrintable,
	Message: "cannot print a value of type `%s`",
	Holds:   types.IsPrintable,
}

// Constraints is the vocabulary a node uses to state its type relations.
type Constraints interface {
	// Of returns the type already recorded for a child expression.
	Of(e Expr) Operand
	Fresh() types.Type
	// Resolve turns a written type into a type, reporting unknown names.
	Resolve(t TypeExpr) types.Type
	// Lookup binds a use to its symbol and returns the symbol's type.
	Lookup(id *Ident) types.Type
	Declare(name *Name, t types.Type, role Role) types.SymbolID
	// Operator instantiates the signature of op for the given arity.
	Operator(op lexer.TokenType, arity int) *types.Function
	// Unify requires got to have the type want describes. It reports a
	// mismatch and returns false when they conflict.
	Unify(want, got Operand) bool
	Require(o Operand, p Predicate)
	Errorf(span lexer.Span, code diag.Code, format string, args ...any)

	EnterFunction(fn *FnDecl)
	ExitFunction()
	ReturnSlot() Operand
	OpenScope()
	CloseScope()
}

// Relator is implemented by every node that imposes type relations.
// Relate runs after all children are related and returns the node's type.
type Relator interface {
	Relate(c Constraints) types.Type
}

// Enterer nodes set up scopes before their children are related.
type Enterer interface {
	Enter(c Constraints)
}

// Declarer nodes publish a signature before any body is related, which
// makes forward references work.
type Declarer interface {
	Declare(c Constraints)
}

func (d *FnDecl) Declare(c Constraints) {
	sig := &types.Function{Return: types.TypeUnit}
	for _, p := range d.Params {
		sig.Params = append(sig.Params, c.Resolve(p.Type))
	}
	if d.ReturnType != nil {
		sig.Return = c.Resolve(d.ReturnType)
	}
	d.Signature = sig
	d.Name.Symbol = c.Declare(d.Name, sig, RoleFunction)
}

func (d *FnDecl) Enter(c Constraints) {
	c.EnterFunction(d)
}

func (d *FnDecl) Relate(c Constraints) types.Type {
	ret := c.ReturnSlot()
	if ret.Type != types.TypeUnit && !Terminates(d.Body) {
		c.Errorf(d.Body.Span(), diag.CodeTypeMissingReturn,
			"function `%s` returns `%s` but can reach the end of its body without returning",
			d.Name.Value, ret.Type)
	}
	c.ExitFunction()
	return d.Signature
}

func (b *Block) Enter(c Constraints) {
	c.OpenScope()
}

func (b *Block) Relate(c Constraints) types.Type {
	c.CloseScope()
	return types.TypeUnit
}

func (s *LetStmt) Relate(c Constraints) types.Type {
	value := c.Of(s.Value)
	typ := value.Type
	if s.Type != nil {
		typ = c.Resolve(s.Type)
		c.Unify(Operand{Type: typ, Span: s.Type.Span()}, value)
	}
	s.Name.Symbol = c.Declare(s.Name, typ, RoleLocal)
	return types.TypeUnit
}

func (s *ReturnStmt) Relate(c Constraints) types.Type {
	got := Operand{Type: types.TypeUnit, Span: s.span}
	if s.Value != nil {
		got = c.Of(s.Value)
	}
	c.Unify(c.ReturnSlot(), got)
	return types.TypeUnit
}

func (s *PrintStmt) Relate(c Constraints) types.Type {
	c.Require(c.Of(s.Value), Printable)
	return types.TypeUnit
}

func (s *ExprStmt) Relate(c Constraints) types.Type {
	return types.TypeUnit
}

func (s *IfStmt) Relate(c Constraints) types.Type {
	c.Unify(Operand{Type: types.TypeBool}, c.Of(s.Cond))
	return types.TypeUnit
}

func (s *WhileStmt) Relate(c Constraints) types.Type {
	c.Unify(Operand{Type: types.TypeBool}, c.Of(s.Cond))
	return types.TypeUnit
}

func (i *Ident) Relate(c Constraints) types.Type {
	return c.Lookup(i)
}

func (l *NumberLit) Relate(c Constraints) types.Type { return types.TypeNum }
func (l *StringLit) Relate(c Constraints) types.Type { return types.TypeStr }
func (l *BoolLit) Relate(c Constraints) types.Type   { return types.TypeBool }

func (e *UnaryExpr) Relate(c Constraints) types.Type {
	sig := c.Operator(e.Op, 1)
	c.Unify(Operand{Type: sig.Params[0]}, c.Of(e.Operand))
	return sig.Return
}

func (e *BinaryExpr) Relate(c Constraints) types.Type {
	sig := c.Operator(e.Op, 2)
	left, right := c.Of(e.Left), c.Of(e.Right)
	if c.Unify(left, right) {
		c.Unify(Operand{Type: sig.Params[0]}, left)
	}
	return sig.Return
}

func (e *CallExpr) Relate(c Constraints) types.Type {
	ret := c.Fresh()
	want := &types.Function{Return: ret}
	for _, arg := range e.Args {
		want.Params = append(want.Params, c.Of(arg).Type)
	}
	callee := c.Of(e.Callee)
	c.Unify(callee, Operand{Type: want, Span: e.span})
	return ret
}

func (e *AssignExpr) Relate(c Constraints) types.Type {
	c.Unify(c.Of(e.Target), c.Of(e.Value))
	return types.TypeUnit
}

// Terminates reports whether every path through s ends in a return.
func Terminates(s Stmt) bool {
	switch s := s.(type) {
	case *ReturnStmt:
		return true
	case *Block:
		for _, stmt := range s.Stmts {
			if Terminates(stmt) {
				return true
			}
		}
		return false
	case *IfStmt:
		return s.Else != nil && Terminates(s.Then) && Terminates(s.Else)
	default:
		return false
	}
}
