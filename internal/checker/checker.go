package checker

import (
	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/lexer"
	"github.com/vivscript/vivc/internal/types"
)

// Result is the typed program together with its symbols.
type Result struct {
	Program     *ast.Program
	Symbols     *types.SymbolTable
	Diagnostics []diag.Diagnostic
}

// OK reports whether resolution finished without errors.
func (r *Result) OK() bool {
	return !diag.HasErrors(r.Diagnostics)
}

type requirement struct {
	operand ast.Operand
	pred    ast.Predicate
}

// Checker resolves the types of one program. It implements
// ast.Constraints; nodes state their own relations and the checker only
// walks the tree and solves.
type Checker struct {
	GlobalScope *types.Scope
	Symbols     *types.SymbolTable
	Errors      []diag.Diagnostic

	unifier  *types.Unifier
	scope    *types.Scope
	returns  []ast.Operand
	required []requirement
}

// NewChecker creates a checker with an empty global scope.
func NewChecker() *Checker {
	global := types.NewScope(nil, types.ScopeGlobal)
	return &Checker{
		GlobalScope: global,
		Symbols:     types.NewSymbolTable(),
		unifier:     types.NewUnifier(),
		scope:       global,
	}
}

// Check resolves prog with a fresh checker.
func Check(prog *ast.Program) *Result {
	c := NewChecker()
	c.Check(prog)
	return &Result{
		Program:     prog,
		Symbols:     c.Symbols,
		Diagnostics: c.Errors,
	}
}

// Check validates the types in prog and annotates every expression.
func (c *Checker) Check(prog *ast.Program) {
	// Pass 1: publish signatures so bodies may call functions declared later.
	for _, decl := range prog.Decls {
		if d, ok := decl.(ast.Declarer); ok {
			d.Declare(c)
		}
	}

	// Pass 2: relate every node bottom-up.
	c.visit(prog)

	c.checkRequirements()
	c.substitute(prog)

	if len(c.Errors) == 0 {
		c.reportUninferred(prog)
	}
}

func (c *Checker) visit(n ast.Node) {
	if e, ok := n.(ast.Enterer); ok {
		e.Enter(c)
	}

	for _, child := range ast.Children(n) {
		c.visit(child)
	}

	rel, ok := n.(ast.Relator)
	if !ok {
		return
	}
	t := rel.Relate(c)
	if e, ok := n.(ast.Expr); ok {
		e.SetType(t)
	}
}

func (c *Checker) checkRequirements() {
	for _, req := range c.required {
		t := c.unifier.Apply(req.operand.Type)
		if !c.unifier.IsResolved(t) || req.pred.Holds(t) {
			continue
		}
		c.Errorf(req.operand.Span, req.pred.Code, req.pred.Message, t)
	}
}

// substitute replaces solved variables in every recorded type.
func (c *Checker) substitute(prog *ast.Program) {
	ast.Walk(prog, func(n ast.Node) bool {
		switch n := n.(type) {
		case ast.Expr:
			n.SetType(c.unifier.Apply(n.Type()))
		case *ast.FnDecl:
			if n.Signature != nil {
				n.Signature = c.unifier.Apply(n.Signature).(*types.Function)
			}
		}
		return true
	})

	for sym := range c.Symbols.All() {
		sym.Type = c.unifier.Apply(sym.Type)
	}
}

// reportUninferred reports the outermost expressions whose type is still open.
func (c *Checker) reportUninferred(prog *ast.Program) {
	ast.Walk(prog, func(n ast.Node) bool {
		e, ok := n.(ast.Expr)
		if !ok {
			return true
		}
		if c.unifier.IsResolved(e.Type()) {
			return true
		}
		c.Errorf(e.Span(), diag.CodeTypeCannotInfer, "cannot infer the type of this expression")
		return false
	})
}

// Of implements ast.Constraints.
func (c *Checker) Of(e ast.Expr) ast.Operand {
	t := e.Type()
	if t == nil {
		t = c.Fresh()
		e.SetType(t)
	}
	return ast.Operand{Type: t, Span: e.Span()}
}

// Fresh implements ast.Constraints.
func (c *Checker) Fresh() types.Type {
	return c.unifier.Fresh()
}

// Resolve implements ast.Constraints.
func (c *Checker) Resolve(t ast.TypeExpr) types.Type {
	named, ok := t.(*ast.NamedType)
	if !ok {
		return c.Fresh()
	}
	if prim, ok := types.PrimitiveNamed(named.Name); ok {
		return prim
	}
	c.reportUnknownType(named)
	return c.Fresh()
}

// Lookup implements ast.Constraints.
func (c *Checker) Lookup(id *ast.Ident) types.Type {
	symID, ok := c.scope.Lookup(id.Name)
	if !ok {
		c.reportUndefinedIdentifier(id)
		return c.Fresh()
	}
	id.Symbol = symID
	return c.Symbols.Get(symID).Type
}

// Declare implements ast.Constraints. Functions and parameters must be
// unique in their scope; let bindings shadow.
func (c *Checker) Declare(name *ast.Name, t types.Type, role ast.Role) types.SymbolID {
	if role != ast.RoleLocal {
		if prev, ok := c.scope.LookupLocal(name.Value); ok {
			c.reportDuplicate(name, c.Symbols.Get(prev))
			return prev
		}
	}

	kind := types.Owned
	if role == ast.RoleParam {
		kind = types.Borrowed
	}

	id := c.Symbols.Add(types.Symbol{
		Name:     name.Value,
		Type:     t,
		Scope:    c.scope,
		Kind:     kind,
		Span:     name.Span(),
		Function: role == ast.RoleFunction,
	})
	c.scope.Insert(name.Value, id)
	return id
}

// Operator implements ast.Constraints.
func (c *Checker) Operator(op lexer.TokenType, arity int) *types.Function {
	return instantiate(c.unifier, op, arity)
}

// Unify implements ast.Constraints.
func (c *Checker) Unify(want, got ast.Operand) bool {
	err := c.unifier.Unify(want.Type, got.Type)
	if err == nil {
		return true
	}
	if uerr, ok := err.(*types.UnifyError); ok {
		c.reportUnifyError(uerr, want, got)
	}
	return false
}

// Require implements ast.Constraints.
func (c *Checker) Require(o ast.Operand, p ast.Predicate) {
	c.required = append(c.required, requirement{operand: o, pred: p})
}

// Errorf implements ast.Constraints.
func (c *Checker) Errorf(span lexer.Span, code diag.Code, format string, args ...any) {
	d := diag.New(diag.StageTypeCheck, code, span.Diag(), format, args...)
	c.report(d.WithPrimarySpan(span.Diag(), ""))
}

// EnterFunction opens the parameter scope of fn and its return slot.
func (c *Checker) EnterFunction(fn *ast.FnDecl) {
	c.scope = types.NewScope(c.scope, types.ScopeFunction)

	sig := fn.Signature
	if sig == nil {
		sig = &types.Function{Return: types.TypeUnit}
	}

	for i, p := range fn.Params {
		if p.Name == nil || i >= len(sig.Params) {
			continue
		}
		p.Name.Symbol = c.Declare(p.Name, sig.Params[i], ast.RoleParam)
	}

	slot := ast.Operand{Type: sig.Return}
	switch {
	case fn.ReturnType != nil:
		slot.Span = fn.ReturnType.Span()
	case fn.Name != nil:
		slot.Span = fn.Name.Span()
	}
	c.returns = append(c.returns, slot)
}

// ExitFunction closes what EnterFunction opened.
func (c *Checker) ExitFunction() {
	c.returns = c.returns[:len(c.returns)-1]
	c.CloseScope()
}

// ReturnSlot returns the declared return type of the enclosing function.
func (c *Checker) ReturnSlot() ast.Operand {
	if len(c.returns) == 0 {
		return ast.Operand{Type: types.TypeUnit}
	}
	return c.returns[len(c.returns)-1]
}

func (c *Checker) OpenScope() {
	c.scope = types.NewScope(c.scope, types.ScopeBlock)
}

func (c *Checker) CloseScope() {
	if c.scope.Parent != nil {
		c.scope = c.scope.Parent
	}
}
