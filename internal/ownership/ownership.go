// Package ownership classifies every value flow of a typed program as a
// move, a borrow or a copy, rejects uses of moved values and assignments
// to borrowed parameters, and records where owned values are released.
//
// Only owned variables of a non-copyable type are tracked. Parameters are
// borrowed, so reading one never invalidates it, and copyable values are
// duplicated instead of moved.
package ownership

import (
	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/types"
)

// Resolver annotates one program. It relies on the symbols and types the
// type resolver recorded.
type Resolver struct {
	Symbols *types.SymbolTable
	Errors  []diag.Diagnostic

	flow *flow
	// scopes holds the tracked locals of each open block, outermost first.
	scopes [][]types.SymbolID
	// report is off while a loop body is iterated to its fixpoint.
	report bool
}

// NewResolver creates a resolver over the symbols of a checked program.
func NewResolver(symbols *types.SymbolTable) *Resolver {
	return &Resolver{Symbols: symbols}
}

// Resolve annotates prog and returns the ownership diagnostics.
func Resolve(prog *ast.Program, symbols *types.SymbolTable) []diag.Diagnostic {
	r := NewResolver(symbols)
	r.Resolve(prog)
	return r.Errors
}

// Resolve annotates every function of prog.
func (r *Resolver) Resolve(prog *ast.Program) {
	for _, fn := range prog.Functions() {
		r.function(fn)
	}
}

func (r *Resolver) function(fn *ast.FnDecl) {
	if fn.Body == nil {
		return
	}
	r.flow = newFlow()
	r.scopes = nil
	r.report = true
	r.block(fn.Body)
}

// tracked reports whether id names an owned variable whose value moves.
func (r *Resolver) tracked(id types.SymbolID) bool {
	sym := r.Symbols.Get(id)
	if sym == nil || sym.Function || sym.Kind != types.Owned {
		return false
	}
	return !types.IsCopyable(sym.Type)
}

func (r *Resolver) block(b *ast.Block) {
	r.scopes = append(r.scopes, nil)

	for _, stmt := range b.Stmts {
		r.stmt(stmt)
	}

	locals := r.scopes[len(r.scopes)-1]
	r.scopes = r.scopes[:len(r.scopes)-1]

	b.Drops = r.drops(locals)
	for _, id := range locals {
		delete(r.flow.vars, id)
	}
}

// drops lists the values among ids that are still owned, in reverse
// declaration order.
func (r *Resolver) drops(ids []types.SymbolID) []ast.Drop {
	if r.flow.dead {
		return nil
	}

	var out []ast.Drop
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		st, ok := r.flow.vars[id]
		if !ok || st.kind == moved {
			continue
		}
		out = append(out, ast.Drop{
			Symbol:      id,
			Name:        r.Symbols.Get(id).Name,
			Conditional: st.kind == maybeMoved,
		})
	}
	return out
}

func (r *Resolver) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.LetStmt:
		r.consume(s.Value)
		if id := s.Name.Symbol; r.tracked(id) {
			r.flow.vars[id] = state{kind: live}
			top := len(r.scopes) - 1
			r.scopes[top] = append(r.scopes[top], id)
		}

	case *ast.ReturnStmt:
		if s.Value != nil {
			r.consume(s.Value)
		}
		var open []types.SymbolID
		for _, scope := range r.scopes {
			open = append(open, scope...)
		}
		s.Drops = r.drops(open)
		r.flow.dead = true

	case *ast.PrintStmt:
		r.read(s.Value)

	case *ast.ExprStmt:
		r.read(s.Expr)

	case *ast.IfStmt:
		r.read(s.Cond)

		base := r.flow
		r.flow = base.clone()
		r.block(s.Then)
		then := r.flow

		r.flow = base.clone()
		if s.Else != nil {
			r.stmt(s.Else)
		}
		r.flow = join(then, r.flow)

	case *ast.WhileStmt:
		r.loop(s)

	case *ast.Block:
		r.block(s)
	}
}

// loop iterates the body silently until the state at the loop head stops
// changing, then makes one more pass that reports and annotates. A value
// moved in one iteration is therefore maybe-moved at the start of the next.
func (r *Resolver) loop(w *ast.WhileStmt) {
	report := r.report
	r.report = false

	head := r.flow
	for {
		r.flow = head.clone()
		r.read(w.Cond)
		r.block(w.Body)

		next := join(head, r.flow)
		if next.sameKinds(head) {
			break
		}
		head = next
	}

	r.report = report
	r.flow = head.clone()
	r.read(w.Cond)
	r.block(w.Body)

	// The loop exits from its head, where the condition is false.
	r.flow = head
}

func (r *Resolver) read(e ast.Expr) {
	r.expr(e, false)
}

func (r *Resolver) consume(e ast.Expr) {
	r.expr(e, true)
}

// expr annotates e. owning is set where the value is stored or returned;
// everywhere else values are only read.
func (r *Resolver) expr(e ast.Expr, owning bool) {
	switch e := e.(type) {
	case *ast.Ident:
		r.use(e)
		if owning {
			e.SetDisposition(r.transfer(e))
		} else {
			e.SetDisposition(ast.Borrow)
		}

	case *ast.NumberLit, *ast.StringLit, *ast.BoolLit:
		e.SetDisposition(ast.Fresh)

	case *ast.UnaryExpr:
		r.read(e.Operand)
		e.SetDisposition(ast.Fresh)

	case *ast.BinaryExpr:
		r.read(e.Left)
		r.read(e.Right)
		e.SetDisposition(ast.Fresh)

	case *ast.CallExpr:
		r.read(e.Callee)
		for _, arg := range e.Args {
			r.read(arg)
		}
		e.SetDisposition(ast.Fresh)

	case *ast.AssignExpr:
		r.assign(e)
		e.SetDisposition(ast.Fresh)
	}
}

// transfer decides how the value of id reaches an owning context.
func (r *Resolver) transfer(id *ast.Ident) ast.Disposition {
	if !r.tracked(id.Symbol) {
		return ast.Copy
	}
	r.flow.vars[id.Symbol] = state{kind: moved, at: id.Span()}
	return ast.Move
}

// use rejects reading a value that was moved on some path here.
func (r *Resolver) use(id *ast.Ident) {
	st, ok := r.flow.vars[id.Symbol]
	if !ok || st.kind == live {
		return
	}
	r.reportUseAfterMove(id, st)
}

func (r *Resolver) assign(a *ast.AssignExpr) {
	r.consume(a.Value)

	id := a.Target.Symbol
	sym := r.Symbols.Get(id)
	if sym != nil && sym.Kind == types.Borrowed {
		r.reportMutateBorrowed(a, sym)
		a.Drop = ast.DropNone
		return
	}

	if !r.tracked(id) {
		a.Drop = ast.DropNone
		return
	}

	switch r.flow.vars[id].kind {
	case live:
		a.Drop = ast.DropAlways
	case maybeMoved:
		a.Drop = ast.DropIfLive
	default:
		a.Drop = ast.DropNone
	}
	r.flow.vars[id] = state{kind: live}
}
