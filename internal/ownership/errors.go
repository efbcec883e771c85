package ownership

import (
	"fmt"

	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/types"
)

func (r *Resolver) reportable() bool {
	return r.report && !r.flow.dead
}

func (r *Resolver) reportUseAfterMove(id *ast.Ident, st state) {
	if !r.reportable() {
		return
	}

	span := id.Span().Diag()
	var d diag.Diagnostic
	if st.kind == maybeMoved {
		d = diag.New(diag.StageOwnership, diag.CodeOwnershipUseAfterMove, span,
			"use of possibly moved value `%s`", id.Name).
			WithPrimarySpan(span, "value used here after a possible move").
			WithSecondarySpan(st.at.Diag(), "value moved here").
			WithNote("the value is moved on another path or in a previous loop iteration")
	} else {
		d = diag.New(diag.StageOwnership, diag.CodeOwnershipUseAfterMove, span,
			"use of moved value `%s`", id.Name).
			WithPrimarySpan(span, "value used here after move").
			WithSecondarySpan(st.at.Diag(), "value moved here")
	}

	if sym := r.Symbols.Get(id.Symbol); sym != nil {
		d = d.WithNote(fmt.Sprintf("`%s` has type `%s`, which is moved rather than copied", id.Name, sym.Type))
	}
	d = d.WithHelp(fmt.Sprintf("assign `%s` a new value before using it again", id.Name))

	r.Errors = append(r.Errors, d)
}

func (r *Resolver) reportMutateBorrowed(a *ast.AssignExpr, sym *types.Symbol) {
	if !r.reportable() {
		return
	}

	span := a.Target.Span().Diag()
	d := diag.New(diag.StageOwnership, diag.CodeOwnershipMutateBorrowed, span,
		"cannot assign to `%s` because it is borrowed", sym.Name).
		WithPrimarySpan(span, "cannot assign to a borrowed value")
	if sym.Span.Line > 0 {
		d = d.WithSecondarySpan(sym.Span.Diag(), "parameters are borrowed from the caller")
	}
	d = d.WithHelp(fmt.Sprintf("copy it into a local first: `let %sCopy = %s;`", sym.Name, sym.Name))

	r.Errors = append(r.Errors, d)
}
