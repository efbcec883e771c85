package checker

import (
	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/lexer"
)

// EntryName is the function every program starts in.
const EntryName = "main"

// CheckEntry verifies that prog declares exactly one `fn main() -> Num`.
// It works on the syntax alone, so it runs before any type is resolved.
func CheckEntry(prog *ast.Program) []diag.Diagnostic {
	var mains []*ast.FnDecl
	for _, fn := range prog.Functions() {
		if fn.Name != nil && fn.Name.Value == EntryName {
			mains = append(mains, fn)
		}
	}

	if len(mains) == 0 {
		span := lexer.Span{Filename: prog.Filename, Line: 1, Column: 1}
		return []diag.Diagnostic{
			diag.New(diag.StageEntry, diag.CodeSyntaxMissingMain, span.Diag(),
				"program has no `main` function").
				WithHelp("add an entry point: `fn main() -> Num { return 0; }`"),
		}
	}

	var diags []diag.Diagnostic

	first := mains[0]
	for _, dup := range mains[1:] {
		span := dup.Name.Span().Diag()
		diags = append(diags, diag.New(diag.StageEntry, diag.CodeSyntaxDuplicateMain, span,
			"`main` is defined more than once").
			WithPrimarySpan(span, "redefined here").
			WithSecondarySpan(first.Name.Span().Diag(), "first defined here"))
	}

	for _, fn := range mains {
		if validEntrySignature(fn) {
			continue
		}
		span := fn.Name.Span().Diag()
		diags = append(diags, diag.New(diag.StageEntry, diag.CodeSyntaxInvalidMain, span,
			"`main` must take no parameters and return `Num`").
			WithPrimarySpan(span, "invalid entry point signature").
			WithHelp("declare it as `fn main() -> Num`"))
	}

	return diags
}

func validEntrySignature(fn *ast.FnDecl) bool {
	if len(fn.Params) != 0 {
		return false
	}
	ret, ok := fn.ReturnType.(*ast.NamedType)
	return ok && ret.Name == "Num"
}
