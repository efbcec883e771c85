package checker

import (
	"fmt"
	"strings"

	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/types"
)

// maxSuggestionDistance is the largest edit distance still offered as a
// "did you mean" suggestion.
const maxSuggestionDistance = 2

func (c *Checker) report(d diag.Diagnostic) {
	c.Errors = append(c.Errors, d)
}

func (c *Checker) reportUndefinedIdentifier(id *ast.Ident) {
	span := id.Span().Diag()
	d := diag.New(diag.StageTypeCheck, diag.CodeTypeUndefinedIdentifier, span,
		"undefined identifier `%s`", id.Name).
		WithPrimarySpan(span, "not found in this scope")

	if suggestion := findSimilar(id.Name, c.scope.VisibleNames()); suggestion != "" {
		d = d.WithHelp(fmt.Sprintf("did you mean `%s`?", suggestion))
		if symID, ok := c.scope.Lookup(suggestion); ok {
			if sym := c.Symbols.Get(symID); sym != nil && sym.Span.Line > 0 {
				d = d.WithSecondarySpan(sym.Span.Diag(), fmt.Sprintf("`%s` defined here", suggestion))
			}
		}
	} else {
		d = d.WithHelp("check the spelling and ensure the identifier is in scope")
	}

	c.report(d)
}

func (c *Checker) reportUnknownType(t *ast.NamedType) {
	span := t.Span().Diag()
	d := diag.New(diag.StageTypeCheck, diag.CodeTypeUnknownType, span,
		"unknown type `%s`", t.Name).
		WithPrimarySpan(span, "not a known type")

	if suggestion := findSimilar(t.Name, types.PrimitiveNames()); suggestion != "" {
		d = d.WithHelp(fmt.Sprintf("did you mean `%s`?", suggestion))
	} else {
		d = d.WithHelp("the built-in types are " + strings.Join(types.PrimitiveNames(), ", "))
	}

	c.report(d)
}

func (c *Checker) reportDuplicate(name *ast.Name, prev *types.Symbol) {
	what := "parameter"
	if prev != nil && prev.Function {
		what = "function"
	}

	span := name.Span().Diag()
	d := diag.New(diag.StageTypeCheck, diag.CodeTypeDuplicateDecl, span,
		"%s `%s` is declared more than once", what, name.Value).
		WithPrimarySpan(span, "redeclared here")
	if prev != nil && prev.Span.Line > 0 {
		d = d.WithSecondarySpan(prev.Span.Diag(), "first declared here")
	}

	c.report(d)
}

// reportUnifyError explains why got could not take the type want describes.
// The diagnostic points at got; want's origin, when it has one, is the
// secondary label.
func (c *Checker) reportUnifyError(err *types.UnifyError, want, got ast.Operand) {
	primary := got.Span
	if !primary.Diag().IsValid() {
		primary = want.Span
	}
	span := primary.Diag()

	var d diag.Diagnostic
	switch err.Kind {
	case types.ErrArity:
		wantN, gotN := arity(err.Left), arity(err.Right)
		d = diag.New(diag.StageTypeCheck, diag.CodeTypeArityMismatch, span,
			"this function takes %d %s but %d %s supplied",
			wantN, plural(wantN, "argument", "arguments"), gotN, plural(gotN, "was", "were")).
			WithPrimarySpan(span, fmt.Sprintf("expected `%s`", err.Left))

	case types.ErrInfinite:
		d = diag.New(diag.StageTypeCheck, diag.CodeTypeInfiniteType, span,
			"cannot construct the infinite type `%s = %s`", err.Left, err.Right).
			WithPrimarySpan(span, "")

	default:
		d = diag.New(diag.StageTypeCheck, diag.CodeTypeMismatch, span,
			"mismatched types: expected `%s`, found `%s`", err.Left, err.Right).
			WithPrimarySpan(span, fmt.Sprintf("expected `%s`, found `%s`", err.Left, err.Right))
	}

	if want.Span.Diag().IsValid() && want.Span != primary {
		d = d.WithSecondarySpan(want.Span.Diag(), fmt.Sprintf("expected `%s` because of this", c.unifier.Apply(want.Type)))
	}

	c.report(d)
}

func arity(t types.Type) int {
	if fn, ok := t.(*types.Function); ok {
		return len(fn.Params)
	}
	return 0
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// findSimilar returns the candidate closest to name, or "" when none is close.
func findSimilar(name string, candidates []string) string {
	best := ""
	bestDistance := maxSuggestionDistance + 1

	for _, candidate := range candidates {
		if candidate == name {
			continue
		}
		distance := editDistance(name, candidate)
		if distance < bestDistance {
			bestDistance = distance
			best = candidate
		}
	}

	return best
}

// editDistance is the case-insensitive Levenshtein distance between s1 and s2.
func editDistance(s1, s2 string) int {
	a := []rune(strings.ToLower(s1))
	b := []rune(strings.ToLower(s2))

	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	return prev[len(b)]
}
