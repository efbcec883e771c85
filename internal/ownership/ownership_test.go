package ownership_test

import (
	"strings"
	"testing"

	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/checker"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/ownership"
	"github.com/vivscript/vivc/internal/parser"
)

type resolved struct {
	src   string
	prog  *ast.Program
	diags []diag.Diagnostic
}

func resolve(t *testing.T, src string) resolved {
	t.Helper()

	prog, diags := parser.Parse(src, parser.WithFilename("own.viv"))
	if len(diags) > 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	res := checker.Check(prog)
	if !res.OK() {
		t.Fatalf("unexpected type diagnostics: %v", res.Diagnostics)
	}
	return resolved{
		src:   src,
		prog:  prog,
		diags: ownership.Resolve(prog, res.Symbols),
	}
}

func (r resolved) assertClean(t *testing.T) {
	t.Helper()

	for _, d := range r.diags {
		t.Errorf("unexpected diagnostic: %s", d.Error())
	}
	if len(r.diags) > 0 {
		t.FailNow()
	}
}

// idents returns every use of name, in source order.
func (r resolved) idents(name string) []*ast.Ident {
	var out []*ast.Ident
	ast.Walk(r.prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			out = append(out, id)
		}
		return true
	})
	return out
}

func (r resolved) fn(t *testing.T, name string) *ast.FnDecl {
	t.Helper()

	for _, fn := range r.prog.Functions() {
		if fn.Name.Value == name {
			return fn
		}
	}
	t.Fatalf("no function %q", name)
	return nil
}

func (r resolved) text(span diag.Span) string {
	return r.src[span.Start:span.End]
}

func onlyDiag(t *testing.T, r resolved, code diag.Code) diag.Diagnostic {
	t.Helper()

	if len(r.diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %v", len(r.diags), r.diags)
	}
	d := r.diags[0]
	if d.Code != code {
		t.Fatalf("expected %s, got %s: %s", code, d.Code, d.Message)
	}
	if d.Kind != diag.KindOwnership {
		t.Fatalf("expected kind %s, got %s", diag.KindOwnership, d.Kind)
	}
	return d
}

func TestNumbersCopy(t *testing.T) {
	r := resolve(t, `
fn main() -> Num {
	let a = 5;
	let b = a;
	print a;
	return b;
}
`)
	r.assertClean(t)

	uses := r.idents("a")
	if got := uses[0].Disposition(); got != ast.Copy {
		t.Fatalf("let b = a: disposition %s, want copy", got)
	}
	if got := uses[1].Disposition(); got != ast.Borrow {
		t.Fatalf("print a: disposition %s, want borrow", got)
	}
	if got := r.idents("b")[0].Disposition(); got != ast.Copy {
		t.Fatalf("return b: disposition %s, want copy", got)
	}
}

func TestStringMoves(t *testing.T) {
	r := resolve(t, `
fn main() -> Num {
	let a = "hello";
	let b = a;
	print b;
	return 0;
}
`)
	r.assertClean(t)

	if got := r.idents("a")[0].Disposition(); got != ast.Move {
		t.Fatalf("let b = a: disposition %s, want move", got)
	}
	if got := r.idents("b")[0].Disposition(); got != ast.Borrow {
		t.Fatalf("print b: disposition %s, want borrow", got)
	}
}

func TestUseAfterMove(t *testing.T) {
	const src = `
fn main() -> Num {
	let a = "hello";
	let b = a;
	print a;
	return 0;
}
`
	r := resolve(t, src)
	d := onlyDiag(t, r, diag.CodeOwnershipUseAfterMove)

	if !strings.Contains(d.Message, "use of moved value `a`") {
		t.Fatalf("unexpected message %q", d.Message)
	}

	uses := r.idents("a")
	if d.Span.Start != uses[1].Span().Start {
		t.Fatalf("diagnostic points at %d, want the use in print at %d", d.Span.Start, uses[1].Span().Start)
	}
	if len(d.LabeledSpans) != 2 {
		t.Fatalf("expected use and move spans, got %+v", d.LabeledSpans)
	}
	if move := d.LabeledSpans[1]; move.Span.Start != uses[0].Span().Start {
		t.Fatalf("secondary span covers %q, want the move", r.text(move.Span))
	}
}

func TestBranches(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		code     diag.Code
		contains string
	}{
		{
			name: "moved in one branch",
			body: `if c { let t = s; } print s;`,
			code: diag.CodeOwnershipUseAfterMove, contains: "possibly moved",
		},
		{
			name: "moved in both branches",
			body: `if c { let t = s; } else { let u = s; } print s;`,
			code: diag.CodeOwnershipUseAfterMove, contains: "use of moved value",
		},
		{
			name: "moved in a branch that returns",
			body: `if c { let t = s; return 1; } print s;`,
		},
		{
			name: "reassigned after the move",
			body: `if c { let t = s; s = "again"; } print s;`,
		},
		{
			name: "else-if chain",
			body: `if c { print s; } else if !c { let t = s; } print s;`,
			code: diag.CodeOwnershipUseAfterMove, contains: "possibly moved",
		},
		{
			name: "unreachable use",
			body: `let t = s; return 0; print s;`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolve(t, `
fn main() -> Num {
	let c = true;
	let s = "value";
	`+tt.body+`
	return 0;
}
`)
			if tt.code == "" {
				r.assertClean(t)
				return
			}
			d := onlyDiag(t, r, tt.code)
			if !strings.Contains(d.Message, tt.contains) {
				t.Fatalf("message %q does not mention %q", d.Message, tt.contains)
			}
		})
	}
}

func TestLoops(t *testing.T) {
	t.Run("move in body", func(t *testing.T) {
		r := resolve(t, `
fn main() -> Num {
	let s = "x";
	let i = 0;
	while i < 2 {
		let t = s;
		i = i + 1;
	}
	return 0;
}
`)
		d := onlyDiag(t, r, diag.CodeOwnershipUseAfterMove)
		if !strings.Contains(d.Message, "possibly moved") {
			t.Fatalf("unexpected message %q", d.Message)
		}
		if len(d.Notes) == 0 || !strings.Contains(d.Notes[0], "previous loop iteration") {
			t.Fatalf("expected a note about loop iterations, got %v", d.Notes)
		}
	})

	t.Run("move then reassign", func(t *testing.T) {
		r := resolve(t, `
fn main() -> Num {
	let s = "x";
	let i = 0;
	while i < 2 {
		let t = s;
		s = "y";
		i = i + 1;
	}
	print s;
	return 0;
}
`)
		r.assertClean(t)

		var assign *ast.AssignExpr
		ast.Walk(r.prog, func(n ast.Node) bool {
			if a, ok := n.(*ast.AssignExpr); ok && a.Target.Name == "s" {
				assign = a
			}
			return true
		})
		if assign.Drop != ast.DropNone {
			t.Fatalf("old value was moved, drop = %s", assign.Drop)
		}
	})

	t.Run("use after loop that moves", func(t *testing.T) {
		r := resolve(t, `
fn main() -> Num {
	let s = "x";
	let go = true;
	while go {
		let t = s;
		go = false;
		s = "z";
	}
	let i = 0;
	while i < 1 {
		let u = s;
		i = i + 1;
		return 0;
	}
	print s;
	return 0;
}
`)
		r.assertClean(t)
	})

	t.Run("each use reported once", func(t *testing.T) {
		r := resolve(t, `
fn main() -> Num {
	let s = "x";
	let i = 0;
	while i < 3 {
		let j = 0;
		while j < 3 {
			print s;
			j = j + 1;
		}
		let t = s;
		i = i + 1;
	}
	return 0;
}
`)
		if len(r.diags) != 2 {
			t.Fatalf("expected one diagnostic per use, got %d: %v", len(r.diags), r.diags)
		}
		if r.diags[0].Span.Start == r.diags[1].Span.Start {
			t.Fatalf("the same use was reported twice")
		}
		for _, d := range r.diags {
			if d.Code != diag.CodeOwnershipUseAfterMove {
				t.Fatalf("unexpected code %s", d.Code)
			}
		}
	})
}

func TestMutateBorrowedParameter(t *testing.T) {
	const src = `
fn rename(name: Str) {
	name = "other";
}
fn main() -> Num { return 0; }
`
	r := resolve(t, src)
	d := onlyDiag(t, r, diag.CodeOwnershipMutateBorrowed)

	if got := r.text(d.Span); got != "name" {
		t.Fatalf("primary span covers %q", got)
	}
	if len(d.LabeledSpans) != 2 || r.text(d.LabeledSpans[1].Span) != "name" {
		t.Fatalf("expected the parameter as secondary span, got %+v", d.LabeledSpans)
	}
	if d.LabeledSpans[1].Span.Start >= d.Span.Start {
		t.Fatalf("secondary span should be the parameter declaration")
	}
}

func TestBorrowedParameterCopies(t *testing.T) {
	r := resolve(t, `
fn keep(s: Str) -> Str {
	let t = s;
	print s;
	return s;
}
fn main() -> Num {
	let owned = "x";
	print keep(owned);
	print owned;
	return 0;
}
`)
	r.assertClean(t)

	uses := r.idents("s")
	want := []ast.Disposition{ast.Copy, ast.Borrow, ast.Copy}
	for i, id := range uses {
		if id.Disposition() != want[i] {
			t.Fatalf("use %d of s: disposition %s, want %s", i, id.Disposition(), want[i])
		}
	}

	if got := r.idents("owned")[0].Disposition(); got != ast.Borrow {
		t.Fatalf("call argument disposition %s, want borrow", got)
	}
}

func TestAssignmentDrops(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ast.DropMode
	}{
		{"live value", `s = "b";`, ast.DropAlways},
		{"moved value", `let t = s; s = "b";`, ast.DropNone},
		{"maybe moved value", `if c { let t = s; } s = "b";`, ast.DropIfLive},
		{"copyable value", `n = 2;`, ast.DropNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolve(t, `
fn main() -> Num {
	let c = true;
	let s = "a";
	let n = 1;
	`+tt.body+`
	return n;
}
`)
			r.assertClean(t)

			var assign *ast.AssignExpr
			ast.Walk(r.prog, func(n ast.Node) bool {
				if a, ok := n.(*ast.AssignExpr); ok {
					assign = a
				}
				return true
			})
			if assign.Drop != tt.want {
				t.Fatalf("drop = %s, want %s", assign.Drop, tt.want)
			}
		})
	}
}

func TestScopeDrops(t *testing.T) {
	r := resolve(t, `
fn scoped() {
	let a = "a";
	let n = 1;
	let b = "b";
	if true {
		let inner = "i";
	}
	let moved = "m";
	let taken = moved;
}
fn early() -> Str {
	let kept = "k";
	let out = "o";
	return out;
}
fn main() -> Num { return 0; }
`)
	r.assertClean(t)

	body := r.fn(t, "scoped").Body
	names := dropNames(body.Drops)
	if got, want := strings.Join(names, ","), "taken,b,a"; got != want {
		t.Fatalf("block drops = %s, want %s", got, want)
	}

	inner := body.Stmts[3].(*ast.IfStmt).Then
	if got := strings.Join(dropNames(inner.Drops), ","); got != "inner" {
		t.Fatalf("inner block drops = %s", got)
	}

	early := r.fn(t, "early").Body
	if early.Drops != nil {
		t.Fatalf("a block ending in return drops nothing at its end, got %v", early.Drops)
	}
	ret := early.Stmts[2].(*ast.ReturnStmt)
	if got := strings.Join(dropNames(ret.Drops), ","); got != "kept" {
		t.Fatalf("return drops = %s, want kept", got)
	}
	if got := ret.Value.Disposition(); got != ast.Move {
		t.Fatalf("returned local disposition %s, want move", got)
	}
}

func TestConditionalDrop(t *testing.T) {
	r := resolve(t, `
fn main() -> Num {
	let c = true;
	let s = "a";
	if c { let t = s; }
	return 0;
}
`)
	r.assertClean(t)

	var ret *ast.ReturnStmt
	for _, stmt := range r.fn(t, "main").Body.Stmts {
		if rs, ok := stmt.(*ast.ReturnStmt); ok {
			ret = rs
		}
	}
	if len(ret.Drops) != 1 || ret.Drops[0].Name != "s" || !ret.Drops[0].Conditional {
		t.Fatalf("return drops = %+v, want conditional drop of s", ret.Drops)
	}
}

func TestFreshValues(t *testing.T) {
	r := resolve(t, `
fn make() -> Str { return "x"; }
fn main() -> Num {
	let s = make();
	let n = 1 + 2;
	let b = !true;
	return n;
}
`)
	r.assertClean(t)

	ast.Walk(r.fn(t, "main"), func(n ast.Node) bool {
		if let, ok := n.(*ast.LetStmt); ok {
			if got := let.Value.Disposition(); got != ast.Fresh {
				t.Fatalf("let %s: disposition %s, want fresh", let.Name.Value, got)
			}
		}
		return true
	})
}

func dropNames(drops []ast.Drop) []string {
	var names []string
	for _, d := range drops {
		names = append(names, d.Name)
	}
	return names
}
