package compiler_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/compiler"
	"github.com/vivscript/vivc/internal/diag"
)

func compile(t *testing.T, text string) *compiler.Result {
	t.Helper()

	res, err := compiler.Compile(context.Background(), compiler.Source{Filename: "t.viv", Text: text})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func codes(diags []diag.Diagnostic) []diag.Code {
	var out []diag.Code
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestCompileAnnotatesProgram(t *testing.T) {
	res := compile(t, `
fn greet(name: Str) {
	print name;
}
fn main() -> Num {
	let s = "viv";
	greet(s);
	let n = 1 + 2 * 3;
	return n;
}
`)
	if !res.OK() {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	if res.Stage != diag.StageOwnership {
		t.Fatalf("stage = %s, want ownership", res.Stage)
	}
	if res.Symbols == nil || res.Symbols.Len() == 0 {
		t.Fatalf("missing symbol table")
	}

	ast.Walk(res.Program, func(n ast.Node) bool {
		e, ok := n.(ast.Expr)
		if !ok {
			return true
		}
		if e.Type() == nil {
			t.Fatalf("expression at %s has no type", e.Span())
		}
		if e.Disposition() == ast.Unannotated {
			t.Fatalf("expression at %s has no disposition", e.Span())
		}
		return true
	})
}

func TestCompileStopsAtFailingStage(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		stage diag.Stage
		kind  diag.Kind
		code  diag.Code
	}{
		{
			name:  "lexical error",
			src:   "fn main() -> Num { return 0; } @",
			stage: diag.StageParser,
			kind:  diag.KindLexical,
			code:  diag.CodeLexerIllegalRune,
		},
		{
			name:  "syntax error hides missing main",
			src:   "fn helper() -> Num { return 0 }",
			stage: diag.StageParser,
			kind:  diag.KindSyntax,
			code:  diag.CodeSyntaxExpectedToken,
		},
		{
			name:  "missing main",
			src:   "fn helper() -> Num { return \"x\"; }",
			stage: diag.StageEntry,
			kind:  diag.KindSyntax,
			code:  diag.CodeSyntaxMissingMain,
		},
		{
			name:  "type error",
			src:   "fn main() -> Num { let s = \"a\"; let t = s; print s + 1; return 0; }",
			stage: diag.StageTypeCheck,
			kind:  diag.KindType,
			code:  diag.CodeTypeMismatch,
		},
		{
			name:  "ownership error",
			src:   "fn main() -> Num { let s = \"a\"; let t = s; print s; return 0; }",
			stage: diag.StageOwnership,
			kind:  diag.KindOwnership,
			code:  diag.CodeOwnershipUseAfterMove,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compile(t, tt.src)
			if res.OK() {
				t.Fatalf("expected failure")
			}
			if res.Stage != tt.stage {
				t.Fatalf("stage = %s, want %s", res.Stage, tt.stage)
			}
			for _, d := range res.Diagnostics {
				if d.Kind != tt.kind {
					t.Fatalf("diagnostic %s from a later stage leaked: %s", d.Code, d.Message)
				}
			}
			if got := codes(res.Diagnostics); got[0] != tt.code {
				t.Fatalf("codes = %v, want %s first", got, tt.code)
			}
		})
	}
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := compiler.Compile(ctx, compiler.Source{Filename: "c.viv", Text: "fn main() -> Num { return 0; }"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCompileAll(t *testing.T) {
	var srcs []compiler.Source
	for i := range 16 {
		text := fmt.Sprintf("fn main() -> Num { return %d; }", i)
		if i%4 == 0 {
			text = "fn main() -> Num { return missing; }"
		}
		srcs = append(srcs, compiler.Source{Filename: fmt.Sprintf("f%02d.viv", i), Text: text})
	}

	results, err := compiler.CompileAll(context.Background(), srcs, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(srcs) {
		t.Fatalf("got %d results for %d sources", len(results), len(srcs))
	}

	for i, res := range results {
		if res.Source.Filename != srcs[i].Filename {
			t.Fatalf("result %d is for %s", i, res.Source.Filename)
		}
		if wantOK := i%4 != 0; res.OK() != wantOK {
			t.Fatalf("%s: ok = %v, want %v (%v)", res.Source.Filename, res.OK(), wantOK, res.Diagnostics)
		}
		for _, d := range res.Diagnostics {
			if d.Span.Filename != res.Source.Filename {
				t.Fatalf("diagnostic for %s carries filename %s", res.Source.Filename, d.Span.Filename)
			}
		}
	}
}

func TestLoadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.viv")
	if err := os.WriteFile(path, []byte("fn main() -> Num { return 0; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := compiler.LoadSource(path)
	if err != nil {
		t.Fatal(err)
	}
	if src.Filename != path || !strings.HasPrefix(src.Text, "fn main") {
		t.Fatalf("unexpected source %+v", src)
	}

	if _, err := compiler.LoadSource(path + ".missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestTokensLossless(t *testing.T) {
	const text = "fn main() -> Num {\n\t// hi\n\treturn 0x1F; /* c */\n}\n"

	toks, diags := compiler.Tokens(compiler.Source{Filename: "t.viv", Text: text}, true)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	var b strings.Builder
	for _, tok := range toks {
		b.WriteString(tok.Raw)
	}
	if b.String() != text {
		t.Fatalf("round trip = %q", b.String())
	}

	plain, _ := compiler.Tokens(compiler.Source{Text: text}, false)
	if len(plain) >= len(toks) {
		t.Fatalf("trivia mode should add tokens: %d vs %d", len(toks), len(plain))
	}
}
