// Package compiler runs the Viv Script front-end pipeline: lexing and
// parsing, the entry point check, type resolution and ownership
// resolution. A stage that reports an error stops the pipeline; its
// diagnostics are returned and later stages never see its output.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vivscript/vivc/internal/ast"
	"github.com/vivscript/vivc/internal/checker"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/lexer"
	"github.com/vivscript/vivc/internal/logs"
	"github.com/vivscript/vivc/internal/ownership"
	"github.com/vivscript/vivc/internal/parser"
	"github.com/vivscript/vivc/internal/types"
)

// Source is one compilation unit.
type Source struct {
	Filename string
	Text     string
}

// LoadSource reads a source file.
func LoadSource(path string) (Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("load source: %w", err)
	}
	return Source{Filename: path, Text: string(content)}, nil
}

// Result is the outcome of compiling one source. On success Program is the
// annotated program: every expression carries its type and disposition,
// and Symbols resolves every SymbolID in it.
type Result struct {
	Source      Source
	Program     *ast.Program
	Symbols     *types.SymbolTable
	Diagnostics []diag.Diagnostic
	// Stage is the last stage that ran.
	Stage diag.Stage
}

// OK reports whether every stage finished without errors.
func (r *Result) OK() bool {
	return !diag.HasErrors(r.Diagnostics)
}

type options struct {
	logger *slog.Logger
}

// Option configures a compilation.
type Option func(*options)

// WithLogger sets the logger stage timings are written to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{logger: logs.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Compile runs the full pipeline over src. The error is non-nil only when
// ctx ends before the pipeline does; language problems are diagnostics.
func Compile(ctx context.Context, src Source, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	ctx = logs.WithFile(ctx, src.Filename)

	res := &Result{Source: src}
	p := &pipeline{ctx: ctx, logger: o.logger, res: res}

	steps := []struct {
		stage diag.Stage
		run   func() []diag.Diagnostic
	}{
		{diag.StageParser, func() []diag.Diagnostic {
			prog, diags := parser.Parse(src.Text, parser.WithFilename(src.Filename))
			res.Program = prog
			return diags
		}},
		{diag.StageEntry, func() []diag.Diagnostic {
			return checker.CheckEntry(res.Program)
		}},
		{diag.StageTypeCheck, func() []diag.Diagnostic {
			checked := checker.Check(res.Program)
			res.Symbols = checked.Symbols
			return checked.Diagnostics
		}},
		{diag.StageOwnership, func() []diag.Diagnostic {
			return ownership.Resolve(res.Program, res.Symbols)
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !p.run(step.stage, step.run) {
			break
		}
	}

	o.logger.DebugContext(ctx, "compiled",
		"ok", res.OK(),
		"stage", res.Stage,
		"diagnostics", len(res.Diagnostics),
	)
	return res, nil
}

type pipeline struct {
	ctx    context.Context
	logger *slog.Logger
	res    *Result
}

// run executes one stage and reports whether the next one may start.
func (p *pipeline) run(stage diag.Stage, fn func() []diag.Diagnostic) bool {
	start := time.Now()
	diags := fn()
	p.res.Stage = stage
	p.res.Diagnostics = append(p.res.Diagnostics, diags...)

	p.logger.DebugContext(p.ctx, "stage done",
		"stage", stage,
		"duration", time.Since(start),
		"diagnostics", len(diags),
	)
	return !diag.HasErrors(diags)
}

// CompileAll compiles independent sources concurrently, at most workers at
// a time. Each source gets its own pipeline; results keep the input order.
func CompileAll(ctx context.Context, srcs []Source, workers int, opts ...Option) ([]*Result, error) {
	results := make([]*Result, len(srcs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, src := range srcs {
		g.Go(func() error {
			res, err := Compile(ctx, src, opts...)
			if err != nil {
				return fmt.Errorf("compile %s: %w", src.Filename, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Tokens lexes src and returns its tokens up to and including EOF, with
// the lexical diagnostics. With trivia set the token stream is lossless.
func Tokens(src Source, trivia bool) ([]lexer.Token, []diag.Diagnostic) {
	var lx *lexer.Lexer
	if trivia {
		lx = lexer.NewWithTrivia(src.Text)
	} else {
		lx = lexer.New(src.Text)
	}
	lx.SetFilename(src.Filename)

	var toks []lexer.Token
	for tok := range lx.All() {
		toks = append(toks, tok)
	}

	var diags []diag.Diagnostic
	for _, err := range lx.Errors {
		diags = append(diags, err.ToDiagnostic())
	}
	return toks, diags
}
