package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/kr/pretty"

	"github.com/vivscript/vivc/internal/compiler"
	"github.com/vivscript/vivc/internal/config"
	"github.com/vivscript/vivc/internal/diag"
	"github.com/vivscript/vivc/internal/logs"
	"github.com/vivscript/vivc/internal/lsp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every command needs.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// errUsage marks errors already explained by a usage message.
var errUsage = errors.New("usage")

// run executes one vivc invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("vivc", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "CUE configuration file (default ./"+config.DefaultFile+" if present)")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: vivc [options] <command> [arguments]\n")
		fmt.Fprintf(stderr, "\nCommands:\n")
		fmt.Fprintf(stderr, "  check <file>...        Check Viv Script source files\n")
		fmt.Fprintf(stderr, "  tokens [-trivia] <file> Print the token stream of a file\n")
		fmt.Fprintf(stderr, "  ast <file>             Print the annotated syntax tree of a file\n")
		fmt.Fprintf(stderr, "  test [path]...         Check every source file under the given paths\n")
		fmt.Fprintf(stderr, "  lsp                    Run the language server on stdin/stdout\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if flags.NArg() < 1 {
		flags.Usage()
		return 1
	}

	cfg, err := config.LoadDefault(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "vivc: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := logs.SetLevel(cfg.Log.Level); err != nil {
		fmt.Fprintf(stderr, "vivc: %v\n", err)
		return 1
	}

	logger, closeLog, err := logs.New(logs.Options{Writer: stderr, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(stderr, "vivc: %v\n", err)
		return 1
	}
	defer closeLog()

	a := &app{
		cfg:    cfg,
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	command := flags.Arg(0)
	cmdArgs := flags.Args()[1:]

	switch command {
	case "check":
		err = a.runCheck(ctx, cmdArgs)
	case "tokens":
		err = a.runTokens(cmdArgs)
	case "ast":
		err = a.runAST(ctx, cmdArgs)
	case "test":
		err = a.runTest(ctx, cmdArgs)
	case "lsp":
		err = lsp.NewServer(stdin, stdout, logger).Run(ctx)
	case "build", "run", "ir":
		fmt.Fprintf(stderr, "vivc %s: code generation is provided by an external backend; vivc only checks programs\n", command)
		return 2
	case "help":
		flags.Usage()
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		flags.Usage()
		return 1
	}

	var failed *failedError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &failed), errors.Is(err, errUsage):
		return 1
	default:
		logger.ErrorContext(ctx, "command failed", "command", command, "error", err)
		fmt.Fprintf(stderr, "vivc: %v\n", err)
		return 1
	}
}

// failedError reports that diagnostics were already rendered.
type failedError struct {
	files int
}

func (e *failedError) Error() string {
	return fmt.Sprintf("%d file(s) failed", e.files)
}

func (a *app) formatter(w io.Writer) *diag.Formatter {
	return diag.NewFormatter(w,
		diag.WithMaxErrors(a.cfg.Diagnostics.MaxErrors),
		diag.WithContextLines(a.cfg.Diagnostics.ContextLines),
	)
}

func loadSources(paths []string) ([]compiler.Source, error) {
	srcs := make([]compiler.Source, 0, len(paths))
	for _, path := range paths {
		src, err := compiler.LoadSource(path)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}
	return srcs, nil
}

// runCheck compiles every file and renders the diagnostics of the failures.
func (a *app) runCheck(ctx context.Context, args []string) error {
	if len(args) < 1 {
		fmt.Fprintf(a.stderr, "Usage: vivc check <file>...\n")
		return errUsage
	}

	srcs, err := loadSources(args)
	if err != nil {
		return err
	}

	results, err := compiler.CompileAll(ctx, srcs, a.cfg.Test.Workers, compiler.WithLogger(a.logger))
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.OK() {
			continue
		}
		failed++
		f := a.formatter(a.stderr)
		f.AddSource(res.Source.Filename, res.Source.Text)
		f.FormatAll(res.Diagnostics)
	}
	if failed > 0 {
		return &failedError{files: failed}
	}
	return nil
}

// runTokens prints one token per line: position, type and raw text.
func (a *app) runTokens(args []string) error {
	flags := flag.NewFlagSet("tokens", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	trivia := flags.Bool("trivia", false, "include whitespace and comment tokens")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}
	if flags.NArg() != 1 {
		fmt.Fprintf(a.stderr, "Usage: vivc tokens [-trivia] <file>\n")
		return errUsage
	}

	src, err := compiler.LoadSource(flags.Arg(0))
	if err != nil {
		return err
	}

	toks, diags := compiler.Tokens(src, *trivia)
	for _, tok := range toks {
		fmt.Fprintf(a.stdout, "%d:%d\t%s\t%q\n", tok.Span.Line, tok.Span.Column, tok.Type, tok.Raw)
	}

	if len(diags) > 0 {
		f := a.formatter(a.stderr)
		f.AddSource(src.Filename, src.Text)
		f.FormatAll(diags)
		return &failedError{files: 1}
	}
	return nil
}

// runAST prints the annotated program. The tree is printed even when a
// stage failed, so far as the pipeline got.
func (a *app) runAST(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintf(a.stderr, "Usage: vivc ast <file>\n")
		return errUsage
	}

	src, err := compiler.LoadSource(args[0])
	if err != nil {
		return err
	}

	res, err := compiler.Compile(ctx, src, compiler.WithLogger(a.logger))
	if err != nil {
		return err
	}

	if res.Program != nil {
		pretty.Fprintf(a.stdout, "%# v\n", res.Program)
	}

	if !res.OK() {
		f := a.formatter(a.stderr)
		f.AddSource(src.Filename, src.Text)
		f.FormatAll(res.Diagnostics)
		return &failedError{files: 1}
	}
	return nil
}
