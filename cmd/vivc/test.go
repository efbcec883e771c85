package main

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vivscript/vivc/internal/compiler"
	"github.com/vivscript/vivc/internal/diag"
)

// expectPrefix starts the comment naming the diagnostic a test file must
// produce, as in "// expect: TYPE_MISMATCH".
const expectPrefix = "expect:"

// TestResult represents the result of checking a single test file
type TestResult struct {
	Name   string
	Passed bool
	Error  error
	Output string
}

// runTest checks every test file under the given paths, or the current
// directory.
func (a *app) runTest(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	failed := 0
	for _, arg := range args {
		n, err := a.runAllTests(ctx, arg)
		if err != nil {
			return err
		}
		failed += n
	}
	if failed > 0 {
		return &failedError{files: failed}
	}
	return nil
}

// runAllTests discovers and checks all test files in the given directory or
// file, and returns how many failed.
func (a *app) runAllTests(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("access %s: %w", path, err)
	}

	var testFiles []string
	if info.IsDir() {
		testFiles, err = findTestFiles(path, a.cfg.Test.Extension)
		if err != nil {
			return 0, fmt.Errorf("find test files: %w", err)
		}
	} else {
		testFiles = []string{path}
	}

	if len(testFiles) == 0 {
		fmt.Fprintf(a.stdout, "No test files found in %s\n", path)
		return 0, nil
	}

	fmt.Fprintf(a.stdout, "Running tests in %s...\n\n", path)

	srcs, err := loadSources(testFiles)
	if err != nil {
		return 0, err
	}

	results, err := compiler.CompileAll(ctx, srcs, a.cfg.Test.Workers, compiler.WithLogger(a.logger))
	if err != nil {
		return 0, err
	}

	var passedTests, failedTests int
	for _, res := range results {
		result := a.evaluate(res)
		if result.Passed {
			passedTests++
			fmt.Fprintf(a.stdout, "  ✓ %s\n", result.Name)
			continue
		}

		failedTests++
		fmt.Fprintf(a.stdout, "  ✗ %s\n", result.Name)
		if result.Error != nil {
			fmt.Fprintf(a.stdout, "    Error: %v\n", result.Error)
		}
		if result.Output != "" {
			fmt.Fprintf(a.stdout, "    Output:\n%s\n", indent(result.Output, "      "))
		}
	}

	fmt.Fprintf(a.stdout, "\n")
	fmt.Fprintf(a.stdout, "Test Results: %d total, %d passed, %d failed\n", len(results), passedTests, failedTests)

	return failedTests, nil
}

// findTestFiles finds every file with the given extension under dir,
// skipping hidden directories.
func findTestFiles(dir, ext string) ([]string, error) {
	var testFiles []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) == ext {
			testFiles = append(testFiles, path)
		}
		return nil
	})

	slices.Sort(testFiles)
	return testFiles, err
}

// expectation returns the code named by a leading "// expect: CODE"
// comment. Blank lines and other comments may come first.
func expectation(text string) diag.Code {
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		comment, ok := strings.CutPrefix(line, "//")
		if !ok {
			return ""
		}
		if code, ok := strings.CutPrefix(strings.TrimSpace(comment), expectPrefix); ok {
			return diag.Code(strings.TrimSpace(code))
		}
	}
	return ""
}

// evaluate decides whether a compiled test file met its expectation.
func (a *app) evaluate(res *compiler.Result) TestResult {
	result := TestResult{Name: res.Source.Filename}
	want := expectation(res.Source.Text)

	switch {
	case want == "" && res.OK():
		result.Passed = true
	case want == "":
		result.Error = fmt.Errorf("%s stage reported %d diagnostic(s)", res.Stage, len(res.Diagnostics))
		result.Output = a.render(res)
	case res.OK():
		result.Error = fmt.Errorf("expected %s, but the file checks cleanly", want)
	case slices.ContainsFunc(res.Diagnostics, func(d diag.Diagnostic) bool { return d.Code == want }):
		result.Passed = true
	default:
		got := make([]string, len(res.Diagnostics))
		for i, d := range res.Diagnostics {
			got[i] = string(d.Code)
		}
		result.Error = fmt.Errorf("expected %s, got %s", want, strings.Join(got, ", "))
		result.Output = a.render(res)
	}
	return result
}

func (a *app) render(res *compiler.Result) string {
	var buf bytes.Buffer
	f := a.formatter(&buf)
	f.AddSource(res.Source.Filename, res.Source.Text)
	f.FormatAll(res.Diagnostics)
	return strings.TrimRight(buf.String(), "\n")
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
