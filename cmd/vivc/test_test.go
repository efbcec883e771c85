package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/vivscript/vivc/internal/diag"
)

func TestExpectation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want diag.Code
	}{
		{"none", validProgram, ""},
		{"leading", "// expect: TYPE_MISMATCH\nfn main() -> Num { return 0; }", diag.CodeTypeMismatch},
		{"after comments", "\n// checks moves\n//expect:OWNERSHIP_USE_AFTER_MOVE\n", diag.CodeOwnershipUseAfterMove},
		{"after code", "fn main() -> Num { return 0; }\n// expect: TYPE_MISMATCH\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expectation(tt.text); got != tt.want {
				t.Fatalf("expectation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.viv", validProgram)
	writeFile(t, dir, "a.viv", validProgram)
	writeFile(t, dir, "nested/c.viv", validProgram)
	writeFile(t, dir, ".cache/d.viv", validProgram)
	writeFile(t, dir, "notes.txt", "not a source")

	files, err := findTestFiles(dir, ".viv")
	if err != nil {
		t.Fatal(err)
	}

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(dir, f)
		if err != nil {
			t.Fatal(err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	if got := strings.Join(rel, " "); got != "a.viv b.viv nested/c.viv" {
		t.Fatalf("files = %s", got)
	}
}

func TestRunTests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pass.viv", validProgram)
	writeFile(t, dir, "moved.viv", `// expect: OWNERSHIP_USE_AFTER_MOVE
fn main() -> Num {
	let s = "a";
	let t = s;
	print s;
	return 0;
}
`)
	writeFile(t, dir, "entry.viv", "// expect: SYNTAX_MISSING_MAIN\nfn helper() {}\n")

	code, stdout, stderr := vivc(t, "test", dir)
	if code != 0 {
		t.Fatalf("exit code = %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "Test Results: 3 total, 3 passed, 0 failed") {
		t.Fatalf("unexpected summary:\n%s", stdout)
	}

	writeFile(t, dir, "broken.viv", "fn main() -> Num { return \"x\"; }\n")
	writeFile(t, dir, "clean.viv", "// expect: TYPE_MISMATCH\n"+validProgram)

	code, stdout, _ = vivc(t, "test", dir)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1\n%s", code, stdout)
	}
	for _, want := range []string{
		"Test Results: 5 total, 3 passed, 2 failed",
		"✗ " + filepath.Join(dir, "broken.viv"),
		"error[TYPE_MISMATCH]",
		"expected TYPE_MISMATCH, but the file checks cleanly",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("output does not contain %q:\n%s", want, stdout)
		}
	}
}

func TestRunTestsEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	code, stdout, _ := vivc(t, "test", dir)
	if code != 0 || !strings.Contains(stdout, "No test files found") {
		t.Fatalf("exit code = %d, stdout = %q", code, stdout)
	}
}
