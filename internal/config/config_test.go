package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, "vivc.cue", `
log: level: "debug"
diagnostics: {
	max_errors: 5
}
test: extension: ".vs"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	if cfg.Diagnostics.MaxErrors != 5 {
		t.Fatalf("max errors = %d", cfg.Diagnostics.MaxErrors)
	}
	if cfg.Diagnostics.ContextLines != Default().Diagnostics.ContextLines {
		t.Fatalf("unset fields should keep their default, got %d", cfg.Diagnostics.ContextLines)
	}
	if cfg.Test.Extension != ".vs" {
		t.Fatalf("extension = %q", cfg.Test.Extension)
	}
	if cfg.Test.Workers < 1 {
		t.Fatalf("workers = %d", cfg.Test.Workers)
	}
}

func TestLoadLaterFilesWin(t *testing.T) {
	first := writeFile(t, "a.cue", `log: level: "warn"`)
	second := writeFile(t, "b.cue", `log: level: "error"`)

	cfg, err := Load(first, second)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown top-level field", `colour: true`},
		{"unknown nested field", `log: verbose: true`},
		{"bad level", `log: level: "loud"`},
		{"negative limit", `diagnostics: max_errors: -1`},
		{"zero workers", `test: workers: 0`},
		{"extension without dot", `test: extension: "viv"`},
		{"not cue", `log: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.cue", tt.content)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected an error for %q", tt.content)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.cue")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadDefault("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestLoadDefaultPicksUpWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte(`test: workers: 3`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := LoadDefault("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Test.Workers != 3 {
		t.Fatalf("workers = %d", cfg.Test.Workers)
	}
}
