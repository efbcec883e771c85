package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
)

func skipUnderSystemd(t *testing.T) {
	t.Helper()

	if p, err := getCgroupPath(); err == nil && strings.HasSuffix(path.Dir(p), ".service") {
		t.Skip("terminal handler is replaced by the journal under systemd")
	}
}

func TestHandler(t *testing.T) {
	skipUnderSystemd(t)
	t.Cleanup(func() { level.Set(slog.LevelInfo) })

	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	if err := SetLevel("debug"); err != nil {
		t.Fatal(err)
	}

	ctx := WithFile(context.Background(), "main.viv")
	logger.DebugContext(ctx, "parsed", "decls", 3)

	out := buf.String()
	for _, want := range []string{"msg=parsed", "decls=3", "file=main.viv"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestLevelFilters(t *testing.T) {
	skipUnderSystemd(t)
	t.Cleanup(func() { level.Set(slog.LevelInfo) })

	var buf bytes.Buffer
	logger, _, err := New(Options{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	if err := SetLevel("warn"); err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
	if Level() != slog.LevelWarn {
		t.Fatalf("level = %s", Level())
	}
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	if err := SetLevel("loud"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
	if err := SetLevel(""); err != nil {
		t.Fatalf("empty level should keep the current one: %v", err)
	}
}

func TestFileHandler(t *testing.T) {
	file := filepath.Join(t.TempDir(), "vivc.log")

	logger, closeFn, err := New(Options{Writer: &bytes.Buffer{}, File: file})
	if err != nil {
		t.Fatal(err)
	}
	logger.With("stage", "lexer").Info("done")
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("log file is not JSON lines: %v\n%s", err, content)
	}
	if record["msg"] != "done" || record["stage"] != "lexer" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestToJournalKey(t *testing.T) {
	if got := toJournalKey("logs.span-id"); got != "LOGS_SPAN_ID" {
		t.Fatalf("got %q", got)
	}
}
