package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Console: true, Format: "json", ConsoleWriter: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("ply_applied", zap.Int("ply", 3))
	_ = l.Sync()

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["msg"] != "ply_applied" || rec["level"] != "info" || rec["ply"] != float64(3) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewFileCoreCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "arena.log")
	l, err := New(Options{Level: "info", File: path, Format: "legacy"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Warn("match_stopped")
	_ = l.Sync()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "match_stopped") || !strings.Contains(string(b), " | ") {
		t.Fatalf("unexpected log file: %q", b)
	}
}

func TestLevelFilteringAndReplace(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Options{Level: "warn", Console: true, Format: "console", ConsoleWriter: &buf})
	restore := Replace(l)
	defer restore()

	L().Info("hidden")
	Named("console").Warn("shown")
	_ = L().Sync()
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output: %q", out)
	}
}
