package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedStatusTemplatesRender(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("status.checkmate", map[string]any{"Winner": "white", "Agent": "OPENAI"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Checkmate! white wins (OPENAI)" {
		t.Fatalf("unexpected text: %q", got)
	}
	for _, k := range []string{"status.transport_failure", "status.transport_timeout", "status.illegal_move", "status.game_over"} {
		found := false
		for _, have := range c.Keys() {
			if have == k {
				found = true
			}
		}
		if !found {
			t.Fatalf("embedded catalog lacks %s", k)
		}
	}
}

func TestRenderMissingFieldIsError(t *testing.T) {
	c := Default()
	if _, err := c.Render("status.illegal_move", map[string]any{"Agent": "x"}); err == nil {
		t.Fatalf("expected missing field error")
	}
	if got := c.RenderOr("no.such.key", nil, "fallback"); got != "fallback" {
		t.Fatalf("RenderOr = %q", got)
	}
}

func TestOverrideDirReplacesKeys(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("status:\n  game_over: \"Draw or stalemate\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, _ := c.Render("status.game_over", nil)
	if got != "Draw or stalemate" {
		t.Fatalf("override not applied: %q", got)
	}
}

func TestOverrideDirRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("status:\n  game_over: x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}
