package cmd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestRootRegistersCommands(t *testing.T) {
	root := Root()
	for _, name := range []string{"serve", "run", "agents", "state", "move", "reset", "mcp", "watch"} {
		c, _, err := root.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Fatalf("command %q not registered: %v", name, err)
		}
	}
}

func TestRunRequiresTwoAgents(t *testing.T) {
	root := Root()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"run", "OPENAI"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestStateReadsService(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"fen":"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR","turn":true}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	t.Setenv("GAME_SERVICE_URL", srv.URL)
	t.Setenv("ARENA_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CONFIG_DIRS", dir)
	t.Setenv("LOG_TO_CONSOLE", "false")

	png := filepath.Join(dir, "board.png")
	root := Root()
	root.SetArgs([]string{"state", "--png", png})
	if err := root.Execute(); err != nil {
		t.Fatalf("state: %v", err)
	}
	if hits.Load() == 0 {
		t.Fatalf("service was not called")
	}
	if fi, err := os.Stat(png); err != nil || fi.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}
}
