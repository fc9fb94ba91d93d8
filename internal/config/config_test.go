package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GAME_SERVICE_URL", "MOVE_DELAY_MS", "MOVE_DELAY_MIN_MS", "MOVE_DELAY_MAX_MS",
		"MOVE_TIMEOUT_MS", "STATE_RETRY", "ARENA_AGENTS", "CONSOLE_ADDR",
		"REDIS_URL", "DATABASE_URL", "MESSAGES_DIR",
	} {
		t.Setenv(k, "")
	}
	// keep the developer's own config file out of the test
	t.Setenv("ARENA_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
	xdg.Reload()
}

func TestLoadRequiresServiceURL(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "GAME_SERVICE_URL") {
		t.Fatalf("expected missing url error, got %v", err)
	}
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME_SERVICE_URL", " http://localhost:8000 ")
	t.Setenv("MOVE_DELAY_MS", "500")
	t.Setenv("ARENA_AGENTS", "a, b,,c")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GameServiceURL != "http://localhost:8000" {
		t.Fatalf("url not trimmed: %q", cfg.GameServiceURL)
	}
	if cfg.MoveDelay != 500*time.Millisecond || cfg.MoveDelayMin != 250*time.Millisecond || cfg.MoveTimeout != 30*time.Second {
		t.Fatalf("unexpected delays: %+v", cfg)
	}
	if strings.Join(cfg.Agents, "|") != "a|b|c" {
		t.Fatalf("agents = %v", cfg.Agents)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "game_service_url: http://file:8000\nmove_delay_ms: 2000\nagents: [x]\nconsole_addr: ':9999'\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARENA_CONFIG", path)
	t.Setenv("MOVE_DELAY_MS", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GameServiceURL != "http://file:8000" || cfg.ConsoleAddr != ":9999" || cfg.ConfigFile != path {
		t.Fatalf("file not applied: %+v", cfg)
	}
	if cfg.MoveDelay != 3*time.Second {
		t.Fatalf("env should override file, got %s", cfg.MoveDelay)
	}
}

func TestLoadRejectsDelayOutsideBounds(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME_SERVICE_URL", "http://localhost:8000")
	t.Setenv("MOVE_DELAY_MS", "20000")
	if _, err := Load(); err == nil {
		t.Fatalf("expected bounds error")
	}
}
