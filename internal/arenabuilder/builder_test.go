package arenabuilder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/park285/llm-chess-arena/internal/audit"
	"github.com/park285/llm-chess-arena/internal/config"
	"github.com/park285/llm-chess-arena/internal/match"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func gameService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/game_state":
			_, _ = w.Write([]byte(`{"fen":"` + startFEN + `","turn":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) *config.AppConfig {
	return &config.AppConfig{
		GameServiceURL: url,
		MoveDelay:      time.Second,
		MoveDelayMin:   250 * time.Millisecond,
		MoveDelayMax:   10 * time.Second,
		MoveTimeout:    2 * time.Second,
		StateRetry:     1,
		Agents:         []string{"local/mock"},
	}
}

func TestNewSyncsAndRegistersExtraAgents(t *testing.T) {
	srv := gameService(t)
	ctx := context.Background()
	d, err := New(ctx, testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close(ctx)

	snap := d.Orchestrator.Snapshot()
	if snap.State.Board != startFEN || snap.Mode != match.ModeIdle {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !d.Registry.Contains("local/mock") || !d.Registry.Contains("CLAUDE") {
		t.Fatalf("registry missing agents: %v", d.Registry.Sorted())
	}
	if d.Publisher != nil || d.Redis != nil {
		t.Fatalf("feed attached without configuration")
	}
	if _, ok := d.Archive.(*audit.MemoryArchive); !ok {
		t.Fatalf("expected in-memory archive without DATABASE_URL, got %T", d.Archive)
	}
}

func TestNewToleratesUnreachableService(t *testing.T) {
	ctx := context.Background()
	d, err := New(ctx, testConfig("http://127.0.0.1:1"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close(ctx)
	if d.Orchestrator.Snapshot().Status.Kind != match.StatusTransportFailure {
		t.Fatalf("sync failure not surfaced")
	}
}

func TestNewAttachesRedisFeed(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := gameService(t)
	cfg := testConfig(srv.URL)
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"

	ctx := context.Background()
	d, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close(ctx)
	if d.Publisher == nil || d.Redis == nil {
		t.Fatalf("redis feed not attached")
	}
}

func TestNewRejectsBadRedisURL(t *testing.T) {
	srv := gameService(t)
	cfg := testConfig(srv.URL)
	cfg.RedisURL = "http://nope"
	if _, err := New(context.Background(), cfg, nil, WithoutInitialSync()); err == nil {
		t.Fatalf("expected error")
	}
}
