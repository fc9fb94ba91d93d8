package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/llm-chess-arena/internal/console"
	"github.com/park285/llm-chess-arena/internal/feed"
	"github.com/park285/llm-chess-arena/internal/gameclient"
	"github.com/park285/llm-chess-arena/internal/match"
)

func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("GAME_SERVICE_URL")
	consoleAddr := os.Getenv("CONSOLE_ADDR")
	redisURL := os.Getenv("REDIS_URL")

	if baseURL == "" {
		log.Fatal("GAME_SERVICE_URL is required")
	}

	client := gameclient.NewClient(baseURL, gameclient.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := client.State(ctx)
	if err != nil {
		log.Fatalf("/game_state error: %v", err)
	}
	log.Printf("/game_state ok: board=%s to_move=%s check=%v checkmate=%v over=%v",
		st.Board, st.SideToMove, st.InCheck, st.Checkmate, st.GameOver)

	if redisURL != "" {
		rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := feed.Connect(rctx, redisURL)
		rcancel()
		if err != nil {
			log.Printf("redis error: %v", err)
		} else {
			cur, _ := feed.NewStore(rdb).Current(context.Background())
			log.Printf("redis ok: current_match=%q", cur)
			_ = rdb.Close()
		}
	}

	if consoleAddr == "" {
		log.Println("CONSOLE_ADDR not set; skipping console check")
		return
	}

	w := console.NewWatcher(console.WebSocketURL(consoleAddr), console.WithReconnectAttempts(0))
	got := make(chan match.Event, 1)
	w.OnEvent(func(ev match.Event) {
		select {
		case got <- ev:
		default:
		}
	})

	// Observe for a short window
	wctx, wcancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer wcancel()
	go func() { _ = w.Run(wctx) }()
	select {
	case ev := <-got:
		log.Printf("console ok: first=%s mode=%s plies=%d", ev.Kind, ev.Snapshot.Mode, len(ev.Snapshot.Moves))
	case <-wctx.Done():
		log.Printf("console error: no snapshot within 10s (state=%s)", w.State())
	}
}
