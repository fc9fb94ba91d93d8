package matchpresenter

import (
	"context"
	"strings"
	"testing"

	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
	"github.com/park285/llm-chess-arena/internal/msgcat"
)

const afterE4 = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR"

func TestBoardGrid(t *testing.T) {
	got := NewFormatter(nil).Board(afterE4 + " b KQkq e3 0 1")
	lines := strings.Split(got, "\n")
	if len(lines) != 9 {
		t.Fatalf("expected 9 lines, got %d:\n%s", len(lines), got)
	}
	if lines[0] != "8  r n b q k b n r" {
		t.Fatalf("rank 8: %q", lines[0])
	}
	if lines[4] != "4  . . . . P . . ." {
		t.Fatalf("rank 4: %q", lines[4])
	}
}

func TestMoveList(t *testing.T) {
	f := NewFormatter(msgcat.Default())
	if got := f.MoveList(nil); got != "No moves yet" {
		t.Fatalf("empty list: %q", got)
	}
	moves := []domain.MoveLogEntry{
		{Ply: 1, Side: domain.White, SAN: "e4"},
		{Ply: 2, Side: domain.Black, SAN: "e5"},
		{Ply: 3, Side: domain.White, UCI: "g1f3"},
	}
	if got := f.MoveList(moves); got != "1. e4 e5 2. g1f3" {
		t.Fatalf("got %q", got)
	}
}

func TestSummaryShowsTurnAndStatus(t *testing.T) {
	f := NewFormatter(msgcat.Default())
	snap := match.Snapshot{
		Mode:    match.ModePlaying,
		Binding: &domain.AgentBinding{MatchID: "m", White: "OPENAI", Black: "CLAUDE"},
		State:   domain.MatchState{Board: afterE4, SideToMove: domain.Black, InCheck: true},
		Moves:   []domain.MoveLogEntry{{Ply: 1, Side: domain.White, SAN: "e4"}},
		Status:  match.Status{Kind: match.StatusTransportFailure, Message: "service down"},
	}
	got := f.Summary(snap)
	for _, want := range []string{"Playing", "OPENAI vs CLAUDE", "black to move (CLAUDE)", "Check", "service down", "1. e4"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestPresenterSendsTextAndImage(t *testing.T) {
	var texts []string
	var images [][]byte
	p := NewPresenter(
		func(m string) error { texts = append(texts, m); return nil },
		func(b []byte) error { images = append(images, b); return nil },
		nil,
	)
	snap := match.Snapshot{
		State: domain.MatchState{Board: afterE4},
		Moves: []domain.MoveLogEntry{{Ply: 1, Side: domain.White, UCI: "e2e4"}},
	}
	if err := p.Board(context.Background(), "hello", snap); err != nil {
		t.Fatalf("Board: %v", err)
	}
	if len(texts) != 1 || len(images) != 1 || len(images[0]) == 0 {
		t.Fatalf("texts=%d images=%d", len(texts), len(images))
	}
}
