package audit

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
)

func TestBuildPGN(t *testing.T) {
	rec := domain.MatchRecord{
		MatchID:     "m-1",
		White:       "OPENAI",
		Black:       "CLAU\"DE",
		Termination: "checkmate",
		MovesSAN:    []string{"f3", "e5", "g4", "Qh4#"},
		EndedAt:     time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
	}
	pgn := buildPGN(rec, mapResultToPGN("black"))
	for _, want := range []string{
		`[Date "2025.03.09"]`,
		`[Black "CLAU'DE"]`,
		`[Result "0-1"]`,
		"1. f3 e5 2. g4 Qh4# 0-1",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("PGN lacks %q:\n%s", want, pgn)
		}
	}
	if mapResultToPGN("") != "*" || mapResultToPGN("draw") != "1/2-1/2" {
		t.Fatalf("result mapping broken")
	}
}

func TestMovesFromLogFillsMissingSAN(t *testing.T) {
	uci, san := movesFromLog([]domain.MoveLogEntry{
		{UCI: "e2e4"},
		{UCI: "e7e5", SAN: "e5"},
		{UCI: "g1f3"},
	})
	if strings.Join(uci, " ") != "e2e4 e7e5 g1f3" || strings.Join(san, " ") != "e4 e5 Nf3" {
		t.Fatalf("uci=%v san=%v", uci, san)
	}

	_, san = movesFromLog([]domain.MoveLogEntry{{UCI: "e2e5", SAN: ""}, {UCI: "e7e5", SAN: "e5"}})
	if san[0] != "--" || san[1] != "e5" {
		t.Fatalf("replay should stop at the first bad ply: %v", san)
	}
}

func TestRecordFromCheckmate(t *testing.T) {
	white := domain.White
	snap := match.Snapshot{
		Mode:    match.ModeStopped,
		Binding: &domain.AgentBinding{MatchID: "m-7", White: "OPENAI", Black: "CLAUDE"},
		State:   domain.MatchState{Board: "8/8/8/8/8/8/8/8", Checkmate: true, GameOver: true},
		Status:  match.Status{Kind: match.StatusGameOver, Checkmate: true, Winner: &white},
	}
	rec, ok := RecordFrom(snap, "", time.Now())
	if !ok || rec.Result != "white" || rec.Termination != "checkmate" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, ok := RecordFrom(match.Snapshot{}, "", time.Now()); ok {
		t.Fatalf("snapshot without binding must not be archived")
	}
}

type fakeSaver struct {
	mu   sync.Mutex
	recs []domain.MatchRecord
}

func (f *fakeSaver) SaveMatch(ctx context.Context, rec domain.MatchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

func TestRecorderSavesOncePerMatch(t *testing.T) {
	saver := &fakeSaver{}
	r := NewRecorder(saver, nil)
	binding := &domain.AgentBinding{MatchID: "m-9", White: "A", Black: "B"}

	stopped := match.Snapshot{Mode: match.ModeStopped, Binding: binding, Status: match.Status{Kind: match.StatusIllegalMove}}
	r.Observe(match.Event{Kind: match.EventStopped, Snapshot: stopped})
	r.Observe(match.Event{Kind: match.EventStopped, Snapshot: stopped})

	playing := match.Snapshot{Mode: match.ModePlaying, Binding: &domain.AgentBinding{MatchID: "m-10", White: "A", Black: "B"}}
	r.Observe(match.Event{Kind: match.EventPly, Snapshot: playing})
	r.Observe(match.Event{Kind: match.EventReset, Snapshot: match.Snapshot{Mode: match.ModeIdle}})
	r.Wait()

	if len(saver.recs) != 2 {
		t.Fatalf("expected 2 archived matches, got %d", len(saver.recs))
	}
	terms := map[string]string{}
	for _, rec := range saver.recs {
		terms[rec.MatchID] = rec.Termination
	}
	if terms["m-9"] != "illegal_move" || terms["m-10"] != "reset" {
		t.Fatalf("unexpected terminations: %v", terms)
	}
}

func TestMemoryArchiveRecentNewestFirst(t *testing.T) {
	a := NewMemoryArchive(2)
	ctx := context.Background()
	base := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"m-1", "m-2", "m-3"} {
		rec := domain.MatchRecord{
			MatchID:   id,
			White:     "OPENAI",
			Black:     "CLAUDE",
			Result:    "white",
			MovesUCI:  []string{"e2e4", "e7e5"},
			StartedAt: base,
			EndedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := a.SaveMatch(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	got, err := a.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(got))
	}
	if got[0].MatchID != "m-3" || got[1].MatchID != "m-2" {
		t.Fatalf("unexpected order: %s, %s", got[0].MatchID, got[1].MatchID)
	}
	if got[0].Plies != 2 || got[0].White != "OPENAI" {
		t.Fatalf("unexpected summary: %+v", got[0])
	}
}
