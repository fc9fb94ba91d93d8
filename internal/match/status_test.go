package match

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/park285/llm-chess-arena/internal/domain"
)

type mapMessages map[string]string

func (m mapMessages) Render(key string, data any) (string, error) {
	tpl, ok := m[key]
	if !ok {
		return "", fmt.Errorf("template not found: %s", key)
	}
	vals, _ := data.(map[string]any)
	out := tpl
	for k, v := range vals {
		out = strings.ReplaceAll(out, "{"+k+"}", fmt.Sprint(v))
	}
	return out, nil
}

func TestGameOverStatusWinnerIsSideNotToMove(t *testing.T) {
	binding := &domain.AgentBinding{White: "OPENAI", Black: "CLAUDE"}
	msgs := mapMessages{msgCheckmate: "{Agent} mates as {Winner}"}

	st := gameOverStatus(msgs, domain.MatchState{SideToMove: domain.White, Checkmate: true, GameOver: true}, binding, time.Time{})
	if st.Winner == nil || *st.Winner != domain.Black || st.Message != "CLAUDE mates as black" {
		t.Fatalf("unexpected status: %+v", st)
	}

	draw := gameOverStatus(msgs, domain.MatchState{GameOver: true}, binding, time.Time{})
	if draw.Winner != nil || draw.Checkmate || draw.Message != "Game over" {
		t.Fatalf("non-mate termination should have no winner: %+v", draw)
	}
}

func TestTransportStatusDistinguishesTimeout(t *testing.T) {
	msgs := mapMessages{
		msgTransportFailure: "down: {Error}",
		msgTransportTimeout: "slow: {Error}",
	}
	plain := transportStatus(msgs, &TransportError{Op: "agent_move", Err: errors.New("refused")}, time.Time{})
	slow := transportStatus(msgs, &TransportError{Op: "agent_move", Timeout: true, Err: errors.New("deadline")}, time.Time{})
	if !strings.HasPrefix(plain.Message, "down:") || !strings.HasPrefix(slow.Message, "slow:") {
		t.Fatalf("messages: %q / %q", plain.Message, slow.Message)
	}
	if plain.Kind != StatusTransportFailure || slow.Kind != StatusTransportFailure {
		t.Fatalf("kinds: %v / %v", plain.Kind, slow.Kind)
	}
}

func TestIllegalStatusFallsBackWithoutCatalog(t *testing.T) {
	st := illegalStatus(nil, domain.Black, "CLAUDE", time.Time{})
	if st.Kind != StatusIllegalMove || !strings.Contains(st.Message, "CLAUDE") {
		t.Fatalf("unexpected status: %+v", st)
	}
}
