package match

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/llm-chess-arena/internal/domain"
)

// StateReader is the read side of the game service.
type StateReader interface {
	State(ctx context.Context) (domain.MatchState, error)
}

// FetchState reads the authoritative state. It never falls back to a cached
// or fabricated value.
func FetchState(ctx context.Context, r StateReader) (domain.MatchState, error) {
	st, err := r.State(ctx)
	if err != nil {
		return domain.MatchState{}, &TransportError{
			Op:      "game_state",
			Timeout: errors.Is(err, context.DeadlineExceeded),
			Err:     err,
		}
	}
	if strings.TrimSpace(st.Board) == "" {
		return domain.MatchState{}, &TransportError{Op: "game_state", Err: ErrNoBoard}
	}
	return st, nil
}

// Terminal reports whether no further ply may be requested.
func Terminal(st domain.MatchState) bool { return st.Checkmate || st.GameOver }
