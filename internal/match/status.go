package match

import (
	"errors"
	"fmt"
	"time"

	"github.com/park285/llm-chess-arena/internal/domain"
)

type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusTransportFailure
	StatusIllegalMove
	StatusGameOver
)

var statusKindNames = map[StatusKind]string{
	StatusNone:             "none",
	StatusTransportFailure: "transport_failure",
	StatusIllegalMove:      "illegal_move",
	StatusGameOver:         "game_over",
}

func (k StatusKind) String() string {
	if s, ok := statusKindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k StatusKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *StatusKind) UnmarshalText(b []byte) error {
	for kind, name := range statusKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown status kind %q", b)
}

// Status is the single operator-facing message. The zero value means nothing
// to report.
type Status struct {
	Kind      StatusKind   `json:"kind"`
	Message   string       `json:"message,omitempty"`
	Winner    *domain.Side `json:"winner,omitempty"`
	Checkmate bool         `json:"checkmate,omitempty"`
	At        time.Time    `json:"at"`
}

func (s Status) Empty() bool { return s.Kind == StatusNone }

// Messages renders status templates by key.
type Messages interface {
	Render(key string, data any) (string, error)
}

const (
	msgTransportFailure = "status.transport_failure"
	msgTransportTimeout = "status.transport_timeout"
	msgIllegalMove      = "status.illegal_move"
	msgCheckmate        = "status.checkmate"
	msgGameOver         = "status.game_over"
)

func render(msgs Messages, key string, data map[string]any, fallback string) string {
	if msgs == nil {
		return fallback
	}
	out, err := msgs.Render(key, data)
	if err != nil || out == "" {
		return fallback
	}
	return out
}

func transportStatus(msgs Messages, err error, at time.Time) Status {
	key := msgTransportFailure
	var te *TransportError
	if errors.As(err, &te) && te.Timeout {
		key = msgTransportTimeout
	}
	return Status{
		Kind:    StatusTransportFailure,
		Message: render(msgs, key, map[string]any{"Error": err.Error()}, fmt.Sprintf("Game service unavailable: %v", err)),
		At:      at,
	}
}

func illegalStatus(msgs Messages, side domain.Side, agent domain.AgentID, at time.Time) Status {
	data := map[string]any{"Side": side.String(), "Agent": string(agent)}
	return Status{
		Kind:    StatusIllegalMove,
		Message: render(msgs, msgIllegalMove, data, fmt.Sprintf("%s (%s) made an illegal move", agent, side)),
		At:      at,
	}
}

// gameOverStatus attributes a checkmate to the side that is not to move in
// the terminal state.
func gameOverStatus(msgs Messages, st domain.MatchState, binding *domain.AgentBinding, at time.Time) Status {
	if !st.Checkmate {
		return Status{
			Kind:    StatusGameOver,
			Message: render(msgs, msgGameOver, map[string]any{}, "Game over"),
			At:      at,
		}
	}
	winner := st.SideToMove.Opposite()
	var agent domain.AgentID
	if binding != nil {
		agent = binding.For(winner)
	}
	data := map[string]any{"Winner": winner.String(), "Agent": string(agent)}
	return Status{
		Kind:      StatusGameOver,
		Message:   render(msgs, msgCheckmate, data, fmt.Sprintf("Checkmate, %s wins", winner)),
		Winner:    &winner,
		Checkmate: true,
		At:        at,
	}
}
