package domain

import (
	"fmt"
	"time"
)

// Side is the two-valued side-to-move tag.
type Side int8

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "white"
}

func (s Side) Opposite() Side {
	if s == Black {
		return White
	}
	return Black
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "white", "w":
		*s = White
	case "black", "b":
		*s = Black
	default:
		return fmt.Errorf("unknown side %q", string(b))
	}
	return nil
}

// SideFromTurn maps the service's turn flag (true = White) to a Side.
func SideFromTurn(turn bool) Side {
	if turn {
		return White
	}
	return Black
}

// Turn is the inverse of SideFromTurn.
func (s Side) Turn() bool { return s == White }

type AgentID string

type MatchState struct {
	Board      string `json:"board"`
	SideToMove Side   `json:"side_to_move"`
	InCheck    bool   `json:"in_check"`
	Checkmate  bool   `json:"checkmate"`
	GameOver   bool   `json:"game_over"`
}

// MoveReply is a move response before it is accepted as canonical.
// Illegal is inspected once and never stored.
type MoveReply struct {
	State   MatchState
	Illegal bool
}

type AgentBinding struct {
	MatchID   string    `json:"match_id"`
	White     AgentID   `json:"white"`
	Black     AgentID   `json:"black"`
	StartedAt time.Time `json:"started_at"`
}

// For returns the agent bound to the given side.
func (b AgentBinding) For(side Side) AgentID {
	if side == Black {
		return b.Black
	}
	return b.White
}

type MoveLogEntry struct {
	Ply   int       `json:"ply"`
	Side  Side      `json:"side"`
	Agent AgentID   `json:"agent"`
	UCI   string    `json:"uci,omitempty"`
	SAN   string    `json:"san,omitempty"`
	Board string    `json:"board"`
	At    time.Time `json:"at"`
}

// MatchRecord is the archived summary of a stopped match.
type MatchRecord struct {
	MatchID     string
	White       AgentID
	Black       AgentID
	Result      string
	Termination string
	MovesUCI    []string
	MovesSAN    []string
	FinalBoard  string
	StartedAt   time.Time
	EndedAt     time.Time
}
