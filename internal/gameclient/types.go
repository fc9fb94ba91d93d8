package gameclient

import (
	"fmt"
	"strings"

	"github.com/park285/llm-chess-arena/internal/domain"
)

// stateResponse is the wire shape shared by /game_state, /move and /ai_move.
// Missing booleans decode as false.
type stateResponse struct {
	FEN         string `json:"fen"`
	Turn        bool   `json:"turn"`
	IsCheck     bool   `json:"is_check"`
	IsCheckmate bool   `json:"is_checkmate"`
	IsGameOver  bool   `json:"is_game_over"`
	IllegalMove bool   `json:"illegalmove"`
}

func (r *stateResponse) hasBoard() bool {
	return r != nil && strings.TrimSpace(r.FEN) != ""
}

func (r stateResponse) matchState() domain.MatchState {
	return domain.MatchState{
		Board:      r.FEN,
		SideToMove: domain.SideFromTurn(r.Turn),
		InCheck:    r.IsCheck,
		Checkmate:  r.IsCheckmate,
		GameOver:   r.IsGameOver,
	}
}

type agentMoveRequest struct {
	Turn  bool   `json:"turn"`
	Model string `json:"model"`
}

type Piece struct {
	IsSparePiece bool   `json:"isSparePiece"`
	Position     string `json:"position"`
	PieceType    string `json:"pieceType"`
}

// HumanMoveRequest mirrors the board widget's drop payload.
type HumanMoveRequest struct {
	Piece        Piece  `json:"piece"`
	SourceSquare string `json:"sourceSquare"`
	TargetSquare string `json:"targetSquare"`
}

type resetResponse struct {
	Success bool `json:"success"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("game service error: status=%d body=%s", e.Code, e.Body)
}
