package matchpresenter

import (
	"fmt"
	"strings"

	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
)

// Messages renders catalog templates with a fallback.
type Messages interface {
	RenderOr(key string, data any, fallback string) string
}

// Formatter renders snapshots into terminal-friendly text blocks.
type Formatter struct {
	msgs Messages
}

func NewFormatter(msgs Messages) *Formatter {
	return &Formatter{msgs: msgs}
}

func (f *Formatter) render(key string, data any, fallback string) string {
	if f == nil || f.msgs == nil {
		return fallback
	}
	return f.msgs.RenderOr(key, data, fallback)
}

func (f *Formatter) Started(b domain.AgentBinding) string {
	return f.render("cli.started", map[string]any{
		"MatchID": b.MatchID,
		"White":   b.White,
		"Black":   b.Black,
	}, fmt.Sprintf("Match %s: %s (white) vs %s (black)", b.MatchID, b.White, b.Black))
}

// Waiting describes whose turn it is; empty when no match is bound.
func (f *Formatter) Waiting(snap match.Snapshot) string {
	if snap.Binding == nil {
		return ""
	}
	side := snap.State.SideToMove
	agent := snap.Binding.For(side)
	return f.render("cli.waiting", map[string]any{"Side": side, "Agent": agent},
		fmt.Sprintf("%s is thinking (%s)", side, agent))
}

func (f *Formatter) Finished(snap match.Snapshot) string {
	msg := snap.Status.Message
	if msg == "" {
		msg = snap.Mode.String()
	}
	return f.render("cli.finished", map[string]any{"Plies": len(snap.Moves), "Message": msg},
		fmt.Sprintf("Finished after %d plies: %s", len(snap.Moves), msg))
}

func (f *Formatter) ModeLabel(m match.Mode) string {
	return f.render("console.mode."+m.String(), nil, m.String())
}

func (f *Formatter) Turn(snap match.Snapshot) string {
	side := snap.State.SideToMove
	var agent domain.AgentID
	if snap.Binding != nil {
		agent = snap.Binding.For(side)
	}
	return f.render("console.turn", map[string]any{"Side": side, "Agent": agent},
		fmt.Sprintf("%s to move (%s)", side, agent))
}

// Board draws the placement as an 8x8 grid, white at the bottom.
func (f *Formatter) Board(board string) string {
	p, err := domain.ParsePlacement(board)
	if err != nil {
		return strings.TrimSpace(board)
	}
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteString(" ")
		for file := 0; file < 8; file++ {
			c := p[rank*8+file]
			if c == 0 {
				c = '.'
			}
			sb.WriteByte(' ')
			sb.WriteByte(c)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h")
	return sb.String()
}

// MoveList numbers plies in pairs: "1. e4 e5 2. Nf3".
func (f *Formatter) MoveList(moves []domain.MoveLogEntry) string {
	if len(moves) == 0 {
		return f.render("console.no_moves", nil, "No moves yet")
	}
	var sb strings.Builder
	for i, m := range moves {
		text := m.SAN
		if text == "" {
			text = m.UCI
		}
		if text == "" {
			text = "?"
		}
		if m.Side == domain.White {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(fmt.Sprintf("%d. ", (m.Ply+1)/2))
		} else if i == 0 {
			// 흑부터 시작한 기록
			sb.WriteString(fmt.Sprintf("%d... ", (m.Ply+1)/2))
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// Summary is the full text view used by the CLI and the MCP tools.
func (f *Formatter) Summary(snap match.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("• ")
	sb.WriteString(f.ModeLabel(snap.Mode))
	if snap.InFlight {
		sb.WriteString(" …")
	}
	sb.WriteString("\n")
	if b := snap.Binding; b != nil {
		sb.WriteString(fmt.Sprintf("• %s vs %s\n", b.White, b.Black))
		if snap.Mode == match.ModePlaying || snap.Mode == match.ModePaused {
			sb.WriteString("• ")
			sb.WriteString(f.Turn(snap))
			if snap.State.InCheck {
				sb.WriteString(" | ")
				sb.WriteString(f.render("console.check", nil, "Check"))
			}
			sb.WriteString("\n")
		}
	}
	if msg := strings.TrimSpace(snap.Status.Message); msg != "" {
		sb.WriteString("• ")
		sb.WriteString(msg)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(f.Board(snap.State.Board))
	sb.WriteString("\n\n")
	sb.WriteString(f.MoveList(snap.Moves))
	return sb.String()
}
