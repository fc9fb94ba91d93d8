package audit

import (
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
)

func mapResultToPGN(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

func buildPGN(rec domain.MatchRecord, pgnResult string) string {
	var b strings.Builder
	date := rec.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString("[Event \"LLM Chess Arena\"]\n")
	b.WriteString(fmt.Sprintf("[Site \"%s\"]\n", sanitizePGN(rec.MatchID)))
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePGN(string(rec.White))))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePGN(string(rec.Black))))
	if strings.TrimSpace(rec.Termination) != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(rec.Termination)))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", pgnResult))

	for i := 0; i < len(rec.MovesSAN); i += 2 {
		turn := (i / 2) + 1
		b.WriteString(fmt.Sprintf("%d. %s", turn, strings.TrimSpace(rec.MovesSAN[i])))
		if i+1 < len(rec.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(rec.MovesSAN[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(pgnResult)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}

// movesFromLog replays the log from the initial position to recover SAN for
// plies the live annotation could not name. Replay stops at the first ply
// that does not decode, keeping the log's own notation from there on.
func movesFromLog(entries []domain.MoveLogEntry) (uci, san []string) {
	game := nchess.NewGame()
	replaying := true
	for _, e := range entries {
		u, s := e.UCI, e.SAN
		if replaying && u != "" {
			pos := game.Position()
			if err := game.PushNotationMove(u, nchess.UCINotation{}, nil); err == nil {
				moves := game.Moves()
				s = nchess.AlgebraicNotation{}.Encode(pos, moves[len(moves)-1])
			} else {
				replaying = false
			}
		} else {
			replaying = false
		}
		if s == "" {
			s = "--"
		}
		uci = append(uci, u)
		san = append(san, s)
	}
	return uci, san
}

// RecordFrom builds the archive row for a match that ended with snap.
func RecordFrom(snap match.Snapshot, termination string, endedAt time.Time) (domain.MatchRecord, bool) {
	if snap.Binding == nil {
		return domain.MatchRecord{}, false
	}
	uci, san := movesFromLog(snap.Moves)
	rec := domain.MatchRecord{
		MatchID:     snap.Binding.MatchID,
		White:       snap.Binding.White,
		Black:       snap.Binding.Black,
		Termination: termination,
		MovesUCI:    uci,
		MovesSAN:    san,
		FinalBoard:  snap.State.Board,
		StartedAt:   snap.Binding.StartedAt,
		EndedAt:     endedAt,
	}
	if rec.Termination == "" {
		rec.Termination = snap.Status.Kind.String()
	}
	switch {
	case snap.Status.Checkmate && snap.Status.Winner != nil:
		rec.Result = snap.Status.Winner.String()
		rec.Termination = "checkmate"
	case snap.Status.Kind == match.StatusGameOver:
		rec.Result = "draw"
	}
	return rec, true
}
