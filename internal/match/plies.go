package match

import (
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/llm-chess-arena/internal/domain"
)

// annotatePly recovers the UCI and SAN of the ply that turned before into
// after. The service only returns boards, so this is best effort and returns
// empty strings when the diff is ambiguous or the move does not decode.
func annotatePly(before, after string, side domain.Side) (uci, san string) {
	prev, err := domain.ParsePlacement(before)
	if err != nil {
		return "", ""
	}
	next, err := domain.ParsePlacement(after)
	if err != nil {
		return "", ""
	}

	var vacated, arrived []int
	for sq := 0; sq < 64; sq++ {
		if prev[sq] == next[sq] {
			continue
		}
		if prev[sq] != 0 && domain.PieceSide(prev[sq]) == side {
			vacated = append(vacated, sq)
		}
		if next[sq] != 0 && domain.PieceSide(next[sq]) == side {
			arrived = append(arrived, sq)
		}
	}

	from, to := -1, -1
	switch {
	case len(vacated) == 1 && len(arrived) == 1:
		from, to = vacated[0], arrived[0]
	case len(vacated) == 2 && len(arrived) == 2:
		// castling: follow the king
		for _, sq := range vacated {
			if isKing(prev[sq]) {
				from = sq
			}
		}
		for _, sq := range arrived {
			if isKing(next[sq]) {
				to = sq
			}
		}
	}
	if from < 0 || to < 0 {
		return "", ""
	}

	uci = domain.SquareName(from) + domain.SquareName(to)
	if isPawn(prev[from]) && !isPawn(next[to]) {
		uci += strings.ToLower(string(next[to]))
	}

	fen := positionFEN(before, prev, side, from, to)
	opt, err := nchess.FEN(fen)
	if err != nil {
		return uci, ""
	}
	game := nchess.NewGame(opt)
	pos := game.Position()
	if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return uci, ""
	}
	moves := game.Moves()
	if len(moves) == 0 {
		return uci, ""
	}
	return uci, nchess.AlgebraicNotation{}.Encode(pos, moves[len(moves)-1])
}

// positionFEN rebuilds a full FEN for the pre-move board. Castling rights are
// inferred from home squares and the en passant target from the ply itself.
func positionFEN(board string, p domain.Placement, side domain.Side, from, to int) string {
	placement := strings.TrimSpace(board)
	if i := strings.IndexByte(placement, ' '); i >= 0 {
		placement = placement[:i]
	}

	active := "w"
	if side == domain.Black {
		active = "b"
	}

	var rights strings.Builder
	if p[4] == 'K' {
		if p[7] == 'R' {
			rights.WriteByte('K')
		}
		if p[0] == 'R' {
			rights.WriteByte('Q')
		}
	}
	if p[60] == 'k' {
		if p[63] == 'r' {
			rights.WriteByte('k')
		}
		if p[56] == 'r' {
			rights.WriteByte('q')
		}
	}
	castling := rights.String()
	if castling == "" {
		castling = "-"
	}

	ep := "-"
	if isPawn(p[from]) && from%8 != to%8 && p[to] == 0 {
		ep = domain.SquareName(to)
	}
	return placement + " " + active + " " + castling + " " + ep + " 0 1"
}

func isKing(c byte) bool { return c == 'K' || c == 'k' }
func isPawn(c byte) bool { return c == 'P' || c == 'p' }
