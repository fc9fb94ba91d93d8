package domain

import (
	"fmt"
	"strings"
)

// Placement is a decoded FEN piece-placement field indexed a1=0 .. h8=63.
// Empty squares hold 0, occupied squares hold the FEN letter (PNBRQK / pnbrqk).
type Placement [64]byte

func ParsePlacement(board string) (Placement, error) {
	var p Placement
	board = strings.TrimSpace(board)
	if i := strings.IndexByte(board, ' '); i >= 0 {
		board = board[:i]
	}
	ranks := strings.Split(board, "/")
	if len(ranks) != 8 {
		return p, fmt.Errorf("placement %q: want 8 ranks, got %d", board, len(ranks))
	}
	for r, row := range ranks {
		rank := 7 - r
		file := 0
		for i := 0; i < len(row); i++ {
			c := row[i]
			switch {
			case c >= '1' && c <= '8':
				file += int(c - '0')
			case strings.IndexByte("pnbrqkPNBRQK", c) >= 0:
				if file > 7 {
					return p, fmt.Errorf("placement %q: rank %d overflows", board, rank+1)
				}
				p[rank*8+file] = c
				file++
			default:
				return p, fmt.Errorf("placement %q: bad symbol %q", board, c)
			}
		}
		if file != 8 {
			return p, fmt.Errorf("placement %q: rank %d has %d files", board, rank+1, file)
		}
	}
	return p, nil
}

// SquareName returns the algebraic name ("e4") of a square index.
func SquareName(sq int) string {
	return string([]byte{byte('a' + sq%8), byte('1' + sq/8)})
}

// PieceSide reports the owner of a FEN piece letter.
func PieceSide(piece byte) Side {
	if piece >= 'a' && piece <= 'z' {
		return Black
	}
	return White
}
