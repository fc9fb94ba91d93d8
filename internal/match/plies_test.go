package match

import (
	"testing"

	"github.com/park285/llm-chess-arena/internal/domain"
)

func TestAnnotatePly(t *testing.T) {
	cases := []struct {
		name          string
		before, after string
		side          domain.Side
		uci, san      string
	}{
		{"pawn push", startBoard, afterE4, domain.White, "e2e4", "e4"},
		{"reply", afterE4, afterE5, domain.Black, "e7e5", "e5"},
		{"short castle", "r3k2r/8/8/8/8/8/8/R3K2R", "r3k2r/8/8/8/8/8/8/R4RK1", domain.White, "e1g1", "O-O"},
		{"promotion", "8/4P3/8/8/8/8/8/k6K", "4Q3/8/8/8/8/8/8/k6K", domain.White, "e7e8q", "e8=Q"},
		{"unreadable", "8/8/8/8/8/8/8/8", "8/8/8/8/8/8/8/8", domain.White, "", ""},
		{"garbage", "nope", afterE4, domain.White, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uci, san := annotatePly(tc.before, tc.after, tc.side)
			if uci != tc.uci || san != tc.san {
				t.Fatalf("got (%q, %q), want (%q, %q)", uci, san, tc.uci, tc.san)
			}
		})
	}
}
