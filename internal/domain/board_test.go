package domain

import "testing"

func TestParsePlacementStart(t *testing.T) {
	p, err := ParsePlacement("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR")
	if err != nil {
		t.Fatalf("ParsePlacement: %v", err)
	}
	if p[4] != 'K' || p[60] != 'k' {
		t.Fatalf("kings misplaced: e1=%q e8=%q", p[4], p[60])
	}
	if p[28] != 0 {
		t.Fatalf("e4 should be empty, got %q", p[28])
	}
	if SquareName(28) != "e4" || SquareName(0) != "a1" || SquareName(63) != "h8" {
		t.Fatalf("unexpected square names")
	}
}

func TestParsePlacementRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "8/8/8", "9/8/8/8/8/8/8/8", "rnbqkbnrx/8/8/8/8/8/8/8", "7/8/8/8/8/8/8/8"} {
		if _, err := ParsePlacement(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestSideTurnMapping(t *testing.T) {
	if SideFromTurn(true) != White || SideFromTurn(false) != Black {
		t.Fatalf("turn flag mapping broken")
	}
	if White.Opposite() != Black || Black.Opposite() != White {
		t.Fatalf("Opposite broken")
	}
	var s Side
	if err := s.UnmarshalText([]byte("black")); err != nil || s != Black {
		t.Fatalf("UnmarshalText: %v %v", s, err)
	}
}
