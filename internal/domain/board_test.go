package domain

import (
	"math/rand"
	"testing"
)

func TestCheckRoundWinLines(t *testing.T) {
	lines := [][3]int{
		{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
		{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
		{0, 4, 8}, {2, 4, 6},
	}
	for _, line := range lines {
		var b Board
		for _, pos := range line {
			b[pos] = SymbolX
		}
		won, draw := CheckRound(b)
		if !won || draw {
			t.Fatalf("line %v: won=%v draw=%v; want win", line, won, draw)
		}
	}
}

func TestCheckRoundDraw(t *testing.T) {
	// X O X / X O O / O X X: full board, no line
	b := Board{SymbolX, SymbolO, SymbolX, SymbolX, SymbolO, SymbolO, SymbolO, SymbolX, SymbolX}
	won, draw := CheckRound(b)
	if won || !draw {
		t.Fatalf("won=%v draw=%v; want draw", won, draw)
	}
}

func TestCheckRoundInProgress(t *testing.T) {
	b := Board{SymbolX, SymbolO}
	won, draw := CheckRound(b)
	if won || draw {
		t.Fatalf("won=%v draw=%v; want neither", won, draw)
	}
}

func TestSetRejectsBadPosition(t *testing.T) {
	var b Board
	for _, pos := range []int{-1, 9, 100} {
		if err := b.Set(pos, SymbolX); err != ErrBadPosition {
			t.Fatalf("Set(%d): err=%v; want ErrBadPosition", pos, err)
		}
	}
}

// Random legal play sequences never overwrite a cell: once a symbol lands
// it survives until the round ends.
func TestBoardNoOverwriteProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for game := 0; game < 200; game++ {
		var b Board
		placed := map[int]string{}
		turn := 1
		for {
			var free []int
			for pos := 0; pos < 9; pos++ {
				if b.Cell(pos) == CellEmpty {
					free = append(free, pos)
				}
			}
			if len(free) == 0 {
				break
			}
			pos := free[rng.Intn(len(free))]
			sym := SymbolFor(turn)
			if err := b.Set(pos, sym); err != nil {
				t.Fatalf("legal Set(%d) failed: %v", pos, err)
			}
			placed[pos] = sym

			for p, want := range placed {
				if got := b.Cell(p); got != want {
					t.Fatalf("cell %d overwritten: got %q want %q", p, got, want)
				}
			}

			if won, draw := CheckRound(b); won || draw {
				break
			}
			turn = 3 - turn
		}
	}
}

func TestStarterForRoundAlternates(t *testing.T) {
	cases := []struct {
		round int
		want  int
	}{
		{1, 1}, {2, 2}, {3, 1}, {4, 2}, {5, 1}, {10, 2},
	}
	for _, tc := range cases {
		if got := StarterForRound(tc.round); got != tc.want {
			t.Fatalf("StarterForRound(%d) = %d; want %d", tc.round, got, tc.want)
		}
	}
}

func TestSymbolFor(t *testing.T) {
	if SymbolFor(1) != SymbolX || SymbolFor(2) != SymbolO {
		t.Fatalf("player symbols wrong: 1=%q 2=%q", SymbolFor(1), SymbolFor(2))
	}
}
