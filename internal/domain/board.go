package domain

import "errors"

// Board cell symbols.
const (
	CellEmpty = ""
	SymbolX   = "X"
	SymbolO   = "O"
)

var ErrBadPosition = errors.New("position out of range")

// Board is the fixed nine-cell grid, serialized as a JSON array of strings
// so snapshots stay wire-compatible with the web client.
type Board [9]string

func NewBoard() Board {
	return Board{}
}

// Set writes a symbol into an empty cell. The caller is responsible for
// occupancy checks; Set only guards the position range.
func (b *Board) Set(pos int, symbol string) error {
	if pos < 0 || pos > 8 {
		return ErrBadPosition
	}
	b[pos] = symbol
	return nil
}

func (b Board) Cell(pos int) string {
	if pos < 0 || pos > 8 {
		return CellEmpty
	}
	return b[pos]
}

func (b Board) Full() bool {
	for _, c := range b {
		if c == CellEmpty {
			return false
		}
	}
	return true
}

// winLines are the eight three-in-a-row combinations.
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// RoundCheck reports whether a round is decided: won is true when any line
// holds three equal symbols, draw is true when the board is full with no
// winner. It is a pure function so a different board game can swap it out.
type RoundCheck func(b Board) (won bool, draw bool)

// CheckRound is the default tic-tac-toe round evaluation.
func CheckRound(b Board) (bool, bool) {
	for _, line := range winLines {
		if b[line[0]] != CellEmpty && b[line[0]] == b[line[1]] && b[line[1]] == b[line[2]] {
			return true, false
		}
	}
	return false, b.Full()
}

// SymbolFor maps a player slot (1 or 2) to its mark.
func SymbolFor(playerNumber int) string {
	if playerNumber == 1 {
		return SymbolX
	}
	return SymbolO
}

// StarterForRound returns which player opens a round. Odd rounds start with
// player 1, even rounds with player 2, so openings alternate over a series.
func StarterForRound(round int) int {
	if round%2 == 0 {
		return 2
	}
	return 1
}
