package client

import (
	"errors"
	"sync"

	"pubgames_tictactoe/internal/domain"
)

var (
	// ErrMovePending means a speculative move is already staged.
	ErrMovePending = errors.New("a move is already pending confirmation")
	// ErrNotMyTurn means the local view says it is the opponent's move.
	ErrNotMyTurn = errors.New("not your turn")
	// ErrCellTaken means the local view already has a symbol there.
	ErrCellTaken = errors.New("cell is occupied")
)

// GameSession is the client-side view of one game: the last authoritative
// snapshot plus at most one speculative move rendered on top of it. The
// speculative overlay never survives contact with a snapshot that disagrees.
type GameSession struct {
	mu     sync.Mutex
	userID int64
	game   *domain.Game

	staged    bool
	stagedPos int
	stagedSym string
}

func NewGameSession(userID int64, initial *domain.Game) *GameSession {
	return &GameSession{userID: userID, game: initial}
}

// Stage records a speculative move for immediate rendering. It refuses
// anything the server would also refuse, and refuses a second move while
// one is unconfirmed.
func (s *GameSession) Stage(position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staged {
		return ErrMovePending
	}
	if s.game == nil || s.game.Status != domain.GameStatusActive {
		return domain.ErrNotActive
	}
	num := s.game.PlayerNumber(s.userID)
	if num == 0 {
		return domain.ErrUnauthorized
	}
	if s.game.CurrentTurn != num {
		return ErrNotMyTurn
	}
	if position < 0 || position > 8 {
		return domain.ErrBadPosition
	}
	if s.game.Board.Cell(position) != domain.CellEmpty {
		return ErrCellTaken
	}

	s.staged = true
	s.stagedPos = position
	s.stagedSym = domain.SymbolFor(num)
	return nil
}

// Revert drops the speculative move, e.g. after the server rejected it.
func (s *GameSession) Revert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = false
}

// Reconcile replaces the authoritative snapshot. The staged move is
// considered confirmed only when the snapshot shows our symbol at the
// staged position; any other board clears the overlay so the screen
// reverts to truth.
func (s *GameSession) Reconcile(g *domain.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.game = g
	if !s.staged || g == nil {
		s.staged = false
		return
	}
	if g.Board.Cell(s.stagedPos) == s.stagedSym {
		s.staged = false // confirmed, the overlay is now real
		return
	}
	// snapshot disagrees (round reset, lost race, rejection): drop it
	s.staged = false
}

// Pending reports whether a speculative move awaits confirmation.
func (s *GameSession) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

// Board returns the renderable board: authoritative cells with the
// speculative move overlaid.
func (s *GameSession) Board() domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game == nil {
		return domain.Board{}
	}
	board := s.game.Board
	if s.staged {
		board[s.stagedPos] = s.stagedSym
	}
	return board
}

// Game returns the last authoritative snapshot.
func (s *GameSession) Game() *domain.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game
}

// MyTurn reports whether the authoritative state says it is our move and
// nothing is staged.
func (s *GameSession) MyTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil || s.game.Status != domain.GameStatusActive || s.staged {
		return false
	}
	return s.game.CurrentTurn == s.game.PlayerNumber(s.userID)
}
