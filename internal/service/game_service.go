package service

import (
	"context"
	"sync"

	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/logger"

	"github.com/jonboulle/clockwork"
)

// GameAuthority owns the canonical state of every active game. All moves
// for one game are serialized behind a per-game mutex; distinct games
// proceed in parallel. It is the only component that mutates Game rows
// after creation.
type GameAuthority struct {
	games    GameStore
	stats    StatsStore
	presence Presence
	notifier Notifier
	clock    clockwork.Clock

	// check decides when a round is over. Swappable pure function; the
	// rest of the authority is board-game agnostic.
	check domain.RoundCheck

	locks sync.Map // gameID -> *sync.Mutex
}

func NewGameAuthority(games GameStore, stats StatsStore, presence Presence, notifier Notifier, clock clockwork.Clock) *GameAuthority {
	return &GameAuthority{
		games:    games,
		stats:    stats,
		presence: presence,
		notifier: notifier,
		clock:    clock,
		check:    domain.CheckRound,
	}
}

// SetNotifier rewires broadcasts after the ws layer is built (main wires
// services before the hub exists).
func (a *GameAuthority) SetNotifier(n Notifier) {
	a.notifier = n
}

func (a *GameAuthority) lockFor(gameID int64) *sync.Mutex {
	mu, _ := a.locks.LoadOrStore(gameID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// NewGame constructs and persists a fresh active series. player1 is the
// challenger and opens round 1 with X.
func (a *GameAuthority) NewGame(ctx context.Context, p1ID int64, p1Name string, p2ID int64, p2Name string, mode domain.GameMode, moveTimeLimit, firstTo int) (*domain.Game, error) {
	g := &domain.Game{
		Player1ID:     p1ID,
		Player1Name:   p1Name,
		Player2ID:     p2ID,
		Player2Name:   p2Name,
		Mode:          mode,
		Status:        domain.GameStatusActive,
		CurrentTurn:   1,
		Board:         domain.NewBoard(),
		FirstTo:       firstTo,
		CurrentRound:  1,
		MoveTimeLimit: moveTimeLimit,
	}
	if err := a.games.Create(ctx, g); err != nil {
		return nil, err
	}

	a.presence.MarkInGame(p1ID, true)
	a.presence.MarkInGame(p2ID, true)

	logger.Info("game created", "game_id", g.ID, "player1", p1ID, "player2", p2ID, "first_to", firstTo)
	return g, nil
}

// ActiveFor is the direct query behind the polling fallback.
func (a *GameAuthority) ActiveFor(ctx context.Context, userID int64) (*domain.Game, error) {
	return a.games.GetActiveByUser(ctx, userID)
}

func (a *GameAuthority) Get(ctx context.Context, gameID int64) (*domain.Game, error) {
	return a.games.GetByID(ctx, gameID)
}

// IsParticipant verifies membership for connection-scoping checks.
func (a *GameAuthority) IsParticipant(ctx context.Context, gameID, userID int64) (bool, error) {
	g, err := a.games.GetByID(ctx, gameID)
	if err != nil {
		return false, err
	}
	return g.PlayerNumber(userID) != 0, nil
}

// ApplyMove validates and applies one move. Validation order: game active,
// actor is a player, actor's turn, cell empty. Rejections mutate nothing
// and are never broadcast; they surface only to the caller.
func (a *GameAuthority) ApplyMove(ctx context.Context, gameID, actorID int64, position int) (*domain.MoveResult, error) {
	if position < 0 || position > 8 {
		return nil, domain.ErrBadPosition
	}

	mu := a.lockFor(gameID)
	mu.Lock()
	defer mu.Unlock()

	g, err := a.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if g.Status != domain.GameStatusActive {
		return nil, domain.ErrNotActive
	}
	playerNumber := g.PlayerNumber(actorID)
	if playerNumber == 0 {
		return nil, domain.ErrUnauthorized
	}
	if g.CurrentTurn != playerNumber {
		return nil, domain.ErrNotYourTurn
	}
	if g.Board.Cell(position) != domain.CellEmpty {
		return nil, domain.ErrCellOccupied
	}

	symbol := domain.SymbolFor(playerNumber)
	if err := g.Board.Set(position, symbol); err != nil {
		return nil, err
	}

	move := &domain.Move{
		GameID:   gameID,
		PlayerID: actorID,
		Round:    g.CurrentRound,
		Position: position,
		Symbol:   symbol,
	}
	if err := a.games.InsertMove(ctx, move); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	g.LastMoveAt = &now

	won, draw := a.check(g.Board)
	res := &domain.MoveResult{
		Accepted:  true,
		RoundOver: won || draw,
		IsDraw:    draw,
	}

	switch {
	case !res.RoundOver:
		g.CurrentTurn = 3 - playerNumber

	default:
		if won {
			if playerNumber == 1 {
				g.Player1Score++
			} else {
				g.Player2Score++
			}
		}

		if g.Player1Score >= g.FirstTo || g.Player2Score >= g.FirstTo {
			res.SeriesOver = true
			a.completeSeries(ctx, g)
		} else {
			// next round: fresh board, scores persist, opener alternates
			g.Board = domain.NewBoard()
			g.CurrentRound++
			g.CurrentTurn = domain.StarterForRound(g.CurrentRound)
		}
	}

	if err := a.games.Update(ctx, g); err != nil {
		return nil, err
	}
	res.Game = g

	if res.SeriesOver {
		// the lock entry outlives the game until the terminal row is
		// persisted, so a racing move reads completed and is refused
		a.locks.Delete(gameID)
		a.notifier.GameEnded(g)
	} else {
		a.notifier.GameUpdated(g)
	}
	return res, nil
}

// completeSeries finalizes a won series: terminal status, winner, stats,
// both players released from in_game. Caller holds the game lock.
func (a *GameAuthority) completeSeries(ctx context.Context, g *domain.Game) {
	g.Status = domain.GameStatusCompleted
	now := a.clock.Now()
	g.CompletedAt = &now

	var winnerID, loserID int64
	var winnerName, loserName string
	if g.Player1Score >= g.FirstTo {
		winnerID, winnerName = g.Player1ID, g.Player1Name
		loserID, loserName = g.Player2ID, g.Player2Name
	} else {
		winnerID, winnerName = g.Player2ID, g.Player2Name
		loserID, loserName = g.Player1ID, g.Player1Name
	}
	g.WinnerID = &winnerID

	if err := a.stats.Record(ctx, winnerID, winnerName, true, false, false); err != nil {
		logger.Warn("stats update failed", "user_id", winnerID, "error", err)
	}
	if err := a.stats.Record(ctx, loserID, loserName, false, true, false); err != nil {
		logger.Warn("stats update failed", "user_id", loserID, "error", err)
	}

	a.presence.MarkInGame(g.Player1ID, false)
	a.presence.MarkInGame(g.Player2ID, false)

	logger.Info("series completed", "game_id", g.ID, "winner_id", winnerID,
		"score", g.Player1Score, "score2", g.Player2Score)
}
