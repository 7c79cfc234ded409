package domain

import "errors"

// Application errors. Returned synchronously to the request that caused
// them and never broadcast; the session stays usable for the next attempt.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("you are not part of this game")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrCellOccupied    = errors.New("position already taken")
	ErrNotActive       = errors.New("game is not active")
	ErrNotCompleted    = errors.New("game is not completed")
	ErrConflict        = errors.New("player already has a pending challenge or active game")
	ErrAlreadyResolved = errors.New("offer already responded to")
	ErrOpponentOffline = errors.New("opponent is not online")
	ErrInvalidFirstTo  = errors.New("invalid first_to value")
)
