package service

import (
	"context"
	"time"

	"pubgames_tictactoe/internal/domain"
)

// Store interfaces are satisfied by the repository package; tests provide
// in-memory fakes.

type GameStore interface {
	Create(ctx context.Context, g *domain.Game) error
	GetByID(ctx context.Context, id int64) (*domain.Game, error)
	GetActiveByUser(ctx context.Context, userID int64) (*domain.Game, error)
	HasActive(ctx context.Context, userIDs ...int64) (bool, error)
	Update(ctx context.Context, g *domain.Game) error
	InsertMove(ctx context.Context, m *domain.Move) error
}

type ChallengeStore interface {
	Create(ctx context.Context, c *domain.Challenge) error
	GetByID(ctx context.Context, id int64) (*domain.Challenge, error)
	PendingByOpponent(ctx context.Context, opponentID int64) ([]*domain.Challenge, error)
	HasPendingInvolving(ctx context.Context, userIDs ...int64) (bool, error)
	Resolve(ctx context.Context, id int64, status domain.OfferStatus) error
	ExpireOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Challenge, error)
}

type RematchStore interface {
	Create(ctx context.Context, rm *domain.RematchRequest) error
	GetByID(ctx context.Context, id int64) (*domain.RematchRequest, error)
	LatestByGame(ctx context.Context, gameID int64) (*domain.RematchRequest, error)
	Resolve(ctx context.Context, id int64, status domain.OfferStatus) error
	ExpireDue(ctx context.Context, now time.Time) ([]*domain.RematchRequest, error)
}

type StatsStore interface {
	Record(ctx context.Context, userID int64, userName string, won, lost, draw bool) error
}

// Presence is the slice of the registry the services need. Only the
// registry itself writes heartbeat state.
type Presence interface {
	Get(userID int64) (domain.PresenceRecord, bool)
	MarkInGame(userID int64, inGame bool)
}

// Notifier pushes events over whatever connections currently exist. Every
// method is best-effort: an absent connection drops the event and the
// polling fallback picks it up.
type Notifier interface {
	ChallengeReceived(opponentID int64, c *domain.Challenge)
	ChallengeAccepted(requesterID, opponentID int64, g *domain.Game)
	ChallengeResolved(requesterID int64, challengeID int64, status domain.OfferStatus)
	GameUpdated(g *domain.Game)
	GameEnded(g *domain.Game)
}

// NopNotifier drops everything; handy in tests and startup ordering.
type NopNotifier struct{}

func (NopNotifier) ChallengeReceived(int64, *domain.Challenge)         {}
func (NopNotifier) ChallengeAccepted(int64, int64, *domain.Game)       {}
func (NopNotifier) ChallengeResolved(int64, int64, domain.OfferStatus) {}
func (NopNotifier) GameUpdated(*domain.Game)                           {}
func (NopNotifier) GameEnded(*domain.Game)                             {}
