package service

import (
	"context"
	"sync"
	"time"

	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/logger"

	"github.com/jonboulle/clockwork"
)

// ChallengeSettings are the game parameters a requester picks.
type ChallengeSettings struct {
	Mode          domain.GameMode `json:"mode"`
	MoveTimeLimit int             `json:"move_time_limit"`
	FirstTo       int             `json:"first_to"`
}

// ChallengeService mediates challenge creation and resolution. Push
// notifications ride the short-lived lobby connection; every outcome is
// equally visible through the pending/active direct queries because both
// paths read the same store.
type ChallengeService struct {
	challenges ChallengeStore
	games      GameStore
	authority  *GameAuthority
	presence   Presence
	notifier   Notifier
	clock      clockwork.Clock
	ttl        time.Duration

	// serializes create/respond so the one-pending-per-pair invariant
	// holds without relying on a database constraint
	mu sync.Mutex
}

func NewChallengeService(challenges ChallengeStore, games GameStore, authority *GameAuthority, presence Presence, notifier Notifier, clock clockwork.Clock, ttl time.Duration) *ChallengeService {
	return &ChallengeService{
		challenges: challenges,
		games:      games,
		authority:  authority,
		presence:   presence,
		notifier:   notifier,
		clock:      clock,
		ttl:        ttl,
	}
}

func (s *ChallengeService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Create issues a challenge from requester to opponent. Conflict when
// either party already has an active game or a pending challenge.
func (s *ChallengeService) Create(ctx context.Context, requester domain.User, opponentID int64, settings ChallengeSettings) (*domain.Challenge, error) {
	if !domain.ValidFirstTo[settings.FirstTo] {
		return nil, domain.ErrInvalidFirstTo
	}
	if settings.Mode != domain.GameModeTimed {
		settings.Mode = domain.GameModeNormal
		settings.MoveTimeLimit = 0
	}

	opp, online := s.presence.Get(opponentID)
	if !online {
		return nil, domain.ErrOpponentOffline
	}
	if opp.InGame {
		return nil, domain.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if busy, err := s.games.HasActive(ctx, requester.ID, opponentID); err != nil {
		return nil, err
	} else if busy {
		return nil, domain.ErrConflict
	}
	if pending, err := s.challenges.HasPendingInvolving(ctx, requester.ID, opponentID); err != nil {
		return nil, err
	} else if pending {
		return nil, domain.ErrConflict
	}

	c := &domain.Challenge{
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		OpponentID:    opponentID,
		OpponentName:  opp.UserName,
		Mode:          settings.Mode,
		MoveTimeLimit: settings.MoveTimeLimit,
		FirstTo:       settings.FirstTo,
		Status:        domain.OfferPending,
	}
	if err := s.challenges.Create(ctx, c); err != nil {
		return nil, err
	}

	// push is best-effort; the opponent also polls pending challenges
	s.notifier.ChallengeReceived(opponentID, c)

	logger.Info("challenge created", "challenge_id", c.ID,
		"requester", requester.ID, "opponent", opponentID)
	return c, nil
}

// Respond resolves a pending challenge. Only the named opponent may call
// it. Accepting atomically creates the game and flags both players in-game.
func (s *ChallengeService) Respond(ctx context.Context, challengeID, responderID int64, accept bool) (*domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c.OpponentID != responderID {
		return nil, domain.ErrUnauthorized
	}
	if c.Status.Terminal() {
		return nil, domain.ErrAlreadyResolved
	}

	if !accept {
		if err := s.challenges.Resolve(ctx, c.ID, domain.OfferDeclined); err != nil {
			return nil, err
		}
		s.notifier.ChallengeResolved(c.RequesterID, c.ID, domain.OfferDeclined)
		logger.Info("challenge declined", "challenge_id", c.ID)
		return nil, nil
	}

	// game first, status flip second. If creation fails the challenge is
	// still pending, so the opponent can retry and the sweeper still owns
	// expiry. If the flip fails the game already exists and both players
	// converge on it through the active-game query.
	g, err := s.authority.NewGame(ctx, c.RequesterID, c.RequesterName,
		c.OpponentID, c.OpponentName, c.Mode, c.MoveTimeLimit, c.FirstTo)
	if err != nil {
		return nil, err
	}

	if err := s.challenges.Resolve(ctx, c.ID, domain.OfferAccepted); err != nil {
		logger.Warn("challenge resolve failed after game create",
			"challenge_id", c.ID, "game_id", g.ID, "error", err)
	}

	s.notifier.ChallengeAccepted(c.RequesterID, c.OpponentID, g)
	return g, nil
}

// PendingFor is the direct query behind the opponent's polling fallback.
func (s *ChallengeService) PendingFor(ctx context.Context, userID int64) ([]*domain.Challenge, error) {
	return s.challenges.PendingByOpponent(ctx, userID)
}

// ExpireStale transitions overdue pending challenges to expired and
// notifies each requester exactly once. Effect matches a decline; the
// distinct status is kept for observability.
func (s *ChallengeService) ExpireStale(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.ttl)
	expired, err := s.challenges.ExpireOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, c := range expired {
		logger.Info("challenge expired", "challenge_id", c.ID, "requester", c.RequesterID)
		s.notifier.ChallengeResolved(c.RequesterID, c.ID, domain.OfferExpired)
	}
	return nil
}
