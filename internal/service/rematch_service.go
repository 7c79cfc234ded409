package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/logger"

	"github.com/jonboulle/clockwork"
)

// RematchService mirrors the challenge flow for completed games. The offer
// window covers a short waiting phase plus the visible countdown; past
// expires_at the offer behaves exactly like a decline.
type RematchService struct {
	rematches RematchStore
	games     GameStore
	authority *GameAuthority
	clock     clockwork.Clock
	ttl       time.Duration

	mu sync.Mutex
}

func NewRematchService(rematches RematchStore, games GameStore, authority *GameAuthority, clock clockwork.Clock, ttl time.Duration) *RematchService {
	return &RematchService{
		rematches: rematches,
		games:     games,
		authority: authority,
		clock:     clock,
		ttl:       ttl,
	}
}

// Create offers a rematch of a completed game to the other player.
func (s *RematchService) Create(ctx context.Context, gameID, requesterID int64) (*domain.RematchRequest, error) {
	g, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status != domain.GameStatusCompleted {
		return nil, domain.ErrNotCompleted
	}
	if g.PlayerNumber(requesterID) == 0 {
		return nil, domain.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.rematches.LatestByGame(ctx, gameID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == domain.OfferPending {
		return nil, domain.ErrConflict
	}

	rm := &domain.RematchRequest{
		GameID:      gameID,
		RequesterID: requesterID,
		OpponentID:  g.OpponentOf(requesterID),
		Status:      domain.OfferPending,
		ExpiresAt:   s.clock.Now().Add(s.ttl),
	}
	if err := s.rematches.Create(ctx, rm); err != nil {
		return nil, err
	}

	logger.Info("rematch requested", "rematch_id", rm.ID, "game_id", gameID)
	return rm, nil
}

// Get returns the live offer for a game; the requester polls this to drive
// the countdown and to observe the outcome.
func (s *RematchService) Get(ctx context.Context, gameID int64) (*domain.RematchRequest, error) {
	return s.rematches.LatestByGame(ctx, gameID)
}

// Respond resolves a pending offer. Accepting creates a fresh game with the
// UNCHANGED settings and player order of the source game.
func (s *RematchService) Respond(ctx context.Context, rematchID, responderID int64, accept bool) (*domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, err := s.rematches.GetByID(ctx, rematchID)
	if err != nil {
		return nil, err
	}
	if rm.OpponentID != responderID {
		return nil, domain.ErrUnauthorized
	}
	if rm.Status.Terminal() {
		return nil, domain.ErrAlreadyResolved
	}
	if !rm.ExpiresAt.After(s.clock.Now()) {
		// overdue but not yet swept; treat as expired now
		_ = s.rematches.Resolve(ctx, rm.ID, domain.OfferExpired)
		return nil, domain.ErrAlreadyResolved
	}

	if !accept {
		if err := s.rematches.Resolve(ctx, rm.ID, domain.OfferDeclined); err != nil {
			return nil, err
		}
		logger.Info("rematch declined", "rematch_id", rm.ID)
		return nil, nil
	}

	src, err := s.games.GetByID(ctx, rm.GameID)
	if err != nil {
		return nil, err
	}

	if err := s.rematches.Resolve(ctx, rm.ID, domain.OfferAccepted); err != nil {
		return nil, err
	}

	return s.authority.NewGame(ctx, src.Player1ID, src.Player1Name,
		src.Player2ID, src.Player2Name, src.Mode, src.MoveTimeLimit, src.FirstTo)
}

// ExpireDue sweeps overdue pending offers.
func (s *RematchService) ExpireDue(ctx context.Context) error {
	expired, err := s.rematches.ExpireDue(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	for _, rm := range expired {
		logger.Info("rematch expired", "rematch_id", rm.ID, "game_id", rm.GameID)
	}
	return nil
}
