package service

import (
	"context"
	"sync"
	"time"

	"pubgames_tictactoe/internal/domain"
)

// In-memory store fakes. They copy on read and write so services only see
// state they persisted, same as with real rows.

type fakeGameStore struct {
	mu     sync.Mutex
	nextID int64
	games  map[int64]domain.Game
	moves  []domain.Move
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{games: make(map[int64]domain.Game)}
}

func (s *fakeGameStore) Create(_ context.Context, g *domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	g.ID = s.nextID
	g.CreatedAt = time.Now()
	s.games[g.ID] = *g
	return nil
}

func (s *fakeGameStore) GetByID(_ context.Context, id int64) (*domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (s *fakeGameStore) GetActiveByUser(_ context.Context, userID int64) (*domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.Status == domain.GameStatusActive && g.PlayerNumber(userID) != 0 {
			g := g
			return &g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeGameStore) HasActive(_ context.Context, userIDs ...int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.Status != domain.GameStatusActive {
			continue
		}
		for _, id := range userIDs {
			if g.PlayerNumber(id) != 0 {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *fakeGameStore) Update(_ context.Context, g *domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; !ok {
		return domain.ErrNotFound
	}
	s.games[g.ID] = *g
	return nil
}

func (s *fakeGameStore) InsertMove(_ context.Context, m *domain.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves = append(s.moves, *m)
	return nil
}

type fakeChallengeStore struct {
	mu         sync.Mutex
	nextID     int64
	challenges map[int64]domain.Challenge
	now        func() time.Time
}

func newFakeChallengeStore() *fakeChallengeStore {
	return &fakeChallengeStore{challenges: make(map[int64]domain.Challenge), now: time.Now}
}

func (s *fakeChallengeStore) Create(_ context.Context, c *domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = s.now()
	s.challenges[c.ID] = *c
	return nil
}

func (s *fakeChallengeStore) GetByID(_ context.Context, id int64) (*domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *fakeChallengeStore) PendingByOpponent(_ context.Context, opponentID int64) ([]*domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Challenge
	for _, c := range s.challenges {
		if c.Status == domain.OfferPending && c.OpponentID == opponentID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *fakeChallengeStore) HasPendingInvolving(_ context.Context, userIDs ...int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.challenges {
		if c.Status != domain.OfferPending {
			continue
		}
		for _, id := range userIDs {
			if c.RequesterID == id || c.OpponentID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *fakeChallengeStore) Resolve(_ context.Context, id int64, status domain.OfferStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok || c.Status != domain.OfferPending {
		return domain.ErrAlreadyResolved
	}
	c.Status = status
	s.challenges[id] = c
	return nil
}

func (s *fakeChallengeStore) ExpireOlderThan(_ context.Context, cutoff time.Time) ([]*domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Challenge
	for id, c := range s.challenges {
		if c.Status == domain.OfferPending && c.CreatedAt.Before(cutoff) {
			c.Status = domain.OfferExpired
			s.challenges[id] = c
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeRematchStore struct {
	mu        sync.Mutex
	nextID    int64
	rematches map[int64]domain.RematchRequest
}

func newFakeRematchStore() *fakeRematchStore {
	return &fakeRematchStore{rematches: make(map[int64]domain.RematchRequest)}
}

func (s *fakeRematchStore) Create(_ context.Context, rm *domain.RematchRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rm.ID = s.nextID
	rm.CreatedAt = time.Now()
	s.rematches[rm.ID] = *rm
	return nil
}

func (s *fakeRematchStore) GetByID(_ context.Context, id int64) (*domain.RematchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rematches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rm, nil
}

func (s *fakeRematchStore) LatestByGame(_ context.Context, gameID int64) (*domain.RematchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.RematchRequest
	for _, rm := range s.rematches {
		if rm.GameID != gameID {
			continue
		}
		if rm.Status != domain.OfferPending && rm.Status != domain.OfferAccepted {
			continue
		}
		rm := rm
		if latest == nil || rm.ID > latest.ID {
			latest = &rm
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (s *fakeRematchStore) Resolve(_ context.Context, id int64, status domain.OfferStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rematches[id]
	if !ok || rm.Status != domain.OfferPending {
		return domain.ErrAlreadyResolved
	}
	rm.Status = status
	s.rematches[id] = rm
	return nil
}

func (s *fakeRematchStore) ExpireDue(_ context.Context, now time.Time) ([]*domain.RematchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.RematchRequest
	for id, rm := range s.rematches {
		if rm.Status == domain.OfferPending && !rm.ExpiresAt.After(now) {
			rm.Status = domain.OfferExpired
			s.rematches[id] = rm
			rm := rm
			out = append(out, &rm)
		}
	}
	return out, nil
}

type statRecord struct {
	userID int64
	won    bool
	lost   bool
	draw   bool
}

type fakeStatsStore struct {
	mu      sync.Mutex
	records []statRecord
}

func (s *fakeStatsStore) Record(_ context.Context, userID int64, _ string, won, lost, draw bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, statRecord{userID: userID, won: won, lost: lost, draw: draw})
	return nil
}

type fakePresence struct {
	mu     sync.Mutex
	online map[int64]domain.PresenceRecord
}

func newFakePresence(users ...domain.PresenceRecord) *fakePresence {
	p := &fakePresence{online: make(map[int64]domain.PresenceRecord)}
	for _, u := range users {
		p.online[u.UserID] = u
	}
	return p
}

func (p *fakePresence) Get(userID int64) (domain.PresenceRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.online[userID]
	return rec, ok
}

func (p *fakePresence) MarkInGame(userID int64, inGame bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rec, ok := p.online[userID]; ok {
		rec.InGame = inGame
		p.online[userID] = rec
	}
}

// recordingNotifier captures pushes in order so tests can assert exactly
// what would have hit the wire.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) add(ev string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	copy(out, n.events)
	return out
}

func (n *recordingNotifier) ChallengeReceived(int64, *domain.Challenge) { n.add("challenge_received") }
func (n *recordingNotifier) ChallengeAccepted(int64, int64, *domain.Game) {
	n.add("challenge_accepted")
}
func (n *recordingNotifier) ChallengeResolved(_ int64, _ int64, status domain.OfferStatus) {
	n.add("challenge_resolved:" + string(status))
}
func (n *recordingNotifier) GameUpdated(*domain.Game) { n.add("game_updated") }
func (n *recordingNotifier) GameEnded(*domain.Game)   { n.add("game_ended") }
