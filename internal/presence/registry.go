package presence

import (
	"sort"
	"sync"
	"time"

	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/logger"

	"github.com/jonboulle/clockwork"
)

// OfflineFunc is invoked once per evicted user so the lobby layer can push
// user_offline to everyone else. It must not block.
type OfflineFunc func(userID int64, userName string)

// Registry is the sole writer of presence records. A record is created on
// first heartbeat, refreshed on every heartbeat and evicted once it has
// missed two consecutive heartbeat intervals.
type Registry struct {
	mu      sync.RWMutex
	records map[int64]*domain.PresenceRecord

	clock     clockwork.Clock
	staleTTL  time.Duration
	onOffline OfflineFunc

	stop chan struct{}
	once sync.Once
}

func NewRegistry(clock clockwork.Clock, heartbeatInterval time.Duration) *Registry {
	return &Registry{
		records:  make(map[int64]*domain.PresenceRecord),
		clock:    clock,
		staleTTL: 2 * heartbeatInterval,
		stop:     make(chan struct{}),
	}
}

// SetOfflineFunc wires the lobby broadcast. Must be called before Start.
func (r *Registry) SetOfflineFunc(fn OfflineFunc) {
	r.onOffline = fn
}

// Heartbeat refreshes a user's record, creating it if needed. A missed
// heartbeat is never an error, it only risks eviction on the next sweep.
func (r *Registry) Heartbeat(userID int64, userName string, inGame bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[userID]
	if !ok {
		rec = &domain.PresenceRecord{UserID: userID, UserName: userName}
		r.records[userID] = rec
	}
	if userName != "" {
		rec.UserName = userName
	}
	rec.LastHeartbeatAt = r.clock.Now()
	rec.InGame = inGame
}

// MarkInGame flips the in-game flag without touching the heartbeat clock.
func (r *Registry) MarkInGame(userID int64, inGame bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[userID]; ok {
		rec.InGame = inGame
	}
}

// SetOffline removes a user immediately (logout path) and fires the
// offline notification.
func (r *Registry) SetOffline(userID int64) {
	r.mu.Lock()
	rec, ok := r.records[userID]
	if ok {
		delete(r.records, userID)
	}
	r.mu.Unlock()

	if ok && r.onOffline != nil {
		r.onOffline(rec.UserID, rec.UserName)
	}
}

// ListOnline returns everyone but the excluded user, name-sorted.
func (r *Registry) ListOnline(exclude int64) []domain.PresenceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.PresenceRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.UserID == exclude {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out
}

// Get returns a copy of one record.
func (r *Registry) Get(userID int64) (domain.PresenceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[userID]
	if !ok {
		return domain.PresenceRecord{}, false
	}
	return *rec, true
}

// Start runs the eviction sweep until Stop is called. Sweeps run on their
// own ticker and never block move processing.
func (r *Registry) Start(interval time.Duration) {
	go func() {
		ticker := r.clock.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				r.Sweep()
			case <-r.stop:
				return
			}
		}
	}()
}

func (r *Registry) Stop() {
	r.once.Do(func() { close(r.stop) })
}

// Sweep evicts records whose last heartbeat is older than 2x the heartbeat
// interval and notifies the lobby once per evicted user.
func (r *Registry) Sweep() {
	cutoff := r.clock.Now().Add(-r.staleTTL)

	r.mu.Lock()
	var evicted []domain.PresenceRecord
	for id, rec := range r.records {
		if rec.LastHeartbeatAt.Before(cutoff) {
			evicted = append(evicted, *rec)
			delete(r.records, id)
		}
	}
	r.mu.Unlock()

	for _, rec := range evicted {
		logger.Info("presence: evicted stale user", "user_id", rec.UserID)
		if r.onOffline != nil {
			r.onOffline(rec.UserID, rec.UserName)
		}
	}
}
