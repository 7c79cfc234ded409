package service

import (
	"context"
	"sync"
	"time"

	"pubgames_tictactoe/internal/logger"

	"github.com/jonboulle/clockwork"
)

// Sweeper runs one periodic maintenance function on its own ticker.
// Challenge expiry, rematch expiry and presence eviction each get their own
// sweeper so none of them can block move processing or each other.
type Sweeper struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
	clock    clockwork.Clock

	stop chan struct{}
	once sync.Once
}

func NewSweeper(name string, clock clockwork.Clock, interval time.Duration, fn func(ctx context.Context) error) *Sweeper {
	return &Sweeper{
		name:     name,
		interval: interval,
		fn:       fn,
		clock:    clock,
		stop:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go func() {
		ticker := s.clock.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := s.fn(ctx); err != nil {
					logger.Warn("sweep failed", "sweeper", s.name, "error", err)
				}
				cancel()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
}
