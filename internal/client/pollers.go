package client

import (
	"context"
	"log"
	"sync"
	"time"

	"pubgames_tictactoe/internal/domain"

	"github.com/jonboulle/clockwork"
)

const (
	heartbeatEvery     = 30 * time.Second
	challengePollEvery = 2 * time.Second
	challengePollFor   = 30 * time.Second
	gamePollEvery      = 10 * time.Second
)

// poller runs fn on a fixed cadence until stopped. Failures are logged and
// skipped; the next tick tries again.
type poller struct {
	name     string
	interval time.Duration
	clock    clockwork.Clock
	fn       func(ctx context.Context) error

	stop chan struct{}
	once sync.Once
}

func newPoller(name string, clock clockwork.Clock, interval time.Duration, fn func(ctx context.Context) error) *poller {
	return &poller{
		name:     name,
		interval: interval,
		clock:    clock,
		fn:       fn,
		stop:     make(chan struct{}),
	}
}

func (p *poller) Start() {
	go func() {
		ticker := p.clock.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := p.fn(ctx); err != nil {
					log.Printf("%s poll failed: %v", p.name, err)
				}
				cancel()
			case <-p.stop:
				return
			}
		}
	}()
}

func (p *poller) Stop() {
	p.once.Do(func() { close(p.stop) })
}

// StartHeartbeat keeps the presence record fresh for as long as the client
// runs. inGame is sampled each tick.
func StartHeartbeat(api *APIClient, clock clockwork.Clock, inGame func() bool) *poller {
	p := newPoller("heartbeat", clock, heartbeatEvery, func(ctx context.Context) error {
		return api.Heartbeat(ctx, inGame())
	})
	p.Start()
	return p
}

// AwaitChallengeOutcome polls active-game after sending a challenge: a fast
// cadence bounded by the challenge window itself. onGame fires at most once
// when the opponent accepts; after the window closes without a game the
// poller stops on its own (the offer has expired server-side too).
func AwaitChallengeOutcome(api *APIClient, clock clockwork.Clock, onGame func(*domain.Game)) *poller {
	deadline := clock.Now().Add(challengePollFor)
	var p *poller
	p = newPoller("challenge", clock, challengePollEvery, func(ctx context.Context) error {
		if clock.Now().After(deadline) {
			p.Stop()
			return nil
		}
		game, err := api.ActiveGame(ctx)
		if err != nil {
			return err
		}
		if game != nil {
			p.Stop()
			onGame(game)
		}
		return nil
	})
	p.Start()
	return p
}

// StartGamePoll is the in-game fallback for a dead websocket: refresh the
// snapshot on a slow cadence, but only while waiting on the opponent.
// While it is our turn the next change comes from us, synchronously.
func StartGamePoll(api *APIClient, clock clockwork.Clock, gameID int64, waiting func() bool, onGame func(*domain.Game)) *poller {
	p := newPoller("game", clock, gamePollEvery, func(ctx context.Context) error {
		if !waiting() {
			return nil
		}
		game, err := api.Game(ctx, gameID)
		if err != nil {
			return err
		}
		if game != nil {
			onGame(game)
		}
		return nil
	})
	p.Start()
	return p
}
