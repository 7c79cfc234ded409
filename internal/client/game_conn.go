package client

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// Socket is the slice of a websocket connection the managed client needs.
// *websocket.Conn satisfies it; tests use scripted fakes.
type Socket interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// DialFunc opens a socket to url. The default wraps gorilla's dialer.
type DialFunc func(url string) (Socket, error)

func GorillaDial(url string) (Socket, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

const connectTimeout = 10 * time.Second

// GameConn manages one game-scoped connection: dial, handshake, reconnect
// policy, message dispatch. All external effects go through the callbacks.
type GameConn struct {
	url   string
	dial  DialFunc
	clock clockwork.Clock

	mu           sync.Mutex
	state        ConnState
	attempts     int
	wasConnected bool
	sock         Socket
	closed       bool
	retryTimer   clockwork.Timer
	watchdog     clockwork.Timer

	// OnState observes every transition. OnSnapshot fires with each
	// authoritative snapshot: the ready payload plus every move_update and
	// game_ended. OnMessage sees every post-handshake message.
	OnState    func(ConnState)
	OnSnapshot func(*domain.Game)
	OnMessage  func(ws.Inbound)
}

func NewGameConn(url string, dial DialFunc, clock clockwork.Clock) *GameConn {
	if dial == nil {
		dial = GorillaDial
	}
	return &GameConn{
		url:   url,
		dial:  dial,
		clock: clock,
		state: StateDisconnected,
	}
}

func (c *GameConn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// transition applies the event under the lock and reports the new state.
func (c *GameConn) transition(e ConnEvent) (ConnState, bool) {
	next, ok := Transition(c.state, e)
	if !ok {
		return c.state, false
	}
	c.state = next
	if c.OnState != nil {
		go c.OnState(next)
	}
	return next, true
}

// Connect starts the connection attempt. It returns immediately; progress
// is reported through the callbacks.
func (c *GameConn) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if _, ok := c.transition(EventDial); !ok {
		return
	}
	c.startAttemptLocked()
}

// startAttemptLocked arms the pre-connected watchdog and launches the dial
// goroutine. Caller holds mu.
func (c *GameConn) startAttemptLocked() {
	c.watchdog = c.clock.AfterFunc(connectTimeout, func() {
		c.mu.Lock()
		sock := c.sock
		stuck := c.state == StateConnecting || c.state == StateHandshaking
		c.mu.Unlock()
		if !stuck {
			return
		}
		log.Printf("client: stuck pre-connected for %s, aborting", connectTimeout)
		if sock != nil {
			_ = sock.Close()
		}
		c.failAttempt()
	})
	go c.attempt()
}

func (c *GameConn) attempt() {
	sock, err := c.dial(c.url)
	if err != nil {
		log.Printf("client: dial failed: %v", err)
		c.failAttempt()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = sock.Close()
		return
	}
	c.sock = sock
	reconnecting := c.wasConnected
	if _, ok := c.transition(EventSocketOpen); !ok {
		c.mu.Unlock()
		_ = sock.Close()
		return
	}
	c.mu.Unlock()

	game, err := clientHandshake(sock)
	if err != nil {
		log.Printf("client: handshake failed: %v", err)
		_ = sock.Close()
		c.failAttempt()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = sock.Close()
		return
	}
	if c.watchdog != nil {
		c.watchdog.Stop()
	}
	c.attempts = 0
	c.wasConnected = true
	c.transition(EventHandshakeDone)
	c.mu.Unlock()

	if reconnecting {
		// best-effort notice; the server only logs it
		_ = sock.WriteJSON(ws.Message{Type: ws.MsgReconnecting})
	}
	if c.OnSnapshot != nil {
		c.OnSnapshot(game)
	}

	c.readLoop(sock)
}

// clientHandshake runs ping -> pong -> ack -> ready and returns the ready
// snapshot. Any out-of-order message fails the attempt.
func clientHandshake(sock Socket) (*domain.Game, error) {
	if err := sock.WriteJSON(ws.Message{Type: ws.MsgPing}); err != nil {
		return nil, err
	}

	var msg ws.Inbound
	if err := sock.ReadJSON(&msg); err != nil {
		return nil, err
	}
	if msg.Type != ws.MsgPong {
		return nil, errors.New("handshake: expected pong, got " + msg.Type)
	}

	if err := sock.WriteJSON(ws.Message{Type: ws.MsgAck}); err != nil {
		return nil, err
	}

	if err := sock.ReadJSON(&msg); err != nil {
		return nil, err
	}
	if msg.Type != ws.MsgReady {
		return nil, errors.New("handshake: expected ready, got " + msg.Type)
	}

	var game domain.Game
	if err := json.Unmarshal(msg.Payload, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (c *GameConn) readLoop(sock Socket) {
	for {
		var msg ws.Inbound
		if err := sock.ReadJSON(&msg); err != nil {
			_ = sock.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.mu.Lock()
				if !c.closed {
					c.transition(EventCleanClose)
				}
				c.mu.Unlock()
				return
			}
			c.failAttempt()
			return
		}

		switch msg.Type {
		case ws.MsgMoveUpdate, ws.MsgGameEnded:
			if c.OnSnapshot != nil {
				var game domain.Game
				if err := json.Unmarshal(msg.Payload, &game); err == nil {
					c.OnSnapshot(&game)
				}
			}
		}
		if c.OnMessage != nil {
			c.OnMessage(msg)
		}
	}
}

// failAttempt records an unclean failure and either schedules the next
// retry or gives up.
func (c *GameConn) failAttempt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Terminal() {
		return
	}
	if c.watchdog != nil {
		c.watchdog.Stop()
	}

	if _, ok := c.transition(EventUncleanClose); !ok {
		return
	}

	c.attempts++
	if c.attempts > maxReconnectTries {
		c.transition(EventGiveUp)
		log.Printf("client: giving up after %d reconnect attempts", maxReconnectTries)
		return
	}

	delay := backoffDelay(c.attempts)
	log.Printf("client: reconnect attempt %d in %s", c.attempts, delay)
	c.retryTimer = c.clock.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		if _, ok := c.transition(EventRetry); !ok {
			return
		}
		c.startAttemptLocked()
	})
}

// Close tears the connection down. Safe to call any number of times;
// timers are cancelled before the socket drops so no retry fires after.
func (c *GameConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.retryTimer != nil {
		c.retryTimer.Stop()
	}
	if c.watchdog != nil {
		c.watchdog.Stop()
	}
	if c.sock != nil {
		_ = c.sock.Close()
	}
	c.transition(EventClose)
}
