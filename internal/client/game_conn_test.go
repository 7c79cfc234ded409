package client

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// fakeSocket is a scripted server endpoint: tests feed frames in and read
// the client's writes out.
type fakeSocket struct {
	fromServer chan []byte
	toServer   chan ws.Inbound

	mu      sync.Mutex
	readErr error
	closed  chan struct{}
	once    sync.Once
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		fromServer: make(chan []byte, 16),
		toServer:   make(chan ws.Inbound, 16),
		closed:     make(chan struct{}),
	}
}

func (s *fakeSocket) ReadJSON(v any) error {
	select {
	case data := <-s.fromServer:
		return json.Unmarshal(data, v)
	case <-s.closed:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.readErr != nil {
			return s.readErr
		}
		return errors.New("socket closed")
	}
}

func (s *fakeSocket) WriteJSON(v any) error {
	select {
	case <-s.closed:
		return errors.New("socket closed")
	default:
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var msg ws.Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	s.toServer <- msg
	return nil
}

func (s *fakeSocket) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// closeWith makes the next read fail with err, simulating the given close
// frame or transport error.
func (s *fakeSocket) closeWith(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
	s.once.Do(func() { close(s.closed) })
}

func (s *fakeSocket) send(t *testing.T, msg ws.Message) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s.fromServer <- data
}

// expect reads the client's next write and checks the type.
func (s *fakeSocket) expect(t *testing.T, msgType string) ws.Inbound {
	t.Helper()
	select {
	case msg := <-s.toServer:
		if msg.Type != msgType {
			t.Errorf("client sent %q; want %q", msg.Type, msgType)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("client never sent %q", msgType)
		return ws.Inbound{}
	}
}

// serveHandshake plays the server's half and delivers the snapshot.
func (s *fakeSocket) serveHandshake(t *testing.T, game *domain.Game) {
	s.expect(t, ws.MsgPing)
	s.send(t, ws.Message{Type: ws.MsgPong})
	s.expect(t, ws.MsgAck)
	s.send(t, ws.Message{Type: ws.MsgReady, Payload: game})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// scriptedDialer hands out sockets one attempt at a time.
type scriptedDialer struct {
	mu    sync.Mutex
	socks []*fakeSocket
	fail  bool
	count int
}

func (d *scriptedDialer) dial(string) (Socket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	if d.fail || d.count > len(d.socks) {
		return nil, errors.New("connection refused")
	}
	return d.socks[d.count-1], nil
}

func (d *scriptedDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func TestConnectDeliversReadySnapshot(t *testing.T) {
	sock := newFakeSocket()
	dialer := &scriptedDialer{socks: []*fakeSocket{sock}}
	clock := clockwork.NewFakeClock()

	conn := NewGameConn("ws://test", dialer.dial, clock)
	snapshots := make(chan *domain.Game, 1)
	conn.OnSnapshot = func(g *domain.Game) { snapshots <- g }
	defer conn.Close()

	conn.Connect()
	go sock.serveHandshake(t, &domain.Game{ID: 7, Player1ID: 1, Player2ID: 2})

	select {
	case g := <-snapshots:
		if g.ID != 7 {
			t.Fatalf("snapshot game id = %d; want 7", g.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("ready snapshot never delivered")
	}
	waitFor(t, "connected", func() bool { return conn.State() == StateConnected })
}

func TestHandshakeOrderEnforced(t *testing.T) {
	sock := newFakeSocket()
	dialer := &scriptedDialer{socks: []*fakeSocket{sock}}
	clock := clockwork.NewFakeClock()

	conn := NewGameConn("ws://test", dialer.dial, clock)
	snapshots := make(chan *domain.Game, 1)
	conn.OnSnapshot = func(g *domain.Game) { snapshots <- g }
	defer conn.Close()

	conn.Connect()

	// server skips pong and answers the ping with ready
	sock.expect(t, ws.MsgPing)
	sock.send(t, ws.Message{Type: ws.MsgReady, Payload: &domain.Game{ID: 7}})

	waitFor(t, "reconnecting", func() bool { return conn.State() == StateReconnecting })
	select {
	case <-snapshots:
		t.Fatalf("out-of-order handshake still delivered a snapshot")
	default:
	}
}

func TestBackoffScheduleThenError(t *testing.T) {
	dialer := &scriptedDialer{fail: true}
	clock := clockwork.NewFakeClock()

	conn := NewGameConn("ws://test", dialer.dial, clock)
	defer conn.Close()

	conn.Connect()
	waitFor(t, "first failure", func() bool {
		return dialer.dials() == 1 && conn.State() == StateReconnecting
	})

	// 2s, 4s, 8s; the fourth failure is terminal
	clock.Advance(2 * time.Second)
	waitFor(t, "second attempt", func() bool {
		return dialer.dials() == 2 && conn.State() == StateReconnecting
	})

	clock.Advance(4 * time.Second)
	waitFor(t, "third attempt", func() bool {
		return dialer.dials() == 3 && conn.State() == StateReconnecting
	})

	clock.Advance(8 * time.Second)
	waitFor(t, "terminal error", func() bool {
		return dialer.dials() == 4 && conn.State() == StateError
	})

	// dead is dead: no further dials however long we wait
	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	if dialer.dials() != 4 {
		t.Fatalf("dials after terminal error: %d; want 4", dialer.dials())
	}
}

func TestCleanCloseDoesNotReconnect(t *testing.T) {
	sock := newFakeSocket()
	dialer := &scriptedDialer{socks: []*fakeSocket{sock}}
	clock := clockwork.NewFakeClock()

	conn := NewGameConn("ws://test", dialer.dial, clock)
	defer conn.Close()

	conn.Connect()
	go sock.serveHandshake(t, &domain.Game{ID: 7})
	waitFor(t, "connected", func() bool { return conn.State() == StateConnected })

	sock.closeWith(&websocket.CloseError{Code: websocket.CloseNormalClosure})
	waitFor(t, "disconnected", func() bool { return conn.State() == StateDisconnected })

	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	if dialer.dials() != 1 {
		t.Fatalf("clean close triggered a reconnect: %d dials", dialer.dials())
	}
}

func TestUncleanCloseReconnectsAndResetsBudget(t *testing.T) {
	first := newFakeSocket()
	second := newFakeSocket()
	dialer := &scriptedDialer{socks: []*fakeSocket{first, second}}
	clock := clockwork.NewFakeClock()

	conn := NewGameConn("ws://test", dialer.dial, clock)
	defer conn.Close()

	conn.Connect()
	go first.serveHandshake(t, &domain.Game{ID: 7})
	waitFor(t, "connected", func() bool { return conn.State() == StateConnected })

	first.closeWith(errors.New("connection reset"))
	waitFor(t, "reconnecting", func() bool { return conn.State() == StateReconnecting })

	clock.Advance(2 * time.Second)
	go func() {
		second.serveHandshake(t, &domain.Game{ID: 7})
		// a reconnect announces itself after the handshake
		second.expect(t, ws.MsgReconnecting)
	}()
	waitFor(t, "reconnected", func() bool {
		return dialer.dials() == 2 && conn.State() == StateConnected
	})

	// a successful handshake restores the full retry budget
	second.closeWith(errors.New("connection reset"))
	waitFor(t, "reconnecting again", func() bool { return conn.State() == StateReconnecting })
	clock.Advance(2 * time.Second)
	waitFor(t, "third dial at base delay", func() bool { return dialer.dials() == 3 })
}

func TestStuckPreConnectedTimesOut(t *testing.T) {
	block := make(chan struct{})
	dial := func(string) (Socket, error) {
		<-block
		return nil, errors.New("late")
	}
	defer close(block)

	clock := clockwork.NewFakeClock()
	conn := NewGameConn("ws://test", dial, clock)
	defer conn.Close()

	conn.Connect()
	waitFor(t, "connecting", func() bool { return conn.State() == StateConnecting })

	clock.Advance(connectTimeout)
	waitFor(t, "watchdog fired", func() bool { return conn.State() == StateReconnecting })
}

func TestCloseIsIdempotent(t *testing.T) {
	dialer := &scriptedDialer{fail: true}
	clock := clockwork.NewFakeClock()

	conn := NewGameConn("ws://test", dialer.dial, clock)
	conn.Connect()
	waitFor(t, "reconnecting", func() bool { return conn.State() == StateReconnecting })

	conn.Close()
	conn.Close()
	if conn.State() != StateDisconnected {
		t.Fatalf("state after Close = %s", conn.State())
	}

	// the pending retry timer was cancelled
	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	if dialer.dials() != 1 {
		t.Fatalf("retry fired after Close: %d dials", dialer.dials())
	}
}
