package client

import (
	"testing"
	"time"

	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/ws"

	"github.com/jonboulle/clockwork"
)

func openTestLobby(t *testing.T, clock clockwork.Clock) (*LobbyConn, *fakeSocket, chan struct{}) {
	t.Helper()
	sock := newFakeSocket()
	lc, err := OpenLobby("ws://lobby", func(string) (Socket, error) { return sock, nil }, clock)
	if err != nil {
		t.Fatalf("OpenLobby: %v", err)
	}
	closed := make(chan struct{})
	lc.OnClosed = func() { close(closed) }
	return lc, sock, closed
}

func TestLobbyClientCeilingClosesIdleConnection(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lc, sock, closed := openTestLobby(t, clock)

	go lc.Run()
	clock.BlockUntil(1)

	// no traffic at all, not even the greeting
	clock.Advance(lobbyCeiling)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("ceiling never closed the connection")
	}
	select {
	case <-sock.closed:
	default:
		t.Fatalf("socket left open after ceiling")
	}
}

func TestLobbyCeilingNotResetByTraffic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lc, sock, closed := openTestLobby(t, clock)

	accepted := make(chan *domain.Game, 1)
	lc.OnChallengeAccepted = func(g *domain.Game) { accepted <- g }

	go lc.Run()
	clock.BlockUntil(1)

	sock.send(t, ws.Message{Type: ws.MsgLobbyConnected})
	clock.Advance(lobbyCeiling / 2)
	sock.send(t, ws.Message{Type: ws.MsgChallengeAccepted, Payload: &domain.Game{ID: 5}})

	select {
	case g := <-accepted:
		if g.ID != 5 {
			t.Fatalf("accepted game id = %d; want 5", g.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("challenge_accepted never dispatched")
	}

	// the ceiling counts from open, traffic does not extend it
	clock.Advance(lobbyCeiling / 2)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("ceiling did not fire at the 30s mark")
	}
}

func TestLobbyCloseStopsCeiling(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lc, _, closed := openTestLobby(t, clock)

	go lc.Run()
	clock.BlockUntil(1)

	lc.Close()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("Close never fired OnClosed")
	}

	// a second Close and a late ceiling are both no-ops
	lc.Close()
	clock.Advance(time.Minute)
}
