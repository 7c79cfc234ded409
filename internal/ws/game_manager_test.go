package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"pubgames_tictactoe/internal/domain"

	"github.com/gorilla/websocket"
)

type stubSnapshot struct {
	game *domain.Game
}

func (s *stubSnapshot) Get(_ context.Context, _ int64) (*domain.Game, error) {
	return s.game, nil
}

func (s *stubSnapshot) IsParticipant(_ context.Context, _, userID int64) (bool, error) {
	return userID == s.game.Player1ID || userID == s.game.Player2ID, nil
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// newGameServer serves game 1; the user id comes from the query string.
func newGameServer(t *testing.T, m *GameManager) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		go m.Serve(conn, 1, userID)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialGame(t *testing.T, srv *httptest.Server, userID int64) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=" + strconv.FormatInt(userID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readInbound(t *testing.T, conn *websocket.Conn) Inbound {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Inbound
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

// clientHandshake plays the client half and returns the ready snapshot.
func clientHandshake(t *testing.T, conn *websocket.Conn) *domain.Game {
	t.Helper()
	if err := conn.WriteJSON(Message{Type: MsgPing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if msg := readInbound(t, conn); msg.Type != MsgPong {
		t.Fatalf("expected pong, got %q", msg.Type)
	}
	if err := conn.WriteJSON(Message{Type: MsgAck}); err != nil {
		t.Fatalf("write ack: %v", err)
	}
	msg := readInbound(t, conn)
	if msg.Type != MsgReady {
		t.Fatalf("expected ready, got %q", msg.Type)
	}
	var game domain.Game
	if err := json.Unmarshal(msg.Payload, &game); err != nil {
		t.Fatalf("ready payload: %v", err)
	}
	return &game
}

func waitRegistered(t *testing.T, m *GameManager, gameID, userID int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Has(gameID, userID) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("user %d never registered for game %d", userID, gameID)
}

func activeSnapshot() *domain.Game {
	return &domain.Game{
		ID:          1,
		Player1ID:   1,
		Player1Name: "alice",
		Player2ID:   2,
		Player2Name: "bob",
		Mode:        domain.GameModeNormal,
		Status:      domain.GameStatusActive,
		CurrentTurn: 1,
		FirstTo:     3,
	}
}

func TestHandshakeDeliversCurrentSnapshot(t *testing.T) {
	snap := activeSnapshot()
	snap.CurrentTurn = 2
	snap.Board[4] = "X"

	m := NewGameManager(&stubSnapshot{game: snap})
	srv := newGameServer(t, m)

	conn := dialGame(t, srv, 1)
	game := clientHandshake(t, conn)

	if game.ID != 1 || game.CurrentTurn != 2 || game.Board[4] != "X" {
		t.Fatalf("ready snapshot = %+v; want current authority state", game)
	}
	waitRegistered(t, m, 1, 1)
}

func TestHandshakeRejectsOutOfOrderClient(t *testing.T) {
	m := NewGameManager(&stubSnapshot{game: activeSnapshot()})
	srv := newGameServer(t, m)

	conn := dialGame(t, srv, 1)

	// ack before ping violates the sequence
	if err := conn.WriteJSON(Message{Type: MsgAck}); err != nil {
		t.Fatalf("write ack: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Inbound
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("server answered an out-of-order handshake with %q", msg.Type)
	}
	if m.Has(1, 1) {
		t.Fatalf("failed handshake still registered the connection")
	}
}

func TestMoveUpdateReachesBothPlayers(t *testing.T) {
	m := NewGameManager(&stubSnapshot{game: activeSnapshot()})
	srv := newGameServer(t, m)

	c1 := dialGame(t, srv, 1)
	clientHandshake(t, c1)
	c2 := dialGame(t, srv, 2)
	clientHandshake(t, c2)
	waitRegistered(t, m, 1, 1)
	waitRegistered(t, m, 1, 2)

	updated := activeSnapshot()
	updated.Board[0] = "X"
	updated.CurrentTurn = 2
	m.GameUpdated(updated)

	for _, conn := range []*websocket.Conn{c1, c2} {
		msg := readInbound(t, conn)
		if msg.Type != MsgMoveUpdate {
			t.Fatalf("expected move_update, got %q", msg.Type)
		}
		var game domain.Game
		if err := json.Unmarshal(msg.Payload, &game); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if game.Board[0] != "X" || game.CurrentTurn != 2 {
			t.Fatalf("broadcast snapshot = %+v; want the applied move", game)
		}
	}
}

func TestOpponentDisconnectedNotice(t *testing.T) {
	m := NewGameManager(&stubSnapshot{game: activeSnapshot()})
	srv := newGameServer(t, m)

	c1 := dialGame(t, srv, 1)
	clientHandshake(t, c1)
	c2 := dialGame(t, srv, 2)
	clientHandshake(t, c2)
	waitRegistered(t, m, 1, 1)
	waitRegistered(t, m, 1, 2)

	c1.Close()

	msg := readInbound(t, c2)
	if msg.Type != MsgOpponentDisconnected {
		t.Fatalf("expected opponent_disconnected, got %q", msg.Type)
	}
	var payload DisconnectedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.UserID != 1 {
		t.Fatalf("disconnected user = %d; want 1", payload.UserID)
	}
}

func TestHasReportsLiveConnections(t *testing.T) {
	m := NewGameManager(&stubSnapshot{game: activeSnapshot()})
	srv := newGameServer(t, m)

	if m.Has(1, 1) {
		t.Fatalf("Has reported a connection before any dial")
	}

	conn := dialGame(t, srv, 1)
	clientHandshake(t, conn)
	waitRegistered(t, m, 1, 1)

	if m.Has(1, 2) {
		t.Fatalf("Has reported the opponent who never connected")
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && m.Has(1, 1) {
		time.Sleep(time.Millisecond)
	}
	if m.Has(1, 1) {
		t.Fatalf("connection still registered after close")
	}
}
