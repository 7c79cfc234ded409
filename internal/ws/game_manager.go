package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"pubgames_tictactoe/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = 30 * time.Second
	handshakeStepWait = 5 * time.Second
)

// Snapshot is the read side of the game authority the connection layer
// needs: the ready payload and membership checks.
type Snapshot interface {
	Get(ctx context.Context, gameID int64) (*domain.Game, error)
	IsParticipant(ctx context.Context, gameID, userID int64) (bool, error)
}

// GameManager tracks one connection per (game, user) and fans broadcasts
// out to exactly the two participants. Broadcasts are a latency
// optimization: a missing connection is skipped, never queued for
// redelivery, because the client's polling fallback is the correctness net.
type GameManager struct {
	mu    sync.RWMutex
	conns map[int64]map[int64]*gameConn // gameID -> userID -> conn

	snapshot Snapshot
}

func NewGameManager(snapshot Snapshot) *GameManager {
	return &GameManager{
		conns:    make(map[int64]map[int64]*gameConn),
		snapshot: snapshot,
	}
}

type gameConn struct {
	id     string
	gameID int64
	userID int64
	conn   *websocket.Conn
	send   chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func (c *gameConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// queue is a non-blocking send; a slow consumer loses the message and
// recovers via polling.
func (c *gameConn) queue(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("ws: send buffer full, dropping message for user=%d game=%d", c.userID, c.gameID)
	}
}

// Has reports whether the user already holds a connection for this game
// (one tab per game).
func (m *GameManager) Has(gameID, userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.conns[gameID][userID]
	return ok
}

// Serve runs one game-scoped connection to completion: handshake, then the
// read loop. It blocks until the connection dies.
func (m *GameManager) Serve(conn *websocket.Conn, gameID, userID int64) {
	gc := &gameConn{
		id:     uuid.NewString(),
		gameID: gameID,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
		done:   make(chan struct{}),
	}

	// Handshake first: the connection is not usable, and not registered
	// for broadcasts, until ready has been sent.
	if !m.handshake(gc) {
		HandshakeFailures.Inc()
		gc.close()
		return
	}

	m.register(gc)
	GameConns.Inc()
	defer func() {
		m.unregister(gc)
		GameConns.Dec()
		gc.close()
		m.notifyOpponentDisconnected(gameID, userID)
	}()

	log.Printf("ws: game connection ready user=%d game=%d conn=%s", userID, gameID, gc.id)

	go gc.writePump()
	gc.readPump()
}

// handshake runs the server half of ping -> pong -> ack -> ready. Any
// unexpected or late message aborts the attempt.
func (m *GameManager) handshake(gc *gameConn) bool {
	var msg Message

	_ = gc.conn.SetReadDeadline(time.Now().Add(handshakeStepWait))
	if err := gc.conn.ReadJSON(&msg); err != nil {
		log.Printf("ws handshake: read ping failed user=%d: %v", gc.userID, err)
		return false
	}
	if msg.Type != MsgPing {
		log.Printf("ws handshake: expected ping, got %q user=%d", msg.Type, gc.userID)
		return false
	}

	_ = gc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := gc.conn.WriteJSON(Message{Type: MsgPong}); err != nil {
		return false
	}

	_ = gc.conn.SetReadDeadline(time.Now().Add(handshakeStepWait))
	if err := gc.conn.ReadJSON(&msg); err != nil {
		log.Printf("ws handshake: read ack failed user=%d: %v", gc.userID, err)
		return false
	}
	if msg.Type != MsgAck {
		log.Printf("ws handshake: expected ack, got %q user=%d", msg.Type, gc.userID)
		return false
	}

	// ready carries the authoritative snapshot so the client reconciles
	// against current state, not against whatever it last saw
	game, err := m.snapshot.Get(context.Background(), gc.gameID)
	if err != nil {
		log.Printf("ws handshake: snapshot failed game=%d: %v", gc.gameID, err)
		return false
	}

	_ = gc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := gc.conn.WriteJSON(Message{Type: MsgReady, Payload: game}); err != nil {
		return false
	}

	_ = gc.conn.SetReadDeadline(time.Time{})
	return true
}

func (gc *gameConn) readPump() {
	gc.conn.SetReadLimit(4096)
	_ = gc.conn.SetReadDeadline(time.Now().Add(pongWait))
	gc.conn.SetPongHandler(func(string) error {
		return gc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := gc.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws: read error user=%d game=%d: %v", gc.userID, gc.gameID, err)
			}
			return
		}

		// the only post-handshake client message is the best-effort
		// reconnecting notice
		if msg.Type == MsgReconnecting {
			log.Printf("ws: user=%d reconnecting to game=%d", gc.userID, gc.gameID)
		}
	}
}

func (gc *gameConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		gc.close()
	}()

	for {
		select {
		case data := <-gc.send:
			_ = gc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := gc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = gc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := gc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gc.done:
			return
		}
	}
}

func (m *GameManager) register(gc *gameConn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conns[gc.gameID] == nil {
		m.conns[gc.gameID] = make(map[int64]*gameConn)
	}
	m.conns[gc.gameID][gc.userID] = gc
}

func (m *GameManager) unregister(gc *gameConn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// a reconnect may already have replaced us
	if cur, ok := m.conns[gc.gameID][gc.userID]; ok && cur.id == gc.id {
		delete(m.conns[gc.gameID], gc.userID)
		if len(m.conns[gc.gameID]) == 0 {
			delete(m.conns, gc.gameID)
		}
	}
}

// GameUpdated pushes the full snapshot to both participants.
func (m *GameManager) GameUpdated(g *domain.Game) {
	m.broadcast(g.ID, Message{Type: MsgMoveUpdate, Payload: g})
}

// GameEnded pushes the terminal snapshot to both participants.
func (m *GameManager) GameEnded(g *domain.Game) {
	m.broadcast(g.ID, Message{Type: MsgGameEnded, Payload: g})
}

func (m *GameManager) broadcast(gameID int64, msg Message) {
	data := mustMarshal(msg)
	Broadcasts.WithLabelValues(msg.Type).Inc()

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, gc := range m.conns[gameID] {
		gc.queue(data)
	}
}

func (m *GameManager) notifyOpponentDisconnected(gameID, leftUserID int64) {
	data := mustMarshal(Message{
		Type:    MsgOpponentDisconnected,
		Payload: DisconnectedPayload{UserID: leftUserID},
	})

	m.mu.RLock()
	defer m.mu.RUnlock()

	for userID, gc := range m.conns[gameID] {
		if userID != leftUserID {
			gc.queue(data)
		}
	}
}
