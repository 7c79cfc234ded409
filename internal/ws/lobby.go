package ws

import (
	"log"
	"sync"
	"time"

	"pubgames_tictactoe/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// LobbyManager tracks one short-lived lobby connection per user. Lobby
// sockets exist only to push challenge events while the user sits on the
// lobby screen, so each one is force-closed after a fixed ceiling and the
// client falls back to polling.
type LobbyManager struct {
	mu    sync.Mutex
	conns map[int64]*lobbyConn // userID -> conn

	clock   clockwork.Clock
	connTTL time.Duration
}

func NewLobbyManager(clock clockwork.Clock, connTTL time.Duration) *LobbyManager {
	return &LobbyManager{
		conns:   make(map[int64]*lobbyConn),
		clock:   clock,
		connTTL: connTTL,
	}
}

type lobbyConn struct {
	id     string
	userID int64
	conn   *websocket.Conn
	send   chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func (c *lobbyConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *lobbyConn) queue(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("ws lobby: send buffer full, dropping message for user=%d", c.userID)
	}
}

// Serve runs one lobby connection until it dies or the ceiling fires.
// A second connection from the same user replaces the first.
func (m *LobbyManager) Serve(conn *websocket.Conn, userID int64) {
	lc := &lobbyConn{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	if prev, ok := m.conns[userID]; ok {
		prev.close()
	}
	m.conns[userID] = lc
	m.mu.Unlock()

	LobbyConns.Inc()
	defer func() {
		m.mu.Lock()
		if cur, ok := m.conns[userID]; ok && cur.id == lc.id {
			delete(m.conns, userID)
		}
		m.mu.Unlock()
		LobbyConns.Dec()
		lc.close()
	}()

	// hard ceiling: the server, not the client, decides when a lobby
	// socket has lived long enough
	ceiling := m.clock.AfterFunc(m.connTTL, func() {
		log.Printf("ws lobby: ceiling reached, closing user=%d", userID)
		lc.close()
	})
	defer ceiling.Stop()

	lc.queue(mustMarshal(Message{Type: MsgLobbyConnected}))

	go lc.writePump()
	lc.readPump()
}

func (lc *lobbyConn) readPump() {
	lc.conn.SetReadLimit(1024)
	_ = lc.conn.SetReadDeadline(time.Now().Add(pongWait))
	lc.conn.SetPongHandler(func(string) error {
		return lc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// lobby clients do not send application messages; just drain
		// until close
		if _, _, err := lc.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (lc *lobbyConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		lc.close()
	}()

	for {
		select {
		case data := <-lc.send:
			_ = lc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := lc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = lc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := lc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-lc.done:
			return
		}
	}
}

func (m *LobbyManager) sendTo(userID int64, msg Message) {
	data := mustMarshal(msg)
	Broadcasts.WithLabelValues(msg.Type).Inc()

	m.mu.Lock()
	lc, ok := m.conns[userID]
	m.mu.Unlock()
	if ok {
		lc.queue(data)
	}
}

// ChallengeReceived notifies the challenged user.
func (m *LobbyManager) ChallengeReceived(opponentID int64, ch *domain.Challenge) {
	m.sendTo(opponentID, Message{Type: MsgChallengeReceived, Payload: ch})
}

// ChallengeAccepted tells both sides which game to join. The opponent is
// usually navigating already, but a second tab may still sit in the lobby.
func (m *LobbyManager) ChallengeAccepted(requesterID, opponentID int64, g *domain.Game) {
	msg := Message{Type: MsgChallengeAccepted, Payload: g}
	m.sendTo(requesterID, msg)
	m.sendTo(opponentID, msg)
}

// ChallengeResolved reports a decline or expiry back to the challenger.
func (m *LobbyManager) ChallengeResolved(requesterID, challengeID int64, status domain.OfferStatus) {
	m.sendTo(requesterID, Message{
		Type:    MsgChallengeDeclined,
		Payload: ChallengeResolvedPayload{ChallengeID: challengeID, Status: status},
	})
}

// BroadcastUserOffline tells everyone still in the lobby that a user
// dropped off the presence list.
func (m *LobbyManager) BroadcastUserOffline(userID int64, userName string) {
	data := mustMarshal(Message{
		Type:    MsgUserOffline,
		Payload: UserOfflinePayload{UserID: userID, UserName: userName},
	})
	Broadcasts.WithLabelValues(MsgUserOffline).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, lc := range m.conns {
		if id != userID {
			lc.queue(data)
		}
	}
}
