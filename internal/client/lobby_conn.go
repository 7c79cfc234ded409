package client

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"pubgames_tictactoe/internal/domain"
	"pubgames_tictactoe/internal/ws"

	"github.com/jonboulle/clockwork"
)

const lobbyCeiling = 30 * time.Second

// LobbyConn is the short-lived lobby socket, opened only while a challenge
// is in flight. It never reconnects: when it drops, for any reason, the
// challenge pollers carry on alone.
type LobbyConn struct {
	sock  Socket
	clock clockwork.Clock

	closeOnce sync.Once
	ceiling   clockwork.Timer

	OnChallengeReceived func(*domain.Challenge)
	OnChallengeAccepted func(*domain.Game)
	OnChallengeDeclined func(ws.ChallengeResolvedPayload)
	OnUserOffline       func(ws.UserOfflinePayload)
	OnClosed            func()
}

// OpenLobby dials and waits for the server's lobby_connected greeting.
// There is no application handshake beyond that.
func OpenLobby(url string, dial DialFunc, clock clockwork.Clock) (*LobbyConn, error) {
	if dial == nil {
		dial = GorillaDial
	}
	sock, err := dial(url)
	if err != nil {
		return nil, err
	}

	lc := &LobbyConn{sock: sock, clock: clock}
	return lc, nil
}

// Run reads until the socket drops or the local ceiling fires. The server
// enforces its own ceiling too; whichever side fires first wins.
func (lc *LobbyConn) Run() {
	lc.ceiling = lc.clock.AfterFunc(lobbyCeiling, func() {
		log.Printf("lobby: ceiling reached, closing")
		lc.Close()
	})

	for {
		var msg ws.Inbound
		if err := lc.sock.ReadJSON(&msg); err != nil {
			lc.Close()
			return
		}

		switch msg.Type {
		case ws.MsgLobbyConnected:
			// greeting, nothing to do
		case ws.MsgChallengeReceived:
			if lc.OnChallengeReceived != nil {
				var ch domain.Challenge
				if err := json.Unmarshal(msg.Payload, &ch); err == nil {
					lc.OnChallengeReceived(&ch)
				}
			}
		case ws.MsgChallengeAccepted:
			if lc.OnChallengeAccepted != nil {
				var game domain.Game
				if err := json.Unmarshal(msg.Payload, &game); err == nil {
					lc.OnChallengeAccepted(&game)
				}
			}
		case ws.MsgChallengeDeclined:
			if lc.OnChallengeDeclined != nil {
				var p ws.ChallengeResolvedPayload
				if err := json.Unmarshal(msg.Payload, &p); err == nil {
					lc.OnChallengeDeclined(p)
				}
			}
		case ws.MsgUserOffline:
			if lc.OnUserOffline != nil {
				var p ws.UserOfflinePayload
				if err := json.Unmarshal(msg.Payload, &p); err == nil {
					lc.OnUserOffline(p)
				}
			}
		default:
			log.Printf("lobby: ignoring message type %q", msg.Type)
		}
	}
}

// Close is idempotent.
func (lc *LobbyConn) Close() {
	lc.closeOnce.Do(func() {
		if lc.ceiling != nil {
			lc.ceiling.Stop()
		}
		_ = lc.sock.Close()
		if lc.OnClosed != nil {
			lc.OnClosed()
		}
	})
}
