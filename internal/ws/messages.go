package ws

import (
	"encoding/json"

	"pubgames_tictactoe/internal/domain"
)

// Message is the wire envelope in both directions.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Inbound is the read-side envelope: the payload stays raw until the type
// is known.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Message types.
const (
	// client -> server
	MsgPing         = "ping"
	MsgAck          = "ack"
	MsgReconnecting = "reconnecting"

	// server -> client, game scope
	MsgPong                 = "pong"
	MsgReady                = "ready"
	MsgMoveUpdate           = "move_update"
	MsgGameEnded            = "game_ended"
	MsgOpponentDisconnected = "opponent_disconnected"

	// server -> client, lobby scope
	MsgLobbyConnected    = "lobby_connected"
	MsgChallengeReceived = "challenge_received"
	MsgChallengeAccepted = "challenge_accepted"
	MsgChallengeDeclined = "challenge_declined"
	MsgUserOffline       = "user_offline"
)

// ChallengeResolvedPayload carries the terminal status of a challenge back
// to its requester. Expiry reuses the declined message type: both mean "no
// game happened", the status tells them apart.
type ChallengeResolvedPayload struct {
	ChallengeID int64              `json:"challenge_id"`
	Status      domain.OfferStatus `json:"status"`
}

type UserOfflinePayload struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
}

type DisconnectedPayload struct {
	UserID int64 `json:"user_id"`
}

func mustMarshal(m Message) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		// envelope payloads are our own structs; this cannot fail at runtime
		panic(err)
	}
	return data
}
