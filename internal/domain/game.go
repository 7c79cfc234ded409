package domain

import "time"

// GameMode - how moves are timed
type GameMode string

const (
	GameModeNormal GameMode = "normal" // no per-move time limit
	GameModeTimed  GameMode = "timed"  // move_time_limit seconds per move
)

// GameStatus - lifecycle of a game series
type GameStatus string

const (
	GameStatusActive    GameStatus = "active"
	GameStatusCompleted GameStatus = "completed"
	GameStatusAbandoned GameStatus = "abandoned" // server restart, never resumable
)

// ValidFirstTo are the accepted series win thresholds.
var ValidFirstTo = map[int]bool{1: true, 2: true, 3: true, 5: true, 10: true, 20: true}

// Game is one first-to-N series between two players. Player1 is always the
// challenger and plays X; player2 plays O.
type Game struct {
	ID            int64      `db:"id" json:"id"`
	Player1ID     int64      `db:"player1_id" json:"player1_id"`
	Player1Name   string     `db:"player1_name" json:"player1_name"`
	Player2ID     int64      `db:"player2_id" json:"player2_id"`
	Player2Name   string     `db:"player2_name" json:"player2_name"`
	Mode          GameMode   `db:"mode" json:"mode"`
	Status        GameStatus `db:"status" json:"status"`
	CurrentTurn   int        `db:"current_turn" json:"current_turn"` // 1 or 2
	WinnerID      *int64     `db:"winner_id" json:"winner_id,omitempty"`
	Board         Board      `db:"board" json:"board"`
	MoveTimeLimit int        `db:"move_time_limit" json:"move_time_limit"` // seconds, 0 = none
	FirstTo       int        `db:"first_to" json:"first_to"`
	Player1Score  int        `db:"player1_score" json:"player1_score"`
	Player2Score  int        `db:"player2_score" json:"player2_score"`
	CurrentRound  int        `db:"current_round" json:"current_round"`
	LastMoveAt    *time.Time `db:"last_move_at" json:"last_move_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// PlayerNumber returns 1 or 2 for a participant, 0 otherwise.
func (g *Game) PlayerNumber(userID int64) int {
	switch userID {
	case g.Player1ID:
		return 1
	case g.Player2ID:
		return 2
	default:
		return 0
	}
}

func (g *Game) OpponentOf(userID int64) int64 {
	if userID == g.Player1ID {
		return g.Player2ID
	}
	return g.Player1ID
}

// Move is one accepted cell placement, kept for history and audit.
type Move struct {
	ID        int64     `db:"id" json:"id"`
	GameID    int64     `db:"game_id" json:"game_id"`
	PlayerID  int64     `db:"player_id" json:"player_id"`
	Round     int       `db:"round" json:"round"`
	Position  int       `db:"position" json:"position"` // 0-8
	Symbol    string    `db:"symbol" json:"symbol"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MoveResult is what ApplyMove reports back to the caller. Broadcasts carry
// the full Game snapshot; the flags are for the synchronous response only.
type MoveResult struct {
	Accepted   bool  `json:"accepted"`
	RoundOver  bool  `json:"round_over"`
	SeriesOver bool  `json:"series_over"`
	IsDraw     bool  `json:"is_draw"`
	Game       *Game `json:"game"`
}
