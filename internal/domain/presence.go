package domain

import "time"

// PresenceRecord tracks one online user. Owned by the presence registry;
// services flip InGame through the registry, never directly.
type PresenceRecord struct {
	UserID          int64     `json:"user_id"`
	UserName        string    `json:"user_name"`
	LastHeartbeatAt time.Time `json:"last_seen_at"`
	InGame          bool      `json:"in_game"`
}

// User as reported by the identity service.
type User struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// PlayerStats - aggregated series results per player
type PlayerStats struct {
	UserID      int64   `db:"user_id" json:"user_id"`
	UserName    string  `db:"user_name" json:"user_name"`
	GamesPlayed int     `db:"games_played" json:"games_played"`
	GamesWon    int     `db:"games_won" json:"games_won"`
	GamesLost   int     `db:"games_lost" json:"games_lost"`
	GamesDraw   int     `db:"games_draw" json:"games_draw"`
	WinRate     float64 `db:"-" json:"win_rate"`
}
