package domain

import "time"

// OfferStatus is shared by challenges and rematch requests: both are timed
// offers that are terminal once they leave pending.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
	OfferExpired  OfferStatus = "expired"
)

func (s OfferStatus) Terminal() bool {
	return s != OfferPending
}

// Challenge is an invitation from requester to opponent. At most one pending
// challenge may exist per (requester, opponent) pair.
type Challenge struct {
	ID            int64       `db:"id" json:"id"`
	RequesterID   int64       `db:"requester_id" json:"requester_id"`
	RequesterName string      `db:"requester_name" json:"requester_name"`
	OpponentID    int64       `db:"opponent_id" json:"opponent_id"`
	OpponentName  string      `db:"opponent_name" json:"opponent_name"`
	Mode          GameMode    `db:"mode" json:"mode"`
	MoveTimeLimit int         `db:"move_time_limit" json:"move_time_limit"`
	FirstTo       int         `db:"first_to" json:"first_to"`
	Status        OfferStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// RematchRequest offers to replay a completed game with the same settings.
// ExpiresAt is creation time plus the fixed offer window (20s waiting phase
// followed by a 60s visible countdown).
type RematchRequest struct {
	ID          int64       `db:"id" json:"id"`
	GameID      int64       `db:"game_id" json:"game_id"`
	RequesterID int64       `db:"requester_id" json:"requester_id"`
	OpponentID  int64       `db:"opponent_id" json:"opponent_id"`
	Status      OfferStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	ExpiresAt   time.Time   `db:"expires_at" json:"expires_at"`
}
