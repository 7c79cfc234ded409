package repository

import (
	"context"
	"errors"
	"time"

	"pubgames_tictactoe/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChallengeRepository struct {
	db *pgxpool.Pool
}

func NewChallengeRepository(db *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

const challengeColumns = `id, requester_id, requester_name, opponent_id, opponent_name,
	mode, move_time_limit, first_to, status, created_at`

func scanChallenge(row pgx.Row) (*domain.Challenge, error) {
	var c domain.Challenge
	err := row.Scan(
		&c.ID, &c.RequesterID, &c.RequesterName, &c.OpponentID, &c.OpponentName,
		&c.Mode, &c.MoveTimeLimit, &c.FirstTo, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO challenges (requester_id, requester_name, opponent_id, opponent_name,
		     mode, move_time_limit, first_to, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		c.RequesterID, c.RequesterName, c.OpponentID, c.OpponentName,
		c.Mode, c.MoveTimeLimit, c.FirstTo, c.Status,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *ChallengeRepository) GetByID(ctx context.Context, id int64) (*domain.Challenge, error) {
	return scanChallenge(r.db.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
}

// PendingByOpponent lists challenges waiting on this user, newest first.
func (r *ChallengeRepository) PendingByOpponent(ctx context.Context, opponentID int64) ([]*domain.Challenge, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE opponent_id = $1 AND status = 'pending'
		 ORDER BY created_at DESC`, opponentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// HasPendingInvolving reports whether any of the users is party to a
// pending challenge, as requester or opponent.
func (r *ChallengeRepository) HasPendingInvolving(ctx context.Context, userIDs ...int64) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM challenges
		 WHERE status = 'pending' AND (requester_id = ANY($1) OR opponent_id = ANY($1))`,
		userIDs,
	).Scan(&count)
	return count > 0, err
}

// Resolve flips a pending challenge to a terminal status. Returns
// ErrAlreadyResolved when the row has already left pending, so concurrent
// responders cannot double-resolve.
func (r *ChallengeRepository) Resolve(ctx context.Context, id int64, status domain.OfferStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE challenges SET status = $1 WHERE id = $2 AND status = 'pending'`,
		status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyResolved
	}
	return nil
}

// ExpireOlderThan expires every pending challenge created before the cutoff
// and returns the expired rows so the requesters get notified exactly once.
func (r *ChallengeRepository) ExpireOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Challenge, error) {
	rows, err := r.db.Query(ctx,
		`UPDATE challenges SET status = 'expired'
		 WHERE status = 'pending' AND created_at < $1
		 RETURNING `+challengeColumns, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// DeletePending clears all pending challenges; stale after a restart.
func (r *ChallengeRepository) DeletePending(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM challenges WHERE status = 'pending'`)
	return err
}
