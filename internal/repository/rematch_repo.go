package repository

import (
	"context"
	"errors"
	"time"

	"pubgames_tictactoe/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RematchRepository struct {
	db *pgxpool.Pool
}

func NewRematchRepository(db *pgxpool.Pool) *RematchRepository {
	return &RematchRepository{db: db}
}

const rematchColumns = `id, game_id, requester_id, opponent_id, status, created_at, expires_at`

func scanRematch(row pgx.Row) (*domain.RematchRequest, error) {
	var rm domain.RematchRequest
	err := row.Scan(&rm.ID, &rm.GameID, &rm.RequesterID, &rm.OpponentID,
		&rm.Status, &rm.CreatedAt, &rm.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RematchRepository) Create(ctx context.Context, rm *domain.RematchRequest) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO rematch_requests (game_id, requester_id, opponent_id, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		rm.GameID, rm.RequesterID, rm.OpponentID, rm.Status, rm.ExpiresAt,
	).Scan(&rm.ID, &rm.CreatedAt)
}

func (r *RematchRepository) GetByID(ctx context.Context, id int64) (*domain.RematchRequest, error) {
	return scanRematch(r.db.QueryRow(ctx,
		`SELECT `+rematchColumns+` FROM rematch_requests WHERE id = $1`, id))
}

// LatestByGame returns the most recent live offer for a game, or
// ErrNotFound when none exists.
func (r *RematchRepository) LatestByGame(ctx context.Context, gameID int64) (*domain.RematchRequest, error) {
	return scanRematch(r.db.QueryRow(ctx,
		`SELECT `+rematchColumns+` FROM rematch_requests
		 WHERE game_id = $1 AND status IN ('pending', 'accepted')
		 ORDER BY created_at DESC LIMIT 1`, gameID))
}

// Resolve flips a pending offer to a terminal status; ErrAlreadyResolved
// when it has already left pending.
func (r *RematchRepository) Resolve(ctx context.Context, id int64, status domain.OfferStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE rematch_requests SET status = $1 WHERE id = $2 AND status = 'pending'`,
		status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyResolved
	}
	return nil
}

// ExpireDue expires pending offers past their deadline and returns them.
func (r *RematchRepository) ExpireDue(ctx context.Context, now time.Time) ([]*domain.RematchRequest, error) {
	rows, err := r.db.Query(ctx,
		`UPDATE rematch_requests SET status = 'expired'
		 WHERE status = 'pending' AND expires_at < $1
		 RETURNING `+rematchColumns, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.RematchRequest
	for rows.Next() {
		rm, err := scanRematch(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rm)
	}
	return res, rows.Err()
}

// ExpirePending force-expires every pending offer; used at startup.
func (r *RematchRepository) ExpirePending(ctx context.Context) error {
	_, err := r.db.Exec(ctx,
		`UPDATE rematch_requests SET status = 'expired' WHERE status = 'pending'`)
	return err
}
