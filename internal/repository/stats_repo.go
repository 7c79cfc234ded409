package repository

import (
	"context"
	"errors"

	"pubgames_tictactoe/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Record bumps one player's aggregates after a finished series. Exactly one
// of won/lost/draw should be set.
func (r *StatsRepository) Record(ctx context.Context, userID int64, userName string, won, lost, draw bool) error {
	wonInt, lostInt, drawInt := 0, 0, 0
	if won {
		wonInt = 1
	}
	if lost {
		lostInt = 1
	}
	if draw {
		drawInt = 1
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO player_stats (user_id, user_name, games_played, games_won, games_lost, games_draw)
		 VALUES ($1, $2, 1, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		     user_name = CASE WHEN excluded.user_name <> '' THEN excluded.user_name ELSE player_stats.user_name END,
		     games_played = player_stats.games_played + 1,
		     games_won = player_stats.games_won + $3,
		     games_lost = player_stats.games_lost + $4,
		     games_draw = player_stats.games_draw + $5,
		     updated_at = now()`,
		userID, userName, wonInt, lostInt, drawInt)
	return err
}

func (r *StatsRepository) GetByUser(ctx context.Context, userID int64) (*domain.PlayerStats, error) {
	var ps domain.PlayerStats
	err := r.db.QueryRow(ctx,
		`SELECT user_id, user_name, games_played, games_won, games_lost, games_draw
		 FROM player_stats WHERE user_id = $1`, userID,
	).Scan(&ps.UserID, &ps.UserName, &ps.GamesPlayed, &ps.GamesWon, &ps.GamesLost, &ps.GamesDraw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if ps.GamesPlayed > 0 {
		ps.WinRate = float64(ps.GamesWon) / float64(ps.GamesPlayed) * 100
	}
	return &ps, nil
}

func (r *StatsRepository) Leaderboard(ctx context.Context, limit int) ([]*domain.PlayerStats, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, user_name, games_played, games_won, games_lost, games_draw
		 FROM player_stats WHERE games_played > 0
		 ORDER BY games_won DESC, games_played ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.PlayerStats
	for rows.Next() {
		var ps domain.PlayerStats
		if err := rows.Scan(&ps.UserID, &ps.UserName, &ps.GamesPlayed,
			&ps.GamesWon, &ps.GamesLost, &ps.GamesDraw); err != nil {
			return nil, err
		}
		if ps.GamesPlayed > 0 {
			ps.WinRate = float64(ps.GamesWon) / float64(ps.GamesPlayed) * 100
		}
		res = append(res, &ps)
	}
	return res, rows.Err()
}
