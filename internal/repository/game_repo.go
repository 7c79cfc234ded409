package repository

import (
	"context"
	"encoding/json"
	"errors"

	"pubgames_tictactoe/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `id, player1_id, player1_name, player2_id, player2_name,
	mode, status, current_turn, winner_id, board, move_time_limit, first_to,
	player1_score, player2_score, current_round, last_move_at, created_at, completed_at`

func scanGame(row pgx.Row) (*domain.Game, error) {
	var g domain.Game
	var boardBytes []byte

	err := row.Scan(
		&g.ID, &g.Player1ID, &g.Player1Name, &g.Player2ID, &g.Player2Name,
		&g.Mode, &g.Status, &g.CurrentTurn, &g.WinnerID, &boardBytes,
		&g.MoveTimeLimit, &g.FirstTo, &g.Player1Score, &g.Player2Score,
		&g.CurrentRound, &g.LastMoveAt, &g.CreatedAt, &g.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(boardBytes, &g.Board); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	boardJSON, err := json.Marshal(g.Board)
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO games (player1_id, player1_name, player2_id, player2_name,
		     mode, status, current_turn, board, move_time_limit, first_to,
		     player1_score, player2_score, current_round)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at`,
		g.Player1ID, g.Player1Name, g.Player2ID, g.Player2Name,
		g.Mode, g.Status, g.CurrentTurn, boardJSON, g.MoveTimeLimit, g.FirstTo,
		g.Player1Score, g.Player2Score, g.CurrentRound,
	).Scan(&g.ID, &g.CreatedAt)
}

func (r *GameRepository) GetByID(ctx context.Context, id int64) (*domain.Game, error) {
	return scanGame(r.db.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
}

// GetActiveByUser returns the user's single active game, or ErrNotFound.
func (r *GameRepository) GetActiveByUser(ctx context.Context, userID int64) (*domain.Game, error) {
	return scanGame(r.db.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games
		 WHERE (player1_id = $1 OR player2_id = $1) AND status = 'active'
		 ORDER BY created_at DESC LIMIT 1`, userID))
}

// HasActive reports whether any of the given users is in an active game.
func (r *GameRepository) HasActive(ctx context.Context, userIDs ...int64) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM games
		 WHERE status = 'active' AND (player1_id = ANY($1) OR player2_id = ANY($1))`,
		userIDs,
	).Scan(&count)
	return count > 0, err
}

// Update persists the mutable series state after an accepted move or a
// round/series transition.
func (r *GameRepository) Update(ctx context.Context, g *domain.Game) error {
	boardJSON, err := json.Marshal(g.Board)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`UPDATE games SET board = $1, status = $2, current_turn = $3,
		     winner_id = $4, player1_score = $5, player2_score = $6,
		     current_round = $7, last_move_at = $8, completed_at = $9
		 WHERE id = $10`,
		boardJSON, g.Status, g.CurrentTurn, g.WinnerID,
		g.Player1Score, g.Player2Score, g.CurrentRound,
		g.LastMoveAt, g.CompletedAt, g.ID,
	)
	return err
}

func (r *GameRepository) InsertMove(ctx context.Context, m *domain.Move) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO moves (game_id, player_id, round, position, symbol)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		m.GameID, m.PlayerID, m.Round, m.Position, m.Symbol,
	).Scan(&m.ID, &m.CreatedAt)
}

// HistoryByUser returns the user's completed series, newest first.
func (r *GameRepository) HistoryByUser(ctx context.Context, userID int64, limit int) ([]*domain.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+` FROM games
		 WHERE (player1_id = $1 OR player2_id = $1) AND status = 'completed'
		 ORDER BY completed_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

// AbandonActive marks all active games abandoned. Ran once at startup:
// in-flight series cannot be resumed across a server restart.
func (r *GameRepository) AbandonActive(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE games SET status = 'abandoned' WHERE status = 'active'`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
