package handlers

import (
	"pubgames_tictactoe/internal/config"
	"pubgames_tictactoe/internal/presence"
	"pubgames_tictactoe/internal/repository"
	"pubgames_tictactoe/internal/service"
	"pubgames_tictactoe/internal/ws"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB         *pgxpool.Pool
	Cfg        *config.Config
	Authority  *service.GameAuthority
	Challenges *service.ChallengeService
	Rematches  *service.RematchService
	Presence   *presence.Registry
	Games      *repository.GameRepository
	Stats      *repository.StatsRepository
	Identity   *service.IdentityClient
	GameConns  *ws.GameManager
	LobbyConns *ws.LobbyManager
}

func NewHandler(db *pgxpool.Pool, cfg *config.Config, authority *service.GameAuthority, challenges *service.ChallengeService, rematches *service.RematchService, reg *presence.Registry, gateway *ws.Gateway) *Handler {
	return &Handler{
		DB:         db,
		Cfg:        cfg,
		Authority:  authority,
		Challenges: challenges,
		Rematches:  rematches,
		Presence:   reg,
		Games:      repository.NewGameRepository(db),
		Stats:      repository.NewStatsRepository(db),
		Identity:   service.NewIdentityClient(cfg.IdentityURL),
		GameConns:  gateway.Games,
		LobbyConns: gateway.Lobby,
	}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func getUserName(c interface{ Get(string) (any, bool) }) string {
	v, ok := c.Get("user_name")
	if !ok {
		return ""
	}
	name, _ := v.(string)
	return name
}
