package http

import (
	"pubgames_tictactoe/internal/config"
	"pubgames_tictactoe/internal/http/handlers"
	"pubgames_tictactoe/internal/http/middleware"
	"pubgames_tictactoe/internal/presence"
	"pubgames_tictactoe/internal/service"
	"pubgames_tictactoe/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires the full HTTP surface: REST endpoints, the two
// websocket upgrade points and the health probes.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, version string, authority *service.GameAuthority, challenges *service.ChallengeService, rematches *service.RematchService, reg *presence.Registry, gateway *ws.Gateway) {
	h := handlers.NewHandler(db, cfg, authority, challenges, rematches, reg, gateway)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	auth := middleware.Auth(h.Identity)
	moveRL := middleware.MoveRateLimit(cfg.GameRateLimit, cfg.GameRateWindow)

	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	api.GET("/config", h.ClientConfig)
	api.POST("/auth/dev", h.DevLogin)

	// Presence
	api.POST("/heartbeat", auth, h.Heartbeat)
	api.POST("/logout", auth, h.Logout)
	api.GET("/online-users", auth, h.OnlineUsers)

	// Challenges
	api.POST("/game/create-challenge", auth, h.CreateChallenge)
	api.GET("/game/pending-challenges", auth, h.PendingChallenges)
	api.POST("/game/:id/respond", auth, h.RespondChallenge)

	// Games
	api.GET("/game/active", auth, h.ActiveGame)
	api.GET("/game/:id", auth, h.GameByID)
	api.POST("/game/move", auth, moveRL, h.Move)

	// Rematch
	api.POST("/game/rematch", auth, h.CreateRematch)
	api.GET("/game/rematch/:gameId", auth, h.GetRematch)
	api.POST("/game/rematch/:id/respond", auth, h.RespondRematch)

	// Stats and history
	api.GET("/stats/player", auth, h.PlayerStats)
	api.GET("/stats/leaderboard", h.Leaderboard)
	api.GET("/history", auth, h.History)

	// Websocket upgrades; credential travels as ?token=
	api.GET("/ws/lobby", auth, h.LobbyWS)
	api.GET("/ws/game/:gameId", auth, h.GameWS)
}
