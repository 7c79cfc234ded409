package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pubgames_tictactoe/internal/config"
	"pubgames_tictactoe/internal/db"
	httpServer "pubgames_tictactoe/internal/http"
	"pubgames_tictactoe/internal/http/middleware"
	"pubgames_tictactoe/internal/logger"
	"pubgames_tictactoe/internal/presence"
	"pubgames_tictactoe/internal/repository"
	"pubgames_tictactoe/internal/service"
	"pubgames_tictactoe/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var version = "dev"

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")
	cfg := config.Load()
	service.InitJWT()

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	clock := clockwork.NewRealClock()

	gameRepo := repository.NewGameRepository(dbPool)
	challengeRepo := repository.NewChallengeRepository(dbPool)
	rematchRepo := repository.NewRematchRepository(dbPool)
	statsRepo := repository.NewStatsRepository(dbPool)

	// A restart loses every live connection and presence record, so games
	// and offers that assumed them cannot resume.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if n, err := gameRepo.AbandonActive(startupCtx); err != nil {
		logger.Fatal("startup cleanup failed", "err", err)
	} else if n > 0 {
		logger.Info("abandoned stale games", "count", n)
	}
	if err := challengeRepo.DeletePending(startupCtx); err != nil {
		logger.Fatal("startup cleanup failed", "err", err)
	}
	if err := rematchRepo.ExpirePending(startupCtx); err != nil {
		logger.Fatal("startup cleanup failed", "err", err)
	}
	cancelStartup()

	reg := presence.NewRegistry(clock, cfg.HeartbeatInterval)

	authority := service.NewGameAuthority(gameRepo, statsRepo, reg, service.NopNotifier{}, clock)
	challenges := service.NewChallengeService(challengeRepo, gameRepo, authority, reg, service.NopNotifier{}, clock, cfg.ChallengeTTL)
	rematches := service.NewRematchService(rematchRepo, gameRepo, authority, clock, cfg.RematchTTL)

	gateway := ws.NewGateway(
		ws.NewGameManager(authority),
		ws.NewLobbyManager(clock, cfg.LobbyConnTTL),
	)
	authority.SetNotifier(gateway)
	challenges.SetNotifier(gateway)
	reg.SetOfflineFunc(gateway.BroadcastUserOffline)

	reg.Start(cfg.PresenceSweep)
	defer reg.Stop()

	challengeSweep := service.NewSweeper("challenge_expiry", clock, 5*time.Second, challenges.ExpireStale)
	challengeSweep.Start()
	defer challengeSweep.Stop()

	rematchSweep := service.NewSweeper("rematch_expiry", clock, 5*time.Second, rematches.ExpireDue)
	rematchSweep.Start()
	defer rematchSweep.Stop()

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, dbPool, cfg, version, authority, challenges, rematches, reg, gateway)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Println("server started on port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown:", err)
	}

	log.Println("server exited")
}
