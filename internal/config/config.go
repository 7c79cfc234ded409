package config

import (
	"os"
	"strconv"
	"time"

	"pubgames_tictactoe/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	// Identity service for token validation. Empty means local JWT
	// validation only (dev mode).
	IdentityURL string

	// Redis for the API rate limiter. Empty disables it (fail-open).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Protocol timing. Defaults follow the client contract.
	HeartbeatInterval time.Duration // presence heartbeat cadence
	PresenceSweep     time.Duration // eviction sweep cadence
	ChallengeTTL      time.Duration // pending challenge window
	RematchTTL        time.Duration // rematch offer window (wait + countdown)
	LobbyConnTTL      time.Duration // hard ceiling on a lobby websocket

	// Rate limits
	APIRateLimit   int
	APIRateWindow  time.Duration
	GameRateLimit  int
	GameRateWindow time.Duration
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "30041"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,
		IdentityURL: os.Getenv("IDENTITY_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		HeartbeatInterval: envSeconds("HEARTBEAT_SECONDS", 30),
		PresenceSweep:     envSeconds("PRESENCE_SWEEP_SECONDS", 15),
		ChallengeTTL:      envSeconds("CHALLENGE_TTL_SECONDS", 30),
		RematchTTL:        envSeconds("REMATCH_TTL_SECONDS", 80),
		LobbyConnTTL:      envSeconds("LOBBY_CONN_TTL_SECONDS", 30),

		APIRateLimit:   envInt("API_RATE_LIMIT", 60),
		APIRateWindow:  envSeconds("API_RATE_WINDOW_SECONDS", 60),
		GameRateLimit:  envInt("GAME_RATE_LIMIT", 60),
		GameRateWindow: envSeconds("GAME_RATE_WINDOW_SECONDS", 60),
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}
