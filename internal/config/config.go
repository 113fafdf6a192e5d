package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	ListenAddr   string
	DatabasePath string
	StoreBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Empty means notifications are only logged
	NATSURL     string
	NATSSubject string

	AdapterToken string
	LogLevel     slog.Level
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DatabasePath:  getEnv("DATABASE_PATH", "tourney.db"),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		NATSURL:       os.Getenv("NATS_URL"),
		NATSSubject:   getEnv("NATS_SUBJECT", "tourney.notifications"),
		AdapterToken:  os.Getenv("ADAPTER_TOKEN"),
		LogLevel:      ParseLogLevel(os.Getenv("LOG_LEVEL")),
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	if cfg.StoreBackend != BackendSQLite && cfg.StoreBackend != BackendRedis {
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.AdapterToken == "" {
		return nil, fmt.Errorf("ADAPTER_TOKEN is required")
	}
	return cfg, nil
}

// ParseLogLevel defaults to info for empty or unknown values.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// SetupLogging installs a JSON slog handler as the default logger.
func SetupLogging(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
