package config

import (
	"fmt"
	"os"
	"strconv"
)

// Backend selects which store and transport the server runs on.
type Backend string

const (
	// BackendMemory serves the poll transport from process memory.
	BackendMemory Backend = "memory"
	// BackendPostgres serves the poll transport from a shared database.
	BackendPostgres Backend = "postgres"
	// BackendRedis serves the push transport from a realtime store.
	BackendRedis Backend = "redis"
)

type Config struct {
	Port        int
	Backend     Backend
	DatabaseURL string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
}

// Load reads the server configuration from the environment with safe
// defaults for local development.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        8080,
		Backend:     BackendMemory,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	switch b := Backend(getEnv("SYNC_BACKEND", string(BackendMemory))); b {
	case BackendMemory, BackendPostgres, BackendRedis:
		cfg.Backend = b
	default:
		return nil, fmt.Errorf("unknown SYNC_BACKEND %q", b)
	}

	if cfg.Backend == BackendPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("SYNC_BACKEND=postgres requires DATABASE_URL")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
