package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/scythe504/partydeck-backend/internal/config"
	"github.com/scythe504/partydeck-backend/internal/gamesync"
	"github.com/scythe504/partydeck-backend/internal/server"
	"github.com/scythe504/partydeck-backend/internal/store/memory"
	"github.com/scythe504/partydeck-backend/internal/store/postgres"
	"github.com/scythe504/partydeck-backend/internal/store/redis"
)

// newSynchronizer picks the transport for the configured backend: polling
// over memory or postgres, push over redis.
func newSynchronizer(ctx context.Context, cfg *config.Config) (gamesync.Synchronizer, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		st, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return gamesync.NewPoll(st, gamesync.Options{}), st.Close, nil

	case config.BackendRedis:
		st, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return gamesync.NewPush(st, gamesync.Options{}), func() { _ = st.Close() }, nil

	default:
		st := memory.New()
		return gamesync.NewPoll(st, gamesync.Options{}), st.Close, nil
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[main] No .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncer, closeStore, err := newSynchronizer(ctx, cfg)
	if err != nil {
		log.Fatalf("[main] Failed to initialize %s backend: %v", cfg.Backend, err)
	}
	defer closeStore()
	defer syncer.Close()

	srv := server.NewHTTPServer(cfg.Port, syncer)

	go func() {
		log.Printf("[main] Listening on :%d (backend=%s)", cfg.Port, cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[main] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] Forced shutdown: %v", err)
	}
}
