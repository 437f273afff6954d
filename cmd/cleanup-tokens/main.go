// Command cleanup-tokens deletes expired refresh tokens. Revoked but
// unexpired rows are kept: they are what reuse detection matches against.
//
// Usage:
//
//	cleanup-tokens
//
// Intended for an external cron job. Requires DATABASE_DSN.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/flatmarket/backend/internal/adapter/postgres"
	"github.com/flatmarket/backend/internal/adapter/postgres/token"
	"github.com/flatmarket/backend/internal/app"
	"github.com/flatmarket/backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	deleted, err := token.New(pool).DeleteExpired(ctx)
	if err != nil {
		logger.Error("token cleanup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("token cleanup completed", slog.Int("deleted", deleted))
}
