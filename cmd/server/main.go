// Command server runs the marketplace HTTP API.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/flatmarket/backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
