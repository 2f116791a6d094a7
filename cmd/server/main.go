package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cvlab/internal/app"
	"cvlab/internal/config"
)

// server is the viewer server alone, configured only from the environment.
// It streams a counter session when COUNTER_VIDEO is set.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	cfg.Display = config.DisplayNone

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer application.Close()

	opts := app.ServeOptions{Video: cfg.Counter.VideoPath}
	if err := application.Serve(ctx, opts); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
