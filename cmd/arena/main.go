// Package main provides the arena daemon: it loads effect and actor content,
// spawns the configured actors and drives them at a fixed frame rate, with an
// optional gRPC inspection endpoint and snapshot persistence.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/config"
	"github.com/cory-johannsen/scarlet/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/arena.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	a, cleanup, err := initializeArena(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing arena", zap.Error(err))
	}

	logger.Info("arena initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Duration("frame_interval", cfg.Engine.FrameInterval),
		zap.Bool("inspect", cfg.Inspect.Enabled),
		zap.Bool("persistence", cfg.Database.Enabled),
	)

	runErr := a.run(ctx)
	cleanup()
	if runErr != nil {
		logger.Error("arena stopped with error", zap.Error(runErr))
		_ = logger.Sync()
		os.Exit(1)
	}
}
