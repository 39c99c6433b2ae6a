// Package main applies or rolls back the actor snapshot schema using the
// arena's configuration file.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/config"
	"github.com/cory-johannsen/scarlet/internal/observability"
	"github.com/cory-johannsen/scarlet/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/arena.yaml", "path to configuration file")
	source := flag.String("source", "file://migrations", "migration source URL")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	if err := run(*configPath, *source, *direction, *steps); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, source, direction string, steps int) error {
	start := time.Now()
	plan, err := postgres.ParsePlan(direction, steps)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	res, err := postgres.Migrate(source, cfg.Database.DSN(), plan, logger)
	if err != nil {
		return err
	}
	logger.Info("migration finished",
		zap.String("direction", direction),
		zap.Uint("version", res.Version),
		zap.Bool("changed", res.Changed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
