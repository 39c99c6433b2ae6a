//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/config"
)

func initializeArena(ctx context.Context, cfg config.Config, logger *zap.Logger) (*arena, func(), error) {
	wire.Build(
		wire.FieldsOf(new(config.Config), "Engine", "Content", "Database"),
		loadContent,
		provideDiceSource,
		provideRoller,
		provideEvents,
		provideScripts,
		provideWorld,
		provideStore,
		newArena,
	)
	return nil, nil, nil
}
