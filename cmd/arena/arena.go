package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/config"
	"github.com/cory-johannsen/scarlet/internal/game/actor"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
	"github.com/cory-johannsen/scarlet/internal/game/event"
	"github.com/cory-johannsen/scarlet/internal/inspect"
	"github.com/cory-johannsen/scarlet/internal/scripting"
	"github.com/cory-johannsen/scarlet/internal/server"
	"github.com/cory-johannsen/scarlet/internal/storage/postgres"
)

// arena is the assembled daemon: the world, its content and the services
// that drive and expose it.
type arena struct {
	cfg     config.Config
	content *content
	world   *actor.World
	scripts *scripting.Manager
	events  *event.Bus
	dice    dice.Source
	store   *postgres.Store
	logger  *zap.Logger
}

func newArena(
	ctx context.Context,
	cfg config.Config,
	c *content,
	w *actor.World,
	scripts *scripting.Manager,
	bus *event.Bus,
	src dice.Source,
	store *postgres.Store,
	logger *zap.Logger,
) (*arena, error) {
	scripts.Bind(w)
	a := &arena{
		cfg:     cfg,
		content: c,
		world:   w,
		scripts: scripts,
		events:  bus,
		dice:    src,
		store:   store,
		logger:  logger,
	}
	if err := a.spawnAll(ctx); err != nil {
		return nil, err
	}
	logger.Info("arena populated", zap.Int("actors", w.Len()))
	return a, nil
}

// services returns the lifecycle services in start order. Persistence is
// registered first so that it is stopped last, after the final frame.
func (a *arena) services() []namedService {
	var out []namedService
	if a.store != nil {
		stop := make(chan struct{})
		out = append(out, namedService{"persistence", &server.FuncService{
			StartFn: func() error {
				<-stop
				return nil
			},
			StopFn: func() {
				defer close(stop)
				a.persist()
			},
		}})
	}
	out = append(out, namedService{"frames", server.NewFrameDriver(a.world, a.cfg.Engine.FrameInterval, a.logger)})
	if a.cfg.Inspect.Enabled {
		srv := inspect.NewServer(a.world, a.logger)
		out = append(out, namedService{"inspect", inspect.NewGRPCService(a.cfg.Inspect.Addr(), nil, srv, a.logger)})
	}
	return out
}

// persistTimeout bounds the final snapshot save.
const persistTimeout = 10 * time.Second

type namedService struct {
	name string
	svc  server.Service
}

func (a *arena) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := a.store.Health(ctx, 2*time.Second); err != nil {
		a.logger.Error("skipping snapshot save", zap.Error(err))
		return
	}
	snaps := a.world.Snapshots()
	if err := a.store.Snapshots().SaveAll(ctx, snaps); err != nil {
		a.logger.Error("saving snapshots", zap.Error(err))
		return
	}
	a.logger.Info("snapshots saved", zap.Int("actors", len(snaps)))
}

// run blocks until a signal arrives or a service fails.
func (a *arena) run(ctx context.Context) error {
	lc := server.NewLifecycle(a.logger, server.WithStopTimeout(persistTimeout+5*time.Second))
	for _, ns := range a.services() {
		lc.Add(ns.name, ns.svc)
	}
	return lc.Run(ctx)
}
