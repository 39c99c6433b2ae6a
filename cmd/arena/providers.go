package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/scarlet/internal/config"
	"github.com/cory-johannsen/scarlet/internal/game/actor"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
	"github.com/cory-johannsen/scarlet/internal/game/event"
	"github.com/cory-johannsen/scarlet/internal/scripting"
	"github.com/cory-johannsen/scarlet/internal/storage/postgres"
)

// content is the static data loaded at startup.
type content struct {
	catalog   *condition.Catalog
	templates map[string]*actor.Template
}

// loadContent reads the effect catalog and actor templates concurrently.
func loadContent(ctx context.Context, cfg config.ContentConfig, logger *zap.Logger) (*content, error) {
	start := time.Now()
	var c content
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		cat, err := condition.LoadDirectory(cfg.EffectsDir)
		if err != nil {
			return fmt.Errorf("loading effects: %w", err)
		}
		c.catalog = cat
		return nil
	})
	g.Go(func() error {
		templates, err := actor.LoadTemplates(cfg.TemplatesDir)
		if err != nil {
			return fmt.Errorf("loading templates: %w", err)
		}
		c.templates = templates
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, t := range c.templates {
		for _, id := range t.Effects {
			if _, ok := c.catalog.Get(id); !ok {
				logger.Warn("template references unknown effect",
					zap.String("template", t.ID),
					zap.String("effect", id),
				)
			}
		}
	}
	logger.Info("content loaded",
		zap.Int("effects", c.catalog.Len()),
		zap.Int("templates", len(c.templates)),
		zap.Uint64("catalog_fingerprint", c.catalog.Fingerprint()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &c, nil
}

func provideDiceSource(cfg config.EngineConfig) dice.Source {
	if cfg.DiceSeed != 0 {
		return dice.NewSeededSource(cfg.DiceSeed)
	}
	return dice.NewCryptoSource()
}

func provideRoller(src dice.Source, logger *zap.Logger) *dice.Roller {
	return dice.NewLoggedRoller(src, logger)
}

// provideEvents returns the bus every actor emits into, with a debug log
// subscriber attached.
func provideEvents(logger *zap.Logger) *event.Bus {
	bus := event.NewBus()
	bus.Subscribe("", event.LogSink{Logger: logger})
	return bus
}

// provideScripts loads scriptsDir into the global VM and each
// scriptsDir/<template id> directory into that template's VM.
func provideScripts(cfg config.ContentConfig, eng config.EngineConfig, c *content, roller *dice.Roller, logger *zap.Logger) (*scripting.Manager, func(), error) {
	mgr := scripting.NewManager(roller, logger)
	cleanup := mgr.Close
	if cfg.ScriptsDir == "" {
		logger.Info("scripting disabled")
		return mgr, cleanup, nil
	}
	if err := mgr.LoadGlobal(cfg.ScriptsDir, eng.LuaInstructionLimit); err != nil {
		mgr.Close()
		return nil, nil, err
	}
	for id := range c.templates {
		dir := filepath.Join(cfg.ScriptsDir, id)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := mgr.Load(id, dir, eng.LuaInstructionLimit); err != nil {
			mgr.Close()
			return nil, nil, err
		}
	}
	return mgr, cleanup, nil
}

func provideWorld(logger *zap.Logger) (*actor.World, func()) {
	w := actor.NewWorld(logger)
	return w, w.Destroy
}

// provideStore connects snapshot persistence. It returns a nil store when
// persistence is disabled.
func provideStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*postgres.Store, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	store, err := postgres.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return store, store.Close, nil
}

// spawnAll instantiates every template named in cfg.Content.Spawn. Spawned
// ids are "<template>-<n>" so that stored snapshots can be matched on restart.
func (a *arena) spawnAll(ctx context.Context) error {
	counts := make(map[string]int)
	for _, tid := range a.cfg.Content.Spawn {
		tmpl, ok := a.content.templates[tid]
		if !ok {
			return fmt.Errorf("spawning %q: unknown template", tid)
		}
		counts[tid]++
		id := fmt.Sprintf("%s-%d", tid, counts[tid])
		act := tmpl.Spawn(actor.Options{
			ID:      id,
			Catalog: a.content.catalog,
			Dice:    a.dice,
			Events:  a.events,
			Scripts: a.scripts,
			Regen: actor.Regen{
				Health:     a.cfg.Engine.Regen.Health,
				Scarlet:    a.cfg.Engine.Regen.Scarlet,
				BlockPower: a.cfg.Engine.Regen.BlockPower,
			},
			MaxHoTStacks: a.cfg.Engine.MaxHoTStacks,
			Logger:       a.logger,
		})
		if a.store != nil {
			snap, err := a.store.Snapshots().Load(ctx, id)
			switch {
			case err == nil:
				if err := act.Restore(snap); err != nil {
					return fmt.Errorf("restoring %s: %w", id, err)
				}
				a.logger.Info("actor restored from snapshot", zap.String("actor_id", id))
			case !errors.Is(err, actor.ErrActorNotFound):
				return err
			}
		}
		a.world.Add(act)
	}
	return nil
}
