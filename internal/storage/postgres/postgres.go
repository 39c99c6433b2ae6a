// Package postgres persists actor snapshots in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/config"
)

const (
	applicationName = "scarlet-arena"
	connectAttempts = 5
	connectBackoff  = 250 * time.Millisecond
)

// Store owns the connection pool behind snapshot persistence.
type Store struct {
	db        *pgxpool.Pool
	snapshots *SnapshotRepository
	logger    *zap.Logger
}

// Open connects to the database described by cfg. The first ping is retried
// with a growing backoff so the arena can start alongside its database.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Store or a non-nil error; on error no
// pool is left open.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := ping(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database %s@%s: %w", cfg.Name, cfg.Host, err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return New(db, logger), nil
}

// New wraps an already connected pool.
func New(db *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:        db,
		snapshots: NewSnapshotRepository(db, logger),
		logger:    logger,
	}
}

func ping(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = db.Ping(ctx); err == nil {
			return nil
		}
		logger.Warn("database not reachable",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * connectBackoff):
		}
	}
	return err
}

// Snapshots returns the actor snapshot repository.
func (s *Store) Snapshots() *SnapshotRepository { return s.snapshots }

// DB returns the underlying pool.
func (s *Store) DB() *pgxpool.Pool { return s.db }

// Health checks that the database answers within timeout.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health: %w", err)
	}
	return nil
}

// Close logs the pool's final counters and releases it.
func (s *Store) Close() {
	st := s.db.Stat()
	s.logger.Info("closing database pool",
		zap.Int64("acquires", st.AcquireCount()),
		zap.Int64("canceled_acquires", st.CanceledAcquireCount()),
		zap.Int32("total_conns", st.TotalConns()),
	)
	s.db.Close()
}
