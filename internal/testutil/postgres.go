// Package testutil starts throwaway PostgreSQL instances for storage tests.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/scarlet/internal/config"
	"github.com/cory-johannsen/scarlet/internal/storage/postgres"
)

const postgresImage = "postgres:16-alpine"

// PostgresContainer is a running database with an open Store.
type PostgresContainer struct {
	Store   *postgres.Store
	RawPool *pgxpool.Pool
	Config  config.DatabaseConfig
}

// NewPostgresContainer starts PostgreSQL and opens a Store against it. The
// test is skipped under -short; the container and store are released by
// t.Cleanup.
//
// Precondition: Docker must be available.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in -short mode")
	}
	ctx := context.Background()
	start := time.Now()

	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("scarlet"),
		tcpostgres.WithUsername("scarlet"),
		tcpostgres.WithPassword("scarlet"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	cfg := config.DatabaseConfig{
		Enabled:  true,
		Host:     host,
		Port:     port.Int(),
		User:     "scarlet",
		Password: "scarlet",
		Name:     "scarlet",
		SSLMode:  "disable",
		MaxConns: 4,
	}

	store, err := postgres.Open(ctx, cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("opening store: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(store.Close)
	t.Logf("postgres ready at %s:%d [%s]", host, cfg.Port, time.Since(start))

	return &PostgresContainer{Store: store, RawPool: store.DB(), Config: cfg}
}

// ApplyMigrations brings the schema to the latest version.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	if err := postgres.MigrateUp(MigrationSource(), pc.DSN(), zaptest.NewLogger(t)); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
}

// DSN returns the connection string for the container's database.
func (pc *PostgresContainer) DSN() string { return pc.Config.DSN() }

// MigrationSource returns the file:// URL of the repository's migrations.
func MigrationSource() string {
	_, file, _, _ := runtime.Caller(0)
	return "file://" + filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
