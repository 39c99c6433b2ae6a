package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/scarlet/internal/config"
	"github.com/cory-johannsen/scarlet/internal/storage/postgres"
	"github.com/cory-johannsen/scarlet/internal/testutil"
)

func TestOpen_UnreachableStopsWithContext(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := config.DatabaseConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    1,
		User:    "nobody",
		Name:    "nothing",
		SSLMode: "disable",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	start := time.Now()
	store, err := postgres.Open(ctx, cfg, zap.New(core))
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.NotZero(t, logs.FilterMessage("database not reachable").Len())
}

func TestStore_HealthAndSnapshots(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	ctx := context.Background()

	require.NoError(t, pc.Store.Health(ctx, 2*time.Second))

	a := newKnight(uniqueID("store"))
	require.NoError(t, pc.Store.Snapshots().Save(ctx, a.Snapshot()))
	ids, err := pc.Store.Snapshots().List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, a.ID())

	var appName string
	require.NoError(t, pc.Store.DB().QueryRow(ctx, `SELECT current_setting('application_name')`).Scan(&appName))
	assert.Equal(t, "scarlet-arena", appName)
}
