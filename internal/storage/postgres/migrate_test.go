package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/scarlet/internal/storage/postgres"
	"github.com/cory-johannsen/scarlet/internal/testutil"
)

func TestParsePlan(t *testing.T) {
	plan, err := postgres.ParsePlan("up", 0)
	require.NoError(t, err)
	assert.Equal(t, postgres.Plan{}, plan)

	plan, err = postgres.ParsePlan("down", 1)
	require.NoError(t, err)
	assert.Equal(t, postgres.Plan{Down: true, Steps: 1}, plan)

	_, err = postgres.ParsePlan("sideways", 0)
	assert.Error(t, err)
	_, err = postgres.ParsePlan("up", -1)
	assert.Error(t, err)
}

func TestMigrate_UpStepDownAndNoChange(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	src := testutil.MigrationSource()
	logger := zaptest.NewLogger(t)

	res, err := postgres.Migrate(src, pc.DSN(), postgres.Plan{}, logger)
	require.NoError(t, err)
	assert.Equal(t, postgres.MigrationResult{Version: 2, Changed: true}, res)

	res, err = postgres.Migrate(src, pc.DSN(), postgres.Plan{}, logger)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.EqualValues(t, 2, res.Version)

	res, err = postgres.Migrate(src, pc.DSN(), postgres.Plan{Down: true, Steps: 1}, logger)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Version)

	res, err = postgres.Migrate(src, pc.DSN(), postgres.Plan{Down: true}, logger)
	require.NoError(t, err)
	assert.Zero(t, res.Version)

	var exists bool
	require.NoError(t, pc.RawPool.QueryRow(context.Background(),
		`SELECT to_regclass('public.actors') IS NOT NULL`).Scan(&exists))
	assert.False(t, exists)
}
