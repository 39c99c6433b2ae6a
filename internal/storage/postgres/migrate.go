package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Plan selects a migration run. The zero Plan applies everything pending.
type Plan struct {
	Down bool
	// Steps limits the run to that many migrations; 0 means all.
	Steps int
}

// ParsePlan builds a Plan from a direction ("up" or "down") and a step count.
func ParsePlan(direction string, steps int) (Plan, error) {
	if steps < 0 {
		return Plan{}, fmt.Errorf("steps must be >= 0, got %d", steps)
	}
	switch direction {
	case "up":
		return Plan{Steps: steps}, nil
	case "down":
		return Plan{Down: true, Steps: steps}, nil
	default:
		return Plan{}, fmt.Errorf("invalid direction %q: must be up or down", direction)
	}
}

// MigrationResult is the schema state after a run.
type MigrationResult struct {
	Version uint
	Dirty   bool
	// Changed is false when the schema was already where the plan asked.
	Changed bool
}

// Migrate runs plan against dsn using the migrations at sourceURL, for
// example "file://migrations". A run with nothing to do is not an error.
func Migrate(sourceURL, dsn string, plan Plan, logger *zap.Logger) (MigrationResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case plan.Steps > 0 && plan.Down:
		err = m.Steps(-plan.Steps)
	case plan.Steps > 0:
		err = m.Steps(plan.Steps)
	case plan.Down:
		err = m.Down()
	default:
		err = m.Up()
	}
	res := MigrationResult{Changed: err == nil}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return res, fmt.Errorf("running migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	switch {
	case verr == nil:
		res.Version, res.Dirty = version, dirty
	case !errors.Is(verr, migrate.ErrNilVersion):
		return res, fmt.Errorf("reading schema version: %w", verr)
	}
	logger.Info("schema migrated",
		zap.Bool("down", plan.Down),
		zap.Int("steps", plan.Steps),
		zap.Uint("version", res.Version),
		zap.Bool("dirty", res.Dirty),
		zap.Bool("changed", res.Changed),
	)
	return res, nil
}

// MigrateUp applies every pending migration.
func MigrateUp(sourceURL, dsn string, logger *zap.Logger) error {
	_, err := Migrate(sourceURL, dsn, Plan{}, logger)
	return err
}
