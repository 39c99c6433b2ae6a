package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/game/actor"
	"github.com/cory-johannsen/scarlet/internal/game/attribute"
)

// SnapshotRepository persists actor snapshots across the actors,
// actor_attributes and actor_effects tables.
type SnapshotRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSnapshotRepository(db *pgxpool.Pool, logger *zap.Logger) *SnapshotRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotRepository{db: db, logger: logger}
}

// Save upserts s in a single transaction. Attribute and effect rows for the
// actor are replaced wholesale.
//
// Precondition: s.ID must be non-empty.
// Postcondition: The stored state equals s, or nothing changed and an error is returned.
func (r *SnapshotRepository) Save(ctx context.Context, s actor.Snapshot) error {
	if s.ID == "" {
		return errors.New("saving snapshot: actor id must not be empty")
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO actors
			(id, name, template_id, faction, category, health, scarlet, block_power, catalog_fingerprint)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			template_id = EXCLUDED.template_id,
			faction = EXCLUDED.faction,
			category = EXCLUDED.category,
			health = EXCLUDED.health,
			scarlet = EXCLUDED.scarlet,
			block_power = EXCLUDED.block_power,
			catalog_fingerprint = EXCLUDED.catalog_fingerprint,
			updated_at = NOW()`,
		s.ID, s.Name, s.TemplateID, s.Faction, s.Category,
		s.Health, s.Scarlet, s.BlockPower, int64(s.CatalogFingerprint),
	)
	if err != nil {
		return fmt.Errorf("upserting actor %s: %w", s.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM actor_attributes WHERE actor_id = $1`, s.ID); err != nil {
		return fmt.Errorf("clearing attributes for %s: %w", s.ID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM actor_effects WHERE actor_id = $1`, s.ID); err != nil {
		return fmt.Errorf("clearing effects for %s: %w", s.ID, err)
	}

	batch := &pgx.Batch{}
	for _, st := range s.Stats {
		batch.Queue(`INSERT INTO actor_attributes (actor_id, kind, base) VALUES ($1,$2,$3)`,
			s.ID, string(st.Kind), st.Base)
	}
	for i, e := range s.Effects {
		batch.Queue(`INSERT INTO actor_effects (actor_id, position, name, category, state) VALUES ($1,$2,$3,$4,$5)`,
			s.ID, i, e.Name, e.Category, e)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("writing state rows for %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing snapshot %s: %w", s.ID, err)
	}
	r.logger.Debug("snapshot saved",
		zap.String("actor_id", s.ID),
		zap.Int("stats", len(s.Stats)),
		zap.Int("effects", len(s.Effects)),
	)
	return nil
}

// Load reads the snapshot stored for id.
//
// Postcondition: Returns the snapshot, or an error wrapping actor.ErrActorNotFound.
func (r *SnapshotRepository) Load(ctx context.Context, id string) (actor.Snapshot, error) {
	var (
		s  actor.Snapshot
		fp int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, template_id, faction, category, health, scarlet, block_power, catalog_fingerprint
		FROM actors WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &s.TemplateID, &s.Faction, &s.Category,
		&s.Health, &s.Scarlet, &s.BlockPower, &fp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return actor.Snapshot{}, fmt.Errorf("loading snapshot %s: %w", id, actor.ErrActorNotFound)
		}
		return actor.Snapshot{}, fmt.Errorf("loading actor %s: %w", id, err)
	}
	s.CatalogFingerprint = uint64(fp)

	rows, err := r.db.Query(ctx, `
		SELECT kind, base FROM actor_attributes WHERE actor_id = $1 ORDER BY kind`, id)
	if err != nil {
		return actor.Snapshot{}, fmt.Errorf("querying attributes for %s: %w", id, err)
	}
	s.Stats, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (attribute.Stat, error) {
		var (
			st   attribute.Stat
			kind string
		)
		err := row.Scan(&kind, &st.Base)
		st.Kind = attribute.Kind(kind)
		return st, err
	})
	if err != nil {
		return actor.Snapshot{}, fmt.Errorf("scanning attributes for %s: %w", id, err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT state FROM actor_effects WHERE actor_id = $1 ORDER BY position`, id)
	if err != nil {
		return actor.Snapshot{}, fmt.Errorf("querying effects for %s: %w", id, err)
	}
	effects, err := pgx.CollectRows(rows, pgx.RowTo[actor.EffectState])
	if err != nil {
		return actor.Snapshot{}, fmt.Errorf("scanning effects for %s: %w", id, err)
	}
	if len(effects) > 0 {
		s.Effects = effects
	}
	return s, nil
}

// List returns every stored actor id, ordered.
func (r *SnapshotRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM actors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing actors: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning actor ids: %w", err)
	}
	return ids, nil
}

// Delete removes the stored snapshot for id. Attribute and effect rows
// cascade.
//
// Postcondition: Returns an error wrapping actor.ErrActorNotFound when nothing was stored.
func (r *SnapshotRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM actors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting actor %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting snapshot %s: %w", id, actor.ErrActorNotFound)
	}
	return nil
}

// SaveAll saves every snapshot, stopping at the first failure.
func (r *SnapshotRepository) SaveAll(ctx context.Context, snaps []actor.Snapshot) error {
	for _, s := range snaps {
		if err := r.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
