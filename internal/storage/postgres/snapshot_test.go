package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/scarlet/internal/game/actor"
	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/combat"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
	"github.com/cory-johannsen/scarlet/internal/storage/postgres"
	"github.com/cory-johannsen/scarlet/internal/testutil"
)

func setupSnapshotRepo(t *testing.T) *postgres.SnapshotRepository {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewSnapshotRepository(pc.RawPool, nil)
}

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func newKnight(id string) *actor.Actor {
	return actor.New(actor.Options{
		ID:         id,
		Name:       "Knight",
		TemplateID: "knight",
		Faction:    combat.FactionPlayer,
		Category:   combat.CategoryElite,
		Stats: []attribute.Stat{
			{Kind: attribute.Health, Base: 120},
			{Kind: attribute.Scarlet, Base: 40},
			{Kind: attribute.Defense, Base: 6},
		},
		Dice: dice.Fixed{Float: 0.99},
	})
}

func TestSnapshotRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := setupSnapshotRepo(t)
	ctx := context.Background()

	a := newKnight(uniqueID("knight"))
	a.ApplyStatusEffect(condition.NewEffect("guard", condition.Buff, condition.Stackable, 5, condition.Infinite(),
		condition.Mod(attribute.Defense, attribute.FlatBonus, 3)))
	venom := condition.NewEffect("venom", condition.Poison, condition.Stackable, 3, condition.Timed(4))
	venom.Harmful = true
	venom.PulseInterval = 1
	venom.PulseDamage = dice.MustParse("1d4+1")
	venom.PulseTags = []string{"poison"}
	a.ApplyStatusEffect(venom)
	a.Tick(0.25)
	a.Health().Set(90)

	want := a.Snapshot()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.TemplateID, got.TemplateID)
	assert.Equal(t, "elite", got.Category)
	assert.InDelta(t, 90.0, got.Health, 1e-9)
	assert.Equal(t, want.CatalogFingerprint, got.CatalogFingerprint)
	assert.ElementsMatch(t, want.Stats, got.Stats)
	require.Len(t, got.Effects, 2)
	assert.Equal(t, want.Effects, got.Effects)

	b := newKnight(a.ID())
	require.NoError(t, b.Restore(got))
	assert.InDelta(t, 9.0, b.GetValue(attribute.Defense), 1e-9)
	assert.True(t, b.IsStatusActive(condition.Poison))
}

func TestSnapshotRepository_SaveReplacesState(t *testing.T) {
	repo := setupSnapshotRepo(t)
	ctx := context.Background()

	a := newKnight(uniqueID("knight"))
	a.ApplyStatusEffect(condition.NewEffect("guard", condition.Buff, condition.StackNone, 1, condition.Timed(10)))
	require.NoError(t, repo.Save(ctx, a.Snapshot()))

	a.RemoveStatusEffect("guard")
	require.NoError(t, repo.Save(ctx, a.Snapshot()))

	got, err := repo.Load(ctx, a.ID())
	require.NoError(t, err)
	assert.Empty(t, got.Effects)
}

func TestSnapshotRepository_LoadMissing(t *testing.T) {
	repo := setupSnapshotRepo(t)
	_, err := repo.Load(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, actor.ErrActorNotFound))
}

func TestSnapshotRepository_ListAndDelete(t *testing.T) {
	repo := setupSnapshotRepo(t)
	ctx := context.Background()

	a, b := newKnight("a_"+uniqueID("k")), newKnight("b_"+uniqueID("k"))
	require.NoError(t, repo.SaveAll(ctx, []actor.Snapshot{a.Snapshot(), b.Snapshot()}))

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID(), b.ID()}, ids)

	require.NoError(t, repo.Delete(ctx, a.ID()))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID()), actor.ErrActorNotFound)

	ids, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID()}, ids)
}

func TestSnapshotRepository_SaveRejectsEmptyID(t *testing.T) {
	repo := postgres.NewSnapshotRepository(nil, nil)
	assert.Error(t, repo.Save(context.Background(), actor.Snapshot{}))
}
