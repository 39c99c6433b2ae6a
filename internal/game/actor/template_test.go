package actor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/scarlet/internal/game/actor"
	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/combat"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
)

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

const knightYAML = `
id: knight
name: Scarlet Knight
faction: enemy
category: elite
stats:
  - kind: health
    base: 120
  - kind: defense
    base: 8
immunities: [stun]
resistances:
  poison: 0.5
effects: [iron_skin]
`

func TestLoadTemplates(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "knight.yaml", knightYAML)
	writeTemplate(t, dir, "notes.txt", "ignored")

	tmpls, err := actor.LoadTemplates(dir)
	require.NoError(t, err)
	require.Contains(t, tmpls, "knight")
	k := tmpls["knight"]
	assert.Equal(t, "Scarlet Knight", k.Name)
	assert.Equal(t, []attribute.Stat{{Kind: attribute.Health, Base: 120}, {Kind: attribute.Defense, Base: 8}}, k.Stats)
}

func TestLoadTemplates_RejectsUnknownAttribute(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bad.yaml", "id: bad\nstats:\n  - kind: charisma\n    base: 3\n")

	_, err := actor.LoadTemplates(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charisma")
}

func TestLoadTemplates_RejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bad.yaml", "id: bad\nhitpoints: 3\n")
	_, err := actor.LoadTemplates(dir)
	assert.Error(t, err)
}

func TestLoadTemplates_RejectsDuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.yaml", "id: twin\n")
	writeTemplate(t, dir, "b.yaml", "id: twin\n")
	_, err := actor.LoadTemplates(dir)
	assert.Error(t, err)
}

func TestTemplate_Spawn(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "knight.yaml", knightYAML)
	tmpls, err := actor.LoadTemplates(dir)
	require.NoError(t, err)

	cat := condition.NewCatalog()
	require.NoError(t, cat.Register(&condition.Definition{
		ID:        "iron_skin",
		Category:  "buff",
		Duration:  -1,
		Modifiers: []condition.ModifierDef{{Attribute: "defense", Type: "flat_bonus", Magnitude: 2}},
	}))

	a := tmpls["knight"].Spawn(actor.Options{ID: "k1", Catalog: cat})

	assert.Equal(t, "k1", a.ID())
	assert.Equal(t, "knight", a.TemplateID())
	assert.Equal(t, combat.FactionEnemy, a.Faction())
	assert.Equal(t, combat.CategoryElite, a.Category())
	assert.InDelta(t, 120.0, a.Health().Max(), 1e-9)
	assert.InDelta(t, 10.0, a.GetValue(attribute.Defense), 1e-9)
	assert.True(t, a.Conditions().HasImmunity(condition.Stun))
	assert.InDelta(t, 0.5, a.Conditions().DurationResistance(condition.Poison), 1e-9)
}
