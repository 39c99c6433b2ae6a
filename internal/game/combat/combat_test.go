package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/combat"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
	"github.com/cory-johannsen/scarlet/internal/game/event"
	"github.com/cory-johannsen/scarlet/internal/game/resource"
	"github.com/cory-johannsen/scarlet/internal/game/tick"
)

type testDefender struct {
	id       string
	faction  combat.Faction
	category combat.Category
	table    *attribute.Table
	reg      *condition.Registry
	health   *resource.Pool
	rec      *event.Recorder
}

func newDefender(t interface{ Helper() }, hp float64) *testDefender {
	t.Helper()
	table := attribute.NewTable(nil)
	table.SetBaseValue(attribute.Health, hp)
	return &testDefender{
		id:       "target",
		faction:  combat.FactionEnemy,
		category: combat.CategoryMinion,
		table:    table,
		reg:      condition.NewRegistry(table, nil),
		health:   resource.NewPool("health", table, resource.Config{Ceiling: attribute.Health}),
		rec:      &event.Recorder{},
	}
}

func (d *testDefender) ID() string                      { return d.id }
func (d *testDefender) Faction() combat.Faction         { return d.faction }
func (d *testDefender) Category() combat.Category       { return d.category }
func (d *testDefender) Attributes() *attribute.Table    { return d.table }
func (d *testDefender) Conditions() *condition.Registry { return d.reg }
func (d *testDefender) Health() *resource.Pool          { return d.health }
func (d *testDefender) Events() event.Sink              { return d.rec }

var noCrit = dice.Fixed{Float: 0.99}

func TestDealDamage_DefenseSubtracted(t *testing.T) {
	d := newDefender(t, 100)
	d.table.SetBaseValue(attribute.Defense, 4)

	res := combat.DealDamage(d, combat.Attack{AttackerID: "hero", Faction: combat.FactionPlayer, Damage: 10}, noCrit)

	assert.InDelta(t, 6.0, res.Dealt, 1e-9)
	assert.InDelta(t, 94.0, d.health.Current(), 1e-9)
	assert.Equal(t, []event.Kind{event.Damaged, event.HostileDamaged}, d.rec.Kinds())
}

func TestDealDamage_UnsetFactionIsNotHostile(t *testing.T) {
	d := newDefender(t, 100)

	combat.DealDamage(d, combat.Attack{AttackerID: "trap", Damage: 5}, noCrit)

	assert.Equal(t, []event.Kind{event.Damaged}, d.rec.Kinds())
	assert.Equal(t, combat.FactionUnknown, combat.ParseFaction(combat.Attack{}.Faction.String()))
}

func TestDealDamage_DefenseFloorOfOne(t *testing.T) {
	d := newDefender(t, 100)
	d.table.SetBaseValue(attribute.Defense, 50)

	res := combat.DealDamage(d, combat.Attack{Damage: 3, Faction: combat.FactionEnemy}, noCrit)

	assert.InDelta(t, 1.0, res.Dealt, 1e-9)
	assert.InDelta(t, 99.0, d.health.Current(), 1e-9)
}

func TestDealDamage_IgnoreDefense(t *testing.T) {
	d := newDefender(t, 100)
	d.table.SetBaseValue(attribute.Defense, 50)

	combat.DealDamage(d, combat.Attack{Damage: 7, IgnoreDefense: true}, noCrit)
	assert.InDelta(t, 93.0, d.health.Current(), 1e-9)
}

func TestDealDamage_TagBonusAndMultiplier(t *testing.T) {
	d := newDefender(t, 100)
	d.table.SetBaseValue(attribute.FireDamage, 2)
	d.table.SetBaseValue(attribute.SlashDamage, 3)

	res := combat.DealDamage(d, combat.Attack{
		Damage:        5,
		Multiplier:    2,
		IgnoreDefense: true,
		Tags:          []combat.Tag{combat.TagFire, combat.TagSlash},
	}, noCrit)

	assert.InDelta(t, 20.0, res.Dealt, 1e-9)
}

func TestDealDamage_CriticalHit(t *testing.T) {
	d := newDefender(t, 100)
	d.category = combat.CategoryBoss

	res := combat.DealDamage(d, combat.Attack{
		Damage:         10,
		CritChance:     0.5,
		CritMultiplier: 1.5,
		IgnoreDefense:  true,
	}, dice.Fixed{Float: 0.1})

	require.True(t, res.Critical)
	assert.InDelta(t, 15.0, res.Dealt, 1e-9)
	require.Equal(t, 1, d.rec.Count(event.CriticalHit))
	for _, e := range d.rec.Events() {
		if e.Kind == event.CriticalHit {
			assert.Equal(t, "boss", e.Detail)
		}
	}
}

func TestDealDamage_IncreasedDamageTaken(t *testing.T) {
	d := newDefender(t, 100)
	d.table.SetBaseValue(attribute.IncreasedDamageTaken, 0.5)

	combat.DealDamage(d, combat.Attack{Damage: 10, IgnoreDefense: true}, noCrit)
	assert.InDelta(t, 85.0, d.health.Current(), 1e-9)
}

func TestDealDamage_ReflectNegates(t *testing.T) {
	d := newDefender(t, 100)
	d.reg.Apply(condition.NewEffect("mirror", condition.Reflect, condition.StackNone, 1, condition.Timed(5)))

	res := combat.DealDamage(d, combat.Attack{Damage: 50, IgnoreDefense: true}, noCrit)

	assert.True(t, res.Negated)
	assert.InDelta(t, 100.0, d.health.Current(), 1e-9)
	assert.Equal(t, []event.Kind{event.AttackNegated}, d.rec.Kinds())
}

func TestDealDamage_SelfAndSummonNotifications(t *testing.T) {
	d := newDefender(t, 100)
	d.category = combat.CategorySummon

	combat.DealDamage(d, combat.Attack{AttackerID: "target", Faction: combat.FactionEnemy, Damage: 1}, noCrit)

	assert.Equal(t, []event.Kind{event.Damaged, event.SelfDamaged, event.SummonDamaged}, d.rec.Kinds())
}

func TestDealDamage_KillsOnceAndClamps(t *testing.T) {
	d := newDefender(t, 10)

	res := combat.DealDamage(d, combat.Attack{Damage: 25, IgnoreDefense: true}, noCrit)
	require.True(t, res.Killed)
	assert.InDelta(t, 10.0, res.Applied, 1e-9)
	assert.Zero(t, d.health.Current())

	again := combat.DealDamage(d, combat.Attack{Damage: 25, IgnoreDefense: true}, noCrit)
	assert.False(t, again.Killed)
	assert.Equal(t, 1, d.rec.Count(event.Died))
}

func TestDealDamage_OnHitEffectsRespectImmunity(t *testing.T) {
	d := newDefender(t, 100)
	burn := condition.NewEffect("burn", condition.Burn, condition.Stackable, 3, condition.Timed(4))
	stun := condition.NewEffect("stun", condition.Stun, condition.StackNone, 1, condition.Timed(1))
	d.reg.SetImmunity(condition.Stun, true)

	res := combat.DealDamage(d, combat.Attack{
		AttackerID:    "hero",
		Damage:        1,
		IgnoreDefense: true,
		Effects:       []*condition.Effect{burn, stun},
	}, noCrit)

	assert.Equal(t, 1, res.EffectsApplied)
	assert.True(t, d.reg.IsActive(condition.Burn))
	assert.False(t, d.reg.IsActive(condition.Stun))
	applied, ok := d.reg.Find("burn")
	require.True(t, ok)
	assert.NotEqual(t, burn.ID, applied.ID)
	assert.Equal(t, "hero", applied.SourceActor)
}

func TestPulseAttack_ScalesByStacks(t *testing.T) {
	e := condition.NewEffect("poison", condition.Poison, condition.Stackable, 5, condition.Timed(6))
	e.PulseDamage = dice.MustParse("2")
	e.PulseTags = []string{"poison"}
	e.Stacks = 3
	e.SourceActor = "witch"

	atk := combat.PulseAttack(e, noCrit, combat.FactionEnemy)

	assert.True(t, atk.IgnoreDefense)
	assert.InDelta(t, 6.0, atk.Damage, 1e-9)
	assert.Equal(t, []combat.Tag{combat.TagPoison}, atk.Tags)
	assert.Equal(t, "witch", atk.AttackerID)
}

func TestHeal_BonusReductionAndOverheal(t *testing.T) {
	d := newDefender(t, 100)
	d.health.Set(80)
	d.table.SetBaseValue(attribute.HealBonus, 0.5)
	d.table.SetBaseValue(attribute.HealReduction, 0.25)

	res := combat.Heal(d, 20, "")

	assert.InDelta(t, 20.0, res.Amount, 1e-9)
	assert.InDelta(t, 5.0, res.Overheal, 1e-9)
	assert.InDelta(t, 100.0, d.health.Current(), 1e-9)
	assert.Equal(t, []event.Kind{event.Healed, event.Overhealed}, d.rec.Kinds())
}

func TestHeal_BlockedByHealBlock(t *testing.T) {
	d := newDefender(t, 100)
	d.health.Set(50)
	d.reg.Apply(condition.NewEffect("grievous", condition.HealBlock, condition.StackNone, 1, condition.Timed(3)))

	res := combat.Heal(d, 30, "")

	assert.True(t, res.Blocked)
	assert.InDelta(t, 50.0, d.health.Current(), 1e-9)
	assert.Equal(t, 1, d.rec.Count(event.HealBlocked))
}

func TestHeal_DeadIsNoOpUntilRevived(t *testing.T) {
	d := newDefender(t, 40)
	d.health.Set(0)

	assert.Zero(t, combat.Heal(d, 30, "").Amount)
	assert.Zero(t, d.health.Current())

	require.True(t, combat.Revive(d, 0.5))
	assert.InDelta(t, 20.0, d.health.Current(), 1e-9)
	assert.False(t, combat.Revive(d, 0.5))
	assert.Equal(t, 1, d.rec.Count(event.Revived))
}

func TestHealOverTime_StacksAndRestarts(t *testing.T) {
	d := newDefender(t, 100)
	d.health.Set(10)
	s := tick.NewScheduler(nil)
	m := combat.NewHealOverTime(d, s, 2, nil)
	spec := combat.HoTSpec{Name: "regrowth", PerTick: 1, Duration: 3, Interval: 1}

	assert.Equal(t, 1, m.Apply(spec, ""))
	s.Advance(1)
	assert.InDelta(t, 11.0, d.health.Current(), 1e-9)

	assert.Equal(t, 2, m.Apply(spec, ""))
	assert.Equal(t, 2, m.Apply(spec, ""), "stacks are bounded")
	assert.Equal(t, 1, s.Len(), "reapplying must not create a parallel task")

	s.Advance(1)
	assert.InDelta(t, 13.0, d.health.Current(), 1e-9)
	s.Advance(2)
	assert.InDelta(t, 17.0, d.health.Current(), 1e-9)
	assert.False(t, m.Active("regrowth"))
	assert.Zero(t, s.Len())
}

func TestHealOverTime_ReapplyWithNewInterval(t *testing.T) {
	d := newDefender(t, 100)
	d.health.Set(10)
	s := tick.NewScheduler(nil)
	m := combat.NewHealOverTime(d, s, 3, nil)

	m.Apply(combat.HoTSpec{Name: "mend", PerTick: 5, Duration: 4, Interval: 1}, "")
	assert.Equal(t, 2, m.Apply(combat.HoTSpec{Name: "mend", PerTick: 5, Duration: 4, Interval: 2}, ""))
	assert.Equal(t, 1, s.Len())

	s.Advance(1)
	assert.InDelta(t, 10.0, d.health.Current(), 1e-9, "no boundary until the new interval")
	s.Advance(1)
	assert.InDelta(t, 20.0, d.health.Current(), 1e-9)
	s.Advance(2)
	assert.InDelta(t, 30.0, d.health.Current(), 1e-9)
	assert.False(t, m.Active("mend"))
	assert.Zero(t, s.Len())
}

func TestHealOverTime_Cancel(t *testing.T) {
	d := newDefender(t, 100)
	d.health.Set(10)
	s := tick.NewScheduler(nil)
	m := combat.NewHealOverTime(d, s, 3, nil)
	m.Apply(combat.HoTSpec{Name: "a", PerTick: 1, Duration: 5, Interval: 1}, "")
	m.Apply(combat.HoTSpec{Name: "b", PerTick: 1, Duration: 5, Interval: 1}, "")

	assert.True(t, m.Cancel("a"))
	assert.False(t, m.Cancel("a"))
	s.Advance(1)
	assert.InDelta(t, 11.0, d.health.Current(), 1e-9)

	assert.Equal(t, 1, m.CancelAll())
	s.Advance(5)
	assert.InDelta(t, 11.0, d.health.Current(), 1e-9)
}

func TestPropertyDealDamage_NeverBelowOneWithDefense(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := newDefender(rt, 1000)
		d.table.SetBaseValue(attribute.Defense, rapid.Float64Range(0, 500).Draw(rt, "defense"))
		dmg := rapid.Float64Range(0.001, 200).Draw(rt, "damage")

		res := combat.DealDamage(d, combat.Attack{Damage: dmg}, noCrit)

		if res.Dealt < 1 {
			rt.Fatalf("dealt %v < 1 for positive pre-mitigation damage %v", res.Dealt, dmg)
		}
		if hp := d.health.Current(); hp < 0 || hp > d.health.Max() {
			rt.Fatalf("health %v escaped [0, %v]", hp, d.health.Max())
		}
	})
}
