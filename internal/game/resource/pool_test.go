package resource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/resource"
	"github.com/cory-johannsen/scarlet/internal/game/tick"
)

func scarletPool(t interface{ Helper() }, max float64) (*resource.Pool, *attribute.Table) {
	t.Helper()
	tbl := attribute.NewTable(nil)
	tbl.SetBaseValue(attribute.Scarlet, max)
	p := resource.NewPool("scarlet", tbl, resource.Config{
		Ceiling:    attribute.Scarlet,
		Efficiency: attribute.SPFocus,
		RegenBonus: attribute.ScarletRegenBonus,
		BaseRegen:  2,
	})
	return p, tbl
}

func TestPool_StartsFull(t *testing.T) {
	p, _ := scarletPool(t, 100)
	assert.Equal(t, 100.0, p.Current())
	assert.Equal(t, 100.0, p.Max())
	assert.True(t, p.IsFull())
	assert.Equal(t, 1.0, p.Fraction())
}

func TestPool_DrainScenario(t *testing.T) {
	p, _ := scarletPool(t, 100)
	p.Set(30)
	assert.False(t, p.Drain(50))
	assert.Equal(t, 30.0, p.Current())
	assert.True(t, p.Drain(20))
	assert.Equal(t, 10.0, p.Current())
}

func TestPool_DrainMitigatedByEfficiency(t *testing.T) {
	p, tbl := scarletPool(t, 100)
	tbl.SetBaseValue(attribute.SPFocus, 0.25)
	p.Set(40)
	assert.True(t, p.Drain(40))
	assert.Equal(t, 10.0, p.Current())

	tbl.SetBaseValue(attribute.SPFocus, 3)
	assert.True(t, p.Drain(10))
	assert.Equal(t, 10.0, p.Current(), "efficiency is capped at 1")
	assert.False(t, p.Drain(-1))
}

func TestPool_Regenerate(t *testing.T) {
	p, tbl := scarletPool(t, 100)
	p.Set(0)
	assert.Equal(t, 4.0, p.Regenerate(2))
	tbl.SetBaseValue(attribute.ScarletRegenBonus, 0.5)
	assert.Equal(t, 3.0, p.Regenerate(1))
	assert.Equal(t, 7.0, p.Current())
	p.Set(99)
	assert.Equal(t, 1.0, p.Regenerate(10))
	assert.Equal(t, 100.0, p.Current())
	assert.Equal(t, 0.0, p.Regenerate(0))
}

func TestPool_CeilingTracksAttribute(t *testing.T) {
	p, tbl := scarletPool(t, 100)
	tbl.AddModifier(attribute.Scarlet, attribute.Modifier{Type: attribute.PercentDebuff, Magnitude: 0.5, Source: "curse"})
	assert.Equal(t, 50.0, p.Max())
	assert.Equal(t, 50.0, p.Current(), "current is clamped to a lowered ceiling")

	tbl.RemoveModifiers("curse")
	assert.Equal(t, 100.0, p.Max())
	assert.Equal(t, 50.0, p.Current(), "raising the ceiling does not refill")

	p.Close()
	tbl.SetBaseValue(attribute.Scarlet, 10)
	assert.Equal(t, 100.0, p.Max(), "closed pools stop tracking")
}

func TestPool_AddAndSubtract(t *testing.T) {
	p, _ := scarletPool(t, 100)
	p.Set(90)
	applied, excess := p.Add(25)
	assert.Equal(t, 10.0, applied)
	assert.Equal(t, 15.0, excess)
	assert.Equal(t, 100.0, p.Subtract(150))
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 0.0, p.Subtract(-5))
}

func TestPool_Subscribe(t *testing.T) {
	p, _ := scarletPool(t, 100)
	var changes []resource.Change
	cancel := p.Subscribe(func(c resource.Change) { changes = append(changes, c) })
	p.Set(60)
	p.Set(60)
	p.Fill()
	require.Len(t, changes, 2)
	assert.Equal(t, -40.0, changes[0].Delta())
	assert.Equal(t, 40.0, changes[1].Delta())
	cancel()
	p.Set(1)
	assert.Len(t, changes, 2)
}

func TestPool_GainOverTime(t *testing.T) {
	p, _ := scarletPool(t, 100)
	p.Set(0)
	s := tick.NewScheduler(nil)
	task := p.GainOverTime(s, "", 30, 3, 1)
	assert.Equal(t, "scarlet/gain", task.Name())
	s.Advance(1)
	assert.Equal(t, 10.0, p.Current())
	s.Advance(2)
	assert.Equal(t, 30.0, p.Current())
	assert.True(t, task.Done())
}

func TestPool_GainOverTime_UnevenDuration(t *testing.T) {
	p, _ := scarletPool(t, 100)
	p.Set(0)
	s := tick.NewScheduler(nil)
	p.GainOverTime(s, "potion", 30, 2.5, 1)
	s.Advance(10)
	assert.InDelta(t, 30.0, p.Current(), 1e-9)
}

func TestPool_GainOverTime_Cancelled(t *testing.T) {
	p, _ := scarletPool(t, 100)
	p.Set(0)
	s := tick.NewScheduler(nil)
	p.GainOverTime(s, "potion", 30, 3, 1)
	s.Advance(1)
	s.CancelAll()
	s.Advance(5)
	assert.Equal(t, 10.0, p.Current())
}

func TestNewPool_Preconditions(t *testing.T) {
	assert.Panics(t, func() { resource.NewPool("x", nil, resource.Config{Ceiling: attribute.Health}) })
	assert.Panics(t, func() { resource.NewPool("x", attribute.NewTable(nil), resource.Config{}) })
}

func TestPropertyPool_AlwaysBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p, tbl := scarletPool(t, rapid.Float64Range(1, 200).Draw(t, "max"))
		ops := rapid.IntRange(1, 30).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			v := rapid.Float64Range(-50, 300).Draw(t, "v")
			switch rapid.IntRange(0, 5).Draw(t, "op") {
			case 0:
				p.Set(v)
			case 1:
				p.Add(v)
			case 2:
				p.Subtract(v)
			case 3:
				p.Drain(v)
			case 4:
				p.Regenerate(v / 10)
			case 5:
				tbl.SetBaseValue(attribute.Scarlet, v)
			}
			assert.GreaterOrEqual(t, p.Current(), 0.0)
			assert.LessOrEqual(t, p.Current(), p.Max())
		}
	})
}
