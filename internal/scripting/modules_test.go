package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/scarlet/internal/game/dice"
	"github.com/cory-johannsen/scarlet/internal/scripting"
)

func runScript(t *testing.T, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "test.lua", luaSrc)
	// Use a unique scope per test to avoid collisions
	scope := "modtest_" + t.Name()
	require.NoError(t, mgr.Load(scope, dir, 0))
	ret, err := mgr.CallHook(scope, hook, args...)
	require.NoError(t, err)
	return ret
}

// fakeEngine records bridge calls and answers from fixed state.
type fakeEngine struct {
	values  map[string]float64
	damaged []string
	applied []string
	removed []string
	stacks  int
}

func (f *fakeEngine) Value(id, kind string) (float64, bool) {
	v, ok := f.values[id+"/"+kind]
	return v, ok
}

func (f *fakeEngine) Damage(id string, amount float64, tags []string) bool {
	for _, t := range tags {
		id += "+" + t
	}
	f.damaged = append(f.damaged, id)
	return amount > 0
}

func (f *fakeEngine) HealActor(id string, amount float64) float64 { return amount / 2 }

func (f *fakeEngine) Apply(id, effectID string) bool {
	f.applied = append(f.applied, id+"/"+effectID)
	return true
}

func (f *fakeEngine) RemoveEffect(id, name string) bool {
	f.removed = append(f.removed, id+"/"+name)
	return false
}

func (f *fakeEngine) IsActive(id, category string) bool { return category == "stun" }

func (f *fakeEngine) Stacks(id, category string) int { return f.stacks }

func TestEngineLog_AllLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	mgr := scripting.NewManager(dice.NewLoggedRoller(dice.NewCryptoSource(), logger), logger)

	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	levels := map[string]bool{}
	for _, e := range logs.All() {
		levels[e.Level.String()] = true
	}
	assert.True(t, levels["debug"], "expected debug log")
	assert.True(t, levels["info"], "expected info log")
	assert.True(t, levels["warn"], "expected warn log")
	assert.True(t, levels["error"], "expected error log")
}

func TestEngineDice_Roll_ReturnsTable(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function do_roll()
			local r = engine.dice.roll("1d6")
			if type(r.dice) ~= "number" then error("dice field missing") end
			return r.total
		end
	`, "do_roll")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %T", ret)
	assert.GreaterOrEqual(t, int(n), 1)
	assert.LessOrEqual(t, int(n), 6)
}

func TestEngineDice_Roll_BadExpression(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function do_roll() return engine.dice.roll("banana") end
	`, "do_roll")
	assert.Equal(t, lua.LNil, ret)
}

func TestProperty_DiceRoll_TotalEqualsDicePlusModifier(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "inv.lua", `
		function check_invariant(expr)
			local r = engine.dice.roll(expr)
			return r.total == r.dice + r.modifier
		end
	`)
	require.NoError(t, mgr.Load("invariant", dir, 0))
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.SampledFrom([]string{"1d6", "2d6+1", "1d4-1", "3d8", "5"}).Draw(rt, "expr")
		ret, err := mgr.CallHook("invariant", "check_invariant", lua.LString(expr))
		if err != nil || ret != lua.LTrue {
			rt.Fatalf("total must equal dice + modifier for %s", expr)
		}
	})
}

func TestEngine_NilCallbacks_AreNoOps(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function inspect_engine()
			if engine.value("a", "health") ~= nil then return "value" end
			if engine.damage("a", 5) then return "damage" end
			if engine.heal("a", 5) ~= 0 then return "heal" end
			if engine.apply("a", "stunned") then return "apply" end
			if engine.remove("a", "stunned") then return "remove" end
			if engine.is_active("a", "stun") then return "is_active" end
			if engine.stacks("a", "stun") ~= 0 then return "stacks" end
			return "ok"
		end
	`, "inspect_engine")
	assert.Equal(t, lua.LString("ok"), ret)
}

func TestEngine_BoundCallbacks(t *testing.T) {
	mgr, _ := newTestManager(t)
	fake := &fakeEngine{values: map[string]float64{"a/defense": 12}, stacks: 3}
	mgr.Bind(fake)

	ret := runScript(t, mgr, `
		function inspect_engine()
			local out = {}
			table.insert(out, tostring(engine.value("a", "defense")))
			table.insert(out, tostring(engine.value("a", "missing")))
			table.insert(out, tostring(engine.damage("a", 4, "fire", "poison")))
			table.insert(out, tostring(engine.heal("a", 10)))
			table.insert(out, tostring(engine.apply("a", "stunned")))
			table.insert(out, tostring(engine.remove("a", "stunned")))
			table.insert(out, tostring(engine.is_active("a", "stun")))
			table.insert(out, tostring(engine.stacks("a", "poison")))
			return table.concat(out, ",")
		end
	`, "inspect_engine")

	assert.Equal(t, lua.LString("12,nil,true,5,true,false,true,3"), ret)
	assert.Equal(t, []string{"a+fire+poison"}, fake.damaged)
	assert.Equal(t, []string{"a/stunned"}, fake.applied)
	assert.Equal(t, []string{"a/stunned"}, fake.removed)
}
