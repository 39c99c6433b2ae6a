package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/scarlet/internal/game/dice"
)

func TestNewSandboxedState_Globals(t *testing.T) {
	L := NewSandboxedState(0)
	defer L.Close()

	for _, name := range append([]string{"os", "io", "debug"}, blockedGlobals...) {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), name)
	}
	assert.NoError(t, L.DoString(`
		assert(math.floor(2.5) == 2)
		assert(string.format("%d", 7) == "7")
		assert(table.concat({"a", "b"}, ",") == "a,b")
	`))
}

func TestBudget_SpendsOnePerDone(t *testing.T) {
	b := newBudget(3)
	for range 2 {
		b.Done()
	}
	assert.EqualValues(t, 1, b.Remaining())
	select {
	case <-b.Context.Done():
		t.Fatal("budget canceled early")
	default:
	}

	b.Done()
	b.Done()
	assert.Zero(t, b.Remaining())
	assert.Error(t, b.Err())
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultInstructionLimit, effectiveLimit(0))
	assert.Equal(t, DefaultInstructionLimit, effectiveLimit(-5))
	assert.Equal(t, 25, effectiveLimit(25))
}

func TestResetBudget_RevivesExhaustedState(t *testing.T) {
	L := NewSandboxedState(20)
	defer L.Close()
	require.Error(t, L.DoString(`while true do end`))

	cancel := resetBudget(L, 20)
	defer cancel()
	require.NoError(t, L.DoString(`x = 1 + 1`))
	assert.Equal(t, lua.LNumber(2), L.GetGlobal("x"))

	b, ok := L.Context().(*budget)
	require.True(t, ok)
	assert.Less(t, b.Remaining(), int64(20))
}

func TestCallHook_NestedCallsShareBudget(t *testing.T) {
	m := NewManager(dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop()), zap.NewNop())
	t.Cleanup(m.Close)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hooks.lua"), []byte(`
		function inner()
			local s = 0
			for i = 1, 100 do s = s + i end
			return s
		end
		function outer()
			reenter()
			reenter()
			reenter()
			return "done"
		end
	`), 0o644))
	require.NoError(t, m.Load("knight", dir, 300))

	L := m.vms["knight"].L
	L.SetGlobal("reenter", L.NewFunction(func(*lua.LState) int {
		_, _ = m.CallHook("knight", "inner")
		return 0
	}))

	ret, err := m.CallHook("knight", "inner")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(5050), ret)

	ret, err = m.CallHook("knight", "outer")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret, "three nested calls overrun one top-level budget")

	ret, err = m.CallHook("knight", "inner")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(5050), ret)
}

func TestProperty_EveryBudgetStopsInfiniteLoop(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 200).Draw(t, "limit")
		L := NewSandboxedState(limit)
		defer L.Close()
		if err := L.DoString(`while true do end`); err == nil {
			t.Fatalf("limit %d did not stop the loop", limit)
		}
		cancel := resetBudget(L, limit)
		defer cancel()
		if err := L.DoString(`while true do end`); err == nil {
			t.Fatalf("reset budget %d did not stop the loop", limit)
		}
	})
}
