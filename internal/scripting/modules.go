package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/game/dice"
)

// RegisterModules registers the engine global into L:
//
//	engine.log.{debug,info,warn,error}(msg)
//	engine.dice.roll(expr) -> {total, dice, modifier}
//	engine.value(actor, kind) -> number | nil
//	engine.damage(actor, amount, tag...) -> bool
//	engine.heal(actor, amount) -> number
//	engine.apply(actor, effect_id) -> bool
//	engine.remove(actor, name) -> bool
//	engine.is_active(actor, category) -> bool
//	engine.stacks(actor, category) -> number
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"value":     m.luaValue,
		"damage":    m.luaDamage,
		"heal":      m.luaHeal,
		"apply":     m.luaApply,
		"remove":    m.luaRemove,
		"is_active": m.luaIsActive,
		"stacks":    m.luaStacks,
	})
	engine.RawSetString("log", m.logModule(L))
	engine.RawSetString("dice", m.diceModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	logAt := func(fn func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"debug": logAt(m.logger.Debug),
		"info":  logAt(m.logger.Info),
		"warn":  logAt(m.logger.Warn),
		"error": logAt(m.logger.Error),
	})
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"roll": func(L *lua.LState) int {
			expr, err := dice.Parse(L.CheckString(1))
			if err != nil {
				L.ArgError(1, err.Error())
				return 0
			}
			r := m.roller.Roll(expr)
			sum := 0
			for _, d := range r.Dice {
				sum += d
			}
			t := L.NewTable()
			t.RawSetString("total", lua.LNumber(r.Total()))
			t.RawSetString("dice", lua.LNumber(sum))
			t.RawSetString("modifier", lua.LNumber(r.Modifier))
			L.Push(t)
			return 1
		},
	})
	return mod
}

func (m *Manager) luaValue(L *lua.LState) int {
	if m.GetValue == nil {
		L.Push(lua.LNil)
		return 1
	}
	v, ok := m.GetValue(L.CheckString(1), L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (m *Manager) luaDamage(L *lua.LState) int {
	id := L.CheckString(1)
	amount := float64(L.CheckNumber(2))
	var tags []string
	for i := 3; i <= L.GetTop(); i++ {
		tags = append(tags, L.CheckString(i))
	}
	if m.ApplyDamage == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(m.ApplyDamage(id, amount, tags)))
	return 1
}

func (m *Manager) luaHeal(L *lua.LState) int {
	id := L.CheckString(1)
	amount := float64(L.CheckNumber(2))
	if m.ApplyHeal == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(m.ApplyHeal(id, amount)))
	return 1
}

func (m *Manager) luaApply(L *lua.LState) int {
	id, effectID := L.CheckString(1), L.CheckString(2)
	if m.ApplyEffect == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(m.ApplyEffect(id, effectID)))
	return 1
}

func (m *Manager) luaRemove(L *lua.LState) int {
	id, name := L.CheckString(1), L.CheckString(2)
	if m.RemoveEffect == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(m.RemoveEffect(id, name)))
	return 1
}

func (m *Manager) luaIsActive(L *lua.LState) int {
	id, cat := L.CheckString(1), L.CheckString(2)
	if m.IsActive == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(m.IsActive(id, cat)))
	return 1
}

func (m *Manager) luaStacks(L *lua.LState) int {
	id, cat := L.CheckString(1), L.CheckString(2)
	if m.StackCount == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(m.StackCount(id, cat)))
	return 1
}
