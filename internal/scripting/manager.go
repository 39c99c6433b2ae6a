package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
)

// globalScope is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scope VM is found.
const globalScope = "__global__"

// Engine is the set of actor operations exposed to Lua as engine.*.
// actor.World implements it.
type Engine interface {
	Value(actorID, kind string) (float64, bool)
	Damage(actorID string, amount float64, tags []string) bool
	HealActor(actorID string, amount float64) float64
	Apply(actorID, effectID string) bool
	RemoveEffect(actorID, name string) bool
	IsActive(actorID, category string) bool
	Stacks(actorID, category string) int
}

// vm is one sandboxed interpreter and its per-call budget.
type vm struct {
	L     *lua.LState
	limit int
	depth int
}

// Manager owns one sandboxed LState per scope (an actor template id) plus an
// optional global VM, and dispatches effect hooks into them.
//
// Loading takes the manager lock. Hook calls must come from the frame driver
// goroutine: they may re-enter the same VM through engine.* callbacks, so no
// lock is held while Lua runs.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* functions.
	GetValue     func(actorID, kind string) (float64, bool)
	ApplyDamage  func(actorID string, amount float64, tags []string) bool
	ApplyHeal    func(actorID string, amount float64) float64
	ApplyEffect  func(actorID, effectID string) bool
	RemoveEffect func(actorID, name string) bool
	IsActive     func(actorID, category string) bool
	StackCount   func(actorID, category string) int
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// Bind injects every engine.* callback from e.
func (m *Manager) Bind(e Engine) {
	m.GetValue = e.Value
	m.ApplyDamage = e.Damage
	m.ApplyHeal = e.HealActor
	m.ApplyEffect = e.Apply
	m.RemoveEffect = e.RemoveEffect
	m.IsActive = e.IsActive
	m.StackCount = e.Stacks
}

// Load creates a sandboxed VM for scope, registers the engine module, then
// executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: The scope VM is registered; returns error on Lua load failure.
func (m *Manager) Load(scope, scriptDir string, instLimit int) error {
	return m.loadInto(scope, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM used as the CallHook fallback for
// every scope.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalScope, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}
	L.RemoveContext()

	m.mu.Lock()
	if old, ok := m.vms[key]; ok {
		old.L.Close()
	}
	m.vms[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	m.logger.Info("scripts loaded",
		zap.String("scope", key),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Scopes returns the loaded scope names, sorted.
func (m *Manager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.vms))
	for k := range m.vms {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CallHook calls the named Lua global function in scope's VM. If the scope
// has no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if
// the hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[scope]
	if !ok {
		v = m.vms[globalScope]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Debug("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	L := v.L
	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if v.depth == 0 {
		cancel := resetBudget(L, v.limit)
		defer func() {
			L.RemoveContext()
			cancel()
		}()
	}
	v.depth++
	defer func() { v.depth-- }()

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// RunEffectHook calls hook with the actor id and a table describing e:
// {id, name, category, stacks, source, remaining}.
func (m *Manager) RunEffectHook(scope, hook, actorID string, e *condition.Effect) {
	m.mu.RLock()
	v, ok := m.vms[scope]
	if !ok {
		v = m.vms[globalScope]
	}
	m.mu.RUnlock()
	if v == nil {
		return
	}
	L := v.L
	t := L.NewTable()
	t.RawSetString("id", lua.LString(e.ID))
	t.RawSetString("name", lua.LString(e.Name))
	t.RawSetString("category", lua.LString(e.Category))
	t.RawSetString("stacks", lua.LNumber(e.Stacks))
	t.RawSetString("source", lua.LString(e.SourceActor))
	t.RawSetString("remaining", lua.LNumber(e.Remaining.Seconds()))
	_, _ = m.CallHook(scope, hook, lua.LString(actorID), t)
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.vms {
		v.L.Close()
		delete(m.vms, k)
	}
}
