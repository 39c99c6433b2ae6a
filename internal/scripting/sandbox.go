// Package scripting provides a sandboxed GopherLua execution environment for
// status effect hooks. Engine interactions are injected via Manager callback
// fields, so scripts never hold Go pointers into actors.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one top-level hook call,
// and of loading a script directory, when no override is configured.
const DefaultInstructionLimit = 100_000

// blockedGlobals are removed from every VM after the base library opens.
var blockedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"collectgarbage",
	"require",
	"module",
}

// budget is a context that cancels itself once Done has been called limit
// times. GopherLua's main loop calls Done once per opcode when a context is
// set, so the budget is an exact instruction count.
type budget struct {
	context.Context
	cancel    context.CancelFunc
	remaining atomic.Int64
}

func newBudget(limit int) *budget {
	ctx, cancel := context.WithCancel(context.Background())
	b := &budget{Context: ctx, cancel: cancel}
	b.remaining.Store(int64(limit))
	return b
}

// Done spends one instruction.
func (b *budget) Done() <-chan struct{} {
	if b.remaining.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// Remaining returns the unspent instructions, never below zero.
func (b *budget) Remaining() int64 {
	return max(b.remaining.Load(), 0)
}

func effectiveLimit(instLimit int) int {
	if instLimit <= 0 {
		return DefaultInstructionLimit
	}
	return instLimit
}

// NewSandboxedState creates a Lua VM with only the base, table, string and
// math libraries, the globals in blockedGlobals removed, and an initial
// budget of instLimit opcodes (0 means DefaultInstructionLimit). Manager
// replaces the budget at the start of every top-level hook call.
//
// The caller owns the state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	resetBudget(L, instLimit)
	return L
}

// resetBudget installs a fresh budget on L and returns the function that
// releases it.
func resetBudget(L *lua.LState, instLimit int) context.CancelFunc {
	b := newBudget(effectiveLimit(instLimit))
	L.SetContext(b)
	return b.cancel
}
