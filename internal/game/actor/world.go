package actor

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/combat"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
)

// ErrActorNotFound is returned when an id names no actor.
var ErrActorNotFound = errors.New("actor not found")

// World owns every live actor and advances them in spawn order.
//
// Tick and the mutators take the world lock. The scripting bridge methods
// (Value, Damage, HealActor, Apply, RemoveEffect, IsActive, Stacks) do not: they
// are only called from inside Tick, on the driver goroutine, by Lua hooks.
type World struct {
	mu     sync.RWMutex
	actors map[string]*Actor
	order  []string
	frames uint64
	logger *zap.Logger
}

// NewWorld creates an empty World.
func NewWorld(logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &World{actors: make(map[string]*Actor), logger: logger}
}

// Add registers a. An actor with the same id is destroyed and replaced.
func (w *World) Add(a *Actor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if old, ok := w.actors[a.ID()]; ok {
		old.Destroy()
		w.dropOrder(a.ID())
	}
	w.actors[a.ID()] = a
	w.order = append(w.order, a.ID())
	w.logger.Info("actor added",
		zap.String("actor_id", a.ID()),
		zap.String("template", a.TemplateID()),
	)
}

// Remove destroys and forgets the actor with id.
func (w *World) Remove(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.actors[id]
	if !ok {
		return fmt.Errorf("removing %q: %w", id, ErrActorNotFound)
	}
	a.Destroy()
	delete(w.actors, id)
	w.dropOrder(id)
	return nil
}

func (w *World) dropOrder(id string) {
	for i, cur := range w.order {
		if cur == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of live actors.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.actors)
}

// Frames returns how many Tick calls the world has processed.
func (w *World) Frames() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frames
}

// Update runs fn with the world lock held, for mutations issued from outside
// the frame driver.
func (w *World) Update(id string, fn func(a *Actor)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.actors[id]
	if !ok {
		return fmt.Errorf("updating %q: %w", id, ErrActorNotFound)
	}
	fn(a)
	return nil
}

// Tick advances every actor by dt in spawn order. Actors added by hooks
// during the tick are advanced from the next frame.
func (w *World) Tick(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	order := append([]string(nil), w.order...)
	for _, id := range order {
		if a, ok := w.actors[id]; ok {
			a.Tick(dt)
		}
	}
	w.frames++
}

// Snapshot returns the snapshot of the actor with id.
func (w *World) Snapshot(id string) (Snapshot, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a, ok := w.actors[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("snapshot %q: %w", id, ErrActorNotFound)
	}
	return a.Snapshot(), nil
}

// Snapshots returns a snapshot of every actor, sorted by id.
func (w *World) Snapshots() []Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Snapshot, 0, len(w.actors))
	for _, a := range w.actors {
		out = append(out, a.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Destroy destroys every actor.
func (w *World) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.order {
		w.actors[id].Destroy()
	}
	clear(w.actors)
	w.order = nil
}

func (w *World) lookup(id string) (*Actor, bool) {
	a, ok := w.actors[id]
	if !ok {
		w.logger.Debug("script referenced unknown actor", zap.String("actor_id", id))
	}
	return a, ok
}

// Value returns the final value of kind on actor id.
func (w *World) Value(id, kind string) (float64, bool) {
	a, ok := w.lookup(id)
	if !ok {
		return 0, false
	}
	return a.GetValue(attribute.Kind(kind)), true
}

// Damage deals an ignore-defense hit of amount to actor id.
func (w *World) Damage(id string, amount float64, tags []string) bool {
	a, ok := w.lookup(id)
	if !ok {
		return false
	}
	atk := combat.Attack{Faction: a.Faction(), Damage: amount, IgnoreDefense: true}
	for _, t := range tags {
		atk.Tags = append(atk.Tags, combat.Tag(t))
	}
	return !a.DealDamage(atk).Negated
}

// HealActor heals actor id by amount and returns the health restored.
func (w *World) HealActor(id string, amount float64) float64 {
	a, ok := w.lookup(id)
	if !ok {
		return 0
	}
	return a.Heal(amount).Amount
}

// Apply applies catalog effect effectID to actor id.
func (w *World) Apply(id, effectID string) bool {
	a, ok := w.lookup(id)
	if !ok {
		return false
	}
	out, err := a.ApplyNamed(effectID, "")
	if err != nil {
		w.logger.Warn("script applied unknown effect", zap.Error(err))
		return false
	}
	return out != condition.Dropped
}

// RemoveEffect removes effects named name from actor id.
func (w *World) RemoveEffect(id, name string) bool {
	a, ok := w.lookup(id)
	if !ok {
		return false
	}
	return a.RemoveStatusEffect(name)
}

// IsActive reports whether category is active on actor id.
func (w *World) IsActive(id, category string) bool {
	a, ok := w.lookup(id)
	if !ok {
		return false
	}
	return a.IsStatusActive(condition.Category(category))
}

// Stacks returns the stack count of category on actor id.
func (w *World) Stacks(id, category string) int {
	a, ok := w.lookup(id)
	if !ok {
		return 0
	}
	return a.GetStackCount(condition.Category(category))
}
