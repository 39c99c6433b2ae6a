package condition

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
)

// Outcome reports what Apply did with an effect.
type Outcome int

const (
	// Applied means a new instance became active.
	Applied Outcome = iota
	// Stacked means the active instance gained a stack.
	Stacked
	// Refreshed means only the active instance's duration was reset.
	Refreshed
	// Dropped means the application was ignored.
	Dropped
)

// String returns a log-friendly name.
func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Stacked:
		return "stacked"
	case Refreshed:
		return "refreshed"
	case Dropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// RemoveReason explains why an effect left the registry.
type RemoveReason int

const (
	Expired RemoveReason = iota
	Removed
	Cleansed
)

// String returns a log-friendly name.
func (r RemoveReason) String() string {
	switch r {
	case Expired:
		return "expired"
	case Removed:
		return "removed"
	case Cleansed:
		return "cleansed"
	default:
		return "unknown"
	}
}

// Listener observes registry transitions. Callbacks run after the registry
// has finished mutating, so they may call back into it.
type Listener interface {
	EffectApplied(e *Effect)
	EffectStacked(e *Effect)
	EffectRefreshed(e *Effect)
	EffectRemoved(e *Effect, reason RemoveReason)
	EffectPulsed(e *Effect)
}

// NopListener implements Listener with no-ops. Embed it to observe a subset.
type NopListener struct{}

func (NopListener) EffectApplied(*Effect)               {}
func (NopListener) EffectStacked(*Effect)               {}
func (NopListener) EffectRefreshed(*Effect)             {}
func (NopListener) EffectRemoved(*Effect, RemoveReason) {}
func (NopListener) EffectPulsed(*Effect)                {}

// Registry is an actor's list of active status effects. It owns the
// stacking, refresh and expiry rules and is the only mutator of its FlagTable.
//
// Immunity is advisory: Apply never consults HasImmunity. Callers that must
// respect immunity check HasImmunity before calling Apply.
//
// Registry is not safe for concurrent use; the owning actor serialises access.
type Registry struct {
	table    *attribute.Table
	flags    *FlagTable
	effects  []*Effect
	resist   map[Category]float64
	immune   map[Category]bool
	listener Listener
	logger   *zap.Logger
}

// NewRegistry creates an empty Registry that writes modifiers into table.
//
// Precondition: table must be non-nil.
func NewRegistry(table *attribute.Table, logger *zap.Logger) *Registry {
	if table == nil {
		panic("condition.NewRegistry: table must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		table:    table,
		flags:    newFlagTable(),
		resist:   make(map[Category]float64),
		immune:   make(map[Category]bool),
		listener: NopListener{},
		logger:   logger,
	}
}

// SetListener replaces the registry's listener. nil restores the no-op listener.
func (r *Registry) SetListener(l Listener) {
	if l == nil {
		l = NopListener{}
	}
	r.listener = l
}

// Flags returns the registry's state flag table.
func (r *Registry) Flags() *FlagTable { return r.flags }

// Apply adds e or merges it into the active instance of its category:
//   - no active instance: e becomes active with one stack
//   - active StackNone: e is dropped
//   - active RefreshOnly: the remaining duration resets to e.Total
//   - active Stackable: stacks rise by one up to MaxStacks, modifiers are
//     rescaled from the first application's per-stack templates, and the
//     remaining duration resets to e.Total even when the cap was reached
//
// The active instance's policy governs the merge.
//
// Precondition: e must not be nil and e.ID must be unique.
func (r *Registry) Apply(e *Effect) Outcome {
	existing := r.find(e.key())
	if existing == nil {
		e.Stacks = 1
		e.Remaining = e.Total
		e.pulseElapsed = 0
		applyModifiers(r.table, e)
		r.effects = append(r.effects, e)
		r.flags.increment(e.Category)
		r.log("effect applied", e)
		r.listener.EffectApplied(e)
		return Applied
	}

	switch existing.Policy {
	case RefreshOnly:
		existing.Remaining = e.Total
		r.log("effect refreshed", existing)
		r.listener.EffectRefreshed(existing)
		return Refreshed
	case Stackable:
		existing.Remaining = e.Total
		if existing.Stacks >= existing.stackCap() {
			r.log("effect refreshed at stack cap", existing)
			r.listener.EffectRefreshed(existing)
			return Refreshed
		}
		existing.Stacks++
		reapplyModifiers(r.table, existing)
		r.log("effect stacked", existing)
		r.listener.EffectStacked(existing)
		return Stacked
	default:
		r.log("effect dropped", e)
		return Dropped
	}
}

// Restore reinstates an effect from a snapshot with its saved stack count and
// remaining duration. An existing instance in the same slot is replaced.
func (r *Registry) Restore(e *Effect) {
	if prev := r.find(e.key()); prev != nil {
		r.remove(prev, Removed)
	}
	if e.Stacks < 1 {
		e.Stacks = 1
	}
	if e.Stacks > e.stackCap() {
		e.Stacks = e.stackCap()
	}
	applyModifiers(r.table, e)
	r.effects = append(r.effects, e)
	r.flags.increment(e.Category)
	r.log("effect restored", e)
}

// Remove removes every active effect named name and reports whether any was removed.
func (r *Registry) Remove(name string) bool {
	var matched []*Effect
	for _, e := range r.effects {
		if e.Name == name {
			matched = append(matched, e)
		}
	}
	for _, e := range matched {
		r.remove(e, Removed)
	}
	return len(matched) > 0
}

// RemoveByID removes the effect with id and reports whether it was active.
func (r *Registry) RemoveByID(id string) bool {
	for _, e := range r.effects {
		if e.ID == id {
			r.remove(e, Removed)
			return true
		}
	}
	return false
}

// RemoveCategory removes every active effect of category c.
func (r *Registry) RemoveCategory(c Category) int {
	var matched []*Effect
	for _, e := range r.effects {
		if e.Category == c {
			matched = append(matched, e)
		}
	}
	for _, e := range matched {
		r.remove(e, Removed)
	}
	return len(matched)
}

// Cleanse removes every active effect, or only harmful ones when onlyHarmful
// is true, and returns how many were removed.
func (r *Registry) Cleanse(onlyHarmful bool) int {
	var matched []*Effect
	for _, e := range r.effects {
		if !onlyHarmful || e.Harmful {
			matched = append(matched, e)
		}
	}
	for _, e := range matched {
		r.remove(e, Cleansed)
	}
	return len(matched)
}

// Tick advances every effect by dt seconds. Timed effects lose
// dt × DurationResistance(category); infinite effects never lose time.
// Pulses due during dt are reported first, then effects whose remaining
// duration has reached zero are removed.
//
// Precondition: dt >= 0.
func (r *Registry) Tick(dt float64) {
	var pulses, expired []*Effect
	for _, e := range r.effects {
		e.Remaining = e.Remaining.Elapse(dt * r.DurationResistance(e.Category))
		if e.PulseInterval > 0 {
			e.pulseElapsed += dt
			for e.pulseElapsed >= e.PulseInterval {
				e.pulseElapsed -= e.PulseInterval
				pulses = append(pulses, e)
			}
		}
		if e.Remaining.Expired() {
			expired = append(expired, e)
		}
	}
	for _, e := range pulses {
		if r.contains(e) {
			r.listener.EffectPulsed(e)
		}
	}
	for _, e := range expired {
		if r.contains(e) && e.Remaining.Expired() {
			r.remove(e, Expired)
		}
	}
}

// IsActive reports whether any effect of category c is active.
func (r *Registry) IsActive(c Category) bool {
	if c.Flagged() {
		return r.flags.IsSet(c)
	}
	for _, e := range r.effects {
		if e.Category == c {
			return true
		}
	}
	return false
}

// StackCount returns the stack count of category c's active instance, or the
// sum across instances for concurrent categories. Absent categories report 0.
func (r *Registry) StackCount(c Category) int {
	total := 0
	for _, e := range r.effects {
		if e.Category == c {
			total += e.Stacks
		}
	}
	return total
}

// Find returns the first active effect named name.
func (r *Registry) Find(name string) (*Effect, bool) {
	for _, e := range r.effects {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Active returns a snapshot of the active effects in application order.
// The pointed-to effects are shared; callers must not modify them.
func (r *Registry) Active() []*Effect {
	out := make([]*Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Len returns the number of active effects.
func (r *Registry) Len() int { return len(r.effects) }

// SetDurationResistance sets the multiplier applied to elapsed time for
// category c. Values below 1 lengthen effects; values above 1 shorten them.
// Negative multipliers are stored as 0.
func (r *Registry) SetDurationResistance(c Category, multiplier float64) {
	if multiplier < 0 {
		multiplier = 0
	}
	r.resist[c] = multiplier
}

// DurationResistance returns the multiplier for c, 1 when unset.
func (r *Registry) DurationResistance(c Category) float64 {
	if m, ok := r.resist[c]; ok {
		return m
	}
	return 1
}

// SetImmunity marks or clears immunity to category c.
func (r *Registry) SetImmunity(c Category, immune bool) {
	if immune {
		r.immune[c] = true
		return
	}
	delete(r.immune, c)
}

// HasImmunity reports whether the actor is immune to c. Apply does not
// enforce this; consulting it is the caller's obligation.
func (r *Registry) HasImmunity(c Category) bool {
	return r.immune[c]
}

func (r *Registry) find(key string) *Effect {
	for _, e := range r.effects {
		if e.key() == key {
			return e
		}
	}
	return nil
}

func (r *Registry) contains(target *Effect) bool {
	for _, e := range r.effects {
		if e == target {
			return true
		}
	}
	return false
}

// remove strips e's modifiers, releases its flag, drops it from the list and
// notifies the listener.
func (r *Registry) remove(e *Effect, reason RemoveReason) {
	idx := -1
	for i, cur := range r.effects {
		if cur == e {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	r.table.RemoveModifiers(e.Source())
	r.flags.decrement(e.Category)
	r.effects = append(r.effects[:idx], r.effects[idx+1:]...)
	r.logger.Debug("effect removed",
		zap.String("effect", e.Name),
		zap.String("id", e.ID),
		zap.String("reason", reason.String()),
	)
	r.listener.EffectRemoved(e, reason)
}

func (r *Registry) log(msg string, e *Effect) {
	r.logger.Debug(msg,
		zap.String("effect", e.Name),
		zap.String("id", e.ID),
		zap.String("category", string(e.Category)),
		zap.Int("stacks", e.Stacks),
		zap.Stringer("remaining", e.Remaining),
	)
}
