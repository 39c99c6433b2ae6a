// Package event carries the engine's outward notifications to animation, UI
// and AI collaborators.
package event

import (
	"sync"

	"go.uber.org/zap"
)

// Kind identifies a notification.
type Kind string

const (
	Damaged         Kind = "damaged"
	SelfDamaged     Kind = "self_damaged"
	HostileDamaged  Kind = "hostile_damaged"
	SummonDamaged   Kind = "summon_damaged"
	CriticalHit     Kind = "critical_hit"
	AttackNegated   Kind = "attack_negated"
	Died            Kind = "died"
	Revived         Kind = "revived"
	Healed          Kind = "healed"
	Overhealed      Kind = "overhealed"
	HealBlocked     Kind = "heal_blocked"
	ResourceGained  Kind = "resource_gained"
	StatusApplied   Kind = "status_applied"
	StatusStacked   Kind = "status_stacked"
	StatusRefreshed Kind = "status_refreshed"
	StatusRemoved   Kind = "status_removed"
)

// Event is one notification raised by an actor.
type Event struct {
	Kind    Kind
	ActorID string
	// SourceID is the attacker or granting actor, when one exists.
	SourceID string
	Amount   float64
	// Detail carries the effect name, pool name or actor category as appropriate.
	Detail string
	Stacks int
}

// Sink receives events. Emit is called synchronously from inside engine
// mutations; implementations must not block.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f.
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Bus fans each event out to every subscriber, in subscription order.
// Bus is safe for concurrent use; handlers run on the emitting goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []busSub
}

type busSub struct {
	id   int
	kind Kind // empty matches every kind
	sink Sink
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers sink for events of kind, or every kind when kind is
// empty, and returns a function that removes the subscription.
func (b *Bus) Subscribe(kind Kind, sink Sink) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, busSub{id: id, kind: kind, sink: sink})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers e to a snapshot of the matching subscribers.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	subs := make([]busSub, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()
	for _, s := range subs {
		if s.kind == "" || s.kind == e.Kind {
			s.sink.Emit(e)
		}
	}
}

// LogSink writes every event to a zap logger at debug level.
type LogSink struct {
	Logger *zap.Logger
}

// Emit logs e.
func (l LogSink) Emit(e Event) {
	l.Logger.Debug("actor event",
		zap.String("kind", string(e.Kind)),
		zap.String("actor", e.ActorID),
		zap.String("source", e.SourceID),
		zap.Float64("amount", e.Amount),
		zap.String("detail", e.Detail),
		zap.Int("stacks", e.Stacks),
	)
}

// Recorder keeps every event it receives. It is intended for tests and
// replay tooling.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit records e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
