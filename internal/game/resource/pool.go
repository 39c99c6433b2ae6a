// Package resource implements bounded current/maximum pools whose ceiling
// mirrors an attribute's final value.
package resource

import (
	"fmt"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/tick"
)

// Config selects the attributes a Pool reads.
type Config struct {
	// Ceiling is the attribute whose final value is the pool's maximum.
	Ceiling attribute.Kind
	// Efficiency, when set, mitigates Drain: cost = amount × (1 − efficiency).
	Efficiency attribute.Kind
	// RegenBonus, when set, scales regeneration: rate × (1 + bonus).
	RegenBonus attribute.Kind
	// BaseRegen is the per-second regeneration before bonuses.
	BaseRegen float64
}

// Change describes one observed change of a pool's current value.
type Change struct {
	Pool     string
	Previous float64
	Current  float64
}

// Delta returns Current − Previous.
func (c Change) Delta() float64 { return c.Current - c.Previous }

// Pool is a bounded scalar: 0 <= Current() <= Max() at every observation point.
//
// Pool is not safe for concurrent use; the owning actor serialises access.
type Pool struct {
	name    string
	cfg     Config
	table   *attribute.Table
	current float64
	max     float64
	cancel  func()
	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(Change)
}

// NewPool creates a pool named name that tracks cfg.Ceiling in table and
// starts full.
//
// Precondition: table must be non-nil and cfg.Ceiling non-empty.
func NewPool(name string, table *attribute.Table, cfg Config) *Pool {
	if table == nil {
		panic("resource.NewPool: table must not be nil")
	}
	if cfg.Ceiling == "" {
		panic("resource.NewPool: ceiling attribute must not be empty")
	}
	p := &Pool{name: name, cfg: cfg, table: table}
	p.max = table.GetValue(cfg.Ceiling)
	p.current = p.max
	p.cancel = table.Subscribe(cfg.Ceiling, p.ceilingChanged)
	return p
}

// ceilingChanged refreshes the cached maximum and clamps the current value.
func (p *Pool) ceilingChanged(c attribute.Change) {
	p.max = c.Current
	if p.current > p.max {
		p.set(p.max)
	}
}

// Name returns the pool's name.
func (p *Pool) Name() string { return p.name }

// Current returns the current value.
func (p *Pool) Current() float64 { return p.current }

// Max returns the cached ceiling.
func (p *Pool) Max() float64 { return p.max }

// Fraction returns Current/Max, or 0 for an empty ceiling.
func (p *Pool) Fraction() float64 {
	if p.max <= 0 {
		return 0
	}
	return p.current / p.max
}

// IsEmpty reports whether the pool is at zero.
func (p *Pool) IsEmpty() bool { return p.current <= 0 }

// IsFull reports whether the pool is at its ceiling.
func (p *Pool) IsFull() bool { return p.current >= p.max }

// Set assigns v clamped to [0, Max()].
func (p *Pool) Set(v float64) {
	p.set(p.clamp(v))
}

// Fill sets the pool to its ceiling.
func (p *Pool) Fill() { p.set(p.max) }

// Add raises the pool by amount, clamped to Max(). It returns the amount
// actually applied and the excess that did not fit.
//
// Precondition: amount >= 0.
func (p *Pool) Add(amount float64) (applied, excess float64) {
	if amount <= 0 {
		return 0, 0
	}
	room := p.max - p.current
	if room < 0 {
		room = 0
	}
	applied = amount
	if applied > room {
		applied = room
		excess = amount - room
	}
	p.set(p.current + applied)
	return applied, excess
}

// Subtract lowers the pool by amount, clamped at 0, and returns the amount
// actually removed.
//
// Precondition: amount >= 0.
func (p *Pool) Subtract(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if amount > p.current {
		amount = p.current
	}
	p.set(p.current - amount)
	return amount
}

// Drain spends amount mitigated by the efficiency attribute. It fails,
// leaving the pool unchanged, when the pool holds less than amount before
// mitigation.
//
// Postcondition: Returns false iff amount > Current() at entry.
func (p *Pool) Drain(amount float64) bool {
	if amount < 0 {
		return false
	}
	if amount > p.current {
		return false
	}
	eff := 0.0
	if p.cfg.Efficiency != "" {
		eff = p.table.GetValue(p.cfg.Efficiency)
	}
	if eff > 1 {
		eff = 1
	}
	p.set(p.clamp(p.current - amount*(1-eff)))
	return true
}

// Regenerate adds BaseRegen × (1 + bonus) × dt, clamped to Max(), and returns
// the amount gained.
func (p *Pool) Regenerate(dt float64) float64 {
	if p.cfg.BaseRegen <= 0 || dt <= 0 {
		return 0
	}
	bonus := 0.0
	if p.cfg.RegenBonus != "" {
		bonus = p.table.GetValue(p.cfg.RegenBonus)
	}
	applied, _ := p.Add(p.cfg.BaseRegen * (1 + bonus) * dt)
	return applied
}

// GainOverTime schedules a task named name on s that adds
// total/ceil(duration/tickRate) at each tick boundary until duration has
// elapsed. An empty name uses "<pool>/gain". Scheduling the same name again
// replaces the running task. The returned task may be canceled; s.CancelAll
// cancels it when the owning actor is destroyed.
//
// Precondition: tickRate > 0.
func (p *Pool) GainOverTime(s *tick.Scheduler, name string, total, duration, tickRate float64) *tick.Task {
	n := tick.TickCount(duration, tickRate)
	per := 0.0
	if n > 0 {
		per = total / float64(n)
	}
	if name == "" {
		name = fmt.Sprintf("%s/gain", p.name)
	}
	return s.Schedule(tick.NewTask(name, duration, tickRate, func(*tick.Task) {
		p.Add(per)
	}))
}

// Subscribe registers fn for changes of the current value and returns a
// function that removes it. Calling the returned function more than once is
// a no-op.
func (p *Pool) Subscribe(fn func(Change)) (cancel func()) {
	id := p.nextSub
	p.nextSub++
	p.subs = append(p.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range p.subs {
			if s.id == id {
				p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

// Close detaches the pool from its ceiling attribute.
func (p *Pool) Close() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pool) clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > p.max {
		return p.max
	}
	return v
}

func (p *Pool) set(v float64) {
	if v == p.current {
		return
	}
	c := Change{Pool: p.name, Previous: p.current, Current: v}
	p.current = v
	subs := make([]subscriber, len(p.subs))
	copy(subs, p.subs)
	for _, s := range subs {
		s.fn(c)
	}
}
