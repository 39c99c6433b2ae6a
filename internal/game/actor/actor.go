// Package actor binds one character's attribute table, status effect
// registry, resource pools and scheduled tasks into the surface the rest of
// the game talks to.
package actor

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/combat"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
	"github.com/cory-johannsen/scarlet/internal/game/event"
	"github.com/cory-johannsen/scarlet/internal/game/resource"
	"github.com/cory-johannsen/scarlet/internal/game/tick"
	"github.com/cory-johannsen/scarlet/internal/observability"
)

// HookRunner runs the Lua hooks named by status effects.
type HookRunner interface {
	RunEffectHook(scope, hook, actorID string, e *condition.Effect)
}

// Regen holds the per-second base regeneration of each pool.
type Regen struct {
	Health     float64
	Scarlet    float64
	BlockPower float64
}

// Options configures New.
type Options struct {
	// ID defaults to a fresh UUID.
	ID         string
	Name       string
	TemplateID string
	Faction    combat.Faction
	Category   combat.Category
	Stats      []attribute.Stat
	Defaults   attribute.DefaultProvider
	// Catalog resolves ApplyNamed. nil disables it.
	Catalog *condition.Catalog
	// Dice defaults to a crypto-backed source.
	Dice dice.Source
	// Events defaults to event.Discard.
	Events       event.Sink
	Scripts      HookRunner
	Regen        Regen
	MaxHoTStacks int
	Logger       *zap.Logger
}

// Actor is one character. It is not safe for concurrent use; the frame
// driver serialises every call.
type Actor struct {
	id         string
	name       string
	templateID string
	faction    combat.Faction
	category   combat.Category

	table     *attribute.Table
	registry  *condition.Registry
	health    *resource.Pool
	scarlet   *resource.Pool
	block     *resource.Pool
	scheduler *tick.Scheduler
	hots      *combat.HealOverTime

	catalog   *condition.Catalog
	dice      dice.Source
	events    event.Sink
	scripts   HookRunner
	quiet     bool
	destroyed bool
	logger    *zap.Logger
}

// New builds an actor from opts. Pools start full.
func New(opts Options) *Actor {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Dice == nil {
		opts.Dice = dice.NewCryptoSource()
	}
	if opts.Events == nil {
		opts.Events = event.Discard
	}
	logger := observability.ActorLogger(opts.Logger, opts.ID, opts.Name)

	table := attribute.NewTable(logger)
	table.Seed(opts.Stats, opts.Defaults)

	a := &Actor{
		id:         opts.ID,
		name:       opts.Name,
		templateID: opts.TemplateID,
		faction:    opts.Faction,
		category:   opts.Category,
		table:      table,
		registry:   condition.NewRegistry(table, logger),
		scheduler:  tick.NewScheduler(logger),
		catalog:    opts.Catalog,
		dice:       dice.NewLoggedRoller(opts.Dice, logger),
		events:     opts.Events,
		scripts:    opts.Scripts,
		logger:     logger,
	}
	a.health = resource.NewPool("health", table, resource.Config{
		Ceiling:    attribute.Health,
		RegenBonus: attribute.HealthRegenBonus,
		BaseRegen:  opts.Regen.Health,
	})
	a.scarlet = resource.NewPool("scarlet", table, resource.Config{
		Ceiling:    attribute.Scarlet,
		Efficiency: attribute.SPFocus,
		RegenBonus: attribute.ScarletRegenBonus,
		BaseRegen:  opts.Regen.Scarlet,
	})
	a.block = resource.NewPool("block_power", table, resource.Config{
		Ceiling:    attribute.BlockPower,
		Efficiency: attribute.BlockEfficiency,
		RegenBonus: attribute.BlockRegenBonus,
		BaseRegen:  opts.Regen.BlockPower,
	})
	a.scarlet.Subscribe(a.scarletChanged)
	a.hots = combat.NewHealOverTime(a, a.scheduler, opts.MaxHoTStacks, logger)
	a.registry.SetListener(effectListener{a})
	return a
}

// ID returns the actor's unique id.
func (a *Actor) ID() string { return a.id }

// Name returns the display name.
func (a *Actor) Name() string { return a.name }

// TemplateID returns the template the actor was built from, if any.
func (a *Actor) TemplateID() string { return a.templateID }

// Faction returns the actor's faction.
func (a *Actor) Faction() combat.Faction { return a.faction }

// Category returns the actor's category.
func (a *Actor) Category() combat.Category { return a.category }

// Attributes returns the actor's attribute table.
func (a *Actor) Attributes() *attribute.Table { return a.table }

// Conditions returns the actor's status effect registry.
func (a *Actor) Conditions() *condition.Registry { return a.registry }

// Health returns the health pool.
func (a *Actor) Health() *resource.Pool { return a.health }

// Scarlet returns the Scarlet pool.
func (a *Actor) Scarlet() *resource.Pool { return a.scarlet }

// BlockPower returns the block charge pool.
func (a *Actor) BlockPower() *resource.Pool { return a.block }

// Scheduler returns the actor's task scheduler.
func (a *Actor) Scheduler() *tick.Scheduler { return a.scheduler }

// Events returns the sink the actor emits to.
func (a *Actor) Events() event.Sink { return a.events }

// Dead reports whether health is empty.
func (a *Actor) Dead() bool { return a.health.IsEmpty() }

// Destroyed reports whether Destroy was called.
func (a *Actor) Destroyed() bool { return a.destroyed }

// GetValue returns the final value of kind.
func (a *Actor) GetValue(kind attribute.Kind) float64 {
	return a.table.GetValue(kind)
}

// IsStatusActive reports whether an effect of category c is active.
func (a *Actor) IsStatusActive(c condition.Category) bool {
	return a.registry.IsActive(c)
}

// GetStackCount returns the stack count of category c.
func (a *Actor) GetStackCount(c condition.Category) int {
	return a.registry.StackCount(c)
}

// DealDamage resolves atk against the actor.
func (a *Actor) DealDamage(atk combat.Attack) combat.Result {
	if a.destroyed {
		return combat.Result{}
	}
	res := combat.DealDamage(a, atk, a.dice)
	a.logger.Debug("damage resolved",
		zap.String("attacker", atk.AttackerID),
		zap.Float64("raw", res.Raw),
		zap.Float64("dealt", res.Dealt),
		zap.Bool("critical", res.Critical),
		zap.Bool("negated", res.Negated),
		zap.Float64("health", a.health.Current()),
	)
	return res
}

// Heal restores health, subject to heal modifiers and heal_block.
func (a *Actor) Heal(amount float64) combat.HealResult {
	if a.destroyed {
		return combat.HealResult{}
	}
	res := combat.Heal(a, amount, "")
	a.logger.Debug("heal resolved",
		zap.Float64("requested", amount),
		zap.Float64("healed", res.Amount),
		zap.Float64("overheal", res.Overheal),
		zap.Bool("blocked", res.Blocked),
	)
	return res
}

// HealOverTime starts or stacks the named heal-over-time and returns its stack count.
func (a *Actor) HealOverTime(spec combat.HoTSpec) int {
	if a.destroyed || spec.Interval <= 0 {
		return 0
	}
	return a.hots.Apply(spec, "")
}

// HoTStacks returns the stack count of the named heal-over-time.
func (a *Actor) HoTStacks(name string) int { return a.hots.Stacks(name) }

// Revive restores a dead actor to fraction of its maximum health.
func (a *Actor) Revive(fraction float64) bool {
	if a.destroyed {
		return false
	}
	return combat.Revive(a, fraction)
}

// ApplyStatusEffect applies e, skipping categories the actor is immune to.
func (a *Actor) ApplyStatusEffect(e *condition.Effect) condition.Outcome {
	if a.destroyed || a.registry.HasImmunity(e.Category) {
		return condition.Dropped
	}
	return a.registry.Apply(e)
}

// ApplyNamed instantiates the catalog definition id and applies it.
func (a *Actor) ApplyNamed(id, sourceActor string) (condition.Outcome, error) {
	if a.catalog == nil {
		return condition.Dropped, fmt.Errorf("actor %s: %w: %q (no catalog)", a.id, condition.ErrUnknownEffect, id)
	}
	e, err := a.catalog.Instantiate(id)
	if err != nil {
		return condition.Dropped, fmt.Errorf("actor %s: %w", a.id, err)
	}
	e.SourceActor = sourceActor
	return a.ApplyStatusEffect(e), nil
}

// RemoveStatusEffect removes every active effect named name.
func (a *Actor) RemoveStatusEffect(name string) bool {
	return a.registry.Remove(name)
}

// Cleanse removes harmful effects, or every effect when onlyHarmful is false.
// A full cleanse also cancels running heal-over-time and resource gain tasks.
// It returns the number of effects and tasks removed.
func (a *Actor) Cleanse(onlyHarmful bool) int {
	n := a.registry.Cleanse(onlyHarmful)
	if !onlyHarmful {
		n += a.hots.CancelAll()
		n += a.scheduler.CancelAll()
	}
	if n > 0 {
		a.logger.Debug("cleansed",
			zap.Bool("only_harmful", onlyHarmful),
			zap.Int("removed", n),
		)
	}
	return n
}

// SpendScarlet drains amount from the Scarlet pool, mitigated by sp_focus.
func (a *Actor) SpendScarlet(amount float64) bool {
	return a.scarlet.Drain(amount)
}

// Block drains amount from the block pool, mitigated by block_efficiency.
func (a *Actor) Block(amount float64) bool {
	return a.block.Drain(amount)
}

// GainScarlet adds amount to the Scarlet pool and returns what fit.
func (a *Actor) GainScarlet(amount float64) float64 {
	applied, _ := a.scarlet.Add(amount)
	return applied
}

// GainScarletOverTime spreads total over duration in tickRate steps.
func (a *Actor) GainScarletOverTime(name string, total, duration, tickRate float64) {
	if a.destroyed || tickRate <= 0 {
		return
	}
	a.scarlet.GainOverTime(a.scheduler, name, total, duration, tickRate)
}

func (a *Actor) scarletChanged(c resource.Change) {
	if a.quiet || c.Delta() <= 0 {
		return
	}
	a.events.Emit(event.Event{
		Kind:    event.ResourceGained,
		ActorID: a.id,
		Amount:  c.Delta(),
		Detail:  c.Pool,
	})
}

// Tick advances the actor by dt seconds: status effects first, then pool
// regeneration, then scheduled tasks.
//
// Precondition: dt >= 0.
func (a *Actor) Tick(dt float64) {
	if a.destroyed || dt <= 0 {
		return
	}
	a.registry.Tick(dt)
	a.quiet = true
	if !a.Dead() {
		a.health.Regenerate(dt)
	}
	a.scarlet.Regenerate(dt)
	a.block.Regenerate(dt)
	a.quiet = false
	a.scheduler.Advance(dt)
}

// Destroy cancels every scheduled task and detaches the pools. Every later
// mutation is a no-op.
func (a *Actor) Destroy() {
	if a.destroyed {
		return
	}
	a.destroyed = true
	a.hots.CancelAll()
	a.scheduler.CancelAll()
	a.registry.SetListener(nil)
	a.health.Close()
	a.scarlet.Close()
	a.block.Close()
	a.logger.Info("actor destroyed")
}
