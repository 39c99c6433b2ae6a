package combat

import (
	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
	"github.com/cory-johannsen/scarlet/internal/game/event"
)

// Attack describes one incoming hit.
type Attack struct {
	AttackerID string
	// Faction is the attacker's. An unset faction never raises HostileDamaged.
	Faction  Faction
	Category Category
	Damage   float64
	// Multiplier scales damage after per-type bonuses; 0 means 1.
	Multiplier float64
	CritChance float64
	// CritMultiplier scales damage on a critical hit; 0 means 1.
	CritMultiplier float64
	IgnoreDefense  bool
	Tags           []Tag
	// Effects are applied to the defender on hit, unless it is immune.
	Effects []*condition.Effect
}

// Result reports what DealDamage did.
type Result struct {
	Negated  bool
	Critical bool
	// Raw is the damage before defense and damage-taken scaling.
	Raw float64
	// Dealt is the final damage after mitigation.
	Dealt float64
	// Applied is the health actually removed, which is less than Dealt when
	// the defender had less health left.
	Applied float64
	Killed  bool
	// EffectsApplied counts on-hit effects that were handed to the registry.
	EffectsApplied int
}

// DealDamage resolves atk against d:
//
//  1. a defender with an active reflect flag negates the attack entirely
//  2. damage = (base + Σ defender per-tag bonus) × multiplier
//  3. a roll below CritChance multiplies by CritMultiplier
//  4. unless IgnoreDefense, Defense is subtracted with a floor of 1
//  5. damage is scaled by (1 + IncreasedDamageTaken) and removed from health
//
// On-hit effects are applied after damage to surviving defenders, skipping
// categories the defender is immune to.
//
// Precondition: d and src must be non-nil.
// Postcondition: 0 <= d.Health().Current() <= d.Health().Max().
func DealDamage(d Defender, atk Attack, src dice.Source) Result {
	sink := d.Events()
	if d.Conditions().IsActive(condition.Reflect) {
		sink.Emit(event.Event{Kind: event.AttackNegated, ActorID: d.ID(), SourceID: atk.AttackerID, Amount: atk.Damage})
		return Result{Negated: true}
	}
	if IsDead(d) {
		return Result{}
	}

	attrs := d.Attributes()
	dmg := atk.Damage
	for _, tag := range atk.Tags {
		dmg += attrs.GetValue(BonusKind(tag))
	}
	dmg *= orOne(atk.Multiplier)

	var res Result
	if dice.Chance(src, atk.CritChance) {
		res.Critical = true
		dmg *= orOne(atk.CritMultiplier)
	}
	res.Raw = dmg

	if !atk.IgnoreDefense && dmg > 0 {
		dmg -= attrs.GetValue(attribute.Defense)
		if dmg < 1 {
			dmg = 1
		}
	}
	if dmg < 0 {
		dmg = 0
	}
	dmg *= 1 + attrs.GetValue(attribute.IncreasedDamageTaken)
	res.Dealt = dmg
	res.Applied = d.Health().Subtract(dmg)

	emitDamage(d, atk, res)

	if d.Health().IsEmpty() {
		res.Killed = true
		sink.Emit(event.Event{Kind: event.Died, ActorID: d.ID(), SourceID: atk.AttackerID, Detail: d.Category().String()})
		return res
	}

	reg := d.Conditions()
	for _, e := range atk.Effects {
		if reg.HasImmunity(e.Category) {
			continue
		}
		inst := e.Clone()
		inst.SourceActor = atk.AttackerID
		reg.Apply(inst)
		res.EffectsApplied++
	}
	return res
}

func emitDamage(d Defender, atk Attack, res Result) {
	sink := d.Events()
	base := event.Event{ActorID: d.ID(), SourceID: atk.AttackerID, Amount: res.Applied}

	e := base
	e.Kind = event.Damaged
	sink.Emit(e)

	switch {
	case atk.AttackerID != "" && atk.AttackerID == d.ID():
		e = base
		e.Kind = event.SelfDamaged
		sink.Emit(e)
	case atk.Faction != FactionUnknown && atk.Faction != d.Faction():
		e = base
		e.Kind = event.HostileDamaged
		e.Detail = atk.Faction.String()
		sink.Emit(e)
	}
	if res.Critical {
		e = base
		e.Kind = event.CriticalHit
		e.Detail = d.Category().String()
		sink.Emit(e)
	}
	if d.Category() == CategorySummon {
		e = base
		e.Kind = event.SummonDamaged
		sink.Emit(e)
	}
}

// PulseAttack builds the synthetic attack for one pulse of a damage-over-time
// effect: rolled pulse damage times the effect's stacks, ignoring defense and
// tagged with the effect's pulse tags. faction should be the defender's own,
// so pulses do not count as hostile hits.
func PulseAttack(e *condition.Effect, src dice.Source, faction Faction) Attack {
	dmg := 0.0
	if !e.PulseDamage.IsZero() {
		dmg = float64(dice.Roll(e.PulseDamage, src).Total())
	}
	stacks := e.Stacks
	if stacks < 1 {
		stacks = 1
	}
	tags := make([]Tag, len(e.PulseTags))
	for i, t := range e.PulseTags {
		tags[i] = Tag(t)
	}
	return Attack{
		AttackerID:    e.SourceActor,
		Faction:       faction,
		Damage:        dmg * float64(stacks),
		IgnoreDefense: true,
		Tags:          tags,
	}
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
