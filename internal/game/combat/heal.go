package combat

import (
	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/event"
)

// HealResult reports what Heal did.
type HealResult struct {
	Blocked bool
	// Amount is the health actually restored.
	Amount float64
	// Overheal is the scaled heal that did not fit under the ceiling.
	Overheal float64
}

// Heal restores amount × (1 + HealBonus − HealReduction) health to d.
// An active heal_block flag vetoes the heal. Dead defenders are not healed;
// use Revive.
func Heal(d Defender, amount float64, sourceID string) HealResult {
	if amount <= 0 || IsDead(d) {
		return HealResult{}
	}
	sink := d.Events()
	if d.Conditions().IsActive(condition.HealBlock) {
		sink.Emit(event.Event{Kind: event.HealBlocked, ActorID: d.ID(), SourceID: sourceID, Amount: amount})
		return HealResult{Blocked: true}
	}
	attrs := d.Attributes()
	scale := 1 + attrs.GetValue(attribute.HealBonus) - attrs.GetValue(attribute.HealReduction)
	if scale < 0 {
		scale = 0
	}
	applied, excess := d.Health().Add(amount * scale)
	if applied > 0 {
		sink.Emit(event.Event{Kind: event.Healed, ActorID: d.ID(), SourceID: sourceID, Amount: applied})
	}
	if excess > 0 {
		sink.Emit(event.Event{Kind: event.Overhealed, ActorID: d.ID(), SourceID: sourceID, Amount: excess})
	}
	return HealResult{Amount: applied, Overheal: excess}
}

// Revive restores a dead defender to fraction of its maximum health and
// reports whether it was dead. fraction is clamped into (0, 1].
func Revive(d Defender, fraction float64) bool {
	if !IsDead(d) {
		return false
	}
	if fraction <= 0 || fraction > 1 {
		fraction = 1
	}
	hp := d.Health()
	hp.Set(hp.Max() * fraction)
	d.Events().Emit(event.Event{Kind: event.Revived, ActorID: d.ID(), Amount: hp.Current()})
	return true
}
