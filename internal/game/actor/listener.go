package actor

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/scarlet/internal/game/combat"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/event"
)

// effectListener turns registry transitions into events, Lua hooks and
// periodic damage.
type effectListener struct {
	a *Actor
}

func (l effectListener) emit(kind event.Kind, e *condition.Effect) {
	l.a.events.Emit(event.Event{
		Kind:     kind,
		ActorID:  l.a.id,
		SourceID: e.SourceActor,
		Detail:   e.Name,
		Stacks:   e.Stacks,
	})
}

func (l effectListener) hook(name string, e *condition.Effect) {
	if name == "" || l.a.scripts == nil {
		return
	}
	l.a.scripts.RunEffectHook(l.a.templateID, name, l.a.id, e)
}

func (l effectListener) EffectApplied(e *condition.Effect) {
	l.emit(event.StatusApplied, e)
	l.hook(e.Hooks.OnApply, e)
}

func (l effectListener) EffectStacked(e *condition.Effect) {
	l.emit(event.StatusStacked, e)
}

func (l effectListener) EffectRefreshed(e *condition.Effect) {
	l.emit(event.StatusRefreshed, e)
}

func (l effectListener) EffectRemoved(e *condition.Effect, reason condition.RemoveReason) {
	l.emit(event.StatusRemoved, e)
	l.a.logger.Debug("status removed",
		zap.String("effect", e.Name),
		zap.Stringer("reason", reason),
	)
	l.hook(e.Hooks.OnRemove, e)
}

func (l effectListener) EffectPulsed(e *condition.Effect) {
	if !e.PulseDamage.IsZero() {
		combat.DealDamage(l.a, combat.PulseAttack(e, l.a.dice, l.a.faction), l.a.dice)
	}
	l.hook(e.Hooks.OnPulse, e)
}
