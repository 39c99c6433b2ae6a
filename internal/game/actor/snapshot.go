package actor

import (
	"fmt"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/combat"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
)

// ModifierState is a serialized per-stack effect modifier.
type ModifierState struct {
	Attribute string  `json:"attribute"`
	Type      string  `json:"type"`
	Magnitude float64 `json:"magnitude"`
}

// EffectState is a serialized active status effect.
type EffectState struct {
	ID           string `json:"id"`
	DefinitionID string `json:"definition_id,omitempty"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Harmful      bool   `json:"harmful"`
	Stacking     string `json:"stacking"`
	MaxStacks    int    `json:"max_stacks"`
	Stacks       int    `json:"stacks"`
	// Total and Remaining are seconds; -1 means infinite.
	Total         float64         `json:"total"`
	Remaining     float64         `json:"remaining"`
	Modifiers     []ModifierState `json:"modifiers,omitempty"`
	PulseInterval float64         `json:"pulse_interval,omitempty"`
	PulseElapsed  float64         `json:"pulse_elapsed,omitempty"`
	PulseDamage   string          `json:"pulse_damage,omitempty"`
	PulseTags     []string        `json:"pulse_tags,omitempty"`
	OnApply       string          `json:"on_apply,omitempty"`
	OnRemove      string          `json:"on_remove,omitempty"`
	OnPulse       string          `json:"on_pulse,omitempty"`
	SourceActor   string          `json:"source_actor,omitempty"`
}

// Snapshot is the persisted form of an actor: base stats, pool levels and
// the active effect list. Modifiers are not stored separately; they are
// rebuilt from the effects on Restore.
type Snapshot struct {
	ID                 string
	Name               string
	TemplateID         string
	Faction            string
	Category           string
	Stats              []attribute.Stat
	Health             float64
	Scarlet            float64
	BlockPower         float64
	Effects            []EffectState
	CatalogFingerprint uint64
}

// Snapshot captures the actor's persistent state.
func (a *Actor) Snapshot() Snapshot {
	s := Snapshot{
		ID:         a.id,
		Name:       a.name,
		TemplateID: a.templateID,
		Faction:    a.faction.String(),
		Category:   a.category.String(),
		Stats:      a.table.Stats(),
		Health:     a.health.Current(),
		Scarlet:    a.scarlet.Current(),
		BlockPower: a.block.Current(),
	}
	if a.catalog != nil {
		s.CatalogFingerprint = a.catalog.Fingerprint()
	}
	for _, e := range a.registry.Active() {
		s.Effects = append(s.Effects, effectState(e))
	}
	return s
}

func effectState(e *condition.Effect) EffectState {
	st := EffectState{
		ID:            e.ID,
		DefinitionID:  e.DefinitionID,
		Name:          e.Name,
		Category:      string(e.Category),
		Harmful:       e.Harmful,
		Stacking:      e.Policy.String(),
		MaxStacks:     e.MaxStacks,
		Stacks:        e.Stacks,
		Total:         e.Total.Seconds(),
		Remaining:     e.Remaining.Seconds(),
		PulseInterval: e.PulseInterval,
		PulseElapsed:  e.PulseElapsed(),
		PulseDamage:   e.PulseDamage.Raw,
		PulseTags:     append([]string(nil), e.PulseTags...),
		OnApply:       e.Hooks.OnApply,
		OnRemove:      e.Hooks.OnRemove,
		OnPulse:       e.Hooks.OnPulse,
		SourceActor:   e.SourceActor,
	}
	for _, m := range e.Modifiers {
		st.Modifiers = append(st.Modifiers, ModifierState{
			Attribute: string(m.Attribute),
			Type:      m.Modifier.Type.String(),
			Magnitude: m.Modifier.Magnitude,
		})
	}
	return st
}

// Effect rebuilds the runtime effect described by st.
func (st EffectState) Effect() (*condition.Effect, error) {
	cat := condition.Category(st.Category)
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	policy, err := condition.ParseStacking(st.Stacking)
	if err != nil {
		return nil, err
	}
	mods := make([]condition.AttributeModifier, 0, len(st.Modifiers))
	for _, m := range st.Modifiers {
		mt, err := attribute.ParseModifierType(m.Type)
		if err != nil {
			return nil, err
		}
		mods = append(mods, condition.Mod(attribute.Kind(m.Attribute), mt, m.Magnitude))
	}
	e := condition.NewEffect(st.Name, cat, policy, st.MaxStacks, condition.FromSeconds(st.Total), mods...)
	if st.ID != "" {
		e.ID = st.ID
	}
	e.DefinitionID = st.DefinitionID
	e.Harmful = st.Harmful
	e.Stacks = st.Stacks
	e.Remaining = condition.FromSeconds(st.Remaining)
	e.PulseInterval = st.PulseInterval
	if st.PulseDamage != "" {
		expr, err := dice.Parse(st.PulseDamage)
		if err != nil {
			return nil, err
		}
		e.PulseDamage = expr
	}
	e.PulseTags = append([]string(nil), st.PulseTags...)
	e.Hooks = condition.Hooks{OnApply: st.OnApply, OnRemove: st.OnRemove, OnPulse: st.OnPulse}
	e.SourceActor = st.SourceActor
	return e, nil
}

// Restore replaces the actor's stats, effects and pool levels with s. Effects
// are reinstated silently: no events fire and no hooks run. Pool levels are
// applied last so they are clamped against the restored ceilings.
func (a *Actor) Restore(s Snapshot) error {
	effects := make([]*condition.Effect, 0, len(s.Effects))
	for i, st := range s.Effects {
		e, err := st.Effect()
		if err != nil {
			return fmt.Errorf("restoring actor %s effect %d (%s): %w", a.id, i, st.Name, err)
		}
		effects = append(effects, e)
	}
	if a.catalog != nil && s.CatalogFingerprint != 0 && s.CatalogFingerprint != a.catalog.Fingerprint() {
		a.logger.Warn("restoring snapshot taken against a different effect catalog")
	}

	a.quiet = true
	defer func() { a.quiet = false }()

	a.registry.SetListener(nil)
	a.registry.Cleanse(false)
	for _, st := range s.Stats {
		a.table.SetBaseValue(st.Kind, st.Base)
	}
	for i, e := range effects {
		a.registry.Restore(e)
		e.ResumePulse(s.Effects[i].PulseElapsed)
	}
	a.registry.SetListener(effectListener{a})

	if s.Name != "" {
		a.name = s.Name
	}
	if s.TemplateID != "" {
		a.templateID = s.TemplateID
	}
	if s.Faction != "" {
		a.faction = combat.ParseFaction(s.Faction)
	}
	if s.Category != "" {
		a.category = combat.ParseCategory(s.Category)
	}
	a.health.Set(s.Health)
	a.scarlet.Set(s.Scarlet)
	a.block.Set(s.BlockPower)
	return nil
}
