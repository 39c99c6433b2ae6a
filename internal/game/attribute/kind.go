package attribute

import (
	"errors"
	"fmt"
)

// ErrUnknownAttribute is returned by ParseKind for names the engine does not read.
var ErrUnknownAttribute = errors.New("unknown attribute")

// Kind names one actor stat. Kinds outside the constants below are legal;
// they are created lazily the first time they are written.
type Kind string

const (
	Health               Kind = "health"
	Scarlet              Kind = "scarlet"
	BlockPower           Kind = "block_power"
	Defense              Kind = "defense"
	AttackDamage         Kind = "attack_damage"
	MovementSpeed        Kind = "movement_speed"
	GravityScale         Kind = "gravity_scale"
	CritChance           Kind = "crit_chance"
	CritMultiplier       Kind = "crit_multiplier"
	HealBonus            Kind = "heal_bonus"
	HealReduction        Kind = "heal_reduction"
	IncreasedDamageTaken Kind = "increased_damage_taken"
	SPFocus              Kind = "sp_focus"
	BlockEfficiency      Kind = "block_efficiency"
	HealthRegenBonus     Kind = "health_regen_bonus"
	ScarletRegenBonus    Kind = "scarlet_regen_bonus"
	BlockRegenBonus      Kind = "block_regen_bonus"

	SlashDamage   Kind = "slash_damage"
	PierceDamage  Kind = "pierce_damage"
	BluntDamage   Kind = "blunt_damage"
	FireDamage    Kind = "fire_damage"
	PoisonDamage  Kind = "poison_damage"
	ScarletDamage Kind = "scarlet_damage"
)

// knownKinds is the set of kinds the engine itself reads.
var knownKinds = map[Kind]struct{}{
	Health: {}, Scarlet: {}, BlockPower: {}, Defense: {}, AttackDamage: {},
	MovementSpeed: {}, GravityScale: {}, CritChance: {}, CritMultiplier: {},
	HealBonus: {}, HealReduction: {}, IncreasedDamageTaken: {}, SPFocus: {},
	BlockEfficiency: {}, HealthRegenBonus: {}, ScarletRegenBonus: {},
	BlockRegenBonus: {}, SlashDamage: {}, PierceDamage: {}, BluntDamage: {},
	FireDamage: {}, PoisonDamage: {}, ScarletDamage: {},
}

// Known reports whether k is one of the kinds the engine reads.
func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// ParseKind converts name into a Kind the engine reads. Content that must
// not introduce new kinds, such as actor templates, goes through ParseKind.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if !k.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return k, nil
}

// Stat is one serialized (kind, base value) pair used to initialise an actor.
type Stat struct {
	Kind Kind    `yaml:"kind"`
	Base float64 `yaml:"base"`
}
