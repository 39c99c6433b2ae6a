// Package condition implements timed status effects: their stacking rules,
// the per-actor registry that applies and expires them, and the reference
// counted state flags derived from them.
package condition

import "fmt"

// Category groups status effects. At most one live instance per category is
// kept, except for Concurrent categories, whose instances are keyed by name.
type Category string

const (
	Stun           Category = "stun"
	Poison         Category = "poison"
	Burn           Category = "burn"
	Petrify        Category = "petrify"
	Bleed          Category = "bleed"
	Drain          Category = "drain"
	Slow           Category = "slow"
	Weaken         Category = "weaken"
	Sluggish       Category = "sluggish"
	BrokenBones    Category = "broken_bones"
	ShatteredArmor Category = "shattered_armor"
	Cursebound     Category = "cursebound"
	Sealed         Category = "sealed"
	Glimmer        Category = "glimmer"
	Galelock       Category = "galelock"
	LesserStrikes  Category = "lesser_strikes"
	HealBlock      Category = "heal_block"
	Reflect        Category = "reflect"

	Buff   Category = "buff"
	Debuff Category = "debuff"
)

var flagged = map[Category]struct{}{
	Stun: {}, Poison: {}, Burn: {}, Petrify: {}, Bleed: {}, Drain: {},
	Slow: {}, Weaken: {}, Sluggish: {}, BrokenBones: {}, ShatteredArmor: {},
	Cursebound: {}, Sealed: {}, Glimmer: {}, Galelock: {}, LesserStrikes: {},
	HealBlock: {}, Reflect: {},
}

// Flagged reports whether c is projected into the FlagTable.
func (c Category) Flagged() bool {
	_, ok := flagged[c]
	return ok
}

// Concurrent reports whether independent instances of c may coexist.
func (c Category) Concurrent() bool {
	return c == Buff || c == Debuff
}

// Validate returns an error for categories the engine does not know.
func (c Category) Validate() error {
	if c.Flagged() || c.Concurrent() {
		return nil
	}
	return fmt.Errorf("condition: unknown category %q", string(c))
}

// FlaggedCategories returns the closed set of flagged categories in a stable order.
func FlaggedCategories() []Category {
	return []Category{
		Stun, Poison, Burn, Petrify, Bleed, Drain, Slow, Weaken, Sluggish,
		BrokenBones, ShatteredArmor, Cursebound, Sealed, Glimmer, Galelock,
		LesserStrikes, HealBlock, Reflect,
	}
}
