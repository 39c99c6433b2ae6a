// Package combat turns incoming attacks and heal requests into resource pool
// mutations, reading the defender's attributes and state flags.
package combat

import (
	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/event"
	"github.com/cory-johannsen/scarlet/internal/game/resource"
)

// Faction decides whether damage is hostile. The zero value is
// FactionUnknown, which never counts as hostile.
type Faction int

const (
	FactionUnknown Faction = iota
	FactionPlayer
	FactionEnemy
	FactionNeutral
)

// String returns the YAML spelling of f.
func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionEnemy:
		return "enemy"
	case FactionNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// ParseFaction converts the YAML spelling into a Faction; unknown values are neutral.
func ParseFaction(s string) Faction {
	switch s {
	case "player":
		return FactionPlayer
	case "enemy":
		return FactionEnemy
	case "unknown":
		return FactionUnknown
	default:
		return FactionNeutral
	}
}

// Category is an actor's role, which selects the notifications raised when it is hit.
type Category int

const (
	CategoryPlayer Category = iota
	CategoryMinion
	CategoryElite
	CategoryBoss
	CategorySummon
)

// String returns the YAML spelling of c.
func (c Category) String() string {
	switch c {
	case CategoryPlayer:
		return "player"
	case CategoryMinion:
		return "minion"
	case CategoryElite:
		return "elite"
	case CategoryBoss:
		return "boss"
	case CategorySummon:
		return "summon"
	default:
		return "unknown"
	}
}

// ParseCategory converts the YAML spelling into a Category; unknown values are minions.
func ParseCategory(s string) Category {
	switch s {
	case "player":
		return CategoryPlayer
	case "elite":
		return CategoryElite
	case "boss":
		return CategoryBoss
	case "summon":
		return CategorySummon
	default:
		return CategoryMinion
	}
}

// Tag classifies an attack. Each tag maps to the defender attribute that adds
// flat damage for that attack type.
type Tag string

const (
	TagSlash   Tag = "slash"
	TagPierce  Tag = "pierce"
	TagBlunt   Tag = "blunt"
	TagFire    Tag = "fire"
	TagPoison  Tag = "poison"
	TagScarlet Tag = "scarlet"
)

var tagBonus = map[Tag]attribute.Kind{
	TagSlash:   attribute.SlashDamage,
	TagPierce:  attribute.PierceDamage,
	TagBlunt:   attribute.BluntDamage,
	TagFire:    attribute.FireDamage,
	TagPoison:  attribute.PoisonDamage,
	TagScarlet: attribute.ScarletDamage,
}

// BonusKind returns the attribute holding the per-type bonus for t. Tags
// outside the known set map to "<tag>_damage".
func BonusKind(t Tag) attribute.Kind {
	if k, ok := tagBonus[t]; ok {
		return k
	}
	return attribute.Kind(string(t) + "_damage")
}

// Defender is the actor side of the resolver: everything DealDamage and Heal
// read or mutate.
type Defender interface {
	ID() string
	Faction() Faction
	Category() Category
	Attributes() *attribute.Table
	Conditions() *condition.Registry
	Health() *resource.Pool
	Events() event.Sink
}

// IsDead reports whether d's health pool is empty.
func IsDead(d Defender) bool {
	return d.Health().IsEmpty()
}
