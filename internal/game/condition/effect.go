package condition

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
)

// Stacking is the policy applied when an effect's category is already active.
type Stacking int

const (
	// StackNone drops the new application.
	StackNone Stacking = iota
	// Stackable raises the stack count up to MaxStacks and refreshes duration.
	Stackable
	// RefreshOnly resets the remaining duration and nothing else.
	RefreshOnly
)

// String returns the YAML spelling of s.
func (s Stacking) String() string {
	switch s {
	case StackNone:
		return "none"
	case Stackable:
		return "stackable"
	case RefreshOnly:
		return "refresh_only"
	default:
		return "unknown"
	}
}

// ParseStacking converts the YAML spelling into a Stacking policy.
// The empty string means StackNone.
func ParseStacking(s string) (Stacking, error) {
	switch s {
	case "", "none":
		return StackNone, nil
	case "stackable":
		return Stackable, nil
	case "refresh_only":
		return RefreshOnly, nil
	default:
		return 0, fmt.Errorf("condition: unknown stacking policy %q", s)
	}
}

// Duration is either infinite or a number of seconds remaining.
type Duration struct {
	seconds  float64
	infinite bool
}

// Infinite returns a Duration that never elapses.
func Infinite() Duration { return Duration{infinite: true} }

// Timed returns a Duration of s seconds.
func Timed(s float64) Duration { return Duration{seconds: s} }

// FromSeconds converts a serialized value: exactly -1 is Infinite, anything
// else is Timed.
func FromSeconds(s float64) Duration {
	if s == -1 {
		return Infinite()
	}
	return Timed(s)
}

// IsInfinite reports whether d never elapses.
func (d Duration) IsInfinite() bool { return d.infinite }

// Seconds returns the timed value, or -1 when infinite.
func (d Duration) Seconds() float64 {
	if d.infinite {
		return -1
	}
	return d.seconds
}

// Expired reports whether a timed duration has run out.
func (d Duration) Expired() bool {
	return !d.infinite && d.seconds <= 0
}

// Elapse returns d reduced by dt. Infinite durations are returned unchanged.
func (d Duration) Elapse(dt float64) Duration {
	if d.infinite {
		return d
	}
	return Duration{seconds: d.seconds - dt}
}

// String renders d for logs.
func (d Duration) String() string {
	if d.infinite {
		return "infinite"
	}
	return fmt.Sprintf("%.2fs", d.seconds)
}

// Hooks names the Lua functions called on an effect's transitions.
// Empty names are skipped.
type Hooks struct {
	OnApply  string
	OnRemove string
	OnPulse  string
}

// Effect is one applied, timed status effect instance.
//
// Every modifier an Effect contributes to the attribute table carries
// Source() as its SourceID, so removal is exact.
type Effect struct {
	ID string
	// DefinitionID is the catalog entry the effect was created from, if any.
	DefinitionID string
	Name         string
	Category     Category
	Harmful      bool
	Policy       Stacking
	MaxStacks    int
	Stacks       int
	Total        Duration
	Remaining    Duration
	// Modifiers are per-stack templates. The registry scales them by Stacks.
	Modifiers []AttributeModifier

	// PulseInterval > 0 makes the effect pulse every PulseInterval seconds.
	PulseInterval float64
	PulseDamage   dice.Expression
	PulseTags     []string
	Hooks         Hooks

	// SourceActor is the actor that granted the effect, if any.
	SourceActor string

	pulseElapsed float64
}

// NewEffect creates an effect instance with a fresh unique ID, one stack and
// its full duration remaining.
func NewEffect(name string, category Category, policy Stacking, maxStacks int, total Duration, mods ...AttributeModifier) *Effect {
	return &Effect{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  category,
		Policy:    policy,
		MaxStacks: maxStacks,
		Stacks:    1,
		Total:     total,
		Remaining: total,
		Modifiers: mods,
	}
}

// Source returns the SourceID under which this effect's modifiers are registered.
func (e *Effect) Source() attribute.SourceID {
	return attribute.SourceID(e.ID)
}

// key identifies the registry slot this effect occupies.
func (e *Effect) key() string {
	if e.Category.Concurrent() {
		return string(e.Category) + "/" + e.Name
	}
	return string(e.Category)
}

// stackCap returns the effective maximum stack count.
func (e *Effect) stackCap() int {
	if e.MaxStacks < 1 {
		return 1
	}
	return e.MaxStacks
}

// Clone returns a deep copy of e with a new unique ID.
func (e *Effect) Clone() *Effect {
	c := *e
	c.ID = uuid.NewString()
	c.Modifiers = append([]AttributeModifier(nil), e.Modifiers...)
	c.PulseTags = append([]string(nil), e.PulseTags...)
	c.pulseElapsed = 0
	return &c
}

// PulseElapsed returns the time accumulated toward the next pulse.
func (e *Effect) PulseElapsed() float64 { return e.pulseElapsed }

// ResumePulse sets the time accumulated toward the next pulse, as saved by a
// snapshot. Call it after Registry.Restore.
func (e *Effect) ResumePulse(elapsed float64) {
	if elapsed < 0 {
		elapsed = 0
	}
	e.pulseElapsed = elapsed
}
