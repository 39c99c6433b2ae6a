// Package attribute implements per-actor numeric stats and the modifiers that
// temporarily adjust them.
package attribute

import "fmt"

// SourceID identifies whatever granted a Modifier. It is opaque to this
// package and must stay stable for the lifetime of the granting source.
type SourceID string

// ModifierType selects how a Modifier contributes to an Attribute's final value.
type ModifierType int

const (
	FlatBonus ModifierType = iota
	FlatDebuff
	PercentBonus
	PercentDebuff
)

// String returns the YAML spelling of the modifier type.
func (t ModifierType) String() string {
	switch t {
	case FlatBonus:
		return "flat_bonus"
	case FlatDebuff:
		return "flat_debuff"
	case PercentBonus:
		return "percent_bonus"
	case PercentDebuff:
		return "percent_debuff"
	default:
		return "unknown"
	}
}

// ParseModifierType converts a YAML spelling back into a ModifierType.
func ParseModifierType(s string) (ModifierType, error) {
	switch s {
	case "flat_bonus":
		return FlatBonus, nil
	case "flat_debuff":
		return FlatDebuff, nil
	case "percent_bonus":
		return PercentBonus, nil
	case "percent_debuff":
		return PercentDebuff, nil
	default:
		return 0, fmt.Errorf("attribute: unknown modifier type %q", s)
	}
}

// IsPercent reports whether the type contributes to the percentage term.
func (t ModifierType) IsPercent() bool {
	return t == PercentBonus || t == PercentDebuff
}

// IsDebuff reports whether the type subtracts from its term.
func (t ModifierType) IsDebuff() bool {
	return t == FlatDebuff || t == PercentDebuff
}

// Modifier is one immutable adjustment to an Attribute.
type Modifier struct {
	Type      ModifierType
	Magnitude float64
	Source    SourceID
}

// Signed returns the magnitude with the sign it contributes to its term.
//
// Postcondition: Returns -Magnitude for debuff types, Magnitude otherwise.
func (m Modifier) Signed() float64 {
	if m.Type.IsDebuff() {
		return -m.Magnitude
	}
	return m.Magnitude
}

// Scaled returns a copy of m with its magnitude multiplied by n.
func (m Modifier) Scaled(n float64) Modifier {
	m.Magnitude *= n
	return m
}

// WithSource returns a copy of m tagged with source.
func (m Modifier) WithSource(source SourceID) Modifier {
	m.Source = source
	return m
}
