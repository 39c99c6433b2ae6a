package condition

import "github.com/cory-johannsen/scarlet/internal/game/attribute"

// AttributeModifier pairs an attribute with the per-stack modifier an effect
// applies to it.
type AttributeModifier struct {
	Attribute attribute.Kind
	Modifier  attribute.Modifier
}

// Mod is shorthand for building an AttributeModifier.
func Mod(kind attribute.Kind, typ attribute.ModifierType, magnitude float64) AttributeModifier {
	return AttributeModifier{
		Attribute: kind,
		Modifier:  attribute.Modifier{Type: typ, Magnitude: magnitude},
	}
}

// applyModifiers adds e's templates scaled by its stack count, tagged with e's source.
//
// Postcondition: exactly one modifier per template is registered for e.Source().
func applyModifiers(t *attribute.Table, e *Effect) {
	for _, am := range e.Modifiers {
		m := am.Modifier.Scaled(float64(e.Stacks)).WithSource(e.Source())
		t.AddModifier(am.Attribute, m)
	}
}

// reapplyModifiers replaces e's modifiers with ones scaled by the current stack count.
func reapplyModifiers(t *attribute.Table, e *Effect) {
	t.RemoveModifiers(e.Source())
	applyModifiers(t, e)
}

// HarmfulCount returns how many active effects in r are harmful.
func HarmfulCount(r *Registry) int {
	n := 0
	for _, e := range r.effects {
		if e.Harmful {
			n++
		}
	}
	return n
}

// ContributionTo returns the signed total of r's effect modifiers on kind,
// split into the flat and percentage terms.
func ContributionTo(r *Registry, kind attribute.Kind) (flat, percent float64) {
	a, ok := r.table.Lookup(kind)
	if !ok {
		return 0, 0
	}
	for _, e := range r.effects {
		for _, m := range a.ModifiersFrom(e.Source()) {
			if m.Type.IsPercent() {
				percent += m.Signed()
			} else {
				flat += m.Signed()
			}
		}
	}
	return flat, percent
}
