package attribute

import (
	"sort"

	"go.uber.org/zap"
)

// DefaultProvider supplies base values owned by a collaborator outside the
// engine, such as the gravity scale the movement component starts with.
type DefaultProvider interface {
	// DefaultBase returns the collaborator's default for kind, if it has one.
	DefaultBase(kind Kind) (float64, bool)
}

// DefaultFunc adapts a plain function to DefaultProvider.
type DefaultFunc func(kind Kind) (float64, bool)

// DefaultBase calls f.
func (f DefaultFunc) DefaultBase(kind Kind) (float64, bool) { return f(kind) }

// Table is an actor's mapping from Kind to Attribute. Attributes are created
// on first write and never implicitly deleted.
//
// Table is not safe for concurrent use; the owning actor serialises access.
type Table struct {
	attrs  map[Kind]*Attribute
	logger *zap.Logger
}

// NewTable creates an empty Table. A nil logger is replaced with a no-op logger.
func NewTable(logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{attrs: make(map[Kind]*Attribute), logger: logger}
}

// Seed initialises the table from a serialized stat list. Kinds for which
// defaults has a value and that the list does not mention are seeded from it.
// defaults may be nil.
//
// Postcondition: every kind in stats has its base value set.
func (t *Table) Seed(stats []Stat, defaults DefaultProvider) {
	seen := make(map[Kind]bool, len(stats))
	for _, s := range stats {
		t.SetBaseValue(s.Kind, s.Base)
		seen[s.Kind] = true
	}
	if defaults == nil {
		return
	}
	for _, k := range []Kind{GravityScale} {
		if seen[k] {
			continue
		}
		if v, ok := defaults.DefaultBase(k); ok {
			t.SetBaseValue(k, v)
			t.logger.Debug("seeded attribute from external default",
				zap.String("kind", string(k)),
				zap.Float64("base", v),
			)
		}
	}
}

// Attribute returns the attribute for kind, creating it with base 0 if absent.
func (t *Table) Attribute(kind Kind) *Attribute {
	a, ok := t.attrs[kind]
	if !ok {
		a = newAttribute(kind, 0)
		t.attrs[kind] = a
	}
	return a
}

// Lookup returns the attribute for kind without creating it.
func (t *Table) Lookup(kind Kind) (*Attribute, bool) {
	a, ok := t.attrs[kind]
	return a, ok
}

// SetBaseValue creates the attribute if absent, otherwise overwrites its base
// value and notifies subscribers.
func (t *Table) SetBaseValue(kind Kind, v float64) {
	if a, ok := t.attrs[kind]; ok {
		a.SetBase(v)
		return
	}
	t.attrs[kind] = newAttribute(kind, v)
}

// GetValue returns the final value of kind, or 0 if it was never created.
//
// Postcondition: Returns >= 0.
func (t *Table) GetValue(kind Kind) float64 {
	if a, ok := t.attrs[kind]; ok {
		return a.FinalValue()
	}
	return 0
}

// AddModifier adds m to kind under m.Source, creating the attribute if needed.
func (t *Table) AddModifier(kind Kind, m Modifier) {
	t.Attribute(kind).AddModifier(m, m.Source)
	t.logger.Debug("modifier added",
		zap.String("kind", string(kind)),
		zap.String("type", m.Type.String()),
		zap.Float64("magnitude", m.Magnitude),
		zap.String("source", string(m.Source)),
	)
}

// RemoveModifiers strips every modifier granted by source from every
// attribute and returns the number removed.
func (t *Table) RemoveModifiers(source SourceID) int {
	removed := 0
	for _, k := range t.kinds() {
		removed += t.attrs[k].RemoveModifiers(source)
	}
	if removed > 0 {
		t.logger.Debug("modifiers removed",
			zap.String("source", string(source)),
			zap.Int("count", removed),
		)
	}
	return removed
}

// Subscribe registers fn for changes to kind, creating the attribute if needed.
func (t *Table) Subscribe(kind Kind, fn Listener) (cancel func()) {
	return t.Attribute(kind).Subscribe(fn)
}

// Stats returns the base values of every attribute, sorted by kind.
func (t *Table) Stats() []Stat {
	out := make([]Stat, 0, len(t.attrs))
	for _, k := range t.kinds() {
		out = append(out, Stat{Kind: k, Base: t.attrs[k].Base()})
	}
	return out
}

// kinds returns the table's keys in a stable order.
func (t *Table) kinds() []Kind {
	out := make([]Kind, 0, len(t.attrs))
	for k := range t.attrs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
