package attribute

// Change describes one observed transition of an Attribute's final value.
type Change struct {
	Kind     Kind
	Previous float64
	Current  float64
}

// Listener is invoked synchronously whenever an Attribute's base value or
// modifier set changes.
type Listener func(Change)

type subscriber struct {
	id int
	fn Listener
}

// group holds every modifier granted by one source, in insertion order.
type group struct {
	source SourceID
	mods   []Modifier
}

// Attribute is one named stat: a base value plus the active modifiers.
//
// Modifiers are grouped by SourceID so that removing everything granted by a
// source is a single grouped operation. Groups keep insertion order.
//
// Attribute is not safe for concurrent use; the owning actor serialises access.
type Attribute struct {
	kind    Kind
	base    float64
	groups  []*group
	index   map[SourceID]*group
	subs    []subscriber
	nextSub int
}

func newAttribute(kind Kind, base float64) *Attribute {
	return &Attribute{
		kind:  kind,
		base:  base,
		index: make(map[SourceID]*group),
	}
}

// Kind returns the stat this attribute represents.
func (a *Attribute) Kind() Kind { return a.kind }

// Base returns the unmodified base value.
func (a *Attribute) Base() float64 { return a.base }

// SetBase overwrites the base value and notifies subscribers.
func (a *Attribute) SetBase(v float64) {
	prev := a.FinalValue()
	a.base = v
	a.notify(prev)
}

// AddModifier appends m to the group for source and notifies subscribers.
// The modifier's own Source field is overwritten with source.
func (a *Attribute) AddModifier(m Modifier, source SourceID) {
	prev := a.FinalValue()
	m.Source = source
	g, ok := a.index[source]
	if !ok {
		g = &group{source: source}
		a.index[source] = g
		a.groups = append(a.groups, g)
	}
	g.mods = append(g.mods, m)
	a.notify(prev)
}

// RemoveModifiers removes every modifier granted by source and reports how
// many were removed. Subscribers are notified only when something was removed.
//
// Postcondition: HasSource(source) is false.
func (a *Attribute) RemoveModifiers(source SourceID) int {
	g, ok := a.index[source]
	if !ok {
		return 0
	}
	prev := a.FinalValue()
	delete(a.index, source)
	kept := a.groups[:0]
	for _, other := range a.groups {
		if other != g {
			kept = append(kept, other)
		}
	}
	// Clear the tail so the removed group is not retained by the backing array.
	for i := len(kept); i < len(a.groups); i++ {
		a.groups[i] = nil
	}
	a.groups = kept
	a.notify(prev)
	return len(g.mods)
}

// HasSource reports whether any modifier from source is active.
func (a *Attribute) HasSource(source SourceID) bool {
	_, ok := a.index[source]
	return ok
}

// Modifiers returns a copy of the active modifiers in insertion order of their sources.
func (a *Attribute) Modifiers() []Modifier {
	var out []Modifier
	for _, g := range a.groups {
		out = append(out, g.mods...)
	}
	return out
}

// ModifiersFrom returns a copy of the modifiers granted by source.
func (a *Attribute) ModifiersFrom(source SourceID) []Modifier {
	g, ok := a.index[source]
	if !ok {
		return nil
	}
	out := make([]Modifier, len(g.mods))
	copy(out, g.mods)
	return out
}

// FinalValue computes
//
//	(base + Σflat bonus − Σflat debuff) × (1 + Σpercent bonus − Σpercent debuff)
//
// clamped at 0. Percentages add rather than compound.
//
// Postcondition: Returns >= 0.
func (a *Attribute) FinalValue() float64 {
	flat := a.base
	pct := 1.0
	for _, g := range a.groups {
		for _, m := range g.mods {
			if m.Type.IsPercent() {
				pct += m.Signed()
			} else {
				flat += m.Signed()
			}
		}
	}
	v := flat * pct
	if v < 0 {
		return 0
	}
	return v
}

// Subscribe registers fn for change notifications and returns a function that
// removes it. Calling the returned function more than once is a no-op.
func (a *Attribute) Subscribe(fn Listener) (cancel func()) {
	id := a.nextSub
	a.nextSub++
	a.subs = append(a.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range a.subs {
			if s.id == id {
				a.subs = append(a.subs[:i:i], a.subs[i+1:]...)
				return
			}
		}
	}
}

// notify fans out to a snapshot of the subscriber list, so listeners may
// subscribe, unsubscribe or mutate this attribute without corrupting iteration.
func (a *Attribute) notify(prev float64) {
	if len(a.subs) == 0 {
		return
	}
	c := Change{Kind: a.kind, Previous: prev, Current: a.FinalValue()}
	subs := make([]subscriber, len(a.subs))
	copy(subs, a.subs)
	for _, s := range subs {
		s.fn(c)
	}
}
