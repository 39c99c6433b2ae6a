package condition

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
)

// ErrUnknownEffect is returned when a catalog lookup names no definition.
var ErrUnknownEffect = errors.New("unknown status effect")

// ModifierDef is the YAML form of an AttributeModifier.
type ModifierDef struct {
	Attribute string  `yaml:"attribute"`
	Type      string  `yaml:"type"`
	Magnitude float64 `yaml:"magnitude"`
}

// Definition is the static description of a status effect, loaded from YAML.
type Definition struct {
	ID            string        `yaml:"id"`
	Name          string        `yaml:"name"`
	Description   string        `yaml:"description"`
	Category      string        `yaml:"category"`
	Harmful       bool          `yaml:"harmful"`
	Stacking      string        `yaml:"stacking"`   // "none" | "stackable" | "refresh_only"
	MaxStacks     int           `yaml:"max_stacks"` // required >= 1 for stackable
	Duration      float64       `yaml:"duration"`   // seconds; -1 = infinite
	Modifiers     []ModifierDef `yaml:"modifiers"`
	PulseInterval float64       `yaml:"pulse_interval"`
	PulseDamage   string        `yaml:"pulse_damage"` // dice expression
	PulseTags     []string      `yaml:"pulse_tags"`
	LuaOnApply    string        `yaml:"lua_on_apply"`
	LuaOnRemove   string        `yaml:"lua_on_remove"`
	LuaOnPulse    string        `yaml:"lua_on_pulse"`

	policy    Stacking
	mods      []AttributeModifier
	pulseExpr dice.Expression
}

// Compile validates d and resolves its string fields.
//
// Postcondition: Returns nil and NewEffect is usable, or a descriptive error.
func (d *Definition) Compile() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	if err := Category(d.Category).Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	policy, err := ParseStacking(d.Stacking)
	if err != nil {
		errs = append(errs, err.Error())
	}
	d.policy = policy
	if policy == Stackable && d.MaxStacks < 1 {
		errs = append(errs, fmt.Sprintf("max_stacks must be >= 1 for stackable effects, got %d", d.MaxStacks))
	}
	if d.Duration < 0 && d.Duration != -1 {
		errs = append(errs, fmt.Sprintf("duration must be >= 0 or -1, got %v", d.Duration))
	}
	d.mods = d.mods[:0]
	for i, md := range d.Modifiers {
		if md.Attribute == "" {
			errs = append(errs, fmt.Sprintf("modifiers[%d].attribute must not be empty", i))
			continue
		}
		mt, err := attribute.ParseModifierType(md.Type)
		if err != nil {
			errs = append(errs, fmt.Sprintf("modifiers[%d]: %v", i, err))
			continue
		}
		d.mods = append(d.mods, Mod(attribute.Kind(md.Attribute), mt, md.Magnitude))
	}
	if d.PulseInterval < 0 {
		errs = append(errs, "pulse_interval must not be negative")
	}
	d.pulseExpr = dice.Expression{}
	if d.PulseDamage != "" {
		e, err := dice.Parse(d.PulseDamage)
		if err != nil {
			errs = append(errs, err.Error())
		}
		d.pulseExpr = e
		if d.PulseInterval == 0 {
			errs = append(errs, "pulse_damage requires pulse_interval > 0")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("effect %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// NewEffect instantiates d with a fresh unique ID.
//
// Precondition: Compile returned nil.
func (d *Definition) NewEffect() *Effect {
	e := NewEffect(d.Name, Category(d.Category), d.policy, d.MaxStacks, FromSeconds(d.Duration),
		append([]AttributeModifier(nil), d.mods...)...)
	e.DefinitionID = d.ID
	e.Harmful = d.Harmful
	e.PulseInterval = d.PulseInterval
	e.PulseDamage = d.pulseExpr
	e.PulseTags = append([]string(nil), d.PulseTags...)
	e.Hooks = Hooks{OnApply: d.LuaOnApply, OnRemove: d.LuaOnRemove, OnPulse: d.LuaOnPulse}
	return e
}

// Catalog holds all known Definitions keyed by ID.
type Catalog struct {
	defs map[string]*Definition
	raw  map[string][]byte
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]*Definition), raw: make(map[string][]byte)}
}

// Register compiles def and adds it, overwriting any entry with the same ID.
func (c *Catalog) Register(def *Definition) error {
	if def == nil {
		return errors.New("condition: nil definition")
	}
	if err := def.Compile(); err != nil {
		return err
	}
	c.defs[def.ID] = def
	if _, ok := c.raw[def.ID]; !ok {
		data, err := yaml.Marshal(def)
		if err != nil {
			return fmt.Errorf("encoding effect %q: %w", def.ID, err)
		}
		c.raw[def.ID] = data
	}
	return nil
}

// Get returns the Definition for id.
func (c *Catalog) Get(id string) (*Definition, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// Instantiate creates a new Effect from the definition with id.
func (c *Catalog) Instantiate(id string) (*Effect, error) {
	d, ok := c.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, id)
	}
	return d.NewEffect(), nil
}

// All returns every Definition sorted by ID.
func (c *Catalog) All() []*Definition {
	out := make([]*Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }

// Fingerprint hashes the catalog's source documents in ID order. Snapshots
// record it so that a reload against changed definitions can be detected.
func (c *Catalog) Fingerprint() uint64 {
	ids := make([]string, 0, len(c.raw))
	for id := range c.raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	h := xxhash.New()
	for _, id := range ids {
		_, _ = h.WriteString(id)
		_, _ = h.Write(c.raw[id])
	}
	return h.Sum64()
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Definition,
// and returns a populated Catalog.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Catalog, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	cat := NewCatalog()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		cat.raw[def.ID] = data
		if err := cat.Register(&def); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return cat, nil
}
