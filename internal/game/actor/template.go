package actor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/combat"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
)

// Template is the static YAML description of an actor.
type Template struct {
	ID       string           `yaml:"id"`
	Name     string           `yaml:"name"`
	Faction  string           `yaml:"faction"`  // "player" | "enemy" | "neutral"
	Category string           `yaml:"category"` // "player" | "minion" | "elite" | "boss" | "summon"
	Stats    []attribute.Stat `yaml:"stats"`

	// Immunities lists categories the actor ignores on application.
	Immunities []string `yaml:"immunities"`
	// Resistances maps a category to its duration multiplier.
	Resistances map[string]float64 `yaml:"resistances"`
	// Effects are catalog ids applied when the actor spawns.
	Effects []string `yaml:"effects"`
}

// Validate checks t against the known attribute kinds and categories.
func (t *Template) Validate() error {
	var errs []string
	if t.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	switch t.Faction {
	case "", "player", "enemy", "neutral":
	default:
		errs = append(errs, fmt.Sprintf("unknown faction %q", t.Faction))
	}
	switch t.Category {
	case "", "player", "minion", "elite", "boss", "summon":
	default:
		errs = append(errs, fmt.Sprintf("unknown category %q", t.Category))
	}
	for i, s := range t.Stats {
		if _, err := attribute.ParseKind(string(s.Kind)); err != nil {
			errs = append(errs, fmt.Sprintf("stats[%d]: %v", i, err))
		}
		if s.Base < 0 {
			errs = append(errs, fmt.Sprintf("stats[%d]: base must be >= 0", i))
		}
	}
	for _, c := range t.Immunities {
		if err := condition.Category(c).Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	for c, m := range t.Resistances {
		if err := condition.Category(c).Validate(); err != nil {
			errs = append(errs, err.Error())
		}
		if m < 0 {
			errs = append(errs, fmt.Sprintf("resistance for %q must be >= 0", c))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("template %q: %s", t.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Spawn builds an actor from t. opts supplies the runtime collaborators; its
// identity fields are overwritten from t, except ID. Spawn effects missing
// from the catalog are logged and skipped.
func (t *Template) Spawn(opts Options) *Actor {
	opts.Name = t.Name
	if opts.Name == "" {
		opts.Name = t.ID
	}
	opts.TemplateID = t.ID
	opts.Faction = combat.ParseFaction(t.Faction)
	opts.Category = combat.ParseCategory(t.Category)
	opts.Stats = append([]attribute.Stat(nil), t.Stats...)
	a := New(opts)
	for _, c := range t.Immunities {
		a.registry.SetImmunity(condition.Category(c), true)
	}
	for c, m := range t.Resistances {
		a.registry.SetDurationResistance(condition.Category(c), m)
	}
	for _, id := range t.Effects {
		if _, err := a.ApplyNamed(id, a.id); err != nil {
			a.logger.Warn("spawn effect skipped", zap.Error(err))
		}
	}
	return a
}

// LoadTemplates reads every *.yaml file in dir as a Template, keyed by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil map, or an error if any file fails to parse or validate.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading template dir %q: %w", dir, err)
	}
	out := make(map[string]*Template)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var t Template
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := out[t.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate template id %q", path, t.ID)
		}
		out[t.ID] = &t
	}
	return out, nil
}
