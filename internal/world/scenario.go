package world

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/bubblebuff/internal/model"
)

// AllTargets in a cast target list expands to every unit of the party.
const AllTargets = "*"

// Scenario is the YAML description of a party: members, their prepared
// spells, the buffs to maintain and the effects already present.
type Scenario struct {
	Units   []UnitSpec   `yaml:"units"`
	Spells  []SpellSpec  `yaml:"spells"`
	Slots   []SlotSpec   `yaml:"slots"`
	Buffs   []BuffSpec   `yaml:"buffs"`
	Effects []EffectSpec `yaml:"effects"`
}

// UnitSpec is a party member.
type UnitSpec struct {
	ID              string         `yaml:"id"`
	Name            string         `yaml:"name"`
	Level           int32          `yaml:"level"`
	InCombat        bool           `yaml:"in_combat"`
	PendingCommands int            `yaml:"pending_commands"`
	Resources       map[string]int `yaml:"resources"`
	// Features are blueprint identifiers or aliases, see identifiers.go.
	Features []string `yaml:"features"`
}

// SpellSpec is a castable ability.
type SpellSpec struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Kind          model.SpellKind `yaml:"kind"`
	Level         int32           `yaml:"level"`
	TouchDelivery string          `yaml:"touch_delivery"`
	// Effects are applied to the target on cast. Defaults to the spell ID.
	Effects            []string `yaml:"effects"`
	IgnoreForOverwrite []string `yaml:"ignore_for_overwrite"`
	// DurationSeconds of the applied effects; 0 means permanent.
	DurationSeconds float64 `yaml:"duration_seconds"`
	// Costs per capability name, e.g. {powerful_change: 2}.
	Costs map[string]int `yaml:"costs"`
}

// Duration returns the effect duration, model.Permanent when unset.
func (s SpellSpec) Duration() time.Duration {
	if s.DurationSeconds <= 0 {
		return model.Permanent
	}
	return time.Duration(s.DurationSeconds * float64(time.Second))
}

// AppliedEffects returns the effects the spell puts on its target.
func (s SpellSpec) AppliedEffects() []model.EffectID {
	if len(s.Effects) == 0 {
		return []model.EffectID{model.EffectID(s.ID)}
	}
	out := make([]model.EffectID, 0, len(s.Effects))
	for _, e := range s.Effects {
		out = append(out, model.EffectID(e))
	}
	return out
}

// SlotSpec is a prepared spell of a caster with its remaining charges.
type SlotSpec struct {
	ID      string `yaml:"id"`
	Caster  string `yaml:"caster"`
	Spell   string `yaml:"spell"`
	Charges int    `yaml:"charges"`
}

// BuffSpec is a catalog entry: which spell, which group and who casts it on whom.
type BuffSpec struct {
	ID    string          `yaml:"id"`
	Name  string          `yaml:"name"`
	Spell string          `yaml:"spell"`
	Group model.BuffGroup `yaml:"group"`
	Casts []CastSpec      `yaml:"casts"`
}

// CastSpec assigns a caster to one or more targets of a buff.
type CastSpec struct {
	Caster string `yaml:"caster"`
	// Slot pins a specific slot; otherwise the caster's first slot of the spell is used.
	Slot    string            `yaml:"slot"`
	Targets []string          `yaml:"targets"`
	Options model.CastOptions `yaml:"options"`
}

// EffectSpec is an effect already present when the scenario starts.
type EffectSpec struct {
	Unit   string `yaml:"unit"`
	Effect string `yaml:"effect"`
	// RemainingSeconds of 0 means permanent.
	RemainingSeconds float64 `yaml:"remaining_seconds"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that every reference in the scenario resolves.
func (s *Scenario) Validate() error {
	units := make(map[string]bool, len(s.Units))
	for _, u := range s.Units {
		if u.ID == "" {
			return errors.New("unit without id")
		}
		if units[u.ID] {
			return fmt.Errorf("duplicate unit %s", u.ID)
		}
		units[u.ID] = true
	}

	spells := make(map[string]bool, len(s.Spells))
	for _, sp := range s.Spells {
		if sp.ID == "" {
			return errors.New("spell without id")
		}
		spells[sp.ID] = true
		for name := range sp.Costs {
			if _, err := parseCapability(name); err != nil {
				return fmt.Errorf("spell %s: %w", sp.ID, err)
			}
		}
	}
	for _, sp := range s.Spells {
		if sp.TouchDelivery != "" && !spells[sp.TouchDelivery] {
			return fmt.Errorf("spell %s: unknown touch delivery %s", sp.ID, sp.TouchDelivery)
		}
	}

	slots := make(map[string]bool, len(s.Slots))
	for _, sl := range s.Slots {
		if sl.ID == "" {
			return errors.New("slot without id")
		}
		if !units[sl.Caster] {
			return fmt.Errorf("slot %s: unknown caster %s", sl.ID, sl.Caster)
		}
		if !spells[sl.Spell] {
			return fmt.Errorf("slot %s: unknown spell %s", sl.ID, sl.Spell)
		}
		slots[sl.ID] = true
	}

	for _, b := range s.Buffs {
		if !spells[b.Spell] {
			return fmt.Errorf("buff %s: unknown spell %s", b.ID, b.Spell)
		}
		for _, c := range b.Casts {
			if !units[c.Caster] {
				return fmt.Errorf("buff %s: unknown caster %s", b.ID, c.Caster)
			}
			if c.Slot != "" && !slots[c.Slot] {
				return fmt.Errorf("buff %s: unknown slot %s", b.ID, c.Slot)
			}
			for _, t := range c.Targets {
				if t != AllTargets && !units[t] {
					return fmt.Errorf("buff %s: unknown target %s", b.ID, t)
				}
			}
		}
	}

	for _, e := range s.Effects {
		if !units[e.Unit] {
			return fmt.Errorf("effect %s: unknown unit %s", e.Effect, e.Unit)
		}
	}
	return nil
}
