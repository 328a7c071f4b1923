package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// BuffGroup partitions buffs into independently scheduled batches.
type BuffGroup int32

const (
	// BuffGroupLong - long duration buffs, usually cast once after rest
	BuffGroupLong BuffGroup = iota
	// BuffGroupImportant - buffs the party should never be without
	BuffGroupImportant
	// BuffGroupShort - short duration buffs cast right before a fight
	BuffGroupShort
	// BuffGroupCombat - buffs reapplied during combat rounds
	BuffGroupCombat
)

// AllBuffGroups returns every group in declaration order.
func AllBuffGroups() []BuffGroup {
	return []BuffGroup{BuffGroupLong, BuffGroupImportant, BuffGroupShort, BuffGroupCombat}
}

// String returns human-readable group name
func (g BuffGroup) String() string {
	switch g {
	case BuffGroupLong:
		return "Long"
	case BuffGroupImportant:
		return "Important"
	case BuffGroupShort:
		return "Short"
	case BuffGroupCombat:
		return "Combat"
	default:
		return "Unknown"
	}
}

// ParseBuffGroup parses a group name, case-insensitive.
func ParseBuffGroup(s string) (BuffGroup, error) {
	for _, g := range AllBuffGroups() {
		if strings.EqualFold(g.String(), strings.TrimSpace(s)) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown buff group %q", s)
}

// MarshalYAML encodes the group by name.
func (g BuffGroup) MarshalYAML() (any, error) {
	return g.String(), nil
}

// UnmarshalYAML decodes the group from its name.
func (g *BuffGroup) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseBuffGroup(name)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
