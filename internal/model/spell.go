package model

// UnitID identifies a party member.
type UnitID string

// Unit is a party member participating in buffing.
type Unit struct {
	ID   UnitID
	Name string
}

// EffectID identifies an applied buff effect on a unit.
type EffectID string

// SpellKind distinguishes real spells from other activatable abilities.
type SpellKind string

const (
	SpellKindSpell   SpellKind = "spell"
	SpellKindAbility SpellKind = "ability"
)

// Spell is a castable ability definition.
//
// TouchDelivery is set for sticky-touch spells: the logical spell is applied
// by casting its touch delivery variant instead.
type Spell struct {
	ID            string
	Name          string
	Kind          SpellKind
	Level         int32
	TouchDelivery *Spell

	// Parent is the logical spell when this value is a delivery variant.
	Parent *Spell
}

// IsStickyTouch reports whether the spell carries a touch delivery component.
func (s *Spell) IsStickyTouch() bool {
	return s != nil && s.TouchDelivery != nil
}

// WithDelivery returns the spell that is actually invoked for a cast.
// Sticky-touch spells are replaced by their delivery variant with Parent
// pointing back at s; everything else returns s itself.
func (s *Spell) WithDelivery() *Spell {
	if !s.IsStickyTouch() {
		return s
	}
	variant := *s.TouchDelivery
	variant.Parent = s
	return &variant
}

// SlottedSpell is the prepared ability instance a caster expends to cast.
type SlottedSpell struct {
	ID        string
	Spell     *Spell
	Available bool
}

// IsAvailable reports whether the slot can still be spent.
func (s *SlottedSpell) IsAvailable() bool {
	return s != nil && s.Available
}

// CastParams are the resolved parameters of a prepared cast.
type CastParams struct {
	CasterLevel int32
	SpellLevel  int32
	DC          int32
}
