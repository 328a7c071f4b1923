package model

import (
	"math"
	"slices"
	"time"
)

// Permanent marks an effect without a duration.
const Permanent time.Duration = math.MaxInt64

// UnitBuffSnapshot is the set of effects present on a unit at scheduling time.
type UnitBuffSnapshot struct {
	Unit      UnitID
	Remaining map[EffectID]time.Duration
}

// NewUnitBuffSnapshot creates an empty snapshot for unit.
func NewUnitBuffSnapshot(unit UnitID) *UnitBuffSnapshot {
	return &UnitBuffSnapshot{
		Unit:      unit,
		Remaining: make(map[EffectID]time.Duration),
	}
}

// Set records an effect with its remaining duration.
func (s *UnitBuffSnapshot) Set(effect EffectID, remaining time.Duration) {
	s.Remaining[effect] = remaining
}

// IsPresent reports whether any of effects (minus ignore) is on the unit.
func (s *UnitBuffSnapshot) IsPresent(effects, ignore []EffectID) bool {
	for _, e := range effects {
		if slices.Contains(ignore, e) {
			continue
		}
		if _, ok := s.Remaining[e]; ok {
			return true
		}
	}
	return false
}

// MinRemaining returns the shortest remaining duration across the present
// effects (minus ignore). Returns 0 when none of them is present.
func (s *UnitBuffSnapshot) MinRemaining(effects, ignore []EffectID) time.Duration {
	found := false
	minimum := Permanent
	for _, e := range effects {
		if slices.Contains(ignore, e) {
			continue
		}
		if d, ok := s.Remaining[e]; ok {
			found = true
			minimum = min(minimum, d)
		}
	}
	if !found {
		return 0
	}
	return minimum
}
