package model

// CastTask is a fully resolved cast instruction handed to the execution pump.
type CastTask struct {
	SlottedSpell *SlottedSpell

	// Spell is the logical spell being applied.
	Spell *Spell

	// SpellToCast is the ability actually invoked (touch variant for sticky-touch spells).
	SpellToCast *Spell

	Caster UnitID
	Target UnitID
	Params CastParams

	PowerfulChange     bool
	ShareTransmutation bool
	ReservoirCLBuff    bool
	AzataZippyMagic    bool
	SelfCastOnly       bool

	// IsDuplicateSpellApplied marks a free application that does not spend the slot.
	IsDuplicateSpellApplied bool
}

// Retentions reports which enhancements stay active on the task when it is cast.
func (t *CastTask) Retentions(caps CapabilityChecker) Retentions {
	has := func(c Capability) bool {
		return caps != nil && caps.HasCapability(t.Caster, c)
	}
	return Retentions{
		ShareTransmutation:         has(CapShareTransmutation) && t.ShareTransmutation,
		ImprovedShareTransmutation: has(CapImprovedShareTransmutation) && t.ShareTransmutation,
		PowerfulChange:             has(CapPowerfulChange) && t.PowerfulChange,
		ImprovedPowerfulChange:     has(CapImprovedPowerfulChange) && t.PowerfulChange,
		ReservoirCLBuff:            has(CapReservoirCLBuff) && t.ReservoirCLBuff,
	}
}

// Retentions is the set of enhancements a caster both has and selected.
type Retentions struct {
	ShareTransmutation         bool
	ImprovedShareTransmutation bool
	PowerfulChange             bool
	ImprovedPowerfulChange     bool
	ReservoirCLBuff            bool
}

// Any reports whether a transmutation enhancement is retained.
func (r Retentions) Any() bool {
	return r.ShareTransmutation || r.ImprovedShareTransmutation || r.PowerfulChange || r.ImprovedPowerfulChange
}
