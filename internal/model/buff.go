package model

// CastOptions are the per-assignment flags selected by the user.
type CastOptions struct {
	PowerfulChange     bool `yaml:"powerful_change"`
	ShareTransmutation bool `yaml:"share_transmutation"`
	ReservoirCLBuff    bool `yaml:"reservoir_cl_buff"`
	// AzataZippyMagic makes every other cast of the same slotted spell free.
	AzataZippyMagic bool `yaml:"azata_zippy_magic"`
	SelfCastOnly    bool `yaml:"self_cast_only"`
}

// UsesPool reports whether any pool-consuming option is selected.
func (o CastOptions) UsesPool() bool {
	return o.PowerfulChange || o.ShareTransmutation || o.ReservoirCLBuff
}

// CasterAssignment is one candidate caster for a buff.
type CasterAssignment struct {
	Caster  UnitID
	Spell   *Spell
	Slotted *SlottedSpell
	Options CastOptions
}

// CastCandidate is a (target, caster) pair still needing the buff.
type CastCandidate struct {
	Target UnitID
	Caster *CasterAssignment
}

// Buff is a catalog entry with its resolved cast queue.
// Buffs are rebuilt before every scheduling pass and never mutated by it.
type Buff struct {
	ID      string
	Name    string
	Spell   *Spell
	InGroup BuffGroup

	// CastQueue lists candidates in the order they should be tried.
	CastQueue []CastCandidate

	// Applied is the set of mutually exclusive effects this buff puts on a target.
	Applied []EffectID

	// IgnoreForOverwrite effects are not considered when checking presence.
	IgnoreForOverwrite []EffectID
}

// Fulfilled returns the number of resolved cast assignments.
func (b *Buff) Fulfilled() int {
	return len(b.CastQueue)
}
