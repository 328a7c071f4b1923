package model

// Capability is a caster feature that can enhance a cast.
type Capability int32

const (
	CapPowerfulChange Capability = iota
	CapImprovedPowerfulChange
	CapShareTransmutation
	CapImprovedShareTransmutation
	CapReservoirCLBuff
)

// String returns human-readable capability name
func (c Capability) String() string {
	switch c {
	case CapPowerfulChange:
		return "PowerfulChange"
	case CapImprovedPowerfulChange:
		return "ImprovedPowerfulChange"
	case CapShareTransmutation:
		return "ShareTransmutation"
	case CapImprovedShareTransmutation:
		return "ImprovedShareTransmutation"
	case CapReservoirCLBuff:
		return "ReservoirCLBuff"
	default:
		return "Unknown"
	}
}

// CapabilityChecker answers whether a unit has a capability.
type CapabilityChecker interface {
	HasCapability(unit UnitID, c Capability) bool
}

// PoolID names a shared per-caster resource capacity.
type PoolID string

// ArcanistPool is the pool spent by cast enhancements.
const ArcanistPool PoolID = "arcanist_pool"
