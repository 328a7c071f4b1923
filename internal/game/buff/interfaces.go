package buff

import (
	"context"
	"time"

	"github.com/udisondev/bubblebuff/internal/config"
	"github.com/udisondev/bubblebuff/internal/model"
)

// UnitDirectory resolves per-unit facts needed while negotiating.
type UnitDirectory interface {
	// UnitName returns a display name for messages.
	UnitName(unit model.UnitID) string
	// HasPendingCommands reports whether the unit has queued manual actions.
	HasPendingCommands(unit model.UnitID) bool
}

// Roster is the source of party members and the buff catalog.
type Roster interface {
	UnitDirectory

	// Units returns the ordered set of units participating in buffing.
	Units(ctx context.Context) ([]model.Unit, error)
	// Recalculate rebuilds the buff catalog and cast queues.
	Recalculate(ctx context.Context) ([]*model.Buff, error)
	// Snapshot returns the effects currently present on unit.
	Snapshot(ctx context.Context, unit model.UnitID) (*model.UnitBuffSnapshot, error)
}

// ResourceCatalog reports the current capacity of a caster's pool.
type ResourceCatalog interface {
	ResourceAmount(ctx context.Context, caster model.UnitID, pool model.PoolID) (int, error)
}

// CostLogic computes the pool cost of an enhancement for a spell.
type CostLogic interface {
	CalculateCost(spell *model.Spell) int
}

// AbilityCache resolves caster capabilities and their cost logic.
type AbilityCache interface {
	model.CapabilityChecker

	// CostLogic returns the cost logic of a caster's capability.
	// ok is false when the logic cannot be resolved.
	CostLogic(caster model.UnitID, c model.Capability) (CostLogic, bool)

	// CastParams resolves the parameters of casting spell.
	CastParams(caster model.UnitID, spell *model.Spell) model.CastParams
}

// Caster is the single-cast primitive.
type Caster interface {
	Cast(ctx context.Context, task *model.CastTask) error
}

// Sink receives pass reports for presentation.
type Sink interface {
	Report(ctx context.Context, report *model.PassReport) error
}

// CombatState reports whether the party is in combat.
type CombatState interface {
	InCombat() bool
}

// SpamSettings supplies the current spam configuration.
// *config.Store satisfies it.
type SpamSettings interface {
	SpamConfig() config.Spam
}

// Clock returns game time elapsed since an arbitrary origin.
type Clock interface {
	Now() time.Duration
}

// MonotonicClock measures wall time since creation.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock creates a clock starting at zero.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Now returns the time elapsed since the clock was created.
func (c *MonotonicClock) Now() time.Duration {
	return time.Since(c.start)
}
