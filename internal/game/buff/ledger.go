package buff

import (
	"context"
	"fmt"

	"github.com/udisondev/bubblebuff/internal/model"
)

type poolKey struct {
	caster model.UnitID
	pool   model.PoolID
}

// Ledger tracks remaining pool capacity per caster for one scheduling pass.
//
// Each (caster, pool) is read from the catalog once, on first reference.
// Later reservations only touch the in-memory remainder, so buffs in the same
// pass compete for the same capacity. A ledger must not outlive its pass.
type Ledger struct {
	catalog   ResourceCatalog
	remaining map[poolKey]int
}

// NewLedger creates an empty ledger over catalog.
func NewLedger(catalog ResourceCatalog) *Ledger {
	return &Ledger{
		catalog:   catalog,
		remaining: make(map[poolKey]int),
	}
}

// Reserve debits amount from the caster's pool.
// Returns false, leaving the remainder unchanged, when amount exceeds it.
// Negative amounts are treated as zero.
func (l *Ledger) Reserve(ctx context.Context, caster model.UnitID, pool model.PoolID, amount int) (bool, error) {
	available, err := l.available(ctx, caster, pool)
	if err != nil {
		return false, err
	}

	amount = max(amount, 0)
	if amount > available {
		return false, nil
	}

	l.remaining[poolKey{caster, pool}] = available - amount
	return true, nil
}

// Remaining returns the tracked remainder, ok=false if never referenced.
func (l *Ledger) Remaining(caster model.UnitID, pool model.PoolID) (int, bool) {
	v, ok := l.remaining[poolKey{caster, pool}]
	return v, ok
}

func (l *Ledger) available(ctx context.Context, caster model.UnitID, pool model.PoolID) (int, error) {
	key := poolKey{caster, pool}
	if v, ok := l.remaining[key]; ok {
		return v, nil
	}

	if l.catalog == nil {
		return 0, fmt.Errorf("no resource catalog for %s of %s", pool, caster)
	}
	amount, err := l.catalog.ResourceAmount(ctx, caster, pool)
	if err != nil {
		return 0, fmt.Errorf("reading %s of %s: %w", pool, caster, err)
	}

	amount = max(amount, 0)
	l.remaining[key] = amount
	return amount, nil
}

// enhancementCost sums the pool cost of the enhancements selected on a.
// ShareTransmutation only costs when the target is someone else.
func enhancementCost(abilities AbilityCache, a *model.CasterAssignment, spell *model.Spell, target model.UnitID) int {
	cost := 0
	if a.Options.PowerfulChange {
		cost += contributorCost(abilities, a.Caster, model.CapPowerfulChange, spell)
	}
	if a.Options.ShareTransmutation && a.Caster != target {
		cost += contributorCost(abilities, a.Caster, model.CapShareTransmutation, spell)
	}
	if a.Options.ReservoirCLBuff {
		cost += contributorCost(abilities, a.Caster, model.CapReservoirCLBuff, spell)
	}
	return cost
}

// contributorCost is the cost of one enhancement: nothing if the caster
// lacks the capability, 1 if its cost logic is unknown, else the logic's
// cost floored at zero.
func contributorCost(abilities AbilityCache, caster model.UnitID, c model.Capability, spell *model.Spell) int {
	if abilities == nil || !abilities.HasCapability(caster, c) {
		return 0
	}
	logic, ok := abilities.CostLogic(caster, c)
	if !ok || logic == nil {
		return 1
	}
	return max(0, logic.CalculateCost(spell))
}
