package buff

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/bubblebuff/internal/model"
)

// NegotiationOptions are the policy knobs of one pass.
type NegotiationOptions struct {
	// ForceOverwrite recasts buffs already present (manual mode only).
	ForceOverwrite bool
	// ReapplyThreshold skips targets whose buff lasts longer (smart mode only).
	ReapplyThreshold time.Duration
	// SkipIfPendingCommands skips casters with queued manual actions (smart mode only).
	SkipIfPendingCommands bool
	// Pool is the shared capacity spent by enhancements.
	Pool model.PoolID
}

// NegotiationInput is everything one pass negotiates over.
type NegotiationInput struct {
	Group     model.BuffGroup
	Mode      model.ReapplyMode
	Buffs     []*model.Buff
	Snapshots map[model.UnitID]*model.UnitBuffSnapshot
	Ledger    *Ledger
	Options   NegotiationOptions
}

// Plan is the negotiated outcome: tasks in execution order plus the tally.
type Plan struct {
	Tasks  []*model.CastTask
	Report *model.PassReport
}

// Negotiator turns a buff group into an ordered, resource-checked list of
// cast tasks.
type Negotiator struct {
	units     UnitDirectory
	abilities AbilityCache
}

// NewNegotiator creates a negotiator.
func NewNegotiator(units UnitDirectory, abilities AbilityCache) *Negotiator {
	return &Negotiator{units: units, abilities: abilities}
}

type outcomeKind int

const (
	outcomeAccepted outcomeKind = iota
	outcomeSkipped
	outcomeRejected
)

// candidateOutcome is the result of evaluating one (target, caster) pair.
// Faults are returned as errors next to it.
type candidateOutcome struct {
	kind   outcomeKind
	reason model.RejectReason
	task   *model.CastTask
}

// Negotiate evaluates every eligible buff of the group in catalog order.
// A fault in one buff abandons that buff only.
func (n *Negotiator) Negotiate(ctx context.Context, in NegotiationInput) *Plan {
	if in.Options.Pool == "" {
		in.Options.Pool = model.ArcanistPool
	}
	plan := &Plan{Report: model.NewPassReport(in.Group, in.Mode)}

	for _, b := range in.Buffs {
		if b.InGroup != in.Group || b.Fulfilled() == 0 {
			continue
		}

		res := &model.BuffResult{BuffID: b.ID, Name: b.Name}
		if err := n.negotiateBuff(ctx, &in, b, res, plan); err != nil {
			res.Fault = err.Error()
			slog.Warn("casting buff failed",
				"buff", b.Name,
				"group", in.Group,
				"error", err)
		}

		if res.Good > 0 || res.Skip > 0 || res.Bad > 0 || res.Fault != "" {
			plan.Report.Buffs = append(plan.Report.Buffs, res)
		}
	}

	return plan
}

func (n *Negotiator) negotiateBuff(ctx context.Context, in *NegotiationInput, b *model.Buff, res *model.BuffResult, plan *Plan) error {
	for _, c := range b.CastQueue {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := n.evaluate(ctx, in, b, c, plan.Tasks)
		if err != nil {
			return err
		}

		report := plan.Report
		switch out.kind {
		case outcomeSkipped:
			res.Skip++
			report.Skipped++
		case outcomeRejected:
			report.Attempted++
			report.Rejected++
			res.Bad++
			res.Rejections = append(res.Rejections, model.Rejection{
				Caster: n.unitName(c.Caster.Caster),
				Target: n.unitName(c.Target),
				Reason: out.reason,
			})
		case outcomeAccepted:
			report.Attempted++
			report.Accepted++
			res.Good++
			plan.Tasks = append(plan.Tasks, out.task)
		}
	}
	return nil
}

// evaluate runs the redundancy, slot, resource and construction steps for one
// candidate. queued holds the tasks accepted so far in this pass.
func (n *Negotiator) evaluate(ctx context.Context, in *NegotiationInput, b *model.Buff, c model.CastCandidate, queued []*model.CastTask) (candidateOutcome, error) {
	a := c.Caster
	if a == nil {
		return candidateOutcome{}, fmt.Errorf("cast queue entry for %s has no caster", c.Target)
	}
	target, ok := in.Snapshots[c.Target]
	if !ok || target == nil {
		return candidateOutcome{}, fmt.Errorf("no buff snapshot for target %s", c.Target)
	}

	if n.redundant(in, b, a, target) {
		return candidateOutcome{kind: outcomeSkipped}, nil
	}

	if !a.Slotted.IsAvailable() {
		return candidateOutcome{kind: outcomeRejected, reason: model.RejectNoSlot}, nil
	}

	spell := a.Spell
	if spell == nil {
		spell = b.Spell
	}
	if spell == nil {
		return candidateOutcome{}, fmt.Errorf("buff %s has no spell", b.ID)
	}

	prior := countSlotted(queued, a.Caster, a.Slotted.ID)
	free := a.Options.AzataZippyMagic && prior%2 == 1

	if !free {
		if cost := enhancementCost(n.abilities, a, spell, c.Target); cost > 0 {
			reserved, err := in.Ledger.Reserve(ctx, a.Caster, in.Options.Pool, cost)
			if err != nil {
				return candidateOutcome{}, err
			}
			if !reserved {
				return candidateOutcome{kind: outcomeRejected, reason: model.RejectInsufficientPool}, nil
			}
		}
	}

	return candidateOutcome{kind: outcomeAccepted, task: n.buildTask(a, spell, c.Target, free)}, nil
}

// redundant applies the reapply policy of the pass mode.
func (n *Negotiator) redundant(in *NegotiationInput, b *model.Buff, a *model.CasterAssignment, target *model.UnitBuffSnapshot) bool {
	if in.Mode == model.ReapplySmart {
		if target.MinRemaining(b.Applied, b.IgnoreForOverwrite) > in.Options.ReapplyThreshold {
			return true
		}
		return in.Options.SkipIfPendingCommands && n.units != nil && n.units.HasPendingCommands(a.Caster)
	}
	return target.IsPresent(b.Applied, b.IgnoreForOverwrite) && !in.Options.ForceOverwrite
}

func (n *Negotiator) buildTask(a *model.CasterAssignment, spell *model.Spell, target model.UnitID, free bool) *model.CastTask {
	spellToCast := spell.WithDelivery()

	slog.Debug("adding cast task", "spell", spell.Name, "caster", a.Caster, "target", target)
	if spellToCast != spell {
		slog.Debug("switching spell to touch", "spell", spell.Name, "delivery", spellToCast.Name)
	}

	var params model.CastParams
	if n.abilities != nil {
		params = n.abilities.CastParams(a.Caster, spellToCast)
	}

	return &model.CastTask{
		SlottedSpell:            a.Slotted,
		Spell:                   spell,
		SpellToCast:             spellToCast,
		Caster:                  a.Caster,
		Target:                  target,
		Params:                  params,
		PowerfulChange:          a.Options.PowerfulChange,
		ShareTransmutation:      a.Options.ShareTransmutation,
		ReservoirCLBuff:         a.Options.ReservoirCLBuff,
		AzataZippyMagic:         a.Options.AzataZippyMagic,
		SelfCastOnly:            a.Options.SelfCastOnly,
		IsDuplicateSpellApplied: free,
	}
}

func (n *Negotiator) unitName(id model.UnitID) string {
	if n.units == nil {
		return string(id)
	}
	if name := n.units.UnitName(id); name != "" {
		return name
	}
	return string(id)
}

// countSlotted counts queued tasks spending the same slotted spell of caster.
func countSlotted(tasks []*model.CastTask, caster model.UnitID, slotID string) int {
	count := 0
	for _, t := range tasks {
		if t.Caster == caster && t.SlottedSpell != nil && t.SlottedSpell.ID == slotID {
			count++
		}
	}
	return count
}
