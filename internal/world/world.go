package world

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/bubblebuff/internal/config"
	"github.com/udisondev/bubblebuff/internal/game/buff"
	"github.com/udisondev/bubblebuff/internal/model"
)

// World is an in-memory party built from a Scenario.
//
// It implements every collaborator of the buff scheduler: roster, resource
// catalog, ability cache, cast primitive and combat state. Effect timers
// advance on Tick.
//
// Thread-safe: all methods are protected by sync.RWMutex.
type World struct {
	mu sync.RWMutex

	scenario  *Scenario
	whitelist *config.Whitelist

	order  []model.UnitID
	units  map[model.UnitID]*unitState
	spells map[string]*spellState
	slots  map[string]*slotState

	// resources replaces the in-memory pools when set.
	resources ResourceStore

	casts int
}

type unitState struct {
	unit     model.Unit
	level    int32
	inCombat bool
	pending  int
	pools    map[model.PoolID]int
	caps     map[model.Capability]bool
	effects  map[model.EffectID]time.Duration
}

type spellState struct {
	spec  SpellSpec
	spell *model.Spell
	costs map[model.Capability]int
}

type slotState struct {
	spec    SlotSpec
	charges int
}

var (
	_ buff.Roster          = (*World)(nil)
	_ buff.ResourceCatalog = (*World)(nil)
	_ buff.AbilityCache    = (*World)(nil)
	_ buff.Caster          = (*World)(nil)
	_ buff.CombatState     = (*World)(nil)
	_ buff.Tickable        = (*World)(nil)
)

// New builds a world from a validated scenario.
// Non-spell abilities are only buffed when whitelisted; whitelist may be nil.
func New(s *Scenario, whitelist *config.Whitelist) (*World, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	w := &World{
		scenario:  s,
		whitelist: whitelist,
		units:     make(map[model.UnitID]*unitState, len(s.Units)),
		spells:    make(map[string]*spellState, len(s.Spells)),
		slots:     make(map[string]*slotState, len(s.Slots)),
	}

	for _, u := range s.Units {
		w.addUnit(u)
	}
	for _, sp := range s.Spells {
		st := &spellState{
			spec:  sp,
			costs: make(map[model.Capability]int, len(sp.Costs)),
			spell: &model.Spell{
				ID:    sp.ID,
				Name:  displayName(sp.Name, sp.ID),
				Kind:  spellKind(sp.Kind),
				Level: sp.Level,
			},
		}
		for name, cost := range sp.Costs {
			c, _ := parseCapability(name)
			st.costs[c] = cost
		}
		w.spells[sp.ID] = st
	}
	for _, st := range w.spells {
		if st.spec.TouchDelivery != "" {
			st.spell.TouchDelivery = w.spells[st.spec.TouchDelivery].spell
		}
	}
	for _, sl := range s.Slots {
		w.slots[sl.ID] = &slotState{spec: sl, charges: sl.Charges}
	}
	for _, e := range s.Effects {
		remaining := model.Permanent
		if e.RemainingSeconds > 0 {
			remaining = time.Duration(e.RemainingSeconds * float64(time.Second))
		}
		w.units[model.UnitID(e.Unit)].effects[model.EffectID(e.Effect)] = remaining
	}

	slog.Info("party world loaded",
		"units", len(w.order),
		"spells", len(w.spells),
		"slots", len(w.slots),
		"buffs", len(s.Buffs))
	return w, nil
}

func (w *World) addUnit(u UnitSpec) {
	id := model.UnitID(u.ID)
	st := &unitState{
		unit:     model.Unit{ID: id, Name: displayName(u.Name, u.ID)},
		level:    u.Level,
		inCombat: u.InCombat,
		pending:  u.PendingCommands,
		pools:    make(map[model.PoolID]int, len(u.Resources)),
		caps:     make(map[model.Capability]bool),
		effects:  make(map[model.EffectID]time.Duration),
	}
	for name, amount := range u.Resources {
		st.pools[poolOf(name)] = amount
	}
	for _, f := range u.Features {
		for _, c := range capabilitiesOf(f) {
			st.caps[c] = true
		}
	}
	w.order = append(w.order, id)
	w.units[id] = st
}

// ResourceStore is an external resource catalog that casts are debited against.
type ResourceStore interface {
	buff.ResourceCatalog
	Spend(ctx context.Context, caster model.UnitID, pool model.PoolID, amount int) error
}

// SetResourceStore moves pool reads and debits to an external store.
func (w *World) SetResourceStore(rs ResourceStore) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resources = rs
}

// Pools returns the initial pool amounts of every unit, for seeding a ResourceStore.
func (w *World) Pools() map[model.UnitID]map[model.PoolID]int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[model.UnitID]map[model.PoolID]int, len(w.units))
	for id, u := range w.units {
		if len(u.pools) == 0 {
			continue
		}
		out[id] = maps.Clone(u.pools)
	}
	return out
}

// Units returns party members in scenario order.
func (w *World) Units(context.Context) ([]model.Unit, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	units := make([]model.Unit, 0, len(w.order))
	for _, id := range w.order {
		units = append(units, w.units[id].unit)
	}
	return units, nil
}

// Recalculate rebuilds the buff catalog from the scenario and current slot charges.
func (w *World) Recalculate(ctx context.Context) ([]*model.Buff, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	buffs := make([]*model.Buff, 0, len(w.scenario.Buffs))
	for _, spec := range w.scenario.Buffs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sp := w.spells[spec.Spell]
		if sp.spell.Kind != model.SpellKindSpell && !w.whitelist.Contains(sp.spec.ID) {
			slog.Debug("skipping non-spell ability", "ability", sp.spell.Name)
			continue
		}

		b := &model.Buff{
			ID:                 displayName(spec.ID, spec.Spell),
			Name:               displayName(spec.Name, sp.spell.Name),
			Spell:              sp.spell,
			InGroup:            spec.Group,
			Applied:            sp.spec.AppliedEffects(),
			IgnoreForOverwrite: effectIDs(sp.spec.IgnoreForOverwrite),
		}
		for _, cs := range spec.Casts {
			a := w.assignment(cs, sp)
			for _, target := range w.targets(cs) {
				b.CastQueue = append(b.CastQueue, model.CastCandidate{Target: target, Caster: a})
			}
		}
		buffs = append(buffs, b)
	}
	return buffs, nil
}

func (w *World) assignment(cs CastSpec, sp *spellState) *model.CasterAssignment {
	a := &model.CasterAssignment{
		Caster:  model.UnitID(cs.Caster),
		Spell:   sp.spell,
		Options: cs.Options,
	}

	slot := w.slotFor(cs, sp.spec.ID)
	if slot != nil {
		a.Slotted = &model.SlottedSpell{
			ID:        slot.spec.ID,
			Spell:     sp.spell,
			Available: slot.charges > 0,
		}
	}
	return a
}

func (w *World) slotFor(cs CastSpec, spellID string) *slotState {
	if cs.Slot != "" {
		return w.slots[cs.Slot]
	}
	for _, sl := range w.scenario.Slots {
		if sl.Caster == cs.Caster && sl.Spell == spellID {
			return w.slots[sl.ID]
		}
	}
	return nil
}

func (w *World) targets(cs CastSpec) []model.UnitID {
	var out []model.UnitID
	for _, t := range cs.Targets {
		if t == AllTargets {
			out = append(out, w.order...)
			continue
		}
		out = append(out, model.UnitID(t))
	}
	if cs.Options.SelfCastOnly {
		out = slices.DeleteFunc(out, func(id model.UnitID) bool { return id != model.UnitID(cs.Caster) })
	}
	return out
}

// Snapshot returns the effects currently present on unit.
func (w *World) Snapshot(_ context.Context, unit model.UnitID) (*model.UnitBuffSnapshot, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	st, ok := w.units[unit]
	if !ok {
		return nil, fmt.Errorf("unit %s not found", unit)
	}
	snap := model.NewUnitBuffSnapshot(unit)
	for e, d := range st.effects {
		snap.Set(e, d)
	}
	return snap, nil
}

// UnitName returns the display name of unit, empty if unknown.
func (w *World) UnitName(unit model.UnitID) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if st, ok := w.units[unit]; ok {
		return st.unit.Name
	}
	return ""
}

// HasPendingCommands reports whether unit has queued manual actions.
func (w *World) HasPendingCommands(unit model.UnitID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	st, ok := w.units[unit]
	return ok && st.pending > 0
}

// ResourceAmount returns the current amount of caster's pool.
func (w *World) ResourceAmount(ctx context.Context, caster model.UnitID, pool model.PoolID) (int, error) {
	w.mu.RLock()
	external := w.resources
	st, ok := w.units[caster]
	amount := 0
	if ok {
		amount = st.pools[pool]
	}
	w.mu.RUnlock()

	if external != nil {
		return external.ResourceAmount(ctx, caster, pool)
	}
	if !ok {
		return 0, fmt.Errorf("unit %s not found", caster)
	}
	return amount, nil
}

// HasCapability reports whether unit has a feature granting c.
func (w *World) HasCapability(unit model.UnitID, c model.Capability) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	st, ok := w.units[unit]
	return ok && st.caps[c]
}

// CostLogic resolves the cost logic of a capability the caster has.
func (w *World) CostLogic(caster model.UnitID, c model.Capability) (buff.CostLogic, bool) {
	if !w.HasCapability(caster, c) {
		return nil, false
	}
	return &spellCost{world: w, capability: c}, true
}

// CastParams resolves the caster level, spell level and DC of a cast.
func (w *World) CastParams(caster model.UnitID, spell *model.Spell) model.CastParams {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var level int32
	if st, ok := w.units[caster]; ok {
		level = st.level
	}
	return model.CastParams{
		CasterLevel: level,
		SpellLevel:  spell.Level,
		DC:          10 + spell.Level + level/2,
	}
}

// spellCost reads per-spell capability costs from the scenario.
// Spells without an explicit cost cost 1.
type spellCost struct {
	world      *World
	capability model.Capability
}

func (c *spellCost) CalculateCost(spell *model.Spell) int {
	c.world.mu.RLock()
	defer c.world.mu.RUnlock()

	if parent := spell.Parent; parent != nil {
		spell = parent
	}
	st, ok := c.world.spells[spell.ID]
	if !ok {
		return 1
	}
	if cost, ok := st.costs[c.capability]; ok {
		return cost
	}
	return 1
}

// InCombat reports whether any party member is in combat.
func (w *World) InCombat() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, st := range w.units {
		if st.inCombat {
			return true
		}
	}
	return false
}

// SetInCombat puts every party member in or out of combat.
func (w *World) SetInCombat(in bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, st := range w.units {
		st.inCombat = in
	}
}

// SetPendingCommands sets the number of queued manual actions of unit.
func (w *World) SetPendingCommands(unit model.UnitID, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if st, ok := w.units[unit]; ok {
		st.pending = n
	}
}

// Cast applies a cast task: spends the slot charge and the pool for retained
// enhancements, then puts the spell's effects on the target.
// Free duplicate applications spend neither.
func (w *World) Cast(ctx context.Context, t *model.CastTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	caster, ok := w.units[t.Caster]
	if !ok {
		return fmt.Errorf("caster %s not found", t.Caster)
	}
	target, ok := w.units[t.Target]
	if !ok {
		return fmt.Errorf("target %s not found", t.Target)
	}
	if t.Spell == nil {
		return fmt.Errorf("cast by %s has no spell", t.Caster)
	}
	sp, ok := w.spells[t.Spell.ID]
	if !ok {
		return fmt.Errorf("spell %s not found", t.Spell.ID)
	}

	cost := 0
	if !t.IsDuplicateSpellApplied {
		if t.SlottedSpell == nil {
			return fmt.Errorf("%s has no slot for %s", caster.unit.Name, sp.spell.Name)
		}
		slot, ok := w.slots[t.SlottedSpell.ID]
		if !ok || slot.charges <= 0 {
			return fmt.Errorf("%s has no charges of %s left", caster.unit.Name, sp.spell.Name)
		}
		cost = w.retentionCost(t, sp)
		if err := w.spend(ctx, caster, cost); err != nil {
			return fmt.Errorf("casting %s: %w", sp.spell.Name, err)
		}
		slot.charges--
	}

	duration := sp.spec.Duration()
	for _, e := range sp.spec.AppliedEffects() {
		target.effects[e] = duration
	}
	w.casts++

	slog.Debug("spell applied",
		"caster", caster.unit.Name,
		"target", target.unit.Name,
		"spell", spellNameOf(t),
		"cost", cost,
		"free", t.IsDuplicateSpellApplied)
	return nil
}

// spend debits the pool of caster. Must be called with w.mu held.
func (w *World) spend(ctx context.Context, caster *unitState, cost int) error {
	if cost <= 0 {
		return nil
	}
	if w.resources != nil {
		return w.resources.Spend(ctx, caster.unit.ID, model.ArcanistPool, cost)
	}
	if caster.pools[model.ArcanistPool] < cost {
		return fmt.Errorf("%s lacks %d %s", caster.unit.Name, cost, model.ArcanistPool)
	}
	caster.pools[model.ArcanistPool] -= cost
	return nil
}

// retentionCost sums the pool cost of the enhancements retained on t.
// Must be called with w.mu held.
func (w *World) retentionCost(t *model.CastTask, sp *spellState) int {
	r := t.Retentions(capsOf{w.units})
	cost := 0
	add := func(retained bool, c model.Capability) {
		if !retained {
			return
		}
		if v, ok := sp.costs[c]; ok {
			cost += max(v, 0)
			return
		}
		cost++
	}
	add(r.PowerfulChange, model.CapPowerfulChange)
	add(r.ShareTransmutation && t.Caster != t.Target, model.CapShareTransmutation)
	add(r.ReservoirCLBuff, model.CapReservoirCLBuff)
	return cost
}

// capsOf checks capabilities without taking the world lock.
type capsOf struct {
	units map[model.UnitID]*unitState
}

func (c capsOf) HasCapability(unit model.UnitID, cp model.Capability) bool {
	st, ok := c.units[unit]
	return ok && st.caps[cp]
}

// Tick decrements effect timers and removes expired effects.
func (w *World) Tick(_ context.Context, delta time.Duration) {
	if delta <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, st := range w.units {
		for e, remaining := range st.effects {
			if remaining == model.Permanent {
				continue
			}
			remaining -= delta
			if remaining <= 0 {
				delete(st.effects, e)
				slog.Debug("effect expired", "unit", st.unit.Name, "effect", e)
				continue
			}
			st.effects[e] = remaining
		}
	}
}

// Charges returns the remaining charges of a slot.
func (w *World) Charges(slotID string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if sl, ok := w.slots[slotID]; ok {
		return sl.charges
	}
	return 0
}

// Casts returns the number of casts applied.
func (w *World) Casts() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.casts
}

func spellNameOf(t *model.CastTask) string {
	if t.SpellToCast != nil {
		return t.SpellToCast.Name
	}
	return t.Spell.Name
}

func spellKind(k model.SpellKind) model.SpellKind {
	if k == "" {
		return model.SpellKindSpell
	}
	return k
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func effectIDs(ids []string) []model.EffectID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]model.EffectID, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.EffectID(id))
	}
	return out
}
