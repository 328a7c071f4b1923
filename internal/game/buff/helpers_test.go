package buff

import (
	"context"
	"fmt"
	"time"

	"github.com/udisondev/bubblebuff/internal/config"
	"github.com/udisondev/bubblebuff/internal/model"
)

// fakeClock is a manually advanced game clock.
type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration      { return c.now }
func (c *fakeClock) Set(d time.Duration)     { c.now = d }
func (c *fakeClock) Advance(d time.Duration) { c.now += d }

// fakeRoster serves a fixed catalog.
type fakeRoster struct {
	units     []model.Unit
	buffs     []*model.Buff
	snapshots map[model.UnitID]*model.UnitBuffSnapshot
	pending   map[model.UnitID]bool

	recalcErr error
	recalcs   int
}

func newFakeRoster(units ...model.UnitID) *fakeRoster {
	r := &fakeRoster{
		snapshots: make(map[model.UnitID]*model.UnitBuffSnapshot),
		pending:   make(map[model.UnitID]bool),
	}
	for _, id := range units {
		r.units = append(r.units, model.Unit{ID: id, Name: "Unit " + string(id)})
		r.snapshots[id] = model.NewUnitBuffSnapshot(id)
	}
	return r
}

func (r *fakeRoster) Units(context.Context) ([]model.Unit, error) { return r.units, nil }

func (r *fakeRoster) Recalculate(context.Context) ([]*model.Buff, error) {
	r.recalcs++
	if r.recalcErr != nil {
		return nil, r.recalcErr
	}
	return r.buffs, nil
}

func (r *fakeRoster) Snapshot(_ context.Context, unit model.UnitID) (*model.UnitBuffSnapshot, error) {
	s, ok := r.snapshots[unit]
	if !ok {
		return nil, fmt.Errorf("unit %s not found", unit)
	}
	return s, nil
}

func (r *fakeRoster) UnitName(unit model.UnitID) string {
	for _, u := range r.units {
		if u.ID == unit {
			return u.Name
		}
	}
	return ""
}

func (r *fakeRoster) HasPendingCommands(unit model.UnitID) bool { return r.pending[unit] }

// fixedCost is cost logic returning a constant.
type fixedCost int

func (f fixedCost) CalculateCost(*model.Spell) int { return int(f) }

// fakeAbilities grants capabilities per caster; costs without an entry are unresolved.
type fakeAbilities struct {
	caps  map[model.UnitID]map[model.Capability]bool
	costs map[model.Capability]int
}

func newFakeAbilities() *fakeAbilities {
	return &fakeAbilities{
		caps:  make(map[model.UnitID]map[model.Capability]bool),
		costs: make(map[model.Capability]int),
	}
}

func (a *fakeAbilities) grant(caster model.UnitID, caps ...model.Capability) {
	if a.caps[caster] == nil {
		a.caps[caster] = make(map[model.Capability]bool)
	}
	for _, c := range caps {
		a.caps[caster][c] = true
	}
}

func (a *fakeAbilities) HasCapability(caster model.UnitID, c model.Capability) bool {
	return a.caps[caster][c]
}

func (a *fakeAbilities) CostLogic(_ model.UnitID, c model.Capability) (CostLogic, bool) {
	cost, ok := a.costs[c]
	if !ok {
		return nil, false
	}
	return fixedCost(cost), true
}

func (a *fakeAbilities) CastParams(_ model.UnitID, spell *model.Spell) model.CastParams {
	return model.CastParams{CasterLevel: 10, SpellLevel: spell.Level}
}

// fakeCatalog reports fixed pool amounts and counts reads.
type fakeCatalog struct {
	amounts map[poolKey]int
	reads   int
	err     error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{amounts: make(map[poolKey]int)}
}

func (c *fakeCatalog) set(caster model.UnitID, amount int) {
	c.amounts[poolKey{caster, model.ArcanistPool}] = amount
}

func (c *fakeCatalog) ResourceAmount(_ context.Context, caster model.UnitID, pool model.PoolID) (int, error) {
	c.reads++
	if c.err != nil {
		return 0, c.err
	}
	return c.amounts[poolKey{caster, pool}], nil
}

// fakeCaster records casts and fails for selected targets.
type fakeCaster struct {
	cast   []*model.CastTask
	failOn map[model.UnitID]bool
}

func newFakeCaster() *fakeCaster {
	return &fakeCaster{failOn: make(map[model.UnitID]bool)}
}

func (c *fakeCaster) Cast(_ context.Context, t *model.CastTask) error {
	c.cast = append(c.cast, t)
	if c.failOn[t.Target] {
		return fmt.Errorf("target %s out of range", t.Target)
	}
	return nil
}

type fakeCombat struct{ in bool }

func (c *fakeCombat) InCombat() bool { return c.in }

type fakeSink struct {
	reports []*model.PassReport
	err     error
}

func (s *fakeSink) Report(_ context.Context, r *model.PassReport) error {
	s.reports = append(s.reports, r)
	return s.err
}

type fakeSettings struct{ spam config.Spam }

func (s *fakeSettings) SpamConfig() config.Spam { return s.spam }

// assign builds a caster assignment with its own slotted spell.
func assign(caster model.UnitID, slotID string, available bool, opts model.CastOptions) *model.CasterAssignment {
	spell := &model.Spell{ID: "spell_" + slotID, Name: "Spell " + slotID, Kind: model.SpellKindSpell, Level: 3}
	return &model.CasterAssignment{
		Caster:  caster,
		Spell:   spell,
		Slotted: &model.SlottedSpell{ID: slotID, Spell: spell, Available: available},
		Options: opts,
	}
}

// newBuff builds a buff applying a single effect named after it.
func newBuff(id string, group model.BuffGroup, queue ...model.CastCandidate) *model.Buff {
	return &model.Buff{
		ID:        id,
		Name:      "Buff " + id,
		InGroup:   group,
		CastQueue: queue,
		Applied:   []model.EffectID{model.EffectID(id)},
	}
}

func candidate(target model.UnitID, a *model.CasterAssignment) model.CastCandidate {
	return model.CastCandidate{Target: target, Caster: a}
}
