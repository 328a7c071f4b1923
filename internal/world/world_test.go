package world

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/bubblebuff/internal/config"
	"github.com/udisondev/bubblebuff/internal/game/buff"
	"github.com/udisondev/bubblebuff/internal/model"
	"github.com/udisondev/bubblebuff/internal/testutil"
)

const testScenario = `
units:
  - id: nenio
    name: Nenio
    level: 8
    resources:
      cac948cbbe79b55459459dd6a8fe44ce: 3
    features:
      - 5e01e267021bffe4e99ebee3fdc872d1
      - c94d764d2ce3cd14f892f7c00d9f3a70
  - id: seelah
    name: Seelah
    level: 7
    pending_commands: 1
  - id: lann
    level: 6

spells:
  - id: mage_armor
    name: Mage Armor
    level: 1
    duration_seconds: 60
    costs:
      powerful_change: 2
  - id: shield_touch
    name: Shield (touch)
    level: 1
  - id: shield
    name: Shield
    level: 1
    touch_delivery: shield_touch
    effects: [shield, shield_glow]
    ignore_for_overwrite: [shield_glow]
    duration_seconds: 30
  - id: inspire
    name: Inspire Courage
    kind: ability

slots:
  - id: nenio_armor
    caster: nenio
    spell: mage_armor
    charges: 2
  - id: nenio_shield
    caster: nenio
    spell: shield
    charges: 0
  - id: seelah_inspire
    caster: seelah
    spell: inspire
    charges: 1

buffs:
  - id: armor
    spell: mage_armor
    group: long
    casts:
      - caster: nenio
        targets: ["*"]
        options:
          powerful_change: true
  - spell: shield
    group: short
    casts:
      - caster: nenio
        targets: [nenio, seelah]
        options:
          self_cast_only: true
  - spell: inspire
    group: combat
    casts:
      - caster: seelah
        targets: [seelah]

effects:
  - unit: lann
    effect: mage_armor
    remaining_seconds: 5
  - unit: seelah
    effect: haste
`

func newTestWorld(t *testing.T, whitelist *config.Whitelist) *World {
	t.Helper()
	s, err := ParseScenario([]byte(testScenario))
	require.NoError(t, err)
	w, err := New(s, whitelist)
	require.NoError(t, err)
	return w
}

func TestWorld_Recalculate(t *testing.T) {
	w := newTestWorld(t, nil)

	buffs, err := w.Recalculate(context.Background())
	require.NoError(t, err)
	require.Len(t, buffs, 2, "the ability is skipped without a whitelist entry")

	armor := buffs[0]
	assert.Equal(t, "armor", armor.ID)
	assert.Equal(t, "Mage Armor", armor.Name)
	assert.Equal(t, model.BuffGroupLong, armor.InGroup)
	require.Equal(t, 3, armor.Fulfilled())
	for i, id := range []model.UnitID{"nenio", "seelah", "lann"} {
		assert.Equal(t, id, armor.CastQueue[i].Target)
	}
	a := armor.CastQueue[0].Caster
	assert.True(t, a.Slotted.IsAvailable())
	assert.True(t, a.Options.PowerfulChange)

	shield := buffs[1]
	assert.Equal(t, "shield", shield.ID)
	require.Equal(t, 1, shield.Fulfilled(), "self cast only keeps the caster")
	assert.Equal(t, model.UnitID("nenio"), shield.CastQueue[0].Target)
	assert.False(t, shield.CastQueue[0].Caster.Slotted.IsAvailable())
	assert.True(t, shield.Spell.IsStickyTouch())
	assert.Equal(t, []model.EffectID{"shield_glow"}, shield.IgnoreForOverwrite)
}

func TestWorld_RecalculateWhitelistedAbility(t *testing.T) {
	w := newTestWorld(t, config.NewWhitelist("inspire"))

	buffs, err := w.Recalculate(context.Background())
	require.NoError(t, err)
	require.Len(t, buffs, 3)
	assert.Equal(t, model.BuffGroupCombat, buffs[2].InGroup)
}

func TestWorld_CapabilitiesFromFeatures(t *testing.T) {
	w := newTestWorld(t, nil)

	assert.True(t, w.HasCapability("nenio", model.CapPowerfulChange))
	assert.True(t, w.HasCapability("nenio", model.CapImprovedPowerfulChange))
	assert.True(t, w.HasCapability("nenio", model.CapImprovedShareTransmutation))
	assert.False(t, w.HasCapability("nenio", model.CapShareTransmutation))
	assert.False(t, w.HasCapability("seelah", model.CapPowerfulChange))

	logic, ok := w.CostLogic("nenio", model.CapPowerfulChange)
	require.True(t, ok)
	buffs, err := w.Recalculate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, logic.CalculateCost(buffs[0].Spell))
	assert.Equal(t, 1, logic.CalculateCost(buffs[1].Spell), "no explicit cost")

	_, ok = w.CostLogic("seelah", model.CapPowerfulChange)
	assert.False(t, ok)
}

func TestWorld_RosterQueries(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	amount, err := w.ResourceAmount(ctx, "nenio", model.ArcanistPool)
	require.NoError(t, err)
	assert.Equal(t, 3, amount)

	_, err = w.ResourceAmount(ctx, "ghost", model.ArcanistPool)
	assert.Error(t, err)

	assert.Equal(t, "Seelah", w.UnitName("seelah"))
	assert.Equal(t, "lann", w.UnitName("lann"), "name defaults to id")
	assert.True(t, w.HasPendingCommands("seelah"))
	w.SetPendingCommands("seelah", 0)
	assert.False(t, w.HasPendingCommands("seelah"))

	snap, err := w.Snapshot(ctx, "seelah")
	require.NoError(t, err)
	assert.Equal(t, model.Permanent, snap.Remaining["haste"])

	_, err = w.Snapshot(ctx, "ghost")
	assert.Error(t, err)

	params := w.CastParams("nenio", &model.Spell{Level: 3})
	assert.Equal(t, model.CastParams{CasterLevel: 8, SpellLevel: 3, DC: 17}, params)
}

func TestWorld_CastSpendsSlotAndPool(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()
	buffs, err := w.Recalculate(ctx)
	require.NoError(t, err)

	a := buffs[0].CastQueue[1].Caster
	task := &model.CastTask{
		SlottedSpell:   a.Slotted,
		Spell:          a.Spell,
		SpellToCast:    a.Spell,
		Caster:         "nenio",
		Target:         "seelah",
		PowerfulChange: true,
	}
	require.NoError(t, w.Cast(ctx, task))

	assert.Equal(t, 1, w.Charges("nenio_armor"))
	amount, _ := w.ResourceAmount(ctx, "nenio", model.ArcanistPool)
	assert.Equal(t, 1, amount)

	snap, _ := w.Snapshot(ctx, "seelah")
	assert.Equal(t, time.Minute, snap.Remaining["mage_armor"])

	// the pool no longer covers a second enhanced cast
	err = w.Cast(ctx, task)
	require.Error(t, err)
	assert.Equal(t, 1, w.Charges("nenio_armor"), "a failed cast spends nothing")

	free := *task
	free.IsDuplicateSpellApplied = true
	require.NoError(t, w.Cast(ctx, &free))
	assert.Equal(t, 1, w.Charges("nenio_armor"))
	assert.Equal(t, 2, w.Casts())
}

func TestWorld_CastWithoutCharges(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()
	buffs, err := w.Recalculate(ctx)
	require.NoError(t, err)

	a := buffs[1].CastQueue[0].Caster
	err = w.Cast(ctx, &model.CastTask{
		SlottedSpell: a.Slotted,
		Spell:        a.Spell,
		SpellToCast:  a.Spell.WithDelivery(),
		Caster:       "nenio",
		Target:       "nenio",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no charges")
}

func TestWorld_TickExpiresEffects(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	w.Tick(ctx, 3*time.Second)
	snap, _ := w.Snapshot(ctx, "lann")
	assert.Equal(t, 2*time.Second, snap.Remaining["mage_armor"])

	w.Tick(ctx, 2*time.Second)
	snap, _ = w.Snapshot(ctx, "lann")
	assert.NotContains(t, snap.Remaining, model.EffectID("mage_armor"))

	w.Tick(ctx, time.Hour)
	snap, _ = w.Snapshot(ctx, "seelah")
	assert.Contains(t, snap.Remaining, model.EffectID("haste"), "permanent effects never expire")
}

func TestWorld_Combat(t *testing.T) {
	w := newTestWorld(t, nil)
	assert.False(t, w.InCombat())
	w.SetInCombat(true)
	assert.True(t, w.InCombat())
}

type memStore struct {
	amounts map[model.UnitID]int
	spent   int
	err     error
}

func (m *memStore) ResourceAmount(_ context.Context, caster model.UnitID, _ model.PoolID) (int, error) {
	return m.amounts[caster], nil
}

func (m *memStore) Spend(_ context.Context, caster model.UnitID, _ model.PoolID, amount int) error {
	if m.err != nil {
		return m.err
	}
	m.amounts[caster] -= amount
	m.spent += amount
	return nil
}

func TestWorld_ExternalResourceStore(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()
	store := &memStore{amounts: map[model.UnitID]int{"nenio": 10}}
	w.SetResourceStore(store)

	amount, err := w.ResourceAmount(ctx, "nenio", model.ArcanistPool)
	require.NoError(t, err)
	assert.Equal(t, 10, amount)

	buffs, err := w.Recalculate(ctx)
	require.NoError(t, err)
	a := buffs[0].CastQueue[0].Caster
	task := &model.CastTask{SlottedSpell: a.Slotted, Spell: a.Spell, Caster: "nenio", Target: "lann", PowerfulChange: true}

	require.NoError(t, w.Cast(ctx, task))
	assert.Equal(t, 2, store.spent)

	store.err = testutil.ErrInjected
	assert.ErrorIs(t, w.Cast(ctx, task), store.err)
	assert.Equal(t, 1, w.Charges("nenio_armor"))
}

func TestWorld_Pools(t *testing.T) {
	w := newTestWorld(t, nil)

	pools := w.Pools()
	assert.Equal(t, map[model.UnitID]map[model.PoolID]int{
		"nenio": {model.ArcanistPool: 3},
	}, pools)

	pools["nenio"][model.ArcanistPool] = 0
	amount, err := w.ResourceAmount(context.Background(), "nenio", model.ArcanistPool)
	require.NoError(t, err)
	assert.Equal(t, 3, amount, "returned map is a copy")
}

// A full pass against the world: negotiate, pump and observe the effects.
func TestWorld_SchedulerPass(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	toggles := buff.NewToggles()
	state := buff.NewSchedulerState(nil, w, toggles)
	exec := buff.NewExecutor(state, buff.ExecutorDeps{
		Roster:    w,
		Abilities: w,
		Resources: w,
		Combat:    w,
	})

	report, err := exec.Execute(ctx, model.BuffGroupLong)
	require.NoError(t, err)

	// pool 3 and cost 2: nenio fits, seelah does not, lann already has it
	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 1, report.Skipped)

	require.True(t, state.Poll(ctx))
	assert.Equal(t, buff.Stats{Succeeded: 1}, state.Stats())

	snap, _ := w.Snapshot(ctx, "nenio")
	assert.Contains(t, snap.Remaining, model.EffectID("mage_armor"))
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad yaml", "units: [", "parsing scenario"},
		{"unknown slot caster", "units: [{id: a}]\nspells: [{id: s}]\nslots: [{id: x, caster: b, spell: s}]", "unknown caster"},
		{"unknown buff spell", "units: [{id: a}]\nbuffs: [{spell: s, group: long}]", "unknown spell"},
		{"unknown target", "units: [{id: a}]\nspells: [{id: s}]\nbuffs: [{spell: s, group: long, casts: [{caster: a, targets: [b]}]}]", "unknown target"},
		{"bad group", "spells: [{id: s}]\nbuffs: [{spell: s, group: huge}]", "huge"},
		{"bad cost", "spells: [{id: s, costs: {flying: 1}}]", "unknown capability"},
		{"duplicate unit", "units: [{id: a}, {id: a}]", "duplicate unit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario(t.TempDir() + "/nope.yaml")
	assert.Error(t, err)
}
