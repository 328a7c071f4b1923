package buff

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/bubblebuff/internal/model"
)

func TestLedger_ReadsCatalogOnce(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.set("nenio", 5)
	l := NewLedger(catalog)

	ok, err := l.Reserve(ctx, "nenio", model.ArcanistPool, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// external value changes mid-pass are not observed
	catalog.set("nenio", 100)

	ok, err = l.Reserve(ctx, "nenio", model.ArcanistPool, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Reserve(ctx, "nenio", model.ArcanistPool, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, catalog.reads)
	left, tracked := l.Remaining("nenio", model.ArcanistPool)
	assert.True(t, tracked)
	assert.Zero(t, left)
}

func TestLedger_FailedReserveLeavesRemainder(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.set("ember", 3)
	l := NewLedger(catalog)

	ok, err := l.Reserve(ctx, "ember", model.ArcanistPool, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	left, _ := l.Remaining("ember", model.ArcanistPool)
	assert.Equal(t, 3, left)
}

func TestLedger_NegativeCatalogClamped(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.set("ember", -4)
	l := NewLedger(catalog)

	ok, err := l.Reserve(context.Background(), "ember", model.ArcanistPool, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Reserve(context.Background(), "ember", model.ArcanistPool, -2)
	require.NoError(t, err)
	assert.True(t, ok, "negative amounts reserve nothing")
	left, _ := l.Remaining("ember", model.ArcanistPool)
	assert.Zero(t, left)
}

func TestLedger_CatalogError(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.err = errors.New("connection reset")
	l := NewLedger(catalog)

	ok, err := l.Reserve(context.Background(), "seelah", model.ArcanistPool, 1)
	assert.False(t, ok)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.err)

	_, tracked := l.Remaining("seelah", model.ArcanistPool)
	assert.False(t, tracked)
}

// Successful debits never exceed the initial capacity, and a request above
// the remainder always fails without changing it.
func TestLedger_Conservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for run := 0; run < 200; run++ {
		capacity := rng.Intn(20)
		catalog := newFakeCatalog()
		catalog.set("nenio", capacity)
		l := NewLedger(catalog)

		debited := 0
		remaining := capacity
		for i := 0; i < 30; i++ {
			amount := rng.Intn(6)
			ok, err := l.Reserve(ctx, "nenio", model.ArcanistPool, amount)
			require.NoError(t, err)

			if amount > remaining {
				require.False(t, ok)
			} else {
				require.True(t, ok)
				debited += amount
				remaining -= amount
			}

			left, _ := l.Remaining("nenio", model.ArcanistPool)
			require.Equal(t, remaining, left)
			require.LessOrEqual(t, debited, capacity)
		}
	}
}

func TestEnhancementCost(t *testing.T) {
	spell := &model.Spell{ID: "haste"}

	tests := []struct {
		name   string
		opts   model.CastOptions
		caps   []model.Capability
		costs  map[model.Capability]int
		target model.UnitID
		want   int
	}{
		{
			name: "nothing selected",
			caps: []model.Capability{model.CapPowerfulChange},
			want: 0,
		},
		{
			name:   "selected without capability",
			opts:   model.CastOptions{PowerfulChange: true},
			target: "ally",
			want:   0,
		},
		{
			name:   "unresolved cost defaults to one",
			opts:   model.CastOptions{PowerfulChange: true},
			caps:   []model.Capability{model.CapPowerfulChange},
			target: "ally",
			want:   1,
		},
		{
			name:   "resolved costs summed",
			opts:   model.CastOptions{PowerfulChange: true, ReservoirCLBuff: true, ShareTransmutation: true},
			caps:   []model.Capability{model.CapPowerfulChange, model.CapReservoirCLBuff, model.CapShareTransmutation},
			costs:  map[model.Capability]int{model.CapPowerfulChange: 2, model.CapReservoirCLBuff: 3},
			target: "ally",
			want:   6,
		},
		{
			name:   "negative cost floored",
			opts:   model.CastOptions{ReservoirCLBuff: true},
			caps:   []model.Capability{model.CapReservoirCLBuff},
			costs:  map[model.Capability]int{model.CapReservoirCLBuff: -5},
			target: "ally",
			want:   0,
		},
		{
			name:   "share transmutation on self is free",
			opts:   model.CastOptions{ShareTransmutation: true},
			caps:   []model.Capability{model.CapShareTransmutation},
			target: "caster",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abilities := newFakeAbilities()
			abilities.grant("caster", tt.caps...)
			for c, v := range tt.costs {
				abilities.costs[c] = v
			}
			a := &model.CasterAssignment{Caster: "caster", Options: tt.opts}

			assert.Equal(t, tt.want, enhancementCost(abilities, a, spell, tt.target))
		})
	}
}
