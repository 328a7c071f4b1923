package buff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/bubblebuff/internal/model"
)

func TestGate_ManualCooldown(t *testing.T) {
	g := NewGate()

	assert.True(t, g.TryManual(model.BuffGroupLong, 0), "first run always allowed")
	assert.False(t, g.TryManual(model.BuffGroupLong, 499*time.Millisecond))
	assert.True(t, g.TryManual(model.BuffGroupLong, 500*time.Millisecond))

	last, ok := g.LastRun(model.BuffGroupLong, PolicyManual)
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, last)

	// other groups are unaffected
	assert.True(t, g.TryManual(model.BuffGroupShort, 600*time.Millisecond))
}

func TestGate_RejectedManualDoesNotRecord(t *testing.T) {
	g := NewGate()
	require.True(t, g.TryManual(model.BuffGroupLong, time.Second))
	require.False(t, g.TryManual(model.BuffGroupLong, 1200*time.Millisecond))

	last, _ := g.LastRun(model.BuffGroupLong, PolicyManual)
	assert.Equal(t, time.Second, last, "a rejected attempt must not push the cooldown")
}

func TestGate_SpamInterval(t *testing.T) {
	g := NewGate()
	g.SetSpamInterval(2 * time.Second)

	assert.True(t, g.TrySpam(model.BuffGroupShort, 10*time.Second))
	assert.False(t, g.TrySpam(model.BuffGroupShort, 11*time.Second))
	assert.True(t, g.TrySpam(model.BuffGroupShort, 12*time.Second))
}

func TestGate_ResetSpamFiresImmediately(t *testing.T) {
	g := NewGate()
	g.SetSpamInterval(time.Minute)

	require.True(t, g.TrySpam(model.BuffGroupShort, time.Second))
	require.False(t, g.TrySpam(model.BuffGroupShort, 2*time.Second))

	g.ResetSpam(model.BuffGroupShort)
	_, ok := g.LastRun(model.BuffGroupShort, PolicySpam)
	assert.False(t, ok)
	assert.True(t, g.TrySpam(model.BuffGroupShort, 3*time.Second))
}

func TestGate_PoliciesIndependent(t *testing.T) {
	g := NewGate()
	g.SetSpamInterval(100 * time.Millisecond)

	require.True(t, g.TryManual(model.BuffGroupCombat, 0))
	assert.False(t, g.MayRun(model.BuffGroupCombat, PolicyManual, 200*time.Millisecond))
	assert.True(t, g.TrySpam(model.BuffGroupCombat, 200*time.Millisecond),
		"cooldown-blocked group is still eligible for spam")
}

func TestGate_RecordRunMonotonic(t *testing.T) {
	g := NewGate()
	g.RecordRun(model.BuffGroupLong, PolicySpam, 5*time.Second)
	g.RecordRun(model.BuffGroupLong, PolicySpam, 3*time.Second)

	last, ok := g.LastRun(model.BuffGroupLong, PolicySpam)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, last)
}

// After an allowed run at now1, neither manual nor spam allows again inside
// (now1, now1+interval).
func TestGate_NoRerunInsideInterval(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		interval time.Duration
	}{
		{"manual", PolicyManual, ManualCooldown},
		{"spam 1s", PolicySpam, time.Second},
		{"spam 250ms", PolicySpam, 250 * time.Millisecond},
	}

	starts := []time.Duration{0, 7 * time.Millisecond, 3 * time.Second, 90 * time.Second}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, now1 := range starts {
				g := NewGate()
				g.SetSpamInterval(tt.interval)

				try := g.TryManual
				if tt.policy == PolicySpam {
					try = g.TrySpam
				}

				require.True(t, try(model.BuffGroupImportant, now1))
				for step := time.Millisecond; step < tt.interval; step += tt.interval / 10 {
					assert.False(t, try(model.BuffGroupImportant, now1+step), "now1=%v step=%v", now1, step)
				}
				assert.True(t, try(model.BuffGroupImportant, now1+tt.interval))
			}
		})
	}
}

// A continuous combat of duration D fires floor(D/6)+1 rounds regardless of tick rate.
func TestGate_RoundFiresOncePerRound(t *testing.T) {
	durations := []time.Duration{0, 5900 * time.Millisecond, 6 * time.Second, 17 * time.Second, 60 * time.Second}
	steps := []time.Duration{16 * time.Millisecond, 100 * time.Millisecond, time.Second, 2500 * time.Millisecond}

	for _, d := range durations {
		for _, step := range steps {
			g := NewGate()
			start := 3700 * time.Millisecond

			fired := map[int]int{}
			tick := func(now time.Duration) {
				if round, due := g.RoundDue(now); due {
					fired[round]++
				}
			}

			last := start
			for now := start; now <= start+d; now += step {
				tick(now)
				last = now
			}
			if last != start+d {
				tick(start + d)
			}

			want := int(d/RoundDuration) + 1
			assert.Len(t, fired, want, "D=%v step=%v", d, step)
			for round, n := range fired {
				assert.Equal(t, 1, n, "round %d fired %d times", round, n)
			}
		}
	}
}

func TestGate_LeaveCombatRestartsRounds(t *testing.T) {
	g := NewGate()

	round, due := g.RoundDue(10 * time.Second)
	assert.True(t, due)
	assert.Zero(t, round)

	round, due = g.RoundDue(16 * time.Second)
	assert.True(t, due)
	assert.Equal(t, 1, round)

	since, ok := g.InCombatSince()
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, since)

	g.LeaveCombat()
	_, ok = g.InCombatSince()
	assert.False(t, ok)

	round, due = g.RoundDue(17 * time.Second)
	assert.True(t, due, "new combat fires round 0 immediately")
	assert.Zero(t, round)
}
