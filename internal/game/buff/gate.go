package buff

import (
	"time"

	"github.com/udisondev/bubblebuff/internal/model"
)

const (
	// ManualCooldown is the minimum time between two manual runs of a group.
	ManualCooldown = 500 * time.Millisecond

	// RoundDuration is the length of one combat round.
	RoundDuration = 6 * time.Second

	// DefaultSpamInterval is used until the config provides one.
	DefaultSpamInterval = time.Second
)

// never marks a policy that has not run yet.
const never time.Duration = -1

// Policy selects one of the gate's timing policies.
type Policy int32

const (
	PolicyManual Policy = iota
	PolicySpam
)

// Gate tracks when each group last ran and decides whether it may run again.
//
// Manual and spam policies are tracked per group and independent of each
// other. Combat rounds are tracked once for the whole party.
//
// Not safe for concurrent use; SchedulerState serializes access.
type Gate struct {
	lastManual map[model.BuffGroup]time.Duration
	lastSpam   map[model.BuffGroup]time.Duration

	spamInterval time.Duration

	combatStart time.Duration
	lastRound   int
}

// NewGate creates a gate where no group has run yet.
func NewGate() *Gate {
	g := &Gate{
		lastManual:   make(map[model.BuffGroup]time.Duration),
		lastSpam:     make(map[model.BuffGroup]time.Duration),
		spamInterval: DefaultSpamInterval,
		combatStart:  never,
		lastRound:    -1,
	}
	for _, group := range model.AllBuffGroups() {
		g.lastManual[group] = never
		g.lastSpam[group] = never
	}
	return g
}

// SetSpamInterval updates the spam check interval.
func (g *Gate) SetSpamInterval(d time.Duration) {
	g.spamInterval = max(d, 0)
}

// SpamInterval returns the spam check interval.
func (g *Gate) SpamInterval() time.Duration {
	return g.spamInterval
}

func (g *Gate) table(policy Policy) map[model.BuffGroup]time.Duration {
	if policy == PolicySpam {
		return g.lastSpam
	}
	return g.lastManual
}

// LastRun returns when the policy last allowed group, ok=false if never.
func (g *Gate) LastRun(group model.BuffGroup, policy Policy) (time.Duration, bool) {
	last, ok := g.table(policy)[group]
	if !ok || last == never {
		return 0, false
	}
	return last, true
}

// MayRun reports whether group may run under policy at now.
func (g *Gate) MayRun(group model.BuffGroup, policy Policy, now time.Duration) bool {
	last, ok := g.LastRun(group, policy)
	if !ok {
		return true
	}
	interval := ManualCooldown
	if policy == PolicySpam {
		interval = g.spamInterval
	}
	return now-last >= interval
}

// RecordRun records that group ran under policy at now.
// Timestamps only move forward; an older now is ignored.
func (g *Gate) RecordRun(group model.BuffGroup, policy Policy, now time.Duration) {
	t := g.table(policy)
	if last, ok := t[group]; ok && last != never && now <= last {
		return
	}
	t[group] = now
}

// TryManual checks the manual cooldown and records the run when allowed.
func (g *Gate) TryManual(group model.BuffGroup, now time.Duration) bool {
	if !g.MayRun(group, PolicyManual, now) {
		return false
	}
	g.RecordRun(group, PolicyManual, now)
	return true
}

// TrySpam checks the spam interval and records the run when allowed.
func (g *Gate) TrySpam(group model.BuffGroup, now time.Duration) bool {
	if !g.MayRun(group, PolicySpam, now) {
		return false
	}
	g.RecordRun(group, PolicySpam, now)
	return true
}

// ResetSpam forgets the last spam run of group, so the next activation
// fires immediately.
func (g *Gate) ResetSpam(group model.BuffGroup) {
	g.lastSpam[group] = never
}

// RoundDue reports the current combat round and whether it has not been
// handled yet. The first call after LeaveCombat starts the combat clock.
func (g *Gate) RoundDue(now time.Duration) (int, bool) {
	if g.combatStart == never {
		g.combatStart = now
		g.lastRound = -1
	}

	elapsed := max(now-g.combatStart, 0)
	round := int(elapsed / RoundDuration)

	if round == g.lastRound {
		return round, false
	}
	g.lastRound = round
	return round, true
}

// LeaveCombat resets round tracking so the next combat starts at round 0.
func (g *Gate) LeaveCombat() {
	g.combatStart = never
	g.lastRound = -1
}

// InCombatSince returns when the current combat started, ok=false outside combat.
func (g *Gate) InCombatSince() (time.Duration, bool) {
	if g.combatStart == never {
		return 0, false
	}
	return g.combatStart, true
}
