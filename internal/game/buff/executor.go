package buff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/bubblebuff/internal/config"
	"github.com/udisondev/bubblebuff/internal/model"
)

var (
	// ErrOnCooldown is returned when a group was run manually less than
	// ManualCooldown ago.
	ErrOnCooldown = errors.New("buff group on cooldown")

	// ErrCombatLocked is returned when buffing in combat is disabled.
	ErrCombatLocked = errors.New("buffing in combat is disabled")
)

// ExecutorDeps are the collaborators of an Executor.
type ExecutorDeps struct {
	Roster    Roster
	Abilities AbilityCache
	Resources ResourceCatalog
	Combat    CombatState
	Settings  SpamSettings
	// Sink is optional.
	Sink Sink
}

// Executor runs scheduling passes: recalculate, snapshot, negotiate, then
// hand the tasks to the pump and the report to the sink.
type Executor struct {
	state      *SchedulerState
	deps       ExecutorDeps
	negotiator *Negotiator
}

// NewExecutor creates an executor over state.
func NewExecutor(state *SchedulerState, deps ExecutorDeps) *Executor {
	return &Executor{
		state:      state,
		deps:       deps,
		negotiator: NewNegotiator(deps.Roster, deps.Abilities),
	}
}

// State returns the scheduler state the executor runs on.
func (e *Executor) State() *SchedulerState {
	return e.state
}

// Execute is the manual entry point for a group.
// Returns ErrCombatLocked or ErrOnCooldown when the run is refused.
func (e *Executor) Execute(ctx context.Context, group model.BuffGroup) (*model.PassReport, error) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()

	if e.inCombat() && !e.state.Toggles.AllowInCombat() {
		return nil, ErrCombatLocked
	}
	if !e.state.Gate.TryManual(group, e.state.Clock.Now()) {
		return nil, ErrOnCooldown
	}

	return e.runGroup(ctx, group, model.ReapplyManual)
}

// runGroup runs one scheduling pass. Must be called with state.mu held.
func (e *Executor) runGroup(ctx context.Context, group model.BuffGroup, mode model.ReapplyMode) (*model.PassReport, error) {
	slog.Debug("begin buff", "group", group, "mode", mode)

	buffs, err := e.deps.Roster.Recalculate(ctx)
	if err != nil {
		return nil, fmt.Errorf("recalculating buffs for %s: %w", group, err)
	}

	snapshots, err := e.snapshots(ctx)
	if err != nil {
		return nil, err
	}

	spam := e.spamConfig()
	plan := e.negotiator.Negotiate(ctx, NegotiationInput{
		Group:     group,
		Mode:      mode,
		Buffs:     buffs,
		Snapshots: snapshots,
		Ledger:    NewLedger(e.deps.Resources),
		Options: NegotiationOptions{
			ForceOverwrite:        e.state.Toggles.OverwriteBuff(),
			ReapplyThreshold:      spam.ReapplyThreshold(),
			SkipIfPendingCommands: spam.SkipIfUnitHasPendingCommands,
			Pool:                  model.ArcanistPool,
		},
	})

	strategy := StrategyFor(e.state.Toggles.VerboseCasting())
	e.state.Pump.Submit(plan.Tasks, strategy)

	report := plan.Report
	slog.Info(report.Summary(),
		"pass", report.ID,
		"group", group,
		"mode", mode,
		"rejected", report.Rejected,
		"strategy", strategy.Name())

	if e.deps.Sink != nil {
		if err := e.deps.Sink.Report(ctx, report); err != nil {
			slog.Warn("failed to report buff pass", "pass", report.ID, "error", err)
		}
	}

	return report, nil
}

// snapshots captures the current effects of every unit. A unit whose
// snapshot cannot be read is left out; its buffs fault individually.
func (e *Executor) snapshots(ctx context.Context) (map[model.UnitID]*model.UnitBuffSnapshot, error) {
	units, err := e.deps.Roster.Units(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}

	snapshots := make(map[model.UnitID]*model.UnitBuffSnapshot, len(units))
	for _, u := range units {
		snap, err := e.deps.Roster.Snapshot(ctx, u.ID)
		if err != nil {
			slog.Warn("failed to snapshot unit buffs", "unit", u.Name, "error", err)
			continue
		}
		snapshots[u.ID] = snap
	}
	return snapshots, nil
}

func (e *Executor) spamConfig() config.Spam {
	if e.deps.Settings == nil {
		return config.DefaultSpam()
	}
	return e.deps.Settings.SpamConfig()
}

func (e *Executor) inCombat() bool {
	return e.deps.Combat != nil && e.deps.Combat.InCombat()
}
