package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/udisondev/bubblebuff/internal/game/buff"
	"github.com/udisondev/bubblebuff/internal/model"
	"github.com/udisondev/bubblebuff/internal/report"
)

var planForce bool

var planCmd = &cobra.Command{
	Use:   "plan <group>",
	Short: "Run one manual pass against the scenario and print the summary",
	Long: `Runs a single manual buff pass over the in-memory scenario. Casts are
executed instantly against the scenario and never touch the database.
The combat lock is ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planForce, "force", false, "Recast buffs that are already present")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	group, err := model.ParseBuffGroup(args[0])
	if err != nil {
		return err
	}

	store, err := loadStore()
	if err != nil {
		return err
	}
	w, err := loadWorld(store)
	if err != nil {
		return err
	}

	toggles := buff.NewTogglesFromConfig(store.Current())
	toggles.SetVerboseCasting(false)
	toggles.SetOverwriteBuff(planForce || toggles.OverwriteBuff())
	toggles.SetAllowInCombat(true)

	state := buff.NewSchedulerState(nil, w, toggles)
	exec := buff.NewExecutor(state, buff.ExecutorDeps{
		Roster:    w,
		Abilities: w,
		Resources: w,
		Combat:    w,
		Settings:  store,
		Sink:      report.NewConsoleSink(cmd.OutOrStdout()),
	})

	if _, err := exec.Execute(ctx, group); err != nil {
		return fmt.Errorf("buffing %s: %w", group, err)
	}
	for !state.Poll(ctx) {
	}

	stats := state.Stats()
	slog.Debug("plan finished", "group", group, "casts", stats.Succeeded, "failed", stats.Failed)
	fmt.Fprintf(cmd.OutOrStdout(), "casts: %d, failed: %d\n", stats.Succeeded, stats.Failed)
	return nil
}
