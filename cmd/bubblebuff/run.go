package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/bubblebuff/internal/config"
	"github.com/udisondev/bubblebuff/internal/game/buff"
	"github.com/udisondev/bubblebuff/internal/model"
	"github.com/udisondev/bubblebuff/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run [group...]",
	Short: "Run the buff scheduler",
	Long: `Runs the scheduler tick loop: spam groups are reapplied on their interval and
auto-trigger groups once per combat round. Groups given as arguments are
buffed manually once at startup. The config file is watched and reloaded.`,
	RunE: runScheduler,
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	groups := make([]model.BuffGroup, 0, len(args))
	for _, a := range args {
		g, err := model.ParseBuffGroup(a)
		if err != nil {
			return err
		}
		groups = append(groups, g)
	}

	store, err := loadStore()
	if err != nil {
		return err
	}
	cfg := store.Current()

	w, err := loadWorld(store)
	if err != nil {
		return err
	}

	sinks := report.Multi{report.NewLogSink(slog.Default())}
	database, err := openDB(ctx, cfg, w)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
		sinks = append(sinks, database.Passes())
	}

	toggles := buff.NewTogglesFromConfig(cfg)
	store.OnReload(toggles.ApplyConfig)

	state := buff.NewSchedulerState(nil, w, toggles)
	exec := buff.NewExecutor(state, buff.ExecutorDeps{
		Roster:    w,
		Abilities: w,
		Resources: w,
		Combat:    w,
		Settings:  store,
		Sink:      sinks,
	})
	controller := buff.NewController(exec)

	for _, g := range groups {
		if _, err := exec.Execute(ctx, g); err != nil {
			slog.Warn("startup buff refused", "group", g, "error", err)
		}
	}

	tm := buff.NewTickManager(cfg.TickInterval)
	tm.Register("world", w)
	tm.Register("buff-controller", controller)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting buff tick manager", "interval", cfg.TickInterval)
		if err := tm.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("buff tick manager: %w", err)
		}
		return nil
	})

	watcher, err := config.NewWatcher(store)
	if err != nil {
		slog.Warn("config hot reload disabled", "error", err)
	} else {
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil {
				return fmt.Errorf("config watcher: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats := state.Stats()
	slog.Info("buff scheduler stopped", "casts", stats.Succeeded, "failed", stats.Failed)
	return nil
}
