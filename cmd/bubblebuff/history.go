package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/udisondev/bubblebuff/internal/db"
	"github.com/udisondev/bubblebuff/internal/report"
)

var (
	historyLimit int
	historyKeep  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent buff passes stored in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore()
		if err != nil {
			return err
		}
		cfg := store.Current()

		ctx := cmd.Context()
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		passes := database.Passes()
		if historyKeep > 0 {
			deleted, err := passes.Prune(ctx, historyKeep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d passes\n", deleted)
		}

		reports, err := passes.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}

		console := report.NewConsoleSink(cmd.OutOrStdout())
		for _, r := range reports {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%s)\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"), r.Group, r.Mode)
			if err := console.Report(ctx, r); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of passes to show")
	historyCmd.Flags().IntVar(&historyKeep, "keep", 0, "Prune all but the latest N passes first")
}
