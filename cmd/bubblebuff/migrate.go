package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/udisondev/bubblebuff/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
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

		if err := database.Migrate(ctx); err != nil {
			return err
		}
		version, err := database.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
		return nil
	},
}
