package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/udisondev/bubblebuff/internal/config"
	"github.com/udisondev/bubblebuff/internal/db"
	"github.com/udisondev/bubblebuff/internal/world"
)

const DefaultConfigPath = "config/buffer.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bubblebuff",
	Short: "bubblebuff - party buff scheduler",
	Long: `bubblebuff batches the buffs of a party into scheduling passes: it picks
casters and targets, keeps resource spending within the party's pools and
paces the resulting casts.`,
	SilenceUsage: true,
}

func init() {
	path := DefaultConfigPath
	if p := os.Getenv("BUBBLEBUFF_CONFIG"); p != "" {
		path = p
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", path, "Path to buffer config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// loadStore loads the config and configures slog from its log level.
func loadStore() (*config.Store, error) {
	store, err := config.NewStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(store.Current().LogLevel),
	})))
	return store, nil
}

// loadWorld builds the party world from the scenario file named in cfg.
func loadWorld(store *config.Store) (*world.World, error) {
	cfg := store.Current()
	scenario, err := world.LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}
	w, err := world.New(scenario, store.Whitelist())
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}
	return w, nil
}

// openDB connects, migrates and seeds the resource pools of w.
// Returns nil when the database is disabled.
func openDB(ctx context.Context, cfg *config.Buffer, w *world.World) (*db.DB, error) {
	if !cfg.Database.Enabled {
		return nil, nil
	}

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if w != nil {
		if err := database.Resources().Seed(ctx, w.Pools()); err != nil {
			database.Close()
			return nil, fmt.Errorf("seeding resources: %w", err)
		}
		w.SetResourceStore(database.Resources())
	}

	slog.Info("database connected", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)
	return database, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
