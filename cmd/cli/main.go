package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/parish-roster/cmd/cli/commands"
	"github.com/jakechorley/parish-roster/internal/config"
	"github.com/jakechorley/parish-roster/pkg/core/services"
	"github.com/jakechorley/parish-roster/pkg/db"
	"github.com/jakechorley/parish-roster/pkg/metrics"
	"github.com/jakechorley/parish-roster/pkg/postgres"
	"github.com/jakechorley/parish-roster/pkg/sqlite"
	"github.com/jakechorley/parish-roster/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "roster",
		Short: "Parish Roster CLI - Generate monthly ministry rosters",
		Long: `A CLI tool for generating monthly rosters of extraordinary ministers from their
questionnaire answers, with previews, pinned assignments and repeatable commits.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return shutdownApp()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects roster_config.<env>.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ImportDataCmd(app))
	rootCmd.AddCommand(commands.SetPeriodStatusCmd(app))
	rootCmd.AddCommand(commands.ListSlotsCmd(app))
	rootCmd.AddCommand(commands.ViewAvailabilityCmd(app))
	rootCmd.AddCommand(commands.PreviewRosterCmd(app))
	rootCmd.AddCommand(commands.CommitRosterCmd(app))
	rootCmd.AddCommand(commands.PinAssignmentCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, metrics, preview cache and database
func initApp() error {
	var err error
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Debug("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ttl, err := app.Cfg.PreviewTTL()
	if err != nil {
		return err
	}
	app.Previews = services.NewPreviewCache(ttl)

	if app.Cfg.Metrics.TextfilePath != "" {
		app.Metrics = metrics.New(prometheus.NewRegistry())
	} else {
		app.Metrics = metrics.NewNoop()
	}

	app.Logger.Info("Connecting to database", zap.String("driver", app.Cfg.Database.Driver))
	app.Database, err = openDatabase(app.Ctx, app.Cfg.Database)
	if err != nil {
		return err
	}
	app.Logger.Debug("Database connected")

	return nil
}

// openDatabase opens the store named by the database driver
func openDatabase(ctx context.Context, cfg config.Database) (db.Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		database, err := postgres.NewDB(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return database, nil
	case config.DriverSQLite:
		database, err := sqlite.NewDB(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return database, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// shutdownApp exports metrics and releases the database
func shutdownApp() error {
	var exportErr error
	if path := app.Cfg.Metrics.TextfilePath; path != "" {
		if exportErr = app.Metrics.WriteToTextfile(path); exportErr != nil {
			app.Logger.Warn("Failed to export metrics", zap.String("path", path), zap.Error(exportErr))
		}
	}

	app.Database.Close()
	_ = app.Logger.Sync()
	return exportErr
}
