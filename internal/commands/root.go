// Package commands holds the cobra command tree shared by the binaries.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"expensetracker/internal/backend"
	"expensetracker/internal/buildinfo"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
)

type rootOptions struct {
	envFile string
	sqlite  string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "expensectl",
		Short:   "Record and review personal expenses",
		Version: version(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with configuration overrides")
	rootCmd.PersistentFlags().StringVar(&opts.sqlite, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")

	rootCmd.AddCommand(
		newMigrateCommand(opts),
		newAddCommand(opts),
		newListCommand(opts),
		newDeleteCommand(opts),
		newSummaryCommand(opts),
		NewServeCommand(),
		NewWorkerCommand(),
	)

	return rootCmd
}

func version() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
}

// loadConfig reads the dotenv file and environment, applying flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if err := cli.LoadEnvFile(o.envFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", o.envFile, err)
	}
	cfg := config.Load()
	if o.sqlite != "" {
		cfg.DBDriver = "sqlite"
		cfg.SQLiteDBPath = o.sqlite
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openBackend builds the expense service for a one-shot command. Logs go
// to stderr so stdout carries only command output.
func (o *rootOptions) openBackend(ctx context.Context, stderr io.Writer) (*backend.BackendResult, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(applog.ComponentCLI, cfg.SlogLevel(), stderr)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
}
