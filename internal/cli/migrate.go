package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/boardcamp-api/internal/config"
	"github.com/iliyamo/boardcamp-api/internal/database"
	"github.com/iliyamo/boardcamp-api/internal/logger"
)

// schemaMigrator is the part of database.Migrator the commands use.
type schemaMigrator interface {
	Up() error
	Down(steps int) error
	Version() (version uint, dirty bool, ok bool, err error)
	Close() error
}

// openMigrator is swapped in tests.
var openMigrator = func(cfg *config.Config) (schemaMigrator, error) {
	return database.OpenMigrator(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// NewMigrateCommand creates the migrate command with up, down and version.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(rootOpts, func(m schemaMigrator) error {
				if err := m.Up(); err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				return printVersion(cmd, m)
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(rootOpts, func(m schemaMigrator) error {
				if err := m.Down(steps); err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				return printVersion(cmd, m)
			})
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(rootOpts, func(m schemaMigrator) error {
				return printVersion(cmd, m)
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func withMigrator(opts *RootOptions, fn func(m schemaMigrator) error) error {
	cfg := config.Load()
	log := logger.New(cfg.Env, opts.level(cfg.LogLevel))

	m, err := openMigrator(cfg)
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.WithError(err).Warn("close migrator")
		}
	}()
	return fn(m)
}

func printVersion(cmd *cobra.Command, m schemaMigrator) error {
	v, dirty, ok, err := m.Version()
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "schema version: none")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d (dirty=%t)\n", v, dirty)
	return nil
}
