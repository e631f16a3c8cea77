package commands

import (
	"fmt"
	"strconv"

	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "manage the Postgres schema",
	Long: `Apply, roll back or inspect the embedded schema migrations.

SQLite databases are migrated automatically when they are opened; these commands
require database.driver=postgres.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrations.Migrator) error {
			return m.Up()
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "roll back the last migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrations.Migrator) error {
			return m.Down()
		})
	},
}

var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "set the schema version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(func(m *migrations.Migrator) error {
			return m.Force(version)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "show applied and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrations.Migrator) error {
			status, err := m.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %d", status.Version)
			if status.Dirty {
				fmt.Fprint(out, " (dirty)")
			}
			fmt.Fprintln(out)
			for _, mig := range status.Applied {
				fmt.Fprintf(out, "  [x] %04d %s\n", mig.Version, mig.Name)
			}
			for _, mig := range status.Pending {
				fmt.Fprintf(out, "  [ ] %04d %s\n", mig.Version, mig.Name)
			}
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateForceCmd, migrateStatusCmd)
}

func withMigrator(fn func(*migrations.Migrator) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	if e.cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations need database.driver=postgres, got %q", e.cfg.Database.Driver)
	}

	m, err := migrations.NewFromURL(e.cfg.GetMigrationURL(), e.log.Named("migrations"))
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	return fn(m)
}
