package cmd

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/gridpulse-systems/gridpulse-relay/pkg/output"
)

var migratePath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration commands",
	Long:  "Apply, roll back, or inspect the SQL migrations in migrations/",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigrator(cmd)
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				output.Info("No pending migrations")
				return nil
			}
			return fmt.Errorf("migration failed: %w", err)
		}

		output.Success("Migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigrator(cmd)
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Steps(-1); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				output.Info("Nothing to roll back")
				return nil
			}
			return fmt.Errorf("rollback failed: %w", err)
		}

		output.Success("Rolled back one migration")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigrator(cmd)
		if err != nil {
			return err
		}
		defer m.Close()

		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				output.Info("No migrations applied yet")
				return nil
			}
			return err
		}

		if dirty {
			output.Warn("Version %d (dirty)", version)
		} else {
			output.Info("Version %d", version)
		}
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().String("database-url", "", "Postgres connection string (default from profile)")
	migrateCmd.PersistentFlags().StringVar(&migratePath, "path", "migrations", "directory containing migration files")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func newMigrator(cmd *cobra.Command) (*migrate.Migrate, error) {
	databaseURL := resolveDatabaseURL(cmd)
	if databaseURL == "" {
		return nil, fmt.Errorf("--database-url is required (or set database_url in the profile)")
	}

	m, err := migrate.New("file://"+migratePath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}
	return m, nil
}
