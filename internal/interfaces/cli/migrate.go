package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
)

// NewMigrateCmd manages the Postgres schema.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the record store schema",
	}
	cmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd(), newMigrateStatusCmd())
	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			db := cliCtx.Config.Database
			if err := postgres.RunMigrations(db.DSN(), db.MigrationPath); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "migrate up")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.NewValidationError("--steps must be at least 1")
			}
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			db := cliCtx.Config.Database
			if err := postgres.RollbackMigration(db.DSN(), db.MigrationPath, steps); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "migrate down")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			db := cliCtx.Config.Database
			version, dirty, err := postgres.MigrationStatus(db.DSN(), db.MigrationPath)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "migrate status")
			}
			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"version": version, "dirty": dirty})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d\ndirty:   %t\n", version, dirty)
			return nil
		},
	}
}

//Personal.AI order the ending
