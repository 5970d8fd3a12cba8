package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdesk/grievance-service/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Apply the embedded SQL migrations to the database named by POSTGRES_DSN.`,
		RunE:  runMigrate,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List embedded migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := persistence.MigrationNames()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	env, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer env.close()

	pool := env.pg.PoolHandle()
	if pool == nil {
		return errors.New("POSTGRES_DSN is required")
	}
	if err := persistence.RunMigrations(cmd.Context(), pool, env.logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	env.logger.Info("migrations applied", zap.String("database", "postgres"))
	return nil
}
