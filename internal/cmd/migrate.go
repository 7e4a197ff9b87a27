package cmd

import (
	"log/slog"

	"github.com/leighmacdonald/smitelog/internal/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var downAll bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := newApplication(ctx, false)
			if errApp != nil {
				return errApp
			}

			defer app.close()

			action := database.MigrationAction(database.MigrateUp)
			if downAll {
				action = database.MigrateDn
			}

			if errMigrate := app.db.Migrate(action); errMigrate != nil {
				return errMigrate
			}

			slog.Info("Migration completed successfully")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&downAll, "down", "d", false, "Fully reverts all migrations")

	return cmd
}
