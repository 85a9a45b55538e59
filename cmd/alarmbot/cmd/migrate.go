package cmd

import (
	"github.com/spf13/cobra"

	"github.com/edgard/alarmbot/internal/database"
)

// migrateCmd applies pending schema migrations and exits.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		// NewDB runs migrations on open.
		db, err := database.NewDB(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer database.CloseDB(db)

		users, err := database.NewStore(db, log).CountUsers(cmd.Context())
		if err != nil {
			return err
		}

		log.Info("Database is up to date", "path", cfg.Database.Path, "registered_users", users)
		return nil
	},
}
