package main

import (
	"github.com/spf13/cobra"

	"github.com/Likio3000/pomodoroAPP/internal/schema"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
	"github.com/Likio3000/pomodoroAPP/pkg/utilities"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
			if err != nil {
				return err
			}
			defer lg.Sync()
			sugar := lg.Sugar()

			db, err := database.Connect(database.ConfigFromEnv())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := schema.Ensure(cmd.Context(), db); err != nil {
				return err
			}
			sugar.Infow("schema up to date", "driver", db.DriverName())
			return nil
		},
	}
}
