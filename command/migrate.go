package command

import (
	"commandr/app"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMigrateCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables and seed the built-in roles and the initial administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ds, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer ds.Stop()

			if err := app.Bootstrap(cmd.Context(), cfg, ds); err != nil {
				return err
			}
			logrus.Info("database migrated")
			return nil
		},
	}
}
