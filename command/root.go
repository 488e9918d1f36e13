package command

import (
	"commandr/common"
	"commandr/config"
	"commandr/persistence"
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the commandr cli.
func NewRootCommand() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "commandr",
		Short:         "Session and authorization service of commandr",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "yaml configuration file, environment variables override it")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		common.ConfigureLogging(cfg.Log.Level, cfg.Release())
		return cfg, nil
	}
	root.AddCommand(newServeCommand(load), newMigrateCommand(load), newAccountsCommand(load))
	return root
}

func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

type configLoader func() (*config.Config, error)

// openStore connects the configured database, creating the mysql schema when missing.
func openStore(cfg *config.Config) (*persistence.DataSourceManager, error) {
	if cfg.Database.DriverType == persistence.DriverMysql {
		if err := persistence.PrepareMysqlDatabase(cfg.Database.DriverArgs); err != nil {
			return nil, err
		}
	}
	dbConfig := cfg.Database
	ds := &persistence.DataSourceManager{DatabaseConfig: &dbConfig, LogMode: cfg.Log.SQLTrace}
	if err := ds.Start(); err != nil {
		return nil, err
	}
	logrus.WithField("driver", dbConfig.DriverType).Info("database connected")
	return ds, nil
}
