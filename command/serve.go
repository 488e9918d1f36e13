package command

import (
	"commandr/app"
	"commandr/common"
	"commandr/infra/tracing"
	"commandr/servehttp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and serve http until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			gin.SetMode(cfg.HTTP.Mode)

			closer, err := tracing.Bootstrap(common.ServiceName)
			if err != nil {
				return err
			}
			defer closer.Close()

			ds, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer ds.Stop()

			ctx := cmd.Context()
			if err := app.Bootstrap(ctx, cfg, ds); err != nil {
				return err
			}
			a, err := app.New(cfg, ds, nil)
			if err != nil {
				return err
			}

			logrus.WithField("addr", cfg.HTTP.Addr).Info("service start")
			err = servehttp.StartHTTPServer(ctx, a.Engine, cfg.HTTP.Addr, cfg.HTTP.ShutdownTimeout)
			logrus.Info("service stop")
			return err
		},
	}
}
