package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crimson-sun/chronicle/internal/engine"
	"github.com/crimson-sun/chronicle/internal/metrics"
	"github.com/crimson-sun/chronicle/internal/pipeline"
	"github.com/crimson-sun/chronicle/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if cfg.Server.Token == "" {
				logger.Warn("CC_ML_TOKEN not set, authenticated routes will refuse requests")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			pcfg := pipeline.DefaultConfig()
			pcfg.Seed = cfg.Engine.Seed
			eng := engine.New(pcfg, metrics.New(reg), logger.Named("engine"))
			srv := server.New(eng, cfg, reg, logger.Named("http"))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("chronicle-ml starting",
				zap.String("version", version),
				zap.String("address", cfg.Server.Addr()))
			return srv.Run(ctx)
		},
	}
}
