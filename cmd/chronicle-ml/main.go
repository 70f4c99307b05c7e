package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crimson-sun/chronicle/internal/config"
	"github.com/crimson-sun/chronicle/internal/logging"
)

var version = "dev" // set via ldflags at build time

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chronicle-ml",
		Short: "Profile classification and session clustering sidecar",
		Long: `chronicle-ml learns which profile an activity block belongs to from
labelled examples and groups timestamped blocks into work sessions.
It runs as a local HTTP sidecar authenticated with a shared token.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(newServeCmd(), newClusterCmd())
	return root
}

// setup loads configuration and builds the logger shared by subcommands.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
