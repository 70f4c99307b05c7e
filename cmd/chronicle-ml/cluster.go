package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/chronicle/internal/engine"
	"github.com/crimson-sun/chronicle/internal/pipeline"
	"github.com/crimson-sun/chronicle/internal/server"
)

func newClusterCmd() *cobra.Command {
	var (
		input string
		gap   float64
	)
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster a JSON file of blocks into sessions",
		Long: `Reads a JSON array of blocks ({"block_id", "ts_start", "ts_end"}) from
--input ("-" for stdin) and writes the sessions as JSON to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if !cmd.Flags().Changed("gap") {
				gap = cfg.Engine.DefaultGapMinutes
			}

			raw, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			var wire []server.BlockJSON
			if err := json.Unmarshal(raw, &wire); err != nil {
				return fmt.Errorf("parsing %s: %w", input, err)
			}
			blocks, err := server.DecodeBlocks(wire)
			if err != nil {
				return err
			}

			eng := engine.New(pipeline.DefaultConfig(), nil, logger.Named("engine"))
			res, err := eng.Cluster(blocks, gap)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(server.EncodeCluster(res))
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file of blocks, or - for stdin")
	cmd.Flags().Float64Var(&gap, "gap", 30, "maximum idle minutes within a session (1-480)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return b, nil
}
