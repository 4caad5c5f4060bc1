package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/Ingest/internal/pipeline"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load dispatched files into their database tables",
	RunE:  runLoad,
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	pool, err := connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	stats, err := pipeline.NewLoader(cfg.Pipeline, pool).Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), stats)
	return nil
}
