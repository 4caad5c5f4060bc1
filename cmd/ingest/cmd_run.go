package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/Ingest/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Dispatch and then load in one sweep",
	RunE:  runFull,
}

func runFull(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	pool, err := connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	out := cmd.OutOrStdout()

	dispatchStats, err := pipeline.NewDispatcher(cfg.Pipeline).Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "dispatch: %s\n", dispatchStats)

	loadStats, err := pipeline.NewLoader(cfg.Pipeline, pool).Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "load:     %s\n", loadStats)

	return nil
}
