package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/Ingest/internal/pipeline"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Route newly-arrived files into their contract/dataset folders",
	RunE:  runDispatch,
}

func runDispatch(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	stats, err := pipeline.NewDispatcher(cfg.Pipeline).Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), stats)
	return nil
}
