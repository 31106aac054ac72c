package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avelar/sitegauge/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show storage status",
	Long:  `Probe the remote store and report how many results the local fallback currently holds.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Sync() //nolint:errcheck

	ctx := cmd.Context()
	st, cleanup, err := newStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer cleanup()

	status := st.TestConnection(ctx)
	if status.OK {
		fmt.Println("remote store: ok")
	} else {
		fmt.Printf("remote store: unavailable (%s)\n", status.Reason)
		if status.Detail != "" {
			fmt.Printf("  %s\n", status.Detail)
		}
	}

	results, origin, err := st.GetResults(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("stored results: %d (served from %s store)\n", len(results), origin)
	return nil
}
