package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avelar/sitegauge/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upload fallback results to the remote store",
	Long:  `Push results that were captured while the remote store was unreachable. Records that fail to upload stay in the fallback for a later attempt.`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
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

	report, err := st.MigrateFallback(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if report.Skipped {
		fmt.Printf("migration skipped: %s\n", report.Reason)
		return nil
	}
	fmt.Printf("migrated %d of %d fallback results\n", report.Migrated, report.Attempted)
	for _, id := range report.FailedIDs {
		fmt.Printf("  failed: %s (retained for retry)\n", id)
	}
	return nil
}
