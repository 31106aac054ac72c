package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avelar/sitegauge/internal/config"
	"github.com/avelar/sitegauge/internal/pipeline"
	"github.com/avelar/sitegauge/internal/types"
)

var (
	auditStrategy string
	auditRoutes   []string
	auditJSON     bool
)

var auditCmd = &cobra.Command{
	Use:   "audit <base-url>",
	Short: "Run one audit from the command line",
	Long:  `Audit the given base URL across its routes, print the aggregated scores, and persist the result like a server-initiated run.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditStrategy, "strategy", "mobile", "Audit strategy: mobile or desktop")
	auditCmd.Flags().StringSliceVar(&auditRoutes, "route", nil, "Route path to audit (repeatable; defaults to /)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Print the full result as JSON")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
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

	routes := make([]types.RouteConfig, 0, len(auditRoutes))
	for _, path := range auditRoutes {
		id := strings.Trim(strings.ReplaceAll(path, "/", "-"), "-")
		if id == "" {
			id = "home"
		}
		routes = append(routes, types.RouteConfig{ID: id, Path: path})
	}

	runner := pipeline.NewRunner(newProvider(cfg), st, newArtifactStore(ctx, cfg, log), nil, log)
	out, err := runner.Run(ctx, pipeline.RunOptions{
		BaseURL:  args[0],
		Strategy: types.Strategy(auditStrategy),
		Routes:   routes,
		Delay:    cfg.AuditDelay,
		OnProgress: func(ev pipeline.ProgressEvent) {
			if ev.Stage == "auditing" {
				fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", ev.Index, ev.Total, ev.Message)
			}
		},
	})
	if err != nil {
		return err
	}

	if auditJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printSummary(out)
	return nil
}

func printSummary(out *pipeline.RunOutput) {
	res := out.Result
	fmt.Printf("Run %s (%s)\n", res.ID, res.Domain)
	res.Results.Each(func(path string, m types.Metrics) {
		fmt.Printf("  %-24s perf=%-3d a11y=%-3d bp=%-3d seo=%-3d\n",
			path, m.Performance, m.Accessibility, m.BestPractices, m.SEO)
	})
	avg := res.AvgScores
	fmt.Printf("  %-24s perf=%-3d a11y=%-3d bp=%-3d seo=%-3d\n",
		"average", avg.Performance, avg.Accessibility, avg.BestPractices, avg.SEO)
	if !out.Saved {
		fmt.Println("  (result was not persisted)")
	} else {
		fmt.Printf("  saved to %s store\n", out.Origin)
	}
}
