package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/avelar/sitegauge/internal/config"
	"github.com/avelar/sitegauge/internal/pagemeta"
	"github.com/avelar/sitegauge/internal/pipeline"
	"github.com/avelar/sitegauge/internal/screenshot"
	"github.com/avelar/sitegauge/internal/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the audit, history and comparison endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	log := newLogger(cfg)
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := newStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer cleanup()

	artifactStore := newArtifactStore(ctx, cfg, log)
	runner := pipeline.NewRunner(newProvider(cfg), st, artifactStore, screenshot.New(), log)

	srv := server.New(server.Config{Port: cfg.Port, AuditDelay: cfg.AuditDelay}, server.Deps{
		Store:     st,
		Runner:    runner,
		Artifacts: artifactStore,
		Meta:      pagemeta.NewFetcher(),
		Log:       log,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	g.Go(func() error {
		// Drain any results stranded in the fallback while the remote
		// store was down. Failure here never stops the server.
		report, err := st.MigrateFallback(ctx)
		if err != nil {
			log.Warnw("startup migration failed", "error", err)
			return nil
		}
		if report.Skipped {
			log.Infow("startup migration skipped", "reason", report.Reason)
		} else if report.Attempted > 0 {
			log.Infow("startup migration finished", "attempted", report.Attempted, "migrated", report.Migrated)
		}
		return nil
	})

	return g.Wait()
}
