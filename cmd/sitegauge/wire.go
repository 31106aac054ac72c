package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/avelar/sitegauge/internal/artifacts"
	"github.com/avelar/sitegauge/internal/audit"
	"github.com/avelar/sitegauge/internal/config"
	"github.com/avelar/sitegauge/internal/logging"
	"github.com/avelar/sitegauge/internal/store"
)

func newLogger(cfg *config.Config) *zap.SugaredLogger {
	return logging.New(logging.Options{Dev: cfg.LogMode == "dev", FilePath: cfg.LogFile})
}

// newStore builds the two-tier store. A missing or unreachable remote
// is not fatal: the process degrades to local-only persistence.
func newStore(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*store.Store, func(), error) {
	local, err := store.OpenFallback(cfg.FallbackDBPath)
	if err != nil {
		return nil, nil, err
	}

	var remote store.RemoteStore
	if cfg.DatabaseURL != "" {
		pg, err := store.ConnectRemote(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warnw("remote store unavailable, falling back to local persistence", "error", err)
		} else {
			remote = pg
		}
	}

	cleanup := func() {
		if pg, ok := remote.(*store.PGRemote); ok {
			pg.Close()
		}
		local.Close() //nolint:errcheck
	}
	return store.New(remote, local, log), cleanup, nil
}

// newProvider picks the audit backend: a local lighthouse binary when
// configured, the hosted PageSpeed API otherwise.
func newProvider(cfg *config.Config) audit.Provider {
	if cfg.LighthouseBin != "" {
		return audit.NewLocalRunner(cfg.LighthouseBin)
	}
	return audit.NewPageSpeedClient(cfg.PageSpeedAPIKey)
}

// newArtifactStore prefers S3-compatible object storage, with a plain
// directory as the fallback tier.
func newArtifactStore(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) artifacts.Store {
	if cfg.S3.Configured() {
		s3store, err := artifacts.NewS3Store(ctx, cfg.S3)
		if err != nil {
			log.Warnw("S3 artifact storage unavailable, using local directory", "error", err)
		} else {
			return s3store
		}
	}

	dir, err := artifacts.NewDirStore(cfg.ArtifactsDir)
	if err != nil {
		log.Warnw("artifact storage disabled", "error", err)
		return nil
	}
	return dir
}
