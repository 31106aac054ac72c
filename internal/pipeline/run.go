// Package pipeline drives a single audit run: every configured route is
// audited in order against one base URL, the results are aggregated and
// persisted, and raw responses are exported as artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avelar/sitegauge/internal/artifacts"
	"github.com/avelar/sitegauge/internal/audit"
	"github.com/avelar/sitegauge/internal/metrics"
	"github.com/avelar/sitegauge/internal/screenshot"
	"github.com/avelar/sitegauge/internal/store"
	"github.com/avelar/sitegauge/internal/types"
)

// DefaultDelay is the pause between successive route audits. The hosted
// API rate-limits aggressively; this is pacing, not retry.
const DefaultDelay = time.Second

// ErrNoRoutes means every supplied route had a blank path.
var ErrNoRoutes = errors.New("no routes to audit")

// InvalidBaseURLError rejects a base URL before any route runs.
type InvalidBaseURLError struct {
	URL    string
	Reason string
}

func (e *InvalidBaseURLError) Error() string {
	return fmt.Sprintf("invalid base url %q: %s", e.URL, e.Reason)
}

// ProgressEvent reports orchestration progress to the UI.
type ProgressEvent struct {
	Stage   string `json:"stage"` // auditing | route_done | route_failed | saving | complete
	Route   string `json:"route,omitempty"`
	Index   int    `json:"index,omitempty"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
}

// ProgressCallback is invoked for each ProgressEvent.
type ProgressCallback func(ProgressEvent)

// RunOptions configures one run.
type RunOptions struct {
	BaseURL    string
	Strategy   types.Strategy
	Routes     []types.RouteConfig
	Delay      time.Duration
	Screenshot bool
	OnProgress ProgressCallback
}

// RunOutput is everything a completed run produced. Result is always
// set; Saved is false when persistence failed in both tiers, which
// downgrades to a warning rather than failing the run.
type RunOutput struct {
	Result  *types.RunResult               `json:"result"`
	Origin  store.Origin                   `json:"origin,omitempty"`
	Details map[string]types.CoreWebVitals `json:"details"`
	Saved   bool                           `json:"saved"`
}

// Runner holds the collaborators a run needs.
type Runner struct {
	provider  audit.Provider
	store     *store.Store
	artifacts artifacts.Store      // optional
	shots     *screenshot.Capturer // optional
	log       *zap.SugaredLogger
}

// NewRunner creates a Runner. artifactStore and shots may be nil, which
// disables raw export and preview capture respectively.
func NewRunner(provider audit.Provider, st *store.Store, artifactStore artifacts.Store, shots *screenshot.Capturer, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{provider: provider, store: st, artifacts: artifactStore, shots: shots, log: log}
}

func emit(opts *RunOptions, ev ProgressEvent) {
	if opts.OnProgress != nil {
		opts.OnProgress(ev)
	}
}

// normalizeBaseURL validates the scheme and strips the trailing slash.
func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", &InvalidBaseURLError{URL: raw, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &InvalidBaseURLError{URL: raw, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return "", &InvalidBaseURLError{URL: raw, Reason: "missing host"}
	}
	return strings.TrimRight(raw, "/"), nil
}

// prepareRoutes drops blank paths and enforces the leading slash. With
// no routes supplied, the run audits the home route alone.
func prepareRoutes(routes []types.RouteConfig) ([]types.RouteConfig, error) {
	if len(routes) == 0 {
		return []types.RouteConfig{{ID: "home", Path: "/", Name: "Home"}}, nil
	}
	prepared := make([]types.RouteConfig, 0, len(routes))
	for _, r := range routes {
		path := strings.TrimSpace(r.Path)
		if path == "" {
			continue
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		r.Path = path
		prepared = append(prepared, r)
	}
	if len(prepared) == 0 {
		return nil, ErrNoRoutes
	}
	return prepared, nil
}

// Run executes one audit run to completion. Per-route audit failures
// are recorded as zero metrics and never abort the run; only an invalid
// base URL, an empty route list, or context cancellation do.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunOutput, error) {
	base, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	routes, err := prepareRoutes(opts.Routes)
	if err != nil {
		return nil, err
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = types.StrategyMobile
	}
	delay := opts.Delay
	if delay == 0 {
		delay = DefaultDelay
	}

	runID := store.NewID()
	results := types.NewRouteResults()
	details := make(map[string]types.CoreWebVitals, len(routes))
	raws := make(map[string][]byte, len(routes))

	for i, route := range routes {
		if i > 0 {
			// Pace calls to the upstream; skipped after the last route.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		fullURL := base + route.Path
		emit(&opts, ProgressEvent{Stage: "auditing", Route: route.Path, Index: i + 1, Total: len(routes),
			Message: fmt.Sprintf("Auditing %s", fullURL)})

		m, vitals, auditErr := r.auditRoute(ctx, fullURL, strategy, route, raws)
		if auditErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.log.Warnw("route audit failed, recording zero metrics",
				"route", route.Path, "url", fullURL, "error", auditErr)
			emit(&opts, ProgressEvent{Stage: "route_failed", Route: route.Path, Index: i + 1, Total: len(routes),
				Message: auditErr.Error()})
			results.Set(route.Path, types.Metrics{})
			continue
		}

		results.Set(route.Path, m)
		details[route.Path] = vitals
		emit(&opts, ProgressEvent{Stage: "route_done", Route: route.Path, Index: i + 1, Total: len(routes)})
	}

	emit(&opts, ProgressEvent{Stage: "saving", Message: "Persisting run result"})

	output := &RunOutput{Details: details}
	saved, origin, saveErr := r.store.SaveResult(ctx, store.SaveInput{
		ID:        runID,
		URL:       base,
		Timestamp: time.Now(),
		Routes:    routes,
		Results:   results,
	})
	if saveErr != nil {
		// The run still completed; the caller gets the result either way.
		r.log.Warnw("failed to persist run result", "id", runID, "error", saveErr)
		output.Result = rebuildUnsaved(runID, base, routes, results)
	} else {
		output.Result = saved
		output.Origin = origin
		output.Saved = true
	}

	r.exportArtifacts(ctx, runID, routes, raws)
	if opts.Screenshot {
		r.capturePreview(ctx, runID, base)
	}

	emit(&opts, ProgressEvent{Stage: "complete", Message: "Run complete"})
	return output, nil
}

// auditRoute performs one audit call and normalizes its response. The
// raw body is kept for artifact export even when normalization fails.
func (r *Runner) auditRoute(ctx context.Context, fullURL string, strategy types.Strategy, route types.RouteConfig, raws map[string][]byte) (types.Metrics, types.CoreWebVitals, error) {
	raw, err := r.provider.Audit(ctx, fullURL, strategy)
	if err != nil {
		return types.Metrics{}, nil, err
	}
	raws[route.ID] = raw

	m, vitals, err := metrics.Normalize(raw)
	if err != nil {
		return types.Metrics{}, nil, err
	}
	return m, vitals, nil
}

func rebuildUnsaved(id, baseURL string, routes []types.RouteConfig, results *types.RouteResults) *types.RunResult {
	return &types.RunResult{
		ID:        id,
		Domain:    types.DomainFromURL(baseURL),
		URL:       baseURL,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		Routes:    routes,
		Results:   results,
		AvgScores: metrics.Average(results),
	}
}

func (r *Runner) exportArtifacts(ctx context.Context, runID string, routes []types.RouteConfig, raws map[string][]byte) {
	if r.artifacts == nil {
		return
	}
	for _, route := range routes {
		raw, ok := raws[route.ID]
		if !ok {
			continue
		}
		if err := r.artifacts.PutRaw(ctx, runID, route.ID, raw); err != nil {
			r.log.Warnw("failed to export raw audit response", "run", runID, "route", route.ID, "error", err)
		}
	}
}

func (r *Runner) capturePreview(ctx context.Context, runID, baseURL string) {
	if r.shots == nil || r.artifacts == nil {
		return
	}
	png, err := r.shots.Capture(ctx, baseURL)
	if err != nil {
		r.log.Warnw("preview capture failed", "run", runID, "error", err)
		return
	}
	if err := r.artifacts.PutScreenshot(ctx, runID, png); err != nil {
		r.log.Warnw("failed to store preview", "run", runID, "error", err)
	}
}
