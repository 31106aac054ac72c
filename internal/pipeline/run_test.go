package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelar/sitegauge/internal/artifacts"
	"github.com/avelar/sitegauge/internal/store"
	"github.com/avelar/sitegauge/internal/types"
)

// fakeProvider returns a canned audit body per URL and records calls.
type fakeProvider struct {
	bodies map[string][]byte
	errs   map[string]error
	calls  []string
}

func (f *fakeProvider) Audit(_ context.Context, url string, _ types.Strategy) ([]byte, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if body, ok := f.bodies[url]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("unexpected url %s", url)
}

func (f *fakeProvider) Name() string { return "fake" }

func auditBody(perf, acc float64) []byte {
	return []byte(fmt.Sprintf(`{
		"lighthouseResult": {
			"categories": {
				"performance": {"score": %g},
				"accessibility": {"score": %g},
				"best-practices": {"score": 0.9},
				"seo": {"score": 1}
			},
			"audits": {
				"first-contentful-paint": {"numericValue": 1200.5, "score": 0.9, "displayValue": "1.2 s"},
				"largest-contentful-paint": {"numericValue": 2500, "score": 0.8}
			}
		}
	}`, perf, acc))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	local, err := store.OpenFallback(filepath.Join(t.TempDir(), "fallback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })
	return store.New(nil, local, nil)
}

func TestRunAuditsRoutesInOrder(t *testing.T) {
	provider := &fakeProvider{bodies: map[string][]byte{
		"https://example.com/":      auditBody(0.8, 0.9),
		"https://example.com/about": auditBody(0.6, 0.7),
	}}
	runner := NewRunner(provider, newTestStore(t), nil, nil, nil)

	var events []ProgressEvent
	out, err := runner.Run(context.Background(), RunOptions{
		BaseURL:  "https://example.com",
		Strategy: types.StrategyMobile,
		Routes: []types.RouteConfig{
			{ID: "home", Path: "/", Name: "Home"},
			{ID: "about", Path: "/about", Name: "About"},
		},
		Delay:      time.Millisecond,
		OnProgress: func(ev ProgressEvent) { events = append(events, ev) },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/", "https://example.com/about"}, provider.calls)
	assert.True(t, out.Saved)
	assert.Equal(t, store.OriginLocal, out.Origin)
	assert.Equal(t, "example.com", out.Result.Domain)
	assert.Equal(t, []string{"/", "/about"}, out.Result.Results.Paths())

	home, ok := out.Result.Results.Get("/")
	require.True(t, ok)
	assert.Equal(t, 80, home.Performance)
	assert.Equal(t, 70, out.Result.AvgScores.Performance) // (80+60)/2

	require.Contains(t, out.Details, "/")
	assert.Equal(t, "1.2 s", out.Details["/"]["fcp"].DisplayValue)

	var stages []string
	for _, ev := range events {
		stages = append(stages, ev.Stage)
	}
	assert.Equal(t, []string{"auditing", "route_done", "auditing", "route_done", "saving", "complete"}, stages)
}

func TestRunToleratesRouteFailure(t *testing.T) {
	provider := &fakeProvider{
		bodies: map[string][]byte{"https://example.com/": auditBody(0.8, 0.8)},
		errs:   map[string]error{"https://example.com/broken": errors.New("upstream exploded")},
	}
	runner := NewRunner(provider, newTestStore(t), nil, nil, nil)

	out, err := runner.Run(context.Background(), RunOptions{
		BaseURL: "https://example.com",
		Routes: []types.RouteConfig{
			{ID: "home", Path: "/"},
			{ID: "broken", Path: "/broken"},
		},
		Delay: time.Millisecond,
	})
	require.NoError(t, err)

	broken, ok := out.Result.Results.Get("/broken")
	require.True(t, ok)
	assert.True(t, broken.IsZero())

	// The failed route still counts in the average denominator.
	assert.Equal(t, 40, out.Result.AvgScores.Performance)
	assert.NotContains(t, out.Details, "/broken")
}

func TestRunDefaultsToHomeRoute(t *testing.T) {
	provider := &fakeProvider{bodies: map[string][]byte{
		"https://example.com/": auditBody(1, 1),
	}}
	runner := NewRunner(provider, newTestStore(t), nil, nil, nil)

	out, err := runner.Run(context.Background(), RunOptions{BaseURL: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, out.Result.Results.Paths())
	assert.Equal(t, "https://example.com", out.Result.URL)
}

func TestRunRejectsBadInput(t *testing.T) {
	runner := NewRunner(&fakeProvider{}, newTestStore(t), nil, nil, nil)

	_, err := runner.Run(context.Background(), RunOptions{BaseURL: "ftp://example.com"})
	var invalid *InvalidBaseURLError
	require.ErrorAs(t, err, &invalid)

	_, err = runner.Run(context.Background(), RunOptions{
		BaseURL: "https://example.com",
		Routes:  []types.RouteConfig{{ID: "blank", Path: "   "}},
	})
	assert.ErrorIs(t, err, ErrNoRoutes)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	provider := &fakeProvider{bodies: map[string][]byte{
		"https://example.com/":  auditBody(1, 1),
		"https://example.com/a": auditBody(1, 1),
	}}
	runner := NewRunner(provider, newTestStore(t), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := runner.Run(ctx, RunOptions{
		BaseURL: "https://example.com",
		Routes: []types.RouteConfig{
			{ID: "home", Path: "/"},
			{ID: "a", Path: "/a"},
		},
		Delay: time.Minute,
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"https://example.com/"}, provider.calls)
}

func TestRunExportsRawArtifacts(t *testing.T) {
	provider := &fakeProvider{bodies: map[string][]byte{
		"https://example.com/": auditBody(0.5, 0.5),
	}}
	dir := t.TempDir()
	art, err := artifacts.NewDirStore(dir)
	require.NoError(t, err)
	runner := NewRunner(provider, newTestStore(t), art, nil, nil)

	out, err := runner.Run(context.Background(), RunOptions{
		BaseURL: "https://example.com",
		Routes:  []types.RouteConfig{{ID: "home", Path: "/"}},
	})
	require.NoError(t, err)

	stored, err := art.GetRaw(context.Background(), out.Result.ID, "home")
	require.NoError(t, err)
	assert.JSONEq(t, string(auditBody(0.5, 0.5)), string(stored))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRunContinuesWhenPersistenceFails(t *testing.T) {
	provider := &fakeProvider{bodies: map[string][]byte{
		"https://example.com/": auditBody(0.7, 0.7),
	}}
	local, err := store.OpenFallback(filepath.Join(t.TempDir(), "fallback.db"))
	require.NoError(t, err)
	require.NoError(t, local.Close()) // writes now fail
	runner := NewRunner(provider, store.New(nil, local, nil), nil, nil, nil)

	out, err := runner.Run(context.Background(), RunOptions{
		BaseURL: "https://example.com",
		Routes:  []types.RouteConfig{{ID: "home", Path: "/"}},
	})
	require.NoError(t, err)
	assert.False(t, out.Saved)
	require.NotNil(t, out.Result)
	assert.Equal(t, 70, out.Result.AvgScores.Performance)
}
