// Package artifacts stores the verbatim raw audit responses and run
// screenshots so the dashboard can offer them for download. The core
// never reinterprets these documents, it only carries them.
package artifacts

import (
	"context"
	"fmt"
)

// Store is the artifact tier: S3-compatible object storage when
// configured, a local directory otherwise.
type Store interface {
	// PutRaw saves the raw audit response for one route of a run.
	PutRaw(ctx context.Context, runID, routeID string, data []byte) error
	// GetRaw returns a previously saved raw response.
	GetRaw(ctx context.Context, runID, routeID string) ([]byte, error)
	// PutScreenshot saves the run's preview image.
	PutScreenshot(ctx context.Context, runID string, png []byte) error
	// GetScreenshot returns the run's preview image.
	GetScreenshot(ctx context.Context, runID string) ([]byte, error)
}

func rawKey(runID, routeID string) string {
	return fmt.Sprintf("results/%s/%s.json", runID, routeID)
}

func screenshotKey(runID string) string {
	return fmt.Sprintf("results/%s/screenshot.png", runID)
}
