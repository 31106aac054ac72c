package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirStore keeps artifacts on the local filesystem, mirroring the S3
// key layout under a root directory. It is the default when no object
// storage is configured.
type DirStore struct {
	root string
}

// NewDirStore creates the root directory if needed.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &DirStore{root: root}, nil
}

// path maps an object key to a file path, refusing traversal segments.
func (d *DirStore) path(key string) (string, error) {
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid artifact key: %s", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(key)), nil
}

func (d *DirStore) put(key string, data []byte) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (d *DirStore) get(key string) ([]byte, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// PutRaw saves the raw audit response for one route of a run.
func (d *DirStore) PutRaw(_ context.Context, runID, routeID string, data []byte) error {
	return d.put(rawKey(runID, routeID), data)
}

// GetRaw returns a previously saved raw response.
func (d *DirStore) GetRaw(_ context.Context, runID, routeID string) ([]byte, error) {
	return d.get(rawKey(runID, routeID))
}

// PutScreenshot saves the run's preview image.
func (d *DirStore) PutScreenshot(_ context.Context, runID string, png []byte) error {
	return d.put(screenshotKey(runID), png)
}

// GetScreenshot returns the run's preview image.
func (d *DirStore) GetScreenshot(_ context.Context, runID string) ([]byte, error) {
	return d.get(screenshotKey(runID))
}
