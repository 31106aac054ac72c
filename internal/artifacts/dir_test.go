package artifacts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore_RawRoundTrip(t *testing.T) {
	d, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	raw := []byte(`{"lighthouseResult": {}}`)
	require.NoError(t, d.PutRaw(ctx, "1700000000000", "home", raw))

	got, err := d.GetRaw(ctx, "1700000000000", "home")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDirStore_ScreenshotRoundTrip(t *testing.T) {
	d, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.PutScreenshot(ctx, "run1", []byte{0x89, 0x50, 0x4e, 0x47}))
	got, err := d.GetScreenshot(ctx, "run1")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestDirStore_MissingArtifact(t *testing.T) {
	d, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	_, err = d.GetRaw(context.Background(), "none", "none")
	assert.Error(t, err)
}

func TestDirStore_RejectsTraversal(t *testing.T) {
	d, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	err = d.PutRaw(context.Background(), "..", "etc", []byte("x"))
	assert.Error(t, err)
}

func TestS3Config_Configured(t *testing.T) {
	assert.False(t, S3Config{}.Configured())
	assert.False(t, S3Config{Bucket: "b"}.Configured())
	assert.True(t, S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}.Configured())
}
