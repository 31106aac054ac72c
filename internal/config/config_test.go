package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "prod", cfg.LogMode)
	assert.Equal(t, "data/fallback.db", cfg.FallbackDBPath)
	assert.Equal(t, time.Second, cfg.AuditDelay)
	assert.False(t, cfg.S3.Configured())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_MODE", "dev")
	t.Setenv("DATABASE_URL", "postgres://localhost/sitegauge")
	t.Setenv("AUDIT_DELAY_MS", "250")
	t.Setenv("S3_SERVICE_URL", "http://minio:9000")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("S3_BUCKET", "audits")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, "postgres://localhost/sitegauge", cfg.DatabaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.AuditDelay)
	assert.True(t, cfg.S3.Configured())
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("AUDIT_DELAY_MS", "soon")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUDIT_DELAY_MS")

	t.Setenv("AUDIT_DELAY_MS", "1000")
	t.Setenv("LOG_MODE", "loud")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_MODE")
}
