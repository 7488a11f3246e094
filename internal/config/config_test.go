package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "auditflow.db", c.DatabasePath)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "s3", c.StorageBackend)
	assert.Equal(t, "auditflow-photos", c.S3Bucket)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "auditflow.db", cfg.DatabasePath)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}

func TestLoadEnv_OverlaysCredentials(t *testing.T) {
	t.Setenv("AUDITFLOW_S3_ACCESS_KEY", "AKIATEST")
	t.Setenv("AUDITFLOW_S3_SECRET_KEY", "secret")

	var c Config
	c.LoadDefaults()
	c.loadEnv()

	assert.Equal(t, "AKIATEST", c.S3AccessKey)
	assert.Equal(t, "secret", c.S3SecretKey)
}
