package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the AuditFlow client.
type Config struct {
	// DatabasePath is the local SQLite file holding audits and photos.
	DatabasePath string

	// SubmitURL is the remote audit-submission endpoint.
	SubmitURL string

	// TokenRefreshURL is the credential-refresh endpoint.
	TokenRefreshURL string

	// OnlineCheckInterval is how often the client probes reachability.
	OnlineCheckInterval time.Duration

	// StorageBackend selects the blob-transfer backend: "s3" or "supabase".
	StorageBackend string

	// S3 settings (used when StorageBackend == "s3").
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string

	// Supabase settings (used when StorageBackend == "supabase").
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseStorageBucket  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "auditflow.db"
	c.SubmitURL = "http://127.0.0.1:8080/api/audits/submit"
	c.TokenRefreshURL = "http://127.0.0.1:8080/api/auth/refresh"
	c.OnlineCheckInterval = 3 * time.Second
	c.StorageBackend = "s3"
	c.S3Region = "us-east-1"
	c.S3Bucket = "auditflow-photos"
	c.SupabaseStorageBucket = "audit-photos"
}

// loadEnv overlays credentials from the environment; secrets never live
// in the JSON file or on the command line.
func (c *Config) loadEnv() {
	c.S3AccessKey = getEnv("AUDITFLOW_S3_ACCESS_KEY", c.S3AccessKey)
	c.S3SecretKey = getEnv("AUDITFLOW_S3_SECRET_KEY", c.S3SecretKey)
	c.SupabaseServiceRoleKey = getEnv("AUDITFLOW_SUPABASE_SERVICE_ROLE_KEY", c.SupabaseServiceRoleKey)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present), the environment, and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	cfg.loadEnv()
	parseFlags(cfg)
	return cfg
}
