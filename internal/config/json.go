package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/flagx"
	"github.com/dmitrijs2005/auditflow/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "3s" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config.
type JsonConfig struct {
	DatabasePath        string         `json:"database_path"`
	SubmitURL           string         `json:"submit_url"`
	TokenRefreshURL     string         `json:"token_refresh_url"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	StorageBackend      string         `json:"storage_backend"`

	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3Bucket       string `json:"s3_bucket"`

	SupabaseURL           string `json:"supabase_url"`
	SupabaseStorageBucket string `json:"supabase_storage_bucket"`
}

// parseJson overlays cfg with values loaded from the JSON file named by
// the -c/-config flags. Empty JSON fields leave the current value alone.
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIfNotEmpty(&cfg.DatabasePath, jc.DatabasePath)
	setIfNotEmpty(&cfg.SubmitURL, jc.SubmitURL)
	setIfNotEmpty(&cfg.TokenRefreshURL, jc.TokenRefreshURL)
	setIfNotEmpty(&cfg.StorageBackend, jc.StorageBackend)
	setIfNotEmpty(&cfg.S3Region, jc.S3Region)
	setIfNotEmpty(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setIfNotEmpty(&cfg.S3Bucket, jc.S3Bucket)
	setIfNotEmpty(&cfg.SupabaseURL, jc.SupabaseURL)
	setIfNotEmpty(&cfg.SupabaseStorageBucket, jc.SupabaseStorageBucket)
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
