// Package config loads runtime configuration for the AuditFlow client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. Environment variables for credentials (AUDITFLOW_S3_ACCESS_KEY,
//     AUDITFLOW_S3_SECRET_KEY, AUDITFLOW_SUPABASE_SERVICE_ROLE_KEY).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be
// either strings like "3s" or integer nanoseconds:
//
//	{
//	  "database_path": "auditflow.db",
//	  "submit_url": "https://reports.example.com/api/audits/submit",
//	  "online_check_interval": "3s",
//	  "storage_backend": "supabase",
//	  "supabase_url": "https://xyz.supabase.co",
//	  "supabase_storage_bucket": "audit-photos"
//	}
//
// Credentials are never read from the JSON file or the command line.
package config
