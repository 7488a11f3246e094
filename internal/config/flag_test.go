package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectPanic bool
		expected    Config
	}{
		{
			name: "Test1 OK",
			args: []string{"cmd", "-d", "/tmp/audits.db", "-u", "http://example.com/submit", "-i", "10"},
			expected: Config{
				DatabasePath:        "/tmp/audits.db",
				SubmitURL:           "http://example.com/submit",
				OnlineCheckInterval: 10 * time.Second,
			},
		},
		{
			name:        "Test2 incorrect check interval",
			args:        []string{"cmd", "-i", "abc"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()
			os.Args = tt.args

			var cfg Config
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(&cfg) })
				return
			}

			require.NotPanics(t, func() { parseFlags(&cfg) })
			assert.Equal(t, tt.expected.DatabasePath, cfg.DatabasePath)
			assert.Equal(t, tt.expected.SubmitURL, cfg.SubmitURL)
			assert.Equal(t, tt.expected.OnlineCheckInterval, cfg.OnlineCheckInterval)
		})
	}
}
