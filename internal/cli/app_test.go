package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/auditflow/internal/config"
	"github.com/dmitrijs2005/auditflow/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestApp_LogStartup_ReportsConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	cfg := &config.Config{
		DatabasePath: "local.db",
		SubmitURL:    "https://reports.example.com/api/audits/submit",
	}

	app := NewApp(cfg, nil, nil, nil, nil, logger)
	app.logStartup(context.Background())

	out := buf.String()
	assert.Contains(t, out, "local.db")
	assert.Contains(t, out, "reports.example.com")
}
