package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/auth"
	"github.com/dmitrijs2005/auditflow/internal/blobstore"
	"github.com/dmitrijs2005/auditflow/internal/buildinfo"
	"github.com/dmitrijs2005/auditflow/internal/cli"
	"github.com/dmitrijs2005/auditflow/internal/config"
	"github.com/dmitrijs2005/auditflow/internal/connectivity"
	"github.com/dmitrijs2005/auditflow/internal/logging"
	"github.com/dmitrijs2005/auditflow/internal/remote"
	"github.com/dmitrijs2005/auditflow/internal/store"
	"github.com/dmitrijs2005/auditflow/internal/syncer"
	"github.com/dmitrijs2005/auditflow/internal/uploader"
	"github.com/lmittmann/tint"
)

func newUploader(cfg *config.Config) blobstore.Uploader {
	if cfg.StorageBackend == "supabase" {
		return blobstore.NewSupabaseUploader(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.SupabaseStorageBucket)
	}
	return blobstore.NewS3Uploader(blobstore.S3Config{
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
	})
}

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer st.Close()

	tokens := auth.NewRefreshingTokenSource(cfg.TokenRefreshURL,
		os.Getenv("AUDITFLOW_ACCESS_TOKEN"), os.Getenv("AUDITFLOW_REFRESH_TOKEN"))
	client := remote.NewHTTPClient(cfg.SubmitURL, tokens)
	blobs := newUploader(cfg)

	monitor := connectivity.New(connectivity.Online, probe(cfg.SubmitURL), logger)
	queue := uploader.New(st, blobs, monitor.Online, logger)
	engine := syncer.New(st, client, blobs, monitor.Online, logger)

	monitor.OnOnline(func(ctx context.Context) {
		queue.Wake()
		if _, err := queue.RetryAllPending(ctx); err != nil {
			logger.Error(ctx, "reconnect upload sweep failed", "error", err)
		}
		if _, err := engine.SyncPendingAudits(ctx); err != nil {
			logger.Error(ctx, "reconnect sync failed", "error", err)
		}
	})

	queue.Start(ctx)
	go monitor.Watch(ctx, cfg.OnlineCheckInterval)

	app := cli.NewApp(cfg, st, queue, engine, monitor, logger)
	app.Run(ctx)
}

// probe treats any HTTP response from the submit endpoint as proof of
// reachability; only transport errors count as offline.
func probe(url string) func(ctx context.Context) error {
	httpClient := &http.Client{Timeout: 3 * time.Second}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		return nil
	}
}
