// Package syncer implements the submission engine: it assembles payloads
// for completed audits and pushes them to the remote report service with
// bounded exponential backoff, marking audits synced and reclaiming photo
// blobs on success.
package syncer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/blobstore"
	"github.com/dmitrijs2005/auditflow/internal/logging"
	"github.com/dmitrijs2005/auditflow/internal/models"
	"github.com/dmitrijs2005/auditflow/internal/remote"
	"github.com/dmitrijs2005/auditflow/internal/store"
)

// DefaultMaxRetries is the per-audit submit attempt budget.
const DefaultMaxRetries = 3

// EventKind labels a progress notification.
type EventKind string

const (
	EventBatchStart    EventKind = "batch_start"
	EventAuditStart    EventKind = "audit_start"
	EventAuditSynced   EventKind = "audit_synced"
	EventAuditRetry    EventKind = "audit_retry"
	EventAuditError    EventKind = "audit_error"
	EventBatchComplete EventKind = "batch_complete"
)

// Event is one progress notification emitted during a sync batch.
type Event struct {
	Kind    EventKind
	AuditID string
	Attempt int
	Err     error
}

// AuditOutcome is the per-audit detail of a batch result.
type AuditOutcome struct {
	AuditID string
	Err     error
	// Skipped counts photos left out of the payload because neither a
	// remote reference nor a blob was available (recorded data-loss risk).
	Skipped int
}

// BatchResult aggregates one SyncPendingAudits run.
type BatchResult struct {
	Synced  int
	Failed  int
	Offline bool
	Details []AuditOutcome
}

// Engine submits completed audits. One batch at a time: overlapping
// SyncPendingAudits calls return immediately with zero counts.
type Engine struct {
	store  *store.Store
	client remote.Client
	blobs  blobstore.Uploader
	online func() bool
	log    logging.Logger
	notify func(Event)

	maxRetries int
	running    atomic.Bool

	// sleep is a seam for tests.
	sleep func(time.Duration)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxRetries overrides the per-audit attempt budget.
func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// WithNotify registers a progress callback. The callback runs on the
// engine goroutine and must not block.
func WithNotify(fn func(Event)) Option {
	return func(e *Engine) { e.notify = fn }
}

// New constructs an Engine. The online func short-circuits batches while
// offline; pass nil to always try. The blobs uploader serves the inline
// fallback for photos the background queue never finished.
func New(st *store.Store, client remote.Client, blobs blobstore.Uploader, online func() bool, log logging.Logger, opts ...Option) *Engine {
	if online == nil {
		online = func() bool { return true }
	}
	e := &Engine{
		store:      st,
		client:     client,
		blobs:      blobs,
		online:     online,
		log:        log,
		maxRetries: DefaultMaxRetries,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) emit(ev Event) {
	if e.notify != nil {
		e.notify(ev)
	}
}

// SyncPendingAudits fetches all completed audits and submits them
// sequentially. Returns zero counts when offline or when another batch is
// already in progress.
func (e *Engine) SyncPendingAudits(ctx context.Context) (*BatchResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		e.log.Info(ctx, "sync already in progress, skipping")
		return &BatchResult{}, nil
	}
	defer e.running.Store(false)

	if !e.online() {
		e.log.Info(ctx, "device offline, skipping sync")
		return &BatchResult{Offline: true}, nil
	}

	pending, err := e.store.ListPendingAudits(ctx)
	if err != nil {
		return nil, err
	}

	e.emit(Event{Kind: EventBatchStart})
	e.log.Info(ctx, "sync batch started", "pending", len(pending))

	result := &BatchResult{}
	for _, audit := range pending {
		e.emit(Event{Kind: EventAuditStart, AuditID: audit.ID})

		outcome := AuditOutcome{AuditID: audit.ID}
		skipped, err := e.SyncAuditWithRetry(ctx, audit)
		outcome.Skipped = skipped
		if err != nil {
			outcome.Err = err
			result.Failed++
			e.emit(Event{Kind: EventAuditError, AuditID: audit.ID, Err: err})
			e.log.Error(ctx, "audit sync failed", "audit", audit.ID, "error", err)
		} else {
			result.Synced++
			e.emit(Event{Kind: EventAuditSynced, AuditID: audit.ID})
		}
		result.Details = append(result.Details, outcome)
	}

	e.emit(Event{Kind: EventBatchComplete})
	e.log.Info(ctx, "sync batch complete", "synced", result.Synced, "failed", result.Failed)
	return result, nil
}

// SyncAuditWithRetry submits one audit, retrying with exponential backoff
// (2s, 4s, 8s...) on failure. Photos are re-resolved on every attempt so
// background uploads that completed in the meantime are picked up. On the
// final failure the audit stays completed, eligible for a later retry.
// Returns the number of photos skipped for data-loss reasons.
func (e *Engine) SyncAuditWithRetry(ctx context.Context, audit *models.Audit) (int, error) {
	var lastErr error
	var skipped int

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		var err error
		skipped, err = e.syncOnce(ctx, audit)
		if err == nil {
			return skipped, nil
		}
		lastErr = err

		if attempt < e.maxRetries {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			e.emit(Event{Kind: EventAuditRetry, AuditID: audit.ID, Attempt: attempt, Err: err})
			e.log.Warn(ctx, "audit submit failed, backing off",
				"audit", audit.ID, "attempt", attempt, "wait", wait, "error", err)
			e.sleep(wait)
		}
	}
	return skipped, lastErr
}

// syncOnce performs a single submission attempt: resolve photos, assemble
// the payload, submit, mark synced and purge blobs.
func (e *Engine) syncOnce(ctx context.Context, audit *models.Audit) (int, error) {
	photos, err := e.store.GetPhotosByAudit(ctx, audit.ID)
	if err != nil {
		return 0, err
	}

	payloadPhotos, skipped, err := e.resolvePhotos(ctx, audit, photos)
	if err != nil {
		return skipped, err
	}

	payload := BuildPayload(audit, payloadPhotos)

	result, err := e.client.SubmitAudit(ctx, payload)
	if err != nil {
		return skipped, err
	}

	if err := e.store.MarkAuditSynced(ctx, audit.ID, result); err != nil {
		return skipped, err
	}
	e.log.Info(ctx, "audit synced", "audit", audit.ID)

	// Storage reclaim is best-effort: a purge failure never undoes the
	// sync. Photos are re-read because resolvePhotos may have uploaded
	// some of them inline since the fetch above.
	uploaded, err := e.store.GetPhotosByAudit(ctx, audit.ID, models.PhotoStatusUploaded)
	if err != nil {
		e.log.Warn(ctx, "failed to list photos for blob purge", "audit", audit.ID, "error", err)
		return skipped, nil
	}
	for _, p := range uploaded {
		if !p.HasBlob() {
			continue
		}
		if err := e.store.ClearPhotoBlob(ctx, p.ID); err != nil {
			e.log.Warn(ctx, "failed to purge photo blob", "photo", p.ID, "error", err)
		}
	}
	return skipped, nil
}

// resolvePhotos turns stored photos into payload entries. Uploaded photos
// contribute their remote reference; photos with a retained blob are
// transferred inline as a fallback; photos with neither are skipped with
// a recorded data-loss warning, never silently dropped.
func (e *Engine) resolvePhotos(ctx context.Context, audit *models.Audit, photos []*models.Photo) ([]remote.PayloadPhoto, int, error) {
	var entries []remote.PayloadPhoto
	skipped := 0

	hint := ""
	if audit.Drive != nil {
		hint = audit.Drive.PhotosFolderID
	}

	for _, p := range photos {
		if p.Status == models.PhotoStatusUploaded && p.HasRemoteRef() {
			entries = append(entries, remote.PayloadPhoto{
				ItemID:          p.ItemID,
				Filename:        p.Filename,
				RemoteFileID:    p.RemoteFileID,
				RemoteLink:      p.RemoteLink,
				AlreadyUploaded: true,
			})
			continue
		}

		if p.HasBlob() {
			ref, err := e.blobs.Upload(ctx, p.Blob, p.Filename, hint)
			if err != nil {
				// The fallback transfer failed; leave the photo to the
				// upload queue's next sweep and submit without it.
				msg := err.Error()
				if _, uerr := e.store.UpdatePhotoStatus(ctx, p.ID, models.PhotoStatusPendingUpload, store.PhotoPatch{
					LastError: &msg,
				}); uerr != nil {
					e.log.Warn(ctx, "failed to record fallback error", "photo", p.ID, "error", uerr)
				}
				e.log.Warn(ctx, "inline photo transfer failed, submitting without photo",
					"photo", p.ID, "audit", audit.ID, "error", err)
				skipped++
				continue
			}

			if _, err := e.store.UpdatePhotoStatus(ctx, p.ID, models.PhotoStatusUploaded, store.PhotoPatch{
				RemoteFileID: &ref.FileID,
				RemoteLink:   &ref.Link,
			}); err != nil {
				return entries, skipped, err
			}
			entries = append(entries, remote.PayloadPhoto{
				ItemID:          p.ItemID,
				Filename:        p.Filename,
				RemoteFileID:    ref.FileID,
				RemoteLink:      ref.Link,
				AlreadyUploaded: true,
			})
			continue
		}

		skipped++
		e.log.Warn(ctx, "photo has neither remote reference nor blob, data lost",
			"photo", p.ID, "audit", audit.ID)
	}
	return entries, skipped, nil
}
