// Package uploader implements the background photo-upload queue: a
// single-worker FIFO that transfers captured blobs to remote storage with
// bounded retries, updating photo records as it goes. Uploads never block
// the caller; each enqueue yields a channel carrying the eventual outcome.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/blobstore"
	"github.com/dmitrijs2005/auditflow/internal/logging"
	"github.com/dmitrijs2005/auditflow/internal/models"
	"github.com/dmitrijs2005/auditflow/internal/store"
)

const (
	// MaxRetries is the total number of upload attempts per photo before
	// it is parked in status failed.
	MaxRetries = 3

	// retryDelay is the fixed wait between attempts of one photo.
	retryDelay = 2 * time.Second

	// uploadTimeout bounds a single transfer attempt.
	uploadTimeout = 60 * time.Second
)

var (
	ErrQueueClosed   = errors.New("upload queue closed")
	ErrAlreadyQueued = errors.New("photo already queued")
	ErrNoBlob        = errors.New("photo has no blob to upload")
)

// Result is the one-and-only outcome delivered for an enqueued photo.
type Result struct {
	Photo *models.Photo
	Err   error
}

type task struct {
	photoID    string
	targetHint string
	done       chan Result
}

// Queue is the in-memory FIFO of pending photo uploads, processed by a
// single worker goroutine. Strict arrival order, no parallel uploads.
type Queue struct {
	store  *store.Store
	blobs  blobstore.Uploader
	online func() bool
	log    logging.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []*task
	queued  map[string]struct{}
	started bool
	closed  bool

	// sleep is a seam for tests.
	sleep func(time.Duration)
}

// New constructs a Queue. The online func lets the worker park instead of
// burning attempts while the device is offline; pass nil to always try.
func New(st *store.Store, blobs blobstore.Uploader, online func() bool, log logging.Logger) *Queue {
	if online == nil {
		online = func() bool { return true }
	}
	q := &Queue{
		store:  st,
		blobs:  blobs,
		online: online,
		log:    log,
		queued: map[string]struct{}{},
		sleep:  time.Sleep,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the worker goroutine. Subsequent calls are no-ops; there
// is never more than one worker.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	go func() {
		<-ctx.Done()
		q.Close()
	}()
	go q.worker(ctx)
}

// Close shuts the queue down. Outstanding tasks are resolved with
// ErrQueueClosed by the worker.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Wake nudges a parked worker, typically after connectivity returns.
func (q *Queue) Wake() {
	q.cond.Broadcast()
}

// Enqueue appends the photo to the tail of the queue and returns a
// channel that receives exactly one Result once the upload either
// succeeds or exhausts its retries. Enqueuing a photo that is already
// queued resolves immediately with ErrAlreadyQueued.
func (q *Queue) Enqueue(photo *models.Photo, targetHint string) <-chan Result {
	done := make(chan Result, 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		done <- Result{Err: ErrQueueClosed}
		return done
	}
	if _, ok := q.queued[photo.ID]; ok {
		q.mu.Unlock()
		done <- Result{Err: ErrAlreadyQueued}
		return done
	}
	q.queued[photo.ID] = struct{}{}
	q.tasks = append(q.tasks, &task{photoID: photo.ID, targetHint: targetHint, done: done})
	q.mu.Unlock()

	q.cond.Broadcast()
	return done
}

// next blocks until a task is available and the device is online, or
// returns nil once the queue is closed.
func (q *Queue) next() *task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closed {
			return nil
		}
		if len(q.tasks) > 0 && q.online() {
			t := q.tasks[0]
			q.tasks = q.tasks[1:]
			return t
		}
		q.cond.Wait()
	}
}

func (q *Queue) worker(ctx context.Context) {
	for {
		t := q.next()
		if t == nil {
			q.drain()
			return
		}
		q.process(ctx, t)
	}
}

// drain resolves every remaining task after shutdown.
func (q *Queue) drain() {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.queued = map[string]struct{}{}
	q.mu.Unlock()

	for _, t := range tasks {
		t.done <- Result{Err: ErrQueueClosed}
	}
}

func (q *Queue) finish(t *task, res Result) {
	q.mu.Lock()
	delete(q.queued, t.photoID)
	q.mu.Unlock()
	t.done <- res
}

func (q *Queue) requeue(t *task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
	q.cond.Broadcast()
}

// process performs one upload attempt for the task at the head of the
// queue. The photo record is re-read on every attempt so progress made
// elsewhere (e.g. an inline transfer during sync) is honored.
func (q *Queue) process(ctx context.Context, t *task) {
	photo, err := q.store.GetPhoto(ctx, t.photoID)
	if err != nil {
		q.finish(t, Result{Err: err})
		return
	}

	if photo.Status == models.PhotoStatusUploaded && photo.HasRemoteRef() {
		q.finish(t, Result{Photo: photo})
		return
	}
	if !photo.HasBlob() {
		q.finish(t, Result{Photo: photo, Err: fmt.Errorf("photo %s: %w", photo.ID, ErrNoBlob)})
		return
	}

	if _, err := q.store.UpdatePhotoStatus(ctx, photo.ID, models.PhotoStatusUploading, store.PhotoPatch{}); err != nil {
		q.finish(t, Result{Err: err})
		return
	}

	attemptCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	ref, uploadErr := q.blobs.Upload(attemptCtx, photo.Blob, photo.Filename, t.targetHint)
	cancel()

	if uploadErr == nil {
		updated, err := q.store.UpdatePhotoStatus(ctx, photo.ID, models.PhotoStatusUploaded, store.PhotoPatch{
			RemoteFileID: &ref.FileID,
			RemoteLink:   &ref.Link,
		})
		if err != nil {
			q.finish(t, Result{Err: err})
			return
		}
		q.log.Info(ctx, "photo uploaded", "photo", photo.ID, "audit", photo.AuditID, "fileId", ref.FileID)
		q.finish(t, Result{Photo: updated})
		return
	}

	attempts := photo.RetryCount + 1
	lastError := uploadErr.Error()

	if attempts < MaxRetries {
		if _, err := q.store.UpdatePhotoStatus(ctx, photo.ID, models.PhotoStatusPendingUpload, store.PhotoPatch{
			RetryCount: &attempts,
			LastError:  &lastError,
		}); err != nil {
			q.finish(t, Result{Err: err})
			return
		}
		q.log.Warn(ctx, "photo upload failed, will retry",
			"photo", photo.ID, "attempt", attempts, "error", lastError)
		q.requeue(t)
		q.sleep(retryDelay)
		return
	}

	updated, err := q.store.UpdatePhotoStatus(ctx, photo.ID, models.PhotoStatusFailed, store.PhotoPatch{
		RetryCount: &attempts,
		LastError:  &lastError,
	})
	if err != nil {
		q.finish(t, Result{Err: err})
		return
	}
	q.log.Error(ctx, "photo upload failed permanently",
		"photo", photo.ID, "attempts", attempts, "error", lastError)
	q.finish(t, Result{Photo: updated, Err: uploadErr})
}

// Status summarizes upload progress for one audit, derived by scanning
// its photos. Pending includes photos currently uploading.
type Status struct {
	Total    int
	Pending  int
	Uploaded int
	Failed   int
}

func (q *Queue) Status(ctx context.Context, auditID string) (*Status, error) {
	photos, err := q.store.GetPhotosByAudit(ctx, auditID)
	if err != nil {
		return nil, err
	}

	st := &Status{Total: len(photos)}
	for _, p := range photos {
		switch p.Status {
		case models.PhotoStatusUploaded:
			st.Uploaded++
		case models.PhotoStatusFailed:
			st.Failed++
		default:
			st.Pending++
		}
	}
	return st, nil
}

// RetryFailed re-enqueues every failed photo of the audit for a fresh
// attempt cycle. Returns the number of photos re-enqueued.
func (q *Queue) RetryFailed(ctx context.Context, auditID string) (int, error) {
	failed, err := q.store.GetPhotosByAudit(ctx, auditID, models.PhotoStatusFailed)
	if err != nil {
		return 0, err
	}

	hint, err := q.targetHint(ctx, auditID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range failed {
		if !p.HasBlob() {
			q.log.Warn(ctx, "cannot retry photo without blob", "photo", p.ID)
			continue
		}
		if err := q.resetForRetry(ctx, p.ID); err != nil {
			return count, err
		}
		q.Enqueue(p, hint)
		count++
	}
	return count, nil
}

// RetryAllPending is the system-wide reconnect sweep: every photo of a
// not-yet-synced audit in status pending_upload or failed that still has
// a retained blob is re-enqueued exactly once.
func (q *Queue) RetryAllPending(ctx context.Context) (int, error) {
	photos, err := q.store.ListRetryablePhotos(ctx)
	if err != nil {
		return 0, err
	}

	hints := map[string]string{}
	count := 0
	for _, p := range photos {
		hint, ok := hints[p.AuditID]
		if !ok {
			hint, err = q.targetHint(ctx, p.AuditID)
			if err != nil {
				return count, err
			}
			hints[p.AuditID] = hint
		}

		if p.Status == models.PhotoStatusFailed {
			if err := q.resetForRetry(ctx, p.ID); err != nil {
				return count, err
			}
		}

		res := q.Enqueue(p, hint)
		select {
		case r := <-res:
			// Dedup against tasks already in flight.
			if errors.Is(r.Err, ErrAlreadyQueued) {
				continue
			}
			count++
		default:
			count++
		}
	}

	if count > 0 {
		q.log.Info(ctx, "re-enqueued pending uploads", "count", count)
	}
	return count, nil
}

func (q *Queue) resetForRetry(ctx context.Context, photoID string) error {
	zero := 0
	empty := ""
	_, err := q.store.UpdatePhotoStatus(ctx, photoID, models.PhotoStatusPendingUpload, store.PhotoPatch{
		RetryCount: &zero,
		LastError:  &empty,
	})
	return err
}

func (q *Queue) targetHint(ctx context.Context, auditID string) (string, error) {
	a, err := q.store.GetAudit(ctx, auditID)
	if err != nil {
		return "", err
	}
	if a.Drive != nil {
		return a.Drive.PhotosFolderID, nil
	}
	return "", nil
}
