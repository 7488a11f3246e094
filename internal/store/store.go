// Package store bundles the per-aggregate repositories into the durable
// local store used by the upload queue, the sync engine and the UI layer.
// It owns the lifecycle rules: monotonic audit status transitions,
// once-only drive-resource assignment, cascade deletion and the blob
// retention invariant.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/common"
	"github.com/dmitrijs2005/auditflow/internal/dbx"
	"github.com/dmitrijs2005/auditflow/internal/migrations"
	"github.com/dmitrijs2005/auditflow/internal/models"
	"github.com/dmitrijs2005/auditflow/internal/repositories/audits"
	"github.com/dmitrijs2005/auditflow/internal/repositories/photos"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Store is the single shared mutable resource of the subsystem. All
// components mutate records by id through its operations, never through
// shared in-memory references.
type Store struct {
	db     *sql.DB
	audits audits.Repository
	photos photos.Repository

	// now is a seam for tests.
	now func() time.Time
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the local database at dsn, applies
// migrations and returns a ready Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	// One connection serializes access and keeps :memory: databases from
	// splitting across pool connections.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}

	return New(db), nil
}

// New wraps an already opened and migrated database.
func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		audits: audits.NewSQLiteRepository(db),
		photos: photos.NewSQLiteRepository(db),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewAudit carries the fields supplied at "new audit" time.
type NewAudit struct {
	SiteName    string
	ClientName  string
	AuditorName string
	Location    string
	Checklist   models.Checklist
}

// CreateAudit assigns an id and timestamps and persists a draft audit
// with an empty responses map.
func (s *Store) CreateAudit(ctx context.Context, n NewAudit) (*models.Audit, error) {
	now := s.now()
	a := &models.Audit{
		ID:          uuid.NewString(),
		SiteName:    n.SiteName,
		ClientName:  n.ClientName,
		AuditorName: n.AuditorName,
		Location:    n.Location,
		Status:      models.AuditStatusDraft,
		Checklist:   n.Checklist,
		Responses:   map[string]models.Response{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.audits.Insert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetAudit returns the audit by id.
func (s *Store) GetAudit(ctx context.Context, id string) (*models.Audit, error) {
	return s.audits.GetByID(ctx, id)
}

// ListAudits returns all audits, most recently updated first.
func (s *Store) ListAudits(ctx context.Context) ([]*models.Audit, error) {
	return s.audits.GetAll(ctx)
}

// ListPendingAudits returns completed audits awaiting submission, oldest
// first.
func (s *Store) ListPendingAudits(ctx context.Context) ([]*models.Audit, error) {
	return s.audits.GetAllPending(ctx)
}

// AuditPatch describes a partial audit update. Nil fields are left
// untouched; Responses entries are merged into the existing map by item id.
type AuditPatch struct {
	SiteName    *string
	ClientName  *string
	AuditorName *string
	Location    *string
	Status      *models.AuditStatus
	Responses   map[string]models.Response
	Drive       *models.DriveResources
}

// UpdateAudit merges the patch into the stored audit (read-merge-write)
// and bumps UpdatedAt. Recording a response on a draft audit moves it to
// in_progress. Status changes must respect the monotonic lifecycle and
// drive resources are assigned exactly once.
func (s *Store) UpdateAudit(ctx context.Context, id string, patch AuditPatch) (*models.Audit, error) {
	a, err := s.audits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.SiteName != nil {
		a.SiteName = *patch.SiteName
	}
	if patch.ClientName != nil {
		a.ClientName = *patch.ClientName
	}
	if patch.AuditorName != nil {
		a.AuditorName = *patch.AuditorName
	}
	if patch.Location != nil {
		a.Location = *patch.Location
	}

	if patch.Drive != nil {
		if a.Drive != nil {
			return nil, fmt.Errorf("audit %s: drive resources already assigned: %w",
				id, common.ErrorInvalidTransition)
		}
		a.Drive = patch.Drive
	}

	if len(patch.Responses) > 0 {
		if a.Responses == nil {
			a.Responses = map[string]models.Response{}
		}
		for itemID, resp := range patch.Responses {
			a.Responses[itemID] = resp
		}
		if a.Status == models.AuditStatusDraft {
			a.Status = models.AuditStatusInProgress
		}
	}

	if patch.Status != nil {
		if !a.Status.CanTransitionTo(*patch.Status) {
			return nil, fmt.Errorf("audit %s: %s -> %s: %w",
				id, a.Status, *patch.Status, common.ErrorInvalidTransition)
		}
		a.Status = *patch.Status
	}

	a.UpdatedAt = s.now()
	if err := s.audits.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// MarkAuditSynced records a successful submission. Idempotent: repeating
// the call for an already synced audit leaves it unchanged.
func (s *Store) MarkAuditSynced(ctx context.Context, id string, result json.RawMessage) error {
	return s.audits.MarkSynced(ctx, id, result)
}

// DeleteAudit removes the audit and cascades to its photos.
func (s *Store) DeleteAudit(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := photos.NewSQLiteRepository(tx).DeleteByAuditID(ctx, id); err != nil {
			return err
		}
		return audits.NewSQLiteRepository(tx).DeleteByID(ctx, id)
	})
}

// SavePhoto persists a captured image in status pending_upload. Capturing
// a photo on a draft audit moves the audit to in_progress.
func (s *Store) SavePhoto(ctx context.Context, auditID, itemID string, blob []byte, filename string) (*models.Photo, error) {
	a, err := s.audits.GetByID(ctx, auditID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Photo{
		ID:        uuid.NewString(),
		AuditID:   auditID,
		ItemID:    itemID,
		Filename:  filename,
		Blob:      blob,
		Status:    models.PhotoStatusPendingUpload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.photos.Insert(ctx, p); err != nil {
		return nil, err
	}

	if a.Status == models.AuditStatusDraft {
		a.Status = models.AuditStatusInProgress
		a.UpdatedAt = now
		if err := s.audits.Update(ctx, a); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// GetPhoto returns the photo by id.
func (s *Store) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	return s.photos.GetByID(ctx, id)
}

// PhotoPatch describes metadata merged alongside a status change. Nil
// fields are left untouched.
type PhotoPatch struct {
	RemoteFileID *string
	RemoteLink   *string
	RetryCount   *int
	LastError    *string
}

// UpdatePhotoStatus moves the photo to the given status and merges the
// metadata patch. A photo may only be marked uploaded together with a
// non-empty remote reference.
func (s *Store) UpdatePhotoStatus(ctx context.Context, id string, status models.PhotoStatus, patch PhotoPatch) (*models.Photo, error) {
	p, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.RemoteFileID != nil {
		p.RemoteFileID = *patch.RemoteFileID
	}
	if patch.RemoteLink != nil {
		p.RemoteLink = *patch.RemoteLink
	}
	if patch.RetryCount != nil {
		p.RetryCount = *patch.RetryCount
	}
	if patch.LastError != nil {
		p.LastError = *patch.LastError
	}

	if status == models.PhotoStatusUploaded && !p.HasRemoteRef() {
		return nil, fmt.Errorf("photo %s: uploaded without remote reference: %w",
			id, common.ErrorInvalidTransition)
	}

	p.Status = status
	p.UpdatedAt = s.now()
	if err := s.photos.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPhotosByAudit returns the audit's photos, optionally filtered by status.
func (s *Store) GetPhotosByAudit(ctx context.Context, auditID string, statuses ...models.PhotoStatus) ([]*models.Photo, error) {
	return s.photos.GetByAuditID(ctx, auditID, statuses...)
}

// ListRetryablePhotos returns every photo a reconnect sweep should
// re-enqueue: pending_upload or failed, blob still retained, owning audit
// not yet synced.
func (s *Store) ListRetryablePhotos(ctx context.Context) ([]*models.Photo, error) {
	return s.photos.GetAllRetryable(ctx)
}

// ClearPhotoBlob purges the image bytes. Allowed only once the photo is
// uploaded and its owning audit is synced, so a failed submission can
// still rebuild its payload from the blob.
func (s *Store) ClearPhotoBlob(ctx context.Context, id string) error {
	p, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != models.PhotoStatusUploaded {
		return fmt.Errorf("photo %s is not uploaded: %w", id, common.ErrorInvalidTransition)
	}
	a, err := s.audits.GetByID(ctx, p.AuditID)
	if err != nil {
		return err
	}
	if !a.Synced() {
		return fmt.Errorf("audit %s is not synced: %w", p.AuditID, common.ErrorInvalidTransition)
	}
	return s.photos.ClearBlob(ctx, id)
}

// DeletePhoto removes a single photo.
func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	return s.photos.DeleteByID(ctx, id)
}
