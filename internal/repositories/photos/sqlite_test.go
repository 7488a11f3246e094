package photos

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/common"
	"github.com/dmitrijs2005/auditflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE audits (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL DEFAULT 'draft'
);
CREATE TABLE photos (
  id TEXT PRIMARY KEY,
  audit_id TEXT NOT NULL,
  item_id TEXT NOT NULL DEFAULT '',
  filename TEXT NOT NULL DEFAULT '',
  blob BLOB,
  status TEXT NOT NULL DEFAULT 'pending_upload',
  remote_file_id TEXT NOT NULL DEFAULT '',
  remote_link TEXT NOT NULL DEFAULT '',
  retry_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT '',
  blob_cleared INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func insertAudit(t *testing.T, db *sql.DB, id string, status models.AuditStatus) {
	t.Helper()
	_, err := db.Exec(`insert into audits (id, status) values (?, ?)`, id, string(status))
	require.NoError(t, err)
}

func samplePhoto(id, auditID string, status models.PhotoStatus, createdAt time.Time) *models.Photo {
	return &models.Photo{
		ID:        id,
		AuditID:   auditID,
		ItemID:    "1.1",
		Filename:  id + ".jpg",
		Blob:      []byte("jpeg"),
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestInsertAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	p := samplePhoto("p1", "a1", models.PhotoStatusPendingUpload, time.Now().UTC())
	require.NoError(t, r.Insert(ctx, p))

	got, err := r.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.AuditID)
	assert.Equal(t, []byte("jpeg"), got.Blob)
	assert.Equal(t, models.PhotoStatusPendingUpload, got.Status)
	assert.False(t, got.BlobCleared)
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	p := samplePhoto("p1", "a1", models.PhotoStatusPendingUpload, time.Now().UTC())
	require.NoError(t, r.Insert(ctx, p))

	p.Status = models.PhotoStatusUploaded
	p.RemoteFileID = "file-1"
	p.RemoteLink = "https://storage/file-1"
	require.NoError(t, r.Update(ctx, p))

	got, err := r.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PhotoStatusUploaded, got.Status)
	assert.Equal(t, "file-1", got.RemoteFileID)
}

func TestUpdate_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	err := r.Update(context.Background(), samplePhoto("ghost", "a1", models.PhotoStatusPendingUpload, time.Now().UTC()))
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByAuditID_CaptureOrderAndFilter(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, r.Insert(ctx, samplePhoto("p1", "a1", models.PhotoStatusUploaded, base)))
	require.NoError(t, r.Insert(ctx, samplePhoto("p2", "a1", models.PhotoStatusFailed, base.Add(time.Second))))
	require.NoError(t, r.Insert(ctx, samplePhoto("p3", "a1", models.PhotoStatusPendingUpload, base.Add(2*time.Second))))
	require.NoError(t, r.Insert(ctx, samplePhoto("px", "a2", models.PhotoStatusPendingUpload, base)))

	all, err := r.GetByAuditID(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "p1", all[0].ID)
	assert.Equal(t, "p3", all[2].ID)

	failed, err := r.GetByAuditID(ctx, "a1", models.PhotoStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "p2", failed[0].ID)
}

func TestGetAllRetryable(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	insertAudit(t, db, "a1", models.AuditStatusCompleted)
	insertAudit(t, db, "a2", models.AuditStatusSynced)

	now := time.Now().UTC()
	require.NoError(t, r.Insert(ctx, samplePhoto("p1", "a1", models.PhotoStatusPendingUpload, now)))
	require.NoError(t, r.Insert(ctx, samplePhoto("p2", "a1", models.PhotoStatusFailed, now)))
	require.NoError(t, r.Insert(ctx, samplePhoto("p3", "a1", models.PhotoStatusUploaded, now)))
	// Synced audit: excluded even though its photo is pending.
	require.NoError(t, r.Insert(ctx, samplePhoto("p4", "a2", models.PhotoStatusPendingUpload, now)))

	// Cleared blob: excluded.
	p5 := samplePhoto("p5", "a1", models.PhotoStatusFailed, now)
	require.NoError(t, r.Insert(ctx, p5))
	require.NoError(t, r.ClearBlob(ctx, "p5"))

	retryable, err := r.GetAllRetryable(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(retryable))
	for _, p := range retryable {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)
}

func TestClearBlob(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, samplePhoto("p1", "a1", models.PhotoStatusUploaded, time.Now().UTC())))
	require.NoError(t, r.ClearBlob(ctx, "p1"))

	got, err := r.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, got.Blob)
	assert.True(t, got.BlobCleared)

	assert.ErrorIs(t, r.ClearBlob(ctx, "missing"), common.ErrorNotFound)
}

func TestDeleteByAuditID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, r.Insert(ctx, samplePhoto("p1", "a1", models.PhotoStatusPendingUpload, now)))
	require.NoError(t, r.Insert(ctx, samplePhoto("p2", "a1", models.PhotoStatusUploaded, now)))
	require.NoError(t, r.Insert(ctx, samplePhoto("p3", "a2", models.PhotoStatusPendingUpload, now)))

	require.NoError(t, r.DeleteByAuditID(ctx, "a1"))

	_, err := r.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = r.GetByID(ctx, "p3")
	assert.NoError(t, err)
}

func TestDeleteByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	assert.ErrorIs(t, r.DeleteByID(context.Background(), "missing"), common.ErrorNotFound)
}
