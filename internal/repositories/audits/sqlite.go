package audits

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/common"
	"github.com/dmitrijs2005/auditflow/internal/dbx"
	"github.com/dmitrijs2005/auditflow/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const auditColumns = `id, site_name, client_name, auditor_name, location, status,
	checklist, responses, drive_folder_id, drive_photos_folder_id, sync_result,
	created_at, updated_at, synced_at`

func (r *SQLiteRepository) Insert(ctx context.Context, a *models.Audit) error {
	checklist, responses, err := marshalNested(a)
	if err != nil {
		return err
	}

	var driveFolder, drivePhotos string
	if a.Drive != nil {
		driveFolder = a.Drive.FolderID
		drivePhotos = a.Drive.PhotosFolderID
	}

	query := `INSERT INTO audits (` + auditColumns + `)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.SiteName, a.ClientName, a.AuditorName, a.Location, string(a.Status),
		checklist, responses, driveFolder, drivePhotos, nullableJSON(a.SyncResult),
		a.CreatedAt.UnixNano(), a.UpdatedAt.UnixNano(), nullableTime(a.SyncedAt))
	if err != nil {
		return fmt.Errorf("failed to insert audit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Audit, error) {
	query := `select ` + auditColumns + ` from audits where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	a, err := scanAudit(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("audit %s: %w", id, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("failed to select audit: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, a *models.Audit) error {
	checklist, responses, err := marshalNested(a)
	if err != nil {
		return err
	}

	var driveFolder, drivePhotos string
	if a.Drive != nil {
		driveFolder = a.Drive.FolderID
		drivePhotos = a.Drive.PhotosFolderID
	}

	query := `update audits set site_name=?, client_name=?, auditor_name=?,
			location=?, status=?, checklist=?, responses=?, drive_folder_id=?,
			drive_photos_folder_id=?, sync_result=?, updated_at=?, synced_at=?
			where id=?`
	res, err := r.db.ExecContext(ctx, query,
		a.SiteName, a.ClientName, a.AuditorName, a.Location, string(a.Status),
		checklist, responses, driveFolder, drivePhotos, nullableJSON(a.SyncResult),
		a.UpdatedAt.UnixNano(), nullableTime(a.SyncedAt), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update audit: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("audit %s: %w", a.ID, common.ErrorNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.Audit, error) {
	return r.selectAudits(ctx, `select `+auditColumns+` from audits order by updated_at desc`)
}

func (r *SQLiteRepository) GetAllPending(ctx context.Context) ([]*models.Audit, error) {
	return r.selectAudits(ctx,
		`select `+auditColumns+` from audits where status=? order by updated_at asc`,
		string(models.AuditStatusCompleted))
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, result json.RawMessage) error {
	query := `update audits set status=?, sync_result=?, synced_at=?, updated_at=?
			where id=? and status<>?`
	now := time.Now().UTC().UnixNano()
	res, err := r.db.ExecContext(ctx, query,
		string(models.AuditStatusSynced), nullableJSON(result), now, now,
		id, string(models.AuditStatusSynced))
	if err != nil {
		return fmt.Errorf("failed to mark audit synced: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		// Either already synced (idempotent no-op) or missing.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from audits where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete audit: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("audit %s: %w", id, common.ErrorNotFound)
	}
	return nil
}

func (r *SQLiteRepository) selectAudits(ctx context.Context, query string, args ...any) ([]*models.Audit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select audits: %w", err)
	}
	defer rows.Close()

	var result []*models.Audit
	for rows.Next() {
		a, err := scanAudit(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func marshalNested(a *models.Audit) (checklist []byte, responses []byte, err error) {
	checklist, err = json.Marshal(a.Checklist)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal checklist: %w", err)
	}
	if a.Responses == nil {
		responses = []byte("{}")
	} else {
		responses, err = json.Marshal(a.Responses)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal responses: %w", err)
		}
	}
	return checklist, responses, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func scanAudit(scan func(dest ...any) error) (*models.Audit, error) {
	a := &models.Audit{}
	var status, checklist, responses, driveFolder, drivePhotos string
	var syncResult sql.NullString
	var createdAt, updatedAt int64
	var syncedAt sql.NullInt64

	err := scan(&a.ID, &a.SiteName, &a.ClientName, &a.AuditorName, &a.Location,
		&status, &checklist, &responses, &driveFolder, &drivePhotos, &syncResult,
		&createdAt, &updatedAt, &syncedAt)
	if err != nil {
		return nil, err
	}

	a.Status = models.AuditStatus(status)
	// A row that no longer unmarshals is corrupted state, not a lookup miss.
	if err := json.Unmarshal([]byte(checklist), &a.Checklist); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal checklist: %v", common.ErrorInternal, err)
	}
	if err := json.Unmarshal([]byte(responses), &a.Responses); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal responses: %v", common.ErrorInternal, err)
	}
	if driveFolder != "" || drivePhotos != "" {
		a.Drive = &models.DriveResources{FolderID: driveFolder, PhotosFolderID: drivePhotos}
	}
	if syncResult.Valid {
		a.SyncResult = json.RawMessage(syncResult.String)
	}
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	a.UpdatedAt = time.Unix(0, updatedAt).UTC()
	if syncedAt.Valid {
		t := time.Unix(0, syncedAt.Int64).UTC()
		a.SyncedAt = &t
	}
	return a, nil
}
