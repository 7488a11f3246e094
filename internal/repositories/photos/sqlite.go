package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
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

const photoColumns = `id, audit_id, item_id, filename, blob, status,
	remote_file_id, remote_link, retry_count, last_error, blob_cleared,
	created_at, updated_at`

func (r *SQLiteRepository) Insert(ctx context.Context, p *models.Photo) error {
	query := `INSERT INTO photos (` + photoColumns + `)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.AuditID, p.ItemID, p.Filename, p.Blob, string(p.Status),
		p.RemoteFileID, p.RemoteLink, p.RetryCount, p.LastError, p.BlobCleared,
		p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `select ` + photoColumns + ` from photos where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	p, err := scanPhoto(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("photo %s: %w", id, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("failed to select photo: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, p *models.Photo) error {
	query := `update photos set item_id=?, filename=?, blob=?, status=?,
			remote_file_id=?, remote_link=?, retry_count=?, last_error=?,
			blob_cleared=?, updated_at=? where id=?`
	res, err := r.db.ExecContext(ctx, query,
		p.ItemID, p.Filename, p.Blob, string(p.Status),
		p.RemoteFileID, p.RemoteLink, p.RetryCount, p.LastError,
		p.BlobCleared, p.UpdatedAt.UnixNano(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("photo %s: %w", p.ID, common.ErrorNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetByAuditID(ctx context.Context, auditID string, statuses ...models.PhotoStatus) ([]*models.Photo, error) {
	query := `select ` + photoColumns + ` from photos where audit_id=?`
	args := []any{auditID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += ` and status in (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` order by created_at asc`

	return r.selectPhotos(ctx, query, args...)
}

func (r *SQLiteRepository) GetAllRetryable(ctx context.Context) ([]*models.Photo, error) {
	query := `select ` + prefixed(photoColumns, "p.") + `
			from photos p join audits a on a.id = p.audit_id
			where a.status <> ? and p.status in (?, ?) and p.blob_cleared = 0
			order by p.created_at asc`
	return r.selectPhotos(ctx, query,
		string(models.AuditStatusSynced),
		string(models.PhotoStatusPendingUpload),
		string(models.PhotoStatusFailed))
}

func (r *SQLiteRepository) ClearBlob(ctx context.Context, id string) error {
	query := `update photos set blob=NULL, blob_cleared=1, updated_at=? where id=?`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to clear photo blob: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("photo %s: %w", id, common.ErrorNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from photos where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("photo %s: %w", id, common.ErrorNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByAuditID(ctx context.Context, auditID string) error {
	_, err := r.db.ExecContext(ctx, `delete from photos where audit_id=?`, auditID)
	if err != nil {
		return fmt.Errorf("failed to delete audit photos: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) selectPhotos(ctx context.Context, query string, args ...any) ([]*models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select photos: %w", err)
	}
	defer rows.Close()

	var result []*models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func prefixed(columns, prefix string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

func scanPhoto(scan func(dest ...any) error) (*models.Photo, error) {
	p := &models.Photo{}
	var status string
	var blob []byte
	var createdAt, updatedAt int64

	err := scan(&p.ID, &p.AuditID, &p.ItemID, &p.Filename, &blob, &status,
		&p.RemoteFileID, &p.RemoteLink, &p.RetryCount, &p.LastError, &p.BlobCleared,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Blob = blob
	p.Status = models.PhotoStatus(status)
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	p.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return p, nil
}
