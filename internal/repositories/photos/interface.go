package photos

import (
	"context"

	"github.com/dmitrijs2005/auditflow/internal/models"
)

// Repository describes CRUD and query operations for Photo records.
type Repository interface {
	// Insert persists a new photo.
	Insert(ctx context.Context, photo *models.Photo) error

	// GetByID returns a photo by its identifier, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Photo, error)

	// Update replaces every mutable column of the photo row identified by
	// photo.ID. Returns common.ErrorNotFound if the row is absent.
	Update(ctx context.Context, photo *models.Photo) error

	// GetByAuditID returns the audit's photos in capture order, optionally
	// filtered to the given statuses.
	GetByAuditID(ctx context.Context, auditID string, statuses ...models.PhotoStatus) ([]*models.Photo, error)

	// GetAllRetryable returns photos of not-yet-synced audits that are in
	// status pending_upload or failed and still hold a blob. Used by the
	// reconnect sweep.
	GetAllRetryable(ctx context.Context) ([]*models.Photo, error)

	// ClearBlob drops the image bytes and marks the photo blob-cleared.
	// Irreversible for that blob.
	ClearBlob(ctx context.Context, id string) error

	// DeleteByID removes a single photo row.
	DeleteByID(ctx context.Context, id string) error

	// DeleteByAuditID removes every photo of the audit (cascade).
	DeleteByAuditID(ctx context.Context, auditID string) error
}
