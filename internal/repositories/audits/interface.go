package audits

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/auditflow/internal/models"
)

// Repository describes CRUD and query operations for Audit records.
// Implementations are typically backed by a local SQLite database.
type Repository interface {
	// Insert persists a new audit.
	Insert(ctx context.Context, audit *models.Audit) error

	// GetByID returns an audit by its identifier, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Audit, error)

	// Update replaces every mutable column of the audit row identified by
	// audit.ID. Returns common.ErrorNotFound if the row is absent.
	Update(ctx context.Context, audit *models.Audit) error

	// GetAll returns all audits, most recently updated first.
	GetAll(ctx context.Context) ([]*models.Audit, error)

	// GetAllPending returns audits awaiting submission (status completed).
	GetAllPending(ctx context.Context) ([]*models.Audit, error)

	// MarkSynced records a successful submission. Calling it again for an
	// already synced audit is a no-op.
	MarkSynced(ctx context.Context, id string, result json.RawMessage) error

	// DeleteByID removes the audit row. Photo cleanup is handled one
	// level up by the store.
	DeleteByID(ctx context.Context, id string) error
}
