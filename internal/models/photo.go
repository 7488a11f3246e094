package models

import "time"

// PhotoStatus tracks the background-upload state of one captured photo.
type PhotoStatus string

const (
	PhotoStatusPendingUpload PhotoStatus = "pending_upload"
	PhotoStatusUploading     PhotoStatus = "uploading"
	PhotoStatusUploaded      PhotoStatus = "uploaded"
	PhotoStatusFailed        PhotoStatus = "failed"
)

// Photo is one captured image attached to a checklist item. The blob is
// retained after a successful upload until the owning audit is synced, so
// a failed submission can still rebuild its payload from local data.
type Photo struct {
	// ID is a globally unique identifier for the photo.
	ID string

	// AuditID references the owning audit. Deleting the audit deletes
	// its photos.
	AuditID string

	// ItemID is the checklist item the photo attaches to.
	ItemID string

	Filename string

	// Blob holds the image bytes. Empty once the blob has been purged.
	Blob []byte

	Status PhotoStatus

	// RemoteFileID and RemoteLink are set only once Status == uploaded.
	RemoteFileID string
	RemoteLink   string

	RetryCount  int
	LastError   string
	BlobCleared bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRemoteRef reports whether the photo carries a durable remote reference.
func (p *Photo) HasRemoteRef() bool {
	return p.RemoteFileID != ""
}

// HasBlob reports whether the image bytes are still held locally.
func (p *Photo) HasBlob() bool {
	return len(p.Blob) > 0
}
