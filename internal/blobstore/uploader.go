// Package blobstore abstracts the remote blob-transfer capability used
// for photo uploads. Two backends are provided: S3-compatible object
// storage (presigned PUT) and Supabase Storage.
package blobstore

import "context"

// Ref is the opaque remote reference returned once a blob is durably
// stored: an object identifier plus a retrievable link.
type Ref struct {
	FileID string
	Link   string
}

// Uploader transfers one blob to remote storage. The target hint is an
// opaque location prefix (e.g. the audit's photos folder) the backend may
// use to place the object.
type Uploader interface {
	Upload(ctx context.Context, blob []byte, filename, targetHint string) (*Ref, error)
}
