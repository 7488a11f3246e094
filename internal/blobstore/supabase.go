package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

// SupabaseUploader stores blobs in a Supabase Storage bucket.
type SupabaseUploader struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewSupabaseUploader(supabaseURL, serviceRoleKey, bucket string) *SupabaseUploader {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &SupabaseUploader{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}
}

func (u *SupabaseUploader) Upload(ctx context.Context, blob []byte, filename, targetHint string) (*Ref, error) {
	prefix := targetHint
	if prefix == "" {
		prefix = "audits"
	}
	storagePath := path.Join(prefix, fmt.Sprintf("%v_%s", uuid.New(), filename))

	contentType := "image/jpeg"
	upsert := true
	_, err := u.client.UploadFile(u.bucket, storagePath, bytes.NewReader(blob), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		u.baseURL, u.bucket, storagePath)

	return &Ref{FileID: storagePath, Link: publicURL}, nil
}
