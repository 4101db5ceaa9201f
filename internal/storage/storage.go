package storage

import (
	"context"
	"errors"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrNotConfigured is returned when no bucket has been configured.
var ErrNotConfigured = errors.New("object storage is not configured")

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// PutObject writes body under objectKey, replacing any existing object.
	PutObject(ctx context.Context, objectKey, contentType string, body []byte) error

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
}

// disabledStorage is used when the s3 section is empty.
type disabledStorage struct{}

// NewDisabledStorage returns a FileStorage whose operations all fail with
// ErrNotConfigured.
func NewDisabledStorage() FileStorage { return disabledStorage{} }

func (disabledStorage) PutObject(context.Context, string, string, []byte) error {
	return ErrNotConfigured
}

func (disabledStorage) GeneratePresignedDownloadURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}
