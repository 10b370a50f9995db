package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/edustack/content-engine/config"
	"github.com/edustack/content-engine/pkg/logger"
	"github.com/edustack/content-engine/pkg/storage/minio"
	"github.com/edustack/content-engine/pkg/storage/s3"
)

// Storage holds raw upload bytes between ingestion and worker-side
// processing.
type Storage interface {
	// Store writes the object and returns its key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get opens the object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// ObjectKey builds the canonical key for an upload, keeping the
// original file extension for kind detection on reprocess.
func ObjectKey(id uuid.UUID, filename string) string {
	return "uploads/" + id.String() + path.Ext(filename)
}

// New picks the configured backend.
func New(provider string, log logger.Logger) (Storage, error) {
	switch provider {
	case config.StorageProviderS3:
		return s3.GetClient(log)
	case config.StorageProviderMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
}
