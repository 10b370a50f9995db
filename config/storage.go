package config

import "sync"

const (
	StorageProviderMinio = "minio"
	StorageProviderS3    = "s3"
)

var (
	storageOnce   sync.Once
	storageConfig *StorageConfig
)

type StorageConfig struct {
	Provider        string
	MaxUploadSizeMB int
	RetentionDays   int
}

func GetStorageConfig() *StorageConfig {
	storageOnce.Do(func() {
		loadEnv()
		storageConfig = &StorageConfig{
			Provider:        getenv("STORAGE_PROVIDER", StorageProviderMinio),
			MaxUploadSizeMB: getenvInt("UPLOAD_MAX_SIZE_MB", 50),
			RetentionDays:   getenvInt("UPLOAD_RETENTION_DAYS", 90),
		}
	})
	return storageConfig
}

// MaxUploadSizeBytes is the request-level cap enforced before any
// upload is accepted.
func (c *StorageConfig) MaxUploadSizeBytes() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}
