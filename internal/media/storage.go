// Package media stores uploaded images and videos and serves their public
// URLs. Backends: S3-compatible object storage (including Backblaze B2) and
// the local filesystem.
package media

import (
	"context"
	"fmt"
	"io"

	"github.com/skillsenselab/skillloop/internal/config"
)

// Storage is the contract a media backend implements.
type Storage interface {
	// Upload writes data from reader to the given path.
	Upload(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Delete removes the object at the given path. Missing objects are not
	// an error.
	Delete(ctx context.Context, path string) error

	// Exists checks whether an object exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// URL returns the public URL for the object at the given path.
	URL(path string) string
}

// NewStorage builds the backend selected by cfg.Provider.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	case "local":
		return NewLocalStorage(cfg.Local)
	default:
		return nil, fmt.Errorf("media: unknown storage provider: %s", cfg.Provider)
	}
}
