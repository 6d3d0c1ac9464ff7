package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillsenselab/skillloop/internal/config"
)

// LocalStorage stores media on the local filesystem, for development and
// single-node deployments.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a local media backend rooted at cfg.BasePath.
func NewLocalStorage(cfg config.LocalConfig) (*LocalStorage, error) {
	abs, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("media: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("media: create base directory: %w", err)
	}
	return &LocalStorage{
		basePath: abs,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// Upload writes data to a local file.
func (s *LocalStorage) Upload(_ context.Context, path string, reader io.Reader, _ string) error {
	fullPath := filepath.Join(s.basePath, filepath.Clean(path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("media: create directory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("media: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("media: write file: %w", err)
	}
	return nil
}

// Delete removes a local file. Missing files are not an error.
func (s *LocalStorage) Delete(_ context.Context, path string) error {
	fullPath := filepath.Join(s.basePath, filepath.Clean(path))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("media: delete file: %w", err)
	}
	return nil
}

// Exists checks whether a local file exists.
func (s *LocalStorage) Exists(_ context.Context, path string) (bool, error) {
	fullPath := filepath.Join(s.basePath, filepath.Clean(path))
	_, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("media: stat file: %w", err)
	}
	return true, nil
}

// URL returns the serving URL for a local file.
func (s *LocalStorage) URL(path string) string {
	return s.baseURL + "/" + path
}

var _ Storage = (*LocalStorage)(nil)
