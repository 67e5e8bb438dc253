package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists objects onto the local filesystem, one subdirectory per
// bucket. It is intended for development and test environments where an S3
// service is not available; cmd/api serves the root under /static so derived
// URLs resolve.
type FileStore struct {
	basePath string
	baseURL  string
}

// NewFileStore initializes a FileStore rooted at basePath. baseURL is the
// externally visible prefix public URLs are derived from.
func NewFileStore(basePath, baseURL string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	return s.basePath
}

// Upload writes the object under <base>/<bucket>/<path>. Keys are cleaned to
// prevent directory traversal. The content type is recorded by the caller's
// asset row, not on disk.
func (s *FileStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := sanitizeKey(bucket, path)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("storage: write file: %w", err)
	}
	return nil
}

// PublicURL derives the fetchable URL for an object.
func (s *FileStore) PublicURL(bucket, path string) string {
	key, err := sanitizeKey(bucket, path)
	if err != nil {
		return ""
	}
	return s.baseURL + "/" + key
}

// sanitizeKey joins bucket and path and rejects anything escaping the root.
func sanitizeKey(bucket, path string) (string, error) {
	bucket = strings.Trim(strings.TrimSpace(bucket), "/")
	path = strings.TrimSpace(path)
	if bucket == "" || path == "" {
		return "", errors.New("storage: bucket and path are required")
	}
	key := bucket + "/" + strings.TrimLeft(strings.ReplaceAll(path, "\\", "/"), "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "../") || !strings.HasPrefix(cleaned, bucket+"/") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

var _ ObjectStore = (*FileStore)(nil)
