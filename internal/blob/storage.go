// Package blob abstracts image storage. Local disk is the default backend;
// S3-compatible object storage is used when BLOB_STORAGE_TYPE=s3.
package blob

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

type UploadResult struct {
	URL      string
	Filename string
}

type Storage interface {
	Upload(ctx context.Context, data []byte, filename, mimeType string) (*UploadResult, error)
	Download(ctx context.Context, url string) ([]byte, error)
	Delete(ctx context.Context, url string) error
}

// NewFromEnv selects the storage backend from BLOB_STORAGE_TYPE.
func NewFromEnv(ctx context.Context) (Storage, error) {
	switch strings.ToLower(os.Getenv("BLOB_STORAGE_TYPE")) {
	case "s3":
		return NewS3Storage(ctx)
	case "", "local":
		dir := os.Getenv("BLOB_LOCAL_DIR")
		if dir == "" {
			dir = "uploads"
		}
		return NewLocalStorage(dir)
	default:
		return nil, fmt.Errorf("unknown BLOB_STORAGE_TYPE %q", os.Getenv("BLOB_STORAGE_TYPE"))
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// storedName builds a unique, filesystem-safe object name.
func storedName(filename string) string {
	base := unsafeFilenameChars.ReplaceAllString(filepath.Base(filename), "_")
	if base == "" || base == "." {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), base)
}

type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, data []byte, filename, mimeType string) (*UploadResult, error) {
	name := storedName(filename)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	slog.Debug("stored blob locally", "path", path, "size", len(data))
	return &UploadResult{URL: "/uploads/" + name, Filename: name}, nil
}

func (s *LocalStorage) Download(ctx context.Context, url string) ([]byte, error) {
	name := filepath.Base(strings.TrimPrefix(url, "/uploads/"))
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return data, nil
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	name := filepath.Base(strings.TrimPrefix(url, "/uploads/"))
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return nil
}
