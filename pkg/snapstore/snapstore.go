// Package snapstore reads and writes snapshot files on the local filesystem
// or in S3.
package snapstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors.
var (
	ErrNotFound        = errors.New("snapshot not found")
	ErrInvalidLocation = errors.New("invalid snapshot location")
)

const (
	s3Scheme = "s3://"
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store reads and writes one snapshot location.
type Store interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Location() string
}

// Options configures the S3 backend.
type Options struct {
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool

	// S3Client overrides the client built from the AWS default config.
	S3Client S3API
}

// Open returns the store for location: "s3://bucket/key" or a file path.
func Open(ctx context.Context, location string, opts Options) (Store, error) {
	if !IsS3(location) {
		if strings.TrimSpace(location) == "" {
			return nil, fmt.Errorf("%w: empty path", ErrInvalidLocation)
		}

		return NewFileStore(location), nil
	}

	bucket, key, err := ParseS3URL(location)
	if err != nil {
		return nil, err
	}

	client := opts.S3Client
	if client == nil {
		client, err = NewS3Client(ctx, opts)
		if err != nil {
			return nil, err
		}
	}

	return NewS3Store(client, bucket, key), nil
}

// IsS3 reports whether location is an S3 URL.
func IsS3(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// ParseS3URL splits "s3://bucket/key" into its parts.
func ParseS3URL(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not an s3:// URL", ErrInvalidLocation, location)
	}

	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %q must name a bucket and an object key", ErrInvalidLocation, location)
	}

	return bucket, key, nil
}

// FileStore keeps a snapshot in a local file.
type FileStore struct {
	path string
}

// NewFileStore returns a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Location returns the file path.
func (s *FileStore) Location() string {
	return s.path
}

// Read returns the file content.
func (s *FileStore) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	return data, nil
}

// Write replaces the file content, creating parent directories.
func (s *FileStore) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)

	mkdirErr := os.MkdirAll(dir, dirPerm)
	if mkdirErr != nil {
		return fmt.Errorf("create %s: %w", dir, mkdirErr)
	}

	writeErr := os.WriteFile(s.path, data, filePerm)
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", s.path, writeErr)
	}

	return nil
}
