package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FilesystemStore writes rendered evidence-card bodies under a root
// directory. It backs the exporter's BlobStore boundary; paths are dictated
// by the caller and only joined, never invented, here.
type FilesystemStore struct {
	root   string
	logger *zap.Logger
}

// NewFilesystemStore creates a card store rooted at dir, creating the
// directory if needed.
func NewFilesystemStore(dir string, logger *zap.Logger) (*FilesystemStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FilesystemStore{root: dir, logger: logger}, nil
}

// Put writes data at path relative to the store root and returns the final
// location.
func (s *FilesystemStore) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage path %q escapes the store root", path)
	}

	full := filepath.Join(s.root, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create card directory: %w", err)
	}

	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write card body: %w", err)
	}

	s.logger.Debug("card body stored",
		zap.String("path", full),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)))

	return full, nil
}
