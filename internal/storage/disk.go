package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore stores blobs under a single uploads directory on local disk.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &DiskStore{root: trimmed}, nil
}

// Root returns the directory the store writes into, for static serving.
func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cleaned, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cleaned, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return filepath.Base(cleaned), nil
}

func (s *DiskStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cleaned, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(cleaned); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", path, err)
	}
	return nil
}

func (s *DiskStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	cleaned, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(cleaned); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// resolve confines a blob name to the uploads directory.
func (s *DiskStore) resolve(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(s.root, base), nil
}
