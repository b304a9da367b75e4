package storage

import "context"

// FileStore is the blob storage port for photo evidence. Paths are the
// store-relative names embedded in persisted photo URLs.
type FileStore interface {
	// Save writes a blob and returns its store-relative path.
	Save(ctx context.Context, name string, data []byte) (string, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}
