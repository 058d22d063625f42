package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DiskStore persists snapshots under a fixed per-install directory
// (default ~/.deskmesh/snapshots). Save returns the absolute file path so
// model clients that upload files can read the snapshot back. Writing the
// same artifact id again overwrites the previous file.
type DiskStore struct {
	root string
	mu   sync.Mutex
}

// DefaultSnapshotDir returns the per-install snapshot directory.
func DefaultSnapshotDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".deskmesh", "snapshots"), nil
}

// NewDiskStore creates the store rooted at dir, creating it if necessary.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &DiskStore{root: dir}, nil
}

// Save writes the snapshot bytes and returns the absolute file path.
func (d *DiskStore) Save(sessionID, artifactID string, data []byte) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dir := filepath.Join(d.root, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating session directory: %w", err)
	}
	path := filepath.Join(dir, artifactID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return path, nil
}

// Get reads the snapshot bytes back or returns ErrNotFound.
func (d *DiskStore) Get(sessionID, artifactID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.root, sessionID, artifactID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// List returns the snapshot ids stored for the session.
func (d *DiskStore) List(sessionID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.root, sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Purge removes the session's snapshot directory.
func (d *DiskStore) Purge(sessionID string) error {
	return os.RemoveAll(filepath.Join(d.root, sessionID))
}
